package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	PaymentConfig struct {
		Currency      string
		CommitDelay   time.Duration // simulated disbursement latency
		CommitTimeout time.Duration
		FailureRate   float64 // 0..1, simulated transient failures

		SessionMaxAge        time.Duration
		SessionPruneSchedule string // cron spec, eg. "@every 5m"
	}

	Config struct {
		Env      string
		Build    string
		AppName  string
		Debug    bool
		TestMode bool
		Seed     bool

		Server  ServerConfig
		Payment PaymentConfig

		RollbarToken   string
		SendgridApiKey string

		defaultFromEmail string
	}
)

// NewConfig loads the configuration from the environment (and the optional `.env.<env>` file).
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "Masomo Roster")
	conf.SetDefault("seed", true)
	conf.SetDefault("defaultFromEmail", "Masomo Roster <noreply@localhost>")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("server.host", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("payment.currency", "USD")
	conf.SetDefault("payment.commitDelay", 1500*time.Millisecond)
	conf.SetDefault("payment.commitTimeout", 10*time.Second)
	conf.SetDefault("payment.failureRate", 0.0)
	conf.SetDefault("payment.sessionMaxAge", 30*time.Minute)
	conf.SetDefault("payment.sessionPruneSchedule", "@every 5m")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		conf.SetDefault("testMode", true)
		conf.SetDefault("seed", false)
		conf.SetDefault("payment.commitDelay", time.Duration(0))
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:      env,
		Build:    conf.GetString("build"),
		AppName:  conf.GetString("appName"),
		Debug:    conf.GetBool("debug"),
		TestMode: conf.GetBool("testMode"),
		Seed:     conf.GetBool("seed"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Payment: PaymentConfig{
			Currency:      conf.GetString("payment.currency"),
			CommitDelay:   conf.GetDuration("payment.commitDelay"),
			CommitTimeout: conf.GetDuration("payment.commitTimeout"),
			FailureRate:   conf.GetFloat64("payment.failureRate"),

			SessionMaxAge:        conf.GetDuration("payment.sessionMaxAge"),
			SessionPruneSchedule: conf.GetString("payment.sessionPruneSchedule"),
		},
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		defaultFromEmail: conf.GetString("defaultFromEmail"),
	}
}

// DefaultFromEmail parses the configured sender; falls back to a bare noreply address.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	return *addr
}
