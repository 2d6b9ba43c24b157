package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	t.Run("test defaults", func(t *testing.T) {
		t.Setenv("ENV", "test")
		conf := NewConfig()

		assert.Equal(t, "TEST", conf.Env)
		assert.True(t, conf.TestMode)
		assert.False(t, conf.Seed)
		assert.Equal(t, "USD", conf.Payment.Currency)
		assert.Zero(t, conf.Payment.CommitDelay)
		assert.Equal(t, 10*time.Second, conf.Payment.CommitTimeout)
		assert.Equal(t, ":8000", conf.Server.Host)
		assert.Equal(t, 30*time.Minute, conf.Payment.SessionMaxAge)
		assert.Equal(t, "@every 5m", conf.Payment.SessionPruneSchedule)
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("ENV", "qa")
		t.Setenv("QA_PAYMENT_CURRENCY", "INR")
		t.Setenv("QA_PAYMENT_COMMITTIMEOUT", "3s")
		t.Setenv("QA_DEBUG", "false")
		conf := NewConfig()

		assert.Equal(t, "QA", conf.Env)
		assert.False(t, conf.TestMode)
		assert.False(t, conf.Debug)
		assert.Equal(t, "INR", conf.Payment.Currency)
		assert.Equal(t, 3*time.Second, conf.Payment.CommitTimeout)
	})
}

func TestConfig_DefaultFromEmail(t *testing.T) {
	conf := Config{AppName: "Roster", defaultFromEmail: "Roster <hello@roster.io>"}
	assert.Equal(t, "hello@roster.io", conf.DefaultFromEmail().Address)

	conf.defaultFromEmail = "not an address"
	addr := conf.DefaultFromEmail()
	assert.Equal(t, "Roster", addr.Name)
	assert.Equal(t, "noreply@localhost", addr.Address)
}
