package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	dig_container "github.com/trezcool/roster/apps/api/di/dig"
	echoapi "github.com/trezcool/roster/apps/api/echo"
	"github.com/trezcool/roster/assets"
	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
)

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		validate *validator.Validate,
		translator ut.Translator,
		teacherSvc teacher.Service,
		registry *payment.Registry,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
		defer apiLogger.Info("Application stopped")

		core.InitValidators(validate, translator)
		teacher.InitValidators(validate, translator)
		payment.InitValidators(validate, translator)

		core.ParseEmailTemplates(assets.FS, assets.TemplatesDir, apiLogger)

		if conf.Seed {
			seedTeachers(teacherSvc, apiLogger)
		}

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.Publish("teachers_version", expvar.Func(func() interface{} {
			return teacherSvc.Version(context.Background())
		}))
		expvar.Publish("payment_sessions", expvar.Func(func() interface{} {
			return registry.Len()
		}))

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Prune idle payment sessions

		scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
		if _, err := scheduler.AddFunc(conf.Payment.SessionPruneSchedule, func() {
			pruneSessions(registry, conf.Payment.SessionMaxAge, apiLogger)
		}); err != nil {
			apiLogger.Fatal(fmt.Sprintf("scheduling session pruning: %v", err), err)
		}
		scheduler.Start()
		defer scheduler.Stop()

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func seedTeachers(svc teacher.Service, logger core.Logger) {
	teachers, err := assets.SeedTeachers()
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading seed data: %v", err), err)
	}
	created, err := svc.Import(context.Background(), teachers...)
	if err != nil {
		logger.Fatal(fmt.Sprintf("seeding teachers: %v", err), err)
	}
	logger.Info(fmt.Sprintf("%d teachers loaded", len(created)))
}

// pruneSessions forgets the payment sessions idle for longer than maxAge.
func pruneSessions(registry *payment.Registry, maxAge time.Duration, logger core.Logger) {
	if n := registry.Prune(maxAge); n > 0 {
		logger.Debug(fmt.Sprintf("%d idle payment sessions pruned", n))
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
