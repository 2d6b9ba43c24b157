package testutil

import (
	"testing"

	"github.com/trezcool/roster/apps/api/echo"
	"github.com/trezcool/roster/assets"
	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
	"github.com/trezcool/roster/services/disburse"
	"github.com/trezcool/roster/services/email"
	"github.com/trezcool/roster/services/receipt"
	"github.com/trezcool/roster/storage/database/inmem"
)

// App is the API wired on a fresh in-memory DB, with an instant disburser and the mocked email service.
type App struct {
	Server      *echoapi.Server
	TeacherRepo teacher.Repository
	ReceiptRepo payment.ReceiptRepository
	Disburser   *disbursesvc.Simulated
	Registry    *payment.Registry
}

func NewApp(t *testing.T) *App {
	conf := NewConfig()
	logger := NewLogger(conf)
	validate, translator := NewValidator()
	core.ParseEmailTemplates(assets.FS, assets.TemplatesDir, logger)

	// set up DB & repos
	db := inmemdb.Open()
	app := &App{
		TeacherRepo: inmemdb.NewTeacherRepository(db),
		ReceiptRepo: inmemdb.NewReceiptRepository(db),
		Disburser:   &disbursesvc.Simulated{Currency: conf.Payment.Currency},
	}

	// set up services
	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	teacherSvc := teacher.NewService(app.TeacherRepo)
	app.Registry = payment.NewRegistry(payment.Deps{
		Teachers:      teacherSvc,
		Validator:     payment.NewValidator(validate, translator),
		Disburser:     app.Disburser,
		Receipts:      app.ReceiptRepo,
		Notifier:      receiptsvc.NewEmailNotifier(conf, mailSvc, logger),
		Logger:        logger,
		Currency:      conf.Payment.Currency,
		CommitTimeout: conf.Payment.CommitTimeout,
	})

	// set up server
	app.Server = echoapi.NewServer(conf, logger, validate, translator, &echoapi.Deps{
		TeacherSvc: teacherSvc,
		Payments:   app.Registry,
		Receipts:   app.ReceiptRepo,
	})
	t.Cleanup(func() { _ = app.Server.Close() })
	return app
}
