package dig_container

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/roster/apps/api/echo"
	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
	disbursesvc "github.com/trezcool/roster/services/disburse"
	emailsvc "github.com/trezcool/roster/services/email"
	logsvc "github.com/trezcool/roster/services/logger"
	receiptsvc "github.com/trezcool/roster/services/receipt"
	inmemdb "github.com/trezcool/roster/storage/database/inmem"
)

type PaymentLoggerParam struct {
	dig.In
	Logger core.Logger `name:"paymentLogger"`
}

type PaymentDepsParam struct {
	dig.In
	Conf        *core.Config
	LoggerParam PaymentLoggerParam
	TeacherSvc  teacher.Service
	Validator   *payment.Validator
	Disburser   payment.Disburser
	Receipts    payment.ReceiptRepository
	Notifier    payment.Notifier
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newPaymentLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "PAYMENT : ", log.LstdFlags|log.Lmicroseconds)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newPaymentDeps(p PaymentDepsParam) payment.Deps {
	return payment.Deps{
		Teachers:      p.TeacherSvc,
		Validator:     p.Validator,
		Disburser:     p.Disburser,
		Receipts:      p.Receipts,
		Notifier:      p.Notifier,
		Logger:        p.LoggerParam.Logger,
		Currency:      p.Conf.Payment.Currency,
		CommitTimeout: p.Conf.Payment.CommitTimeout,
	}
}

func newServerDeps(
	teacherSvc teacher.Service,
	registry *payment.Registry,
	receipts payment.ReceiptRepository,
) *echoapi.Deps {
	return &echoapi.Deps{
		TeacherSvc: teacherSvc,
		Payments:   registry,
		Receipts:   receipts,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newPaymentLogger, dig.Name("paymentLogger")))
	must(c.Provide(inmemdb.Open))
	must(c.Provide(inmemdb.NewTeacherRepository))
	must(c.Provide(inmemdb.NewReceiptRepository))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(teacher.NewService))
	must(c.Provide(payment.NewValidator))
	must(c.Provide(disbursesvc.NewSimulated, dig.As(new(payment.Disburser))))
	must(c.Provide(receiptsvc.NewEmailNotifier))
	must(c.Provide(newPaymentDeps))
	must(c.Provide(payment.NewRegistry))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
