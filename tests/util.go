package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
	"github.com/trezcool/roster/services/logger"
)

// NewConfig returns the configuration used across the test suites.
func NewConfig() *core.Config {
	return &core.Config{
		Env:      "TEST",
		Build:    "test",
		AppName:  "Masomo Roster",
		TestMode: true,
		Server: core.ServerConfig{
			Host:            ":0",
			ShutdownTimeout: time.Second,
		},
		Payment: core.PaymentConfig{
			Currency:      "USD",
			CommitTimeout: time.Second,
		},
	}
}

// NewLogger returns a logger writing nowhere, with rollbar disabled.
func NewLogger(conf *core.Config) core.Logger {
	l := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	l.Enable(false)
	return l
}

// NewValidator returns a validator with every custom tag & translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	teacher.InitValidators(validate, translator)
	payment.InitValidators(validate, translator)
	return validate, translator
}

type TeacherOption func(t *teacher.Teacher)

func WithBank(accountNumber, ifscCode string) TeacherOption {
	return func(t *teacher.Teacher) {
		t.BankDetails = &teacher.BankDetails{
			AccountName:   t.Name,
			AccountNumber: accountNumber,
			IFSCCode:      ifscCode,
			BankName:      "State Bank",
			Branch:        "Main",
		}
	}
}

func WithUPI(upiID string) TeacherOption {
	return func(t *teacher.Teacher) {
		t.UPIDetails = &teacher.UPIDetails{UPIID: upiID}
	}
}

func WithPayment(status teacher.PaymentStatus, lastPaymentDate string) TeacherOption {
	return func(t *teacher.Teacher) {
		t.PaymentStatus = status
		t.LastPaymentDate = lastPaymentDate
	}
}

func WithJoiningDate(date string) TeacherOption {
	return func(t *teacher.Teacher) {
		t.JoiningDate = date
	}
}

func WithCreatedAt(at time.Time) TeacherOption {
	return func(t *teacher.Teacher) {
		t.CreatedAt = at.UTC()
		t.UpdatedAt = at.UTC()
	}
}

// CreateTeacher records a Pending teacher with the given salary; opts are applied before recording.
func CreateTeacher(
	t *testing.T,
	repo teacher.Repository,
	name, email, subject string,
	salary int64,
	opts ...TeacherOption,
) teacher.Teacher {
	now := time.Now().UTC()
	tchr := teacher.Teacher{
		Name:          name,
		Email:         email,
		Subject:       subject,
		Salary:        decimal.NewFromInt(salary),
		PaymentStatus: teacher.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(&tchr)
	}
	tchr, err := repo.CreateTeacher(context.Background(), tchr)
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tchr
}
