package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/roster/core/teacher"
)

var (
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrReceiptExists   = errors.New("a receipt with this ID already exists")
)

type Method string

// Payment methods
const (
	MethodNone Method = ""
	MethodBank Method = "bank"
	MethodUPI  Method = "upi"
)

func (m Method) Label() string {
	switch m {
	case MethodBank:
		return "Bank Transfer"
	case MethodUPI:
		return "UPI"
	}
	return "None"
}

// Attempt is a validated payment waiting for confirmation.
type Attempt struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
	Method Method          `json:"method"`
}

// Receipt is the proof of a settled payment.
type Receipt struct {
	ID          string          `json:"id"`
	TeacherID   string          `json:"teacher_id"`
	TeacherName string          `json:"teacher_name"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Note        string          `json:"note"`
	Method      Method          `json:"method"`
	Reference   string          `json:"reference"`
	SettledAt   time.Time       `json:"settled_at"` // UTC
}

// Request is what a Disburser needs to move the money.
type Request struct {
	TeacherID string
	Amount    decimal.Decimal
	Note      string
	Method    Method
	// Destination is the account number or UPI ID the money goes to.
	Destination string
}

type (
	// Disburser is the seam where a payment processor attaches.
	Disburser interface {
		SubmitPayment(ctx context.Context, req Request) (Receipt, error)
	}

	// Notifier is told about every settled payment.
	Notifier interface {
		PaymentSettled(t teacher.Teacher, r Receipt)
	}

	ReceiptRepository interface {
		CreateReceipt(ctx context.Context, r Receipt) (Receipt, error)
		GetReceiptByID(ctx context.Context, id string) (Receipt, error)
		// QueryTeacherReceipts returns the receipts of a teacher, most recent first.
		QueryTeacherReceipts(ctx context.Context, teacherID string) ([]Receipt, error)
	}
)

// RawAmount is the amount as entered: a JSON number or a JSON string.
type RawAmount string

func (a *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = RawAmount(s)
	default:
		*a = RawAmount(data)
	}
	return nil
}

// Form is the payment form as submitted.
type Form struct {
	Amount RawAmount `json:"amount" validate:"required,amountnumber,amountmin,amountmax"`
	Note   string    `json:"note" validate:"notemax"`
}

// Result is the outcome of a validation run.
type Result struct {
	Errors      []string          `json:"errors"`
	FieldErrors map[string]string `json:"field_errors"`
	IsValid     bool              `json:"is_valid"`
	Attempt     *Attempt          `json:"attempt,omitempty"`
}

// Summary is the read-only recap shown before confirmation.
type Summary struct {
	TeacherID    string          `json:"teacher_id"`
	TeacherName  string          `json:"teacher_name"`
	TeacherEmail string          `json:"teacher_email"`
	Subject      string          `json:"subject"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note"`
	Method       Method          `json:"method"`
	MethodLabel  string          `json:"method_label"`
	Destination  string          `json:"destination"`
	Warning      string          `json:"warning"`
}
