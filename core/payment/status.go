package payment

import (
	"math"
	"strings"
	"time"

	"github.com/trezcool/roster/core/teacher"
)

type Status string

// Derived statuses
const (
	StatusPaid    Status = "paid"
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
)

// StatusInfo holds the payment facts derived from a teacher record.
type StatusInfo struct {
	Status               Status     `json:"status"`
	IsPaidThisMonth      bool       `json:"is_paid_this_month"`
	DaysSinceLastPayment int        `json:"days_since_last_payment"`
	LastPaymentDate      *time.Time `json:"last_payment_date"`
}

// Derive computes the payment facts of t at `now`.
// The status is the stored one; dates never change it.
func Derive(t teacher.Teacher, now time.Time) StatusInfo {
	info := StatusInfo{Status: Status(strings.ToLower(string(t.PaymentStatus)))}
	now = now.UTC()

	ref, ok := t.LastPayment()
	if ok {
		last := ref.UTC()
		info.LastPaymentDate = &last
		info.IsPaidThisMonth = last.Year() == now.Year() && last.Month() == now.Month()
	} else {
		ref, ok = t.Joined()
	}
	if ok {
		info.DaysSinceLastPayment = int(math.Floor(now.Sub(ref).Hours() / 24))
	}
	return info
}
