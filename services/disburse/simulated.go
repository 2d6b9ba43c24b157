package disbursesvc

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/payment"
)

var ErrTransient = errors.New("payment processor temporarily unavailable, please try again")

// FailFunc decides whether a disbursement fails.
type FailFunc func(req payment.Request) error

// Simulated pretends to move money: it waits for a fixed delay then settles, unless FailFunc says otherwise.
type Simulated struct {
	Delay    time.Duration
	Currency string
	FailFunc FailFunc
}

var _ payment.Disburser = (*Simulated)(nil)

// NewSimulated returns a Simulated disburser driven by the payment config.
func NewSimulated(conf *core.Config) *Simulated {
	return &Simulated{
		Delay:    conf.Payment.CommitDelay,
		Currency: conf.Payment.Currency,
		FailFunc: RandomFailure(conf.Payment.FailureRate),
	}
}

func (s *Simulated) SubmitPayment(ctx context.Context, req payment.Request) (payment.Receipt, error) {
	if req.Destination == "" {
		return payment.Receipt{}, errors.New("no destination account")
	}

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return payment.Receipt{}, errors.Wrap(ctx.Err(), "waiting for payment processor")
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return payment.Receipt{}, errors.Wrap(err, "waiting for payment processor")
	}

	if s.FailFunc != nil {
		if err := s.FailFunc(req); err != nil {
			return payment.Receipt{}, err
		}
	}

	return payment.Receipt{
		ID:        uuid.NewString(),
		TeacherID: req.TeacherID,
		Amount:    req.Amount,
		Currency:  s.Currency,
		Note:      req.Note,
		Method:    req.Method,
		Reference: "SIM-" + strings.ToUpper(uuid.NewString()[:8]),
		SettledAt: time.Now().UTC(),
	}, nil
}

// RandomFailure fails with probability rate (0 never fails, 1 always does).
func RandomFailure(rate float64) FailFunc {
	if rate <= 0 {
		return nil
	}
	var mu sync.Mutex
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func(payment.Request) error {
		mu.Lock()
		defer mu.Unlock()
		if rnd.Float64() < rate {
			return ErrTransient
		}
		return nil
	}
}

// AlwaysFail fails every disbursement with err.
func AlwaysFail(err error) FailFunc {
	return func(payment.Request) error { return err }
}
