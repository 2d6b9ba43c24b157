package disbursesvc

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/payment"
)

func TestSimulated_SubmitPayment(t *testing.T) {
	req := payment.Request{
		TeacherID:   "t-1",
		Amount:      decimal.NewFromInt(5000),
		Note:        "May",
		Method:      payment.MethodBank,
		Destination: "1234567890",
	}
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name      string
		sim       Simulated
		ctx       context.Context
		req       payment.Request
		wantErr   error
		wantAnErr bool
	}{
		{name: "settles", sim: Simulated{Currency: "USD"}, ctx: context.Background(), req: req},
		{name: "settles after the delay", sim: Simulated{Currency: "USD", Delay: 5 * time.Millisecond}, ctx: context.Background(), req: req},
		{name: "no destination", sim: Simulated{}, ctx: context.Background(), req: payment.Request{Amount: req.Amount}, wantAnErr: true},
		{name: "cancelled", sim: Simulated{}, ctx: cancelled, req: req, wantErr: context.Canceled},
		{name: "cancelled while waiting", sim: Simulated{Delay: time.Hour}, ctx: cancelled, req: req, wantErr: context.Canceled},
		{name: "failure", sim: Simulated{FailFunc: AlwaysFail(ErrTransient)}, ctx: context.Background(), req: req, wantErr: ErrTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.sim.SubmitPayment(tt.ctx, tt.req)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantAnErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.NotEmpty(t, r.ID)
				assert.True(t, strings.HasPrefix(r.Reference, "SIM-"))
				assert.Len(t, r.Reference, len("SIM-")+8)
				assert.Equal(t, "USD", r.Currency)
				assert.True(t, req.Amount.Equal(r.Amount))
				assert.Equal(t, req.Method, r.Method)
				assert.False(t, r.SettledAt.IsZero())
			}
		})
	}
}

func TestRandomFailure(t *testing.T) {
	assert.Nil(t, RandomFailure(0))
	assert.Nil(t, RandomFailure(-1))

	always := RandomFailure(1)
	for i := 0; i < 10; i++ {
		assert.Equal(t, ErrTransient, always(payment.Request{}))
	}
}

func TestNewSimulated(t *testing.T) {
	sim := NewSimulated(&core.Config{Payment: core.PaymentConfig{Currency: "INR", CommitDelay: time.Second}})
	assert.Equal(t, "INR", sim.Currency)
	assert.Equal(t, time.Second, sim.Delay)
	assert.Nil(t, sim.FailFunc)
}
