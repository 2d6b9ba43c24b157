package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
)

func TestRollbarLogger(t *testing.T) {
	tchr := teacher.Teacher{ID: "t-1", Name: "John Doe"}
	receipt := payment.Receipt{ID: "r-1", Reference: "SIM-1"}

	tests := []struct {
		name  string
		debug bool
		log   func(l *RollbarLogger)
		want  string
	}{
		{name: "debug dropped", log: func(l *RollbarLogger) { l.Debug("hidden") }},
		{name: "debug", debug: true, log: func(l *RollbarLogger) { l.Debug("shown") }, want: "DEBUG shown\n"},
		{name: "info", log: func(l *RollbarLogger) { l.Info("started") }, want: "INFO started\n"},
		{
			name: "payment context",
			log:  func(l *RollbarLogger) { l.Warn("payment failed", errors.New("boom"), tchr, receipt) },
			want: "WARNING payment failed | boom | teacher=t-1 | receipt=r-1 ref=SIM-1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST", Debug: tt.debug})
			l.Enable(false)

			tt.log(l)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
