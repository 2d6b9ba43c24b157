package logsvc

import (
	"fmt"
	"log"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
)

// RollbarLogger prints to a std logger and reports to Rollbar once enabled.
// Debug messages are dropped outside of debug mode.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// extra reports the payment records found in args as Rollbar custom data.
// The first teacher becomes the Rollbar person.
func (l RollbarLogger) extra(msg string, args []interface{}) []interface{} {
	var personSet bool
	extras := make([]interface{}, 0, len(args)+1)
	extras = append(extras, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case teacher.Teacher:
			if !personSet {
				rollbar.SetPerson(a.ID, a.Name, a.Email)
				personSet = true
			}
		case payment.Receipt:
			extras = append(extras, map[string]interface{}{
				"receipt_id": a.ID,
				"teacher_id": a.TeacherID,
				"amount":     a.Amount.String(),
				"method":     string(a.Method),
				"reference":  a.Reference,
			})
		case payment.Request:
			extras = append(extras, map[string]interface{}{
				"teacher_id": a.TeacherID,
				"amount":     a.Amount.String(),
				"method":     string(a.Method),
			})
		default:
			extras = append(extras, arg)
		}
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return extras
}

// format renders one line: `LEVEL msg | arg | arg`. Teachers are shortened to their ID.
func format(level, msg string, args []interface{}) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(level))
	b.WriteString(" ")
	b.WriteString(msg)
	for _, arg := range args {
		b.WriteString(" | ")
		switch a := arg.(type) {
		case teacher.Teacher:
			b.WriteString("teacher=" + a.ID)
		case payment.Receipt:
			b.WriteString("receipt=" + a.ID + " ref=" + a.Reference)
		default:
			_, _ = fmt.Fprintf(&b, "%+v", arg)
		}
	}
	return b.String()
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	if level == rollbar.DEBUG && !l.debug {
		return
	}
	rollbar.Log(level, l.extra(msg, args)...)
	l.std.Println(format(level, msg, args))
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
