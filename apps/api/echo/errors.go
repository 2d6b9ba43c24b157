package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
)

var (
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = core.TranslateErrors(origErr, translator)
		case *core.ValidationError:
			code = http.StatusBadRequest
			if origErr.Fields != nil {
				message = fieldErrorsMap(origErr.Fields)
			} else {
				message = origErr.Error()
			}
		case *payment.CommitError:
			code = http.StatusBadGateway
			message = origErr.Error()
		default:
			switch cause {
			case teacher.ErrNotFound, payment.ErrSessionNotFound, payment.ErrReceiptNotFound:
				code = http.StatusNotFound
				message = cause.Error()
			case payment.ErrInvalidTransition, payment.ErrAlreadyPaid, payment.ErrWorkflowSettled:
				code = http.StatusConflict
				message = cause.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				args := []interface{}{errors.Wrap(err, msg)}
				if t, ok := ctx.Get(ctxTeacherKey).(teacher.Teacher); ok {
					args = append(args, t)
				}
				logger.Error(msg, args...)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// fieldErrorsMap maps each field to its message; a field with several messages maps to the list.
func fieldErrorsMap(flds []core.FieldError) map[string]interface{} {
	fldErrs := make(map[string]interface{}, len(flds))
	for _, fErr := range flds {
		switch prev := fldErrs[fErr.Field].(type) {
		case nil:
			fldErrs[fErr.Field] = fErr.Error
		case string:
			fldErrs[fErr.Field] = []string{prev, fErr.Error}
		case []string:
			fldErrs[fErr.Field] = append(prev, fErr.Error)
		}
	}
	return fldErrs
}
