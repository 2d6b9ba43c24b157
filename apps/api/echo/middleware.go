package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
)

const (
	ctxTeacherKey = "teacher"
	ctxSessionKey = "session"
)

var (
	errTeacherNotFoundInCtx = errors.New("teacher object not found in echo.Context")
	errSessionNotFoundInCtx = errors.New("payment session not found in echo.Context")
)

// ctxTeacherMiddleware loads the teacher identified by the `:id` path param into the context.
func ctxTeacherMiddleware(svc teacher.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			t, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == teacher.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding teacher by ID")
			}
			ctx.Set(ctxTeacherKey, t)
			return next(ctx)
		}
	}
}

// ctxSessionMiddleware loads the payment workflow identified by the `:sid` path param into the context.
func ctxSessionMiddleware(registry *payment.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			wf, err := registry.Get(ctx.Param("sid"))
			if err != nil {
				return err
			}
			ctx.Set(ctxSessionKey, wf)
			return next(ctx)
		}
	}
}

func getContextTeacher(ctx echo.Context) (teacher.Teacher, error) {
	t, ok := ctx.Get(ctxTeacherKey).(teacher.Teacher)
	if !ok {
		return teacher.Teacher{}, errors.Wrap(errTeacherNotFoundInCtx, "retrieving object from context")
	}
	return t, nil
}

func getContextSession(ctx echo.Context) (*payment.Workflow, error) {
	wf, ok := ctx.Get(ctxSessionKey).(*payment.Workflow)
	if !ok {
		return nil, errors.Wrap(errSessionNotFoundInCtx, "retrieving session from context")
	}
	return wf, nil
}
