package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
)

type paymentApi struct {
	registry *payment.Registry
}

func registerPaymentAPI(g *echo.Group, teacherSvc teacher.Service, registry *payment.Registry) {
	api := paymentApi{registry: registry}

	g.POST("/teachers/:id/payments", api.start, ctxTeacherMiddleware(teacherSvc))

	sg := g.Group("/payments/:sid", ctxSessionMiddleware(registry))
	sg.GET("", api.retrieve)
	sg.DELETE("", api.discard)
	sg.PUT("/method", api.selectMethod)
	sg.POST("/validate", api.validate)
	sg.POST("/submit", api.submit)
	sg.GET("/summary", api.summary)
	sg.POST("/confirm", api.confirm)
	sg.POST("/cancel", api.cancel)
}

type (
	MethodRequest struct {
		Method payment.Method `json:"method"`
	}

	MethodResponse struct {
		Selected bool             `json:"selected"`
		Session  payment.Snapshot `json:"session"`
	}

	SubmitResponse struct {
		Result  payment.Result  `json:"result"`
		Summary payment.Summary `json:"summary"`
	}
)

// Handlers

func (api *paymentApi) start(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	wf, err := api.registry.Start(ctx.Request().Context(), t.ID)
	if err != nil {
		return errors.Wrap(err, "starting payment session")
	}
	snap, err := wf.Snapshot(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reading payment session")
	}
	return ctx.JSON(http.StatusCreated, snap)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	wf, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	snap, err := wf.Snapshot(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reading payment session")
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *paymentApi) discard(ctx echo.Context) error {
	if err := api.registry.Discard(ctx.Param("sid")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// selectMethod is a no-op when the method is not available: `selected` is false then.
func (api *paymentApi) selectMethod(ctx echo.Context) error {
	wf, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data MethodRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MethodRequest")
	}

	selected, err := wf.SelectMethod(ctx.Request().Context(), data.Method)
	if err != nil {
		return errors.Wrap(err, "selecting payment method")
	}
	snap, err := wf.Snapshot(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reading payment session")
	}
	return ctx.JSON(http.StatusOK, MethodResponse{Selected: selected, Session: snap})
}

// validate is the live validation of the form as typed; it always answers 200 with the Result.
func (api *paymentApi) validate(ctx echo.Context) error {
	wf, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var form payment.Form
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to payment.Form")
	}

	res, err := wf.Validate(ctx.Request().Context(), form)
	if err != nil {
		return errors.Wrap(err, "validating payment")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *paymentApi) submit(ctx echo.Context) error {
	wf, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var form payment.Form
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to payment.Form")
	}

	res, err := wf.Submit(ctx.Request().Context(), form)
	if err != nil {
		return errors.Wrap(err, "submitting payment")
	}
	summary, err := wf.Summary(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "summarizing payment")
	}
	return ctx.JSON(http.StatusOK, SubmitResponse{Result: res, Summary: summary})
}

func (api *paymentApi) summary(ctx echo.Context) error {
	wf, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	summary, err := wf.Summary(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "summarizing payment")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *paymentApi) confirm(ctx echo.Context) error {
	wf, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	receipt, err := wf.Confirm(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "confirming payment")
	}
	return ctx.JSON(http.StatusOK, receipt)
}

func (api *paymentApi) cancel(ctx echo.Context) error {
	wf, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if err := wf.Cancel(); err != nil {
		return errors.Wrap(err, "cancelling payment")
	}
	snap, err := wf.Snapshot(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reading payment session")
	}
	return ctx.JSON(http.StatusOK, snap)
}
