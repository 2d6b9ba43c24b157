package echoapi

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/core/teacher"
)

var nowFunc = time.Now

type teacherApi struct {
	svc        teacher.Service
	receipts   payment.ReceiptRepository
	validate   *validator.Validate
	translator ut.Translator
}

func registerTeacherAPI(
	g *echo.Group,
	svc teacher.Service,
	receipts payment.ReceiptRepository,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := teacherApi{
		svc:        svc,
		receipts:   receipts,
		validate:   validate,
		translator: translator,
	}

	tg := g.Group("/teachers")
	tg.POST("", api.create)
	tg.GET("", api.query)
	tg.GET("/changes", api.changes)

	// detail endpoints
	dg := tg.Group("/:id", ctxTeacherMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.PUT("/payment-status", api.setPaymentStatus)
	dg.GET("/receipts", api.queryReceipts)
}

type (
	// TeacherResponse is a Teacher along with its derived payment info.
	TeacherResponse struct {
		teacher.Teacher
		Payment payment.StatusInfo `json:"payment"`
		Methods []payment.Method   `json:"available_methods"`
	}

	PaymentStatusRequest struct {
		Status          string `json:"status" validate:"required"`
		LastPaymentDate string `json:"last_payment_date"`
	}

	ChangesResponse struct {
		Version uint64           `json:"version"`
		Changes []teacher.Change `json:"changes"`
	}
)

func newTeacherResponse(t teacher.Teacher, now time.Time) TeacherResponse {
	return TeacherResponse{
		Teacher: t,
		Payment: payment.Derive(t, now),
		Methods: payment.SelectorFor(t).Available(),
	}
}

// Handlers

func (api *teacherApi) create(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate, api.translator, api.svc); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, newTeacherResponse(t, nowFunc()))
}

func (api *teacherApi) query(ctx echo.Context) error {
	filter := new(teacher.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []TeacherResponse{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	teachers, err := api.svc.QueryAll(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}

	now := nowFunc()
	res := make([]TeacherResponse, 0, len(teachers))
	for _, t := range teachers {
		res = append(res, newTeacherResponse(t, now))
	}
	return ctx.JSON(http.StatusOK, res)
}

// changes lets clients keep in sync with the store: it lists the changes applied after `since`.
func (api *teacherApi) changes(ctx echo.Context) error {
	since, err := bindSince(ctx)
	if err != nil {
		return err
	}
	changes, version := api.svc.Changes(ctx.Request().Context(), since)
	if changes == nil {
		changes = []teacher.Change{}
	}
	return ctx.JSON(http.StatusOK, ChangesResponse{Version: version, Changes: changes})
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newTeacherResponse(t, nowFunc()))
}

func (api *teacherApi) update(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data teacher.UpdateTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	if err := data.Validate(api.validate, api.translator, t, api.svc); err != nil {
		return err
	}

	t, err = api.svc.Update(ctx.Request().Context(), t.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, newTeacherResponse(t, nowFunc()))
}

func (api *teacherApi) setPaymentStatus(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data PaymentStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentStatusRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	status, ok := teacher.ParsePaymentStatus(data.Status)
	if !ok {
		return core.NewValidationError(
			teacher.ErrInvalidStatus,
			core.FieldError{Field: "status", Error: teacher.ErrInvalidStatus.Error()},
		)
	}

	t, err = api.svc.SetPaymentStatus(ctx.Request().Context(), t.ID, status, data.LastPaymentDate)
	if err != nil {
		return errors.Wrap(err, "setting payment status")
	}
	return ctx.JSON(http.StatusOK, newTeacherResponse(t, nowFunc()))
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), t.ID); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) queryReceipts(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	receipts, err := api.receipts.QueryTeacherReceipts(ctx.Request().Context(), t.ID)
	if err != nil {
		return errors.Wrap(err, "querying receipts")
	}
	if receipts == nil {
		receipts = []payment.Receipt{}
	}
	return ctx.JSON(http.StatusOK, receipts)
}

func (pr *PaymentStatusRequest) Validate(validate *validator.Validate) error {
	pr.Status = core.CleanString(pr.Status)
	pr.LastPaymentDate = core.CleanString(pr.LastPaymentDate)
	return validate.Struct(pr)
}
