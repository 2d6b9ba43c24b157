package echoapi

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core/payment"
	"github.com/trezcool/roster/services/receipt"
)

type receiptApi struct {
	repo    payment.ReceiptRepository
	appName string
}

func registerReceiptAPI(g *echo.Group, repo payment.ReceiptRepository, appName string) {
	api := receiptApi{repo: repo, appName: appName}

	rg := g.Group("/receipts/:rid")
	rg.GET("", api.retrieve)
	rg.GET("/pdf", api.download)
}

func (api *receiptApi) retrieve(ctx echo.Context) error {
	r, err := api.repo.GetReceiptByID(ctx.Request().Context(), ctx.Param("rid"))
	if err != nil {
		return errors.Wrap(err, "finding receipt by ID")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *receiptApi) download(ctx echo.Context) error {
	r, err := api.repo.GetReceiptByID(ctx.Request().Context(), ctx.Param("rid"))
	if err != nil {
		return errors.Wrap(err, "finding receipt by ID")
	}

	var buf bytes.Buffer
	if err := receiptsvc.Render(&buf, r, api.appName); err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+receiptsvc.Filename(r)+`"`)
	return ctx.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}
