package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core"
)

var (
	orderingParam = "ordering"
	sinceParam    = "since"

	errInvalidSince = errors.New("since must be a non-negative integer")
)

type Ordering struct {
	Orderings []core.Ordering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	if val := ctx.QueryParam(orderingParam); val != "" {
		ord.Orderings = core.ParseOrderings(val)
	}
}

// bindSince reads the `since` version of a changeset request; it defaults to 0.
func bindSince(ctx echo.Context) (uint64, error) {
	val := ctx.QueryParam(sinceParam)
	if val == "" {
		return 0, nil
	}
	since, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, core.NewValidationError(
			errInvalidSince,
			core.FieldError{Field: sinceParam, Error: errInvalidSince.Error()},
		)
	}
	return since, nil
}
