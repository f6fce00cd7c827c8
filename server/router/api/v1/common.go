package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fablehall/fablehall/server/service/derived"
	"github.com/fablehall/fablehall/server/service/publication"
)

func pathID(c echo.Context, name string) (int32, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return int32(id), nil
}

func pageParams(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("pageSize"))
	return page, derived.ClampPageSize(pageSize)
}

// writeError maps domain errors onto HTTP responses. Validation and guard
// rejections carry their detail to the caller; store failures stay generic.
func writeError(c echo.Context, err error) error {
	var validation *publication.ValidationError
	if errors.As(err, &validation) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":   "validation failed",
			"missing": validation.Missing,
		})
	}
	var conflict *publication.ConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusConflict, map[string]string{"error": conflict.Message})
	}
	var guard *publication.DateGuardError
	if errors.As(err, &guard) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": guard.Reason})
	}
	if errors.Is(err, publication.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	slog.Error("request failed", slog.String("path", c.Path()), slog.String("error", err.Error()))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
