package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/piar/backoffice/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Renders every error, typed or not, as the domain error envelope.
//   - Maps Echo's own errors (bind failures, router 404/405) to the code whose
//     table status is closest, so statusCode always matches code.
//   - Wraps anything else into INTERNAL_SERVER_ERROR, keeping the original
//     type and message in details and logging the cause.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr := resolveError(err).WithPath(c.Request().URL.Path)
		status := appErr.StatusCode()

		evt := log.Debug()
		if status >= http.StatusInternalServerError {
			evt = log.Error()
		}
		evt.Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Str("code", string(appErr.Code())).
			Int("status", status).
			Msg("request failed")

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, appErr.ToJSON())
	}
}

func resolveError(err error) *domain.Error {
	var appErr *domain.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Message != nil {
			msg = fmt.Sprintf("%v", he.Message)
		}
		return domain.NewError(domain.CodeForStatus(he.Code), msg, nil).WithCause(err)
	}

	return domain.FromError(err, domain.CodeInternalServerError)
}
