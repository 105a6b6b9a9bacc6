package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/piar/backoffice/internal/api/middleware"
	"github.com/piar/backoffice/internal/core/domain"
)

// ctxPayload extracts the token payload injected by the Auth middleware. A
// missing payload means the route was mounted without the guard; reject with 401.
func ctxPayload(c echo.Context) (*domain.TokenPayload, error) {
	payload, ok := middleware.Payload(c)
	if !ok || payload.AccountID == "" {
		return nil, domain.NewUnauthorizedError("Missing authentication claims")
	}
	return payload, nil
}

// ctxToken returns the raw bearer token the Auth middleware verified.
func ctxToken(c echo.Context) (string, error) {
	token, _ := c.Get(middleware.ContextKeyToken).(string)
	if token == "" {
		return "", domain.NewUnauthorizedError("Missing authentication claims")
	}
	return token, nil
}
