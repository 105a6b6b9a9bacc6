package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/piar/backoffice/internal/metrics"
	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextKeyPayload = "auth.payload"
	ContextKeyToken   = "auth.token"
)

// AuthConfig configures the bearer guard.
type AuthConfig struct {
	Tokens ports.TokenService
	// Skipper lets public routes through without a token.
	Skipper echomiddleware.Skipper
}

// Auth verifies the bearer token on every request and injects the decoded
// payload into the context.
func Auth(tokens ports.TokenService) echo.MiddlewareFunc {
	return AuthWithConfig(AuthConfig{Tokens: tokens})
}

// AuthWithConfig is Auth with a skipper.
func AuthWithConfig(cfg AuthConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			token, err := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				metrics.GateDecisionsTotal.WithLabelValues("bff", "unauthenticated").Inc()
				return err
			}

			payload, err := cfg.Tokens.Verify(c.Request().Context(), token)
			if err != nil {
				metrics.GateDecisionsTotal.WithLabelValues("bff", "unauthenticated").Inc()
				return err
			}

			c.Set(ContextKeyPayload, payload)
			c.Set(ContextKeyToken, token)

			return next(c)
		}
	}
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is case-insensitive; anything but exactly "Bearer <token>" is rejected.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", domain.NewUnauthorizedError("Missing authorization header")
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", domain.NewUnauthorizedError("Invalid authorization header")
	}
	return token, nil
}

// Payload returns the verified token payload set by Auth.
func Payload(c echo.Context) (*domain.TokenPayload, bool) {
	p, ok := c.Get(ContextKeyPayload).(*domain.TokenPayload)
	return p, ok && p != nil
}
