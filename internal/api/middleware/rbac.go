package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/piar/backoffice/internal/metrics"
	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/policy"
)

// RBAC enforces the route policy. It must run after Auth: the caller's role
// comes from the payload Auth put in the context.
func RBAC(p *policy.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			payload, authenticated := Payload(c)

			var role domain.Role
			if authenticated {
				role = payload.Role
			}

			decision := p.Decide(req.Method, req.URL.Path, role, authenticated)
			metrics.GateDecisionsTotal.WithLabelValues("bff", decision.String()).Inc()

			switch decision {
			case policy.DenyUnauthenticated:
				return domain.NewUnauthorizedError("")
			case policy.DenyForbidden:
				return domain.NewForbiddenError("")
			}
			return next(c)
		}
	}
}

// PublicSkipper skips the bearer guard for routes the policy marks public.
func PublicSkipper(p *policy.Policy) func(echo.Context) bool {
	return func(c echo.Context) bool {
		return p.IsPublic(c.Request().Method, c.Request().URL.Path)
	}
}
