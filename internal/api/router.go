package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/piar/backoffice/docs"
	"github.com/piar/backoffice/internal/api/handler"
	"github.com/piar/backoffice/internal/api/middleware"
	"github.com/piar/backoffice/internal/core/policy"
	"github.com/piar/backoffice/internal/core/ports"
	httpinfra "github.com/piar/backoffice/internal/infrastructure/http"
	"github.com/piar/backoffice/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the BFF router wires into its handlers.
type Deps struct {
	Log         zerolog.Logger
	AuthService ports.AuthService
	Tokens      ports.TokenService
	// Policy defaults to policy.Default().
	Policy     *policy.Policy
	Checks     map[string]handlers.Check
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Swagger    bool
}

// NewRouter builds and returns the BFF Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Policy == nil {
		d.Policy = policy.Default()
	}

	e := httpinfra.NewRouter(httpinfra.Options{
		Service:    "bff",
		Log:        d.Log,
		Checks:     d.Checks,
		Registerer: d.Registerer,
		Gatherer:   d.Gatherer,
	})
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	// --- Auth routes ---
	// The bearer guard skips what the policy marks public; RBAC then applies
	// the same policy to everything else.
	authHandler := handler.NewAuthHandler(d.AuthService, d.Tokens)
	auth := e.Group("/auth",
		middleware.AuthWithConfig(middleware.AuthConfig{
			Tokens:  d.Tokens,
			Skipper: middleware.PublicSkipper(d.Policy),
		}),
		middleware.RBAC(d.Policy),
	)
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.PATCH("/roles", authHandler.UpdateRole)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me)

	if d.Swagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}
