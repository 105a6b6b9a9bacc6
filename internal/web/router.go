package web

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/piar/backoffice/internal/api"
	"github.com/piar/backoffice/internal/core/policy"
	"github.com/piar/backoffice/internal/core/ports"
	httpinfra "github.com/piar/backoffice/internal/infrastructure/http"
	"github.com/piar/backoffice/internal/infrastructure/http/handlers"
)

// Deps are the collaborators of the backoffice gateway.
type Deps struct {
	Log        zerolog.Logger
	Auth       AuthClient
	Sessions   ports.WebSessionStore
	Locales    *Locales
	Cookies    Cookies
	SessionTTL time.Duration
	// Policy defaults to policy.Default().
	Policy     *policy.Policy
	Checks     map[string]handlers.Check
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds the gateway Echo instance. Every page and form route lives
// under /:locale and sits behind the gate.
func NewRouter(d Deps) *echo.Echo {
	if d.Policy == nil {
		d.Policy = policy.Default()
	}

	e := httpinfra.NewRouter(httpinfra.Options{
		Service:    "backoffice",
		Log:        d.Log,
		Checks:     d.Checks,
		Registerer: d.Registerer,
		Gatherer:   d.Gatherer,
	})
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(d.Log)

	e.Use(Gate(GateConfig{
		Policy:   d.Policy,
		Locales:  d.Locales,
		Sessions: d.Sessions,
		Cookies:  d.Cookies,
		Log:      d.Log,
	}))

	pages := NewPages(d.Auth, d.Sessions, d.Cookies, d.SessionTTL, d.Log)

	l := e.Group("/:locale")
	l.GET("", localized(pages.Show("home")))
	l.GET("/", localized(pages.Show("home")))
	l.GET("/login", localized(pages.Show("login")))
	l.POST("/login", localized(pages.Login))
	l.GET("/register", localized(pages.Show("register")))
	l.POST("/register", localized(pages.Register))
	l.GET("/forgot-password", localized(pages.Show("forgot-password")))
	l.POST("/forgot-password", localized(pages.ForgotPassword))
	l.GET("/unauthorized", localized(pages.Show("unauthorized")))
	l.POST("/logout", localized(pages.Logout))
	l.GET("/dashboard", localized(pages.Show("dashboard")))
	l.POST("/dashboard/roles", localized(pages.UpdateRole))

	return e
}

// localized answers 404 when the gate resolved no locale for the request, so
// paths it skips (static files) never reach a page handler.
func localized(h echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Locale(c) == "" {
			return echo.ErrNotFound
		}
		return h(c)
	}
}
