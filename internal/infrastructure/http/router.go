package http

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	apimiddleware "github.com/piar/backoffice/internal/api/middleware"
	"github.com/piar/backoffice/internal/infrastructure/http/handlers"
)

// Options configures the base Echo instance shared by both servers.
type Options struct {
	// Service names the process in logs, metrics and the liveness body.
	Service string
	Log     zerolog.Logger
	// Checks are the readiness probes keyed by dependency name.
	Checks map[string]handlers.Check
	// Registerer and Gatherer enable HTTP metrics and GET /metrics. Leave nil
	// to run without them (tests build many routers in one process).
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds the Echo instance with global middleware and the
// operational endpoints registered. Callers add their own routes on top.
func NewRouter(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// --- Global middleware ---
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(apimiddleware.RequestLogger(opts.Log))

	if opts.Registerer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:                 strings.ReplaceAll(opts.Service, "-", "_"),
			Registerer:                opts.Registerer,
			DoNotUseRequestPathFor404: true,
			Skipper:                   operationalPath,
		}))
		gatherer := opts.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	}

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler(opts.Service)
	healthDepsHandler := handlers.NewHealthDependenciesHandler(opts.Checks)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}

func operationalPath(c echo.Context) bool {
	return IsOperationalPath(c.Request().URL.Path)
}

// IsOperationalPath reports whether path is served by NewRouter itself.
func IsOperationalPath(path string) bool {
	return path == "/metrics" || path == "/health" || strings.HasPrefix(path, "/health/")
}
