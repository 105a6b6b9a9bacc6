package web

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/piar/backoffice/internal/metrics"
	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/policy"
	"github.com/piar/backoffice/internal/core/ports"
	httpinfra "github.com/piar/backoffice/internal/infrastructure/http"
)

// Context keys set by the gate.
const (
	ContextKeyLocale  = "web.locale"
	ContextKeySession = "web.session"
)

// GateConfig configures the page gate.
type GateConfig struct {
	Policy   *policy.Policy
	Locales  *Locales
	Sessions ports.WebSessionStore
	Cookies  Cookies
	Log      zerolog.Logger
}

// Gate runs in front of every page and form route. It resolves the locale,
// loads the web session and applies the route policy:
//
//   - no locale prefix: redirect to the prefixed path
//   - no session on a protected path: redirect to login with a callbackUrl
//   - session on a page that sends signed-in users away: redirect to the dashboard
//   - session without the required role: redirect to the unauthorized page
//
// API, static and operational paths pass through untouched.
func Gate(cfg GateConfig) echo.MiddlewareFunc {
	if cfg.Policy == nil {
		cfg.Policy = policy.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if skipGate(req.URL.Path) {
				return next(c)
			}

			locale, rest, prefixed := cfg.Locales.FromPath(req.URL.Path)
			if !prefixed {
				locale = cfg.Locales.Resolve(req)
				if req.Method == http.MethodGet || req.Method == http.MethodHead {
					record("locale")
					return c.Redirect(http.StatusFound, withQuery(localePath(locale, req.URL.Path), req.URL.RawQuery))
				}
			} else {
				cfg.Cookies.setLocale(c, locale)
			}
			c.Set(ContextKeyLocale, locale)

			sess, err := loadSession(c, cfg)
			if err != nil {
				return err
			}

			rule := cfg.Policy.Match(req.Method, rest)
			if sess == nil {
				if rule.Public {
					record(policy.Allow.String())
					return next(c)
				}
				record(policy.DenyUnauthenticated.String())
				return c.Redirect(http.StatusFound, LoginURL(locale, req.URL.RequestURI()))
			}

			c.Set(ContextKeySession, sess)
			if rule.RedirectAuthenticated {
				record("signed_in")
				return c.Redirect(http.StatusFound, localePath(locale, "/dashboard"))
			}

			decision := rule.Decide(sess.Role, true)
			record(decision.String())
			if decision == policy.DenyForbidden {
				return c.Redirect(http.StatusFound, localePath(locale, "/unauthorized"))
			}
			return next(c)
		}
	}
}

// loadSession returns nil when the cookie is absent or points to no session.
// A stale cookie is cleared.
func loadSession(c echo.Context, cfg GateConfig) (*domain.WebSession, error) {
	cookie, err := c.Cookie(cfg.Cookies.Session)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	sess, err := cfg.Sessions.Get(c.Request().Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			cfg.Cookies.clearSession(c)
			return nil, nil
		}
		cfg.Log.Error().Err(err).Msg("session lookup failed")
		return nil, domain.NewInternalServerError("Session lookup failed", nil).WithCause(err)
	}
	return &sess, nil
}

func record(decision string) {
	metrics.GateDecisionsTotal.WithLabelValues("web", decision).Inc()
}

func skipGate(p string) bool {
	if p == "/api" || strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/swagger/") {
		return true
	}
	if httpinfra.IsOperationalPath(p) {
		return true
	}
	return strings.Contains(path.Base(p), ".")
}

// LoginURL is the login page of locale, remembering where to go back to.
func LoginURL(locale, callback string) string {
	q := url.Values{}
	q.Set("callbackUrl", callback)
	return localePath(locale, "/login") + "?" + q.Encode()
}

func localePath(locale, p string) string {
	if p == "" || p == "/" {
		return "/" + locale
	}
	return "/" + locale + p
}

func withQuery(p, rawQuery string) string {
	if rawQuery == "" {
		return p
	}
	return p + "?" + rawQuery
}

// SafeCallback returns callback when it is a same-site absolute path, and
// fallback otherwise.
func SafeCallback(callback, fallback string) string {
	if !strings.HasPrefix(callback, "/") || strings.HasPrefix(callback, "//") || strings.HasPrefix(callback, "/\\") {
		return fallback
	}
	u, err := url.Parse(callback)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return callback
}

// Locale returns the locale resolved by the gate.
func Locale(c echo.Context) string {
	l, _ := c.Get(ContextKeyLocale).(string)
	return l
}

// Session returns the web session loaded by the gate, if any.
func Session(c echo.Context) (*domain.WebSession, bool) {
	s, ok := c.Get(ContextKeySession).(*domain.WebSession)
	return s, ok && s != nil
}
