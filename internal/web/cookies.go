package web

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/piar/backoffice/internal/core/domain"
)

const localeCookieMaxAge = 365 * 24 * 60 * 60

// Cookies names the gateway cookies. The session cookie carries only the
// opaque session id.
type Cookies struct {
	Session string
	Locale  string
	Secure  bool
}

func (ck Cookies) setSession(c echo.Context, sess domain.WebSession, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     ck.Session,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   ck.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (ck Cookies) clearSession(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     ck.Session,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   ck.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (ck Cookies) setLocale(c echo.Context, locale string) {
	if existing, err := c.Cookie(ck.Locale); err == nil && existing.Value == locale {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     ck.Locale,
		Value:    locale,
		Path:     "/",
		MaxAge:   localeCookieMaxAge,
		Secure:   ck.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
