package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
	"github.com/piar/backoffice/internal/infrastructure/authclient"
)

// AuthClient is the auth port as seen from the gateway, plus the calls that
// need the caller's bearer token.
type AuthClient interface {
	ports.AuthService
	Logout(ctx context.Context) error
}

// Pages serves the page descriptors and the form posts of the gateway.
type Pages struct {
	auth       AuthClient
	sessions   ports.WebSessionStore
	cookies    Cookies
	sessionTTL time.Duration
	log        zerolog.Logger
	now        func() time.Time
	newID      func() string
}

func NewPages(auth AuthClient, sessions ports.WebSessionStore, cookies Cookies, sessionTTL time.Duration, log zerolog.Logger) *Pages {
	return &Pages{
		auth:       auth,
		sessions:   sessions,
		cookies:    cookies,
		sessionTTL: sessionTTL,
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Page is the JSON descriptor a renderer turns into HTML.
type Page struct {
	Page        string    `json:"page"`
	Locale      string    `json:"locale"`
	User        *PageUser `json:"user,omitempty"`
	CallbackURL string    `json:"callbackUrl,omitempty"`
}

type PageUser struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// FormError is how form failures reach the page: the error code and the
// translation key of the banner to show.
type FormError struct {
	Code       domain.ErrorCode `json:"code"`
	MessageKey string           `json:"messageKey"`
}

// MessageKey maps an error code to its banner key.
func MessageKey(code domain.ErrorCode) string {
	if !code.Valid() || code == domain.CodeUnknown {
		return "errors.generic"
	}
	return "errors." + strings.ToLower(string(code))
}

type loginForm struct {
	Email       string `form:"email" json:"email"`
	Password    string `form:"password" json:"password"`
	CallbackURL string `form:"callbackUrl" json:"callbackUrl"`
}

type registerForm struct {
	AccountCode string `form:"accountCode" json:"accountCode"`
	Email       string `form:"email" json:"email"`
	Password    string `form:"password" json:"password"`
}

type forgotPasswordForm struct {
	Email string `form:"email" json:"email"`
}

type roleForm struct {
	UserID string `form:"userId" json:"userId"`
	Role   string `form:"role" json:"role"`
}

// Show renders the descriptor of a named page.
func (p *Pages) Show(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		page := Page{Page: name, Locale: Locale(c)}
		if sess, ok := Session(c); ok {
			page.User = &PageUser{ID: sess.AccountID, Email: sess.Email, Role: sess.Role}
		}
		if name == "login" {
			page.CallbackURL = SafeCallback(c.QueryParam("callbackUrl"), "")
		}
		return c.JSON(http.StatusOK, page)
	}
}

// Login authenticates through the BFF, stores a web session and redirects to
// the callback or the dashboard.
func (p *Pages) Login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return p.formError(c, domain.NewBadRequestError("Invalid form").WithCause(err))
	}

	ctx := c.Request().Context()
	result, err := p.auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		return p.formError(c, err)
	}

	now := p.now()
	ttl := p.sessionTTL
	if untilExpiry := result.Session.ExpiresAt.Sub(now); untilExpiry < ttl {
		ttl = untilExpiry
	}
	if ttl <= 0 {
		return p.formError(c, domain.NewTokenExpiredError("Issued session is already expired"))
	}

	sess := domain.WebSession{
		ID:          p.newID(),
		AccountID:   result.Account.ID,
		Email:       result.Account.Email,
		Role:        result.Account.Role,
		AccessToken: result.Session.Token,
		ExpiresAt:   now.Add(ttl),
	}
	if err := p.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save web session: %w", err)
	}
	p.cookies.setSession(c, sess, ttl)

	locale := Locale(c)
	p.log.Info().Str("account_id", sess.AccountID).Str("locale", locale).Msg("signed in")
	return c.Redirect(http.StatusFound, SafeCallback(form.CallbackURL, localePath(locale, "/dashboard")))
}

// Register creates an account and sends the user to the login page.
func (p *Pages) Register(c echo.Context) error {
	var form registerForm
	if err := c.Bind(&form); err != nil {
		return p.formError(c, domain.NewBadRequestError("Invalid form").WithCause(err))
	}

	if _, err := p.auth.Register(c.Request().Context(), form.AccountCode, form.Email, form.Password); err != nil {
		return p.formError(c, err)
	}
	return c.Redirect(http.StatusFound, localePath(Locale(c), "/login")+"?registered=1")
}

func (p *Pages) ForgotPassword(c echo.Context) error {
	var form forgotPasswordForm
	if err := c.Bind(&form); err != nil {
		return p.formError(c, domain.NewBadRequestError("Invalid form").WithCause(err))
	}

	result, err := p.auth.ForgotPassword(c.Request().Context(), form.Email)
	if err != nil {
		return p.formError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Logout revokes the access token (best effort), drops the web session and
// clears the cookie.
func (p *Pages) Logout(c echo.Context) error {
	locale := Locale(c)
	sess, ok := Session(c)
	if !ok {
		return c.Redirect(http.StatusFound, localePath(locale, "/login"))
	}

	ctx := c.Request().Context()
	if err := p.auth.Logout(authclient.WithAccessToken(ctx, sess.AccessToken)); err != nil {
		p.log.Warn().Err(err).Str("account_id", sess.AccountID).Msg("token revocation failed")
	}
	if err := p.sessions.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete web session: %w", err)
	}
	p.cookies.clearSession(c)
	return c.Redirect(http.StatusFound, localePath(locale, "/login"))
}

// UpdateRole changes a user's role through the BFF with the session's token.
// A token the BFF no longer accepts ends the session.
func (p *Pages) UpdateRole(c echo.Context) error {
	locale := Locale(c)
	sess, ok := Session(c)
	if !ok {
		return c.Redirect(http.StatusFound, LoginURL(locale, localePath(locale, "/dashboard")))
	}

	var form roleForm
	if err := c.Bind(&form); err != nil {
		return p.formError(c, domain.NewBadRequestError("Invalid form").WithCause(err))
	}

	ctx := authclient.WithAccessToken(c.Request().Context(), sess.AccessToken)
	account, err := p.auth.UpdateUserRole(ctx, form.UserID, domain.Role(strings.ToLower(strings.TrimSpace(form.Role))))
	if err != nil {
		switch domain.CodeOf(err) {
		case domain.CodeTokenExpired, domain.CodeTokenInvalid, domain.CodeUnauthorized:
			if derr := p.sessions.Delete(c.Request().Context(), sess.ID); derr != nil {
				p.log.Warn().Err(derr).Str("account_id", sess.AccountID).Msg("web session delete failed")
			}
			p.cookies.clearSession(c)
			return c.Redirect(http.StatusFound, LoginURL(locale, localePath(locale, "/dashboard")))
		}
		return p.formError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"account": account})
}

// formError answers a failed form post with {code, messageKey}. Non-domain
// failures go to the error handler.
func (p *Pages) formError(c echo.Context, err error) error {
	var appErr *domain.Error
	if !errors.As(err, &appErr) {
		return err
	}
	p.log.Debug().Str("code", string(appErr.Code())).Str("path", c.Path()).Msg("form rejected")
	return c.JSON(appErr.StatusCode(), FormError{Code: appErr.Code(), MessageKey: MessageKey(appErr.Code())})
}
