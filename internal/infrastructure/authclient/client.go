// Package authclient is the gateway side of the auth port: it calls the BFF
// /auth endpoints and maps responses and error envelopes back into domain
// values.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
)

const defaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Client overrides the HTTP client; Timeout is ignored when set.
	Client *http.Client
	Log    zerolog.Logger
}

// Client implements ports.AuthService against a remote BFF.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var _ ports.AuthService = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("authclient: base url is required")
	}
	hc := cfg.Client
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, http: hc, log: cfg.Log}, nil
}

type tokenKey struct{}

// WithAccessToken returns a context whose calls carry token as a bearer
// credential.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// AccessToken returns the bearer token stored by WithAccessToken.
func AccessToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func (c *Client) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.NewValidationError("Email and password are required", nil).
			WithI18nKey("missing_credentials")
	}

	var out ports.LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	if out.Account == nil || out.Session.Token == "" {
		return nil, domain.NewUnknownError("Malformed login response", nil).WithI18nKey("server_error")
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, accountCode, email, password string) (*domain.Account, error) {
	if strings.TrimSpace(accountCode) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.NewValidationError("Account code, email, and password are required", nil).
			WithI18nKey("missing_fields")
	}

	var out struct {
		Account *domain.Account `json:"account"`
	}
	body := map[string]string{"accountCode": accountCode, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &out); err != nil {
		return nil, err
	}
	return out.Account, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*ports.ForgotPasswordResult, error) {
	if strings.TrimSpace(email) == "" {
		return nil, domain.NewValidationError("Email is required", nil).WithI18nKey("missing_email")
	}

	var out ports.ForgotPasswordResult
	if err := c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUserRole requires a bearer token on ctx (see WithAccessToken).
func (c *Client) UpdateUserRole(ctx context.Context, userID string, role domain.Role) (*domain.Account, error) {
	if strings.TrimSpace(userID) == "" || role == "" {
		return nil, domain.NewValidationError("User ID and role are required", nil).
			WithI18nKey("missing_fields")
	}

	var out struct {
		Account *domain.Account `json:"account"`
	}
	body := map[string]string{"userId": userID, "role": string(role)}
	if err := c.do(ctx, http.MethodPatch, "/auth/roles", body, &out); err != nil {
		return nil, err
	}
	return out.Account, nil
}

// Me returns the payload of the bearer token on ctx as verified by the BFF.
func (c *Client) Me(ctx context.Context) (*domain.TokenPayload, error) {
	var out domain.TokenPayload
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout asks the BFF to revoke the bearer token on ctx.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return domain.NewInternalServerError("Failed to encode request", nil).WithCause(err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return domain.NewInternalServerError("Failed to build request", nil).WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := AccessToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("bff request failed")
		return domain.NewUnknownError("No response from server", nil).
			WithI18nKey("network_error").
			WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewUnknownError("Malformed response from server", nil).
			WithI18nKey("server_error").
			WithCause(err)
	}
	return nil
}

// decodeError rebuilds the BFF error envelope. A body that is not an envelope
// falls back to the code for the response status.
func decodeError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		if appErr, decodeErr := domain.FromJSON(data); decodeErr == nil {
			return appErr
		}
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return domain.NewError(domain.CodeForStatus(resp.StatusCode), msg, map[string]any{
		"statusCode": resp.StatusCode,
	}).WithI18nKey("server_error").WithCause(fmt.Errorf("bff status %d", resp.StatusCode))
}
