package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/piar/backoffice/internal/api/middleware"
	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
)

type stubAuthService struct {
	loginFn    func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	registerFn func(ctx context.Context, accountCode, email, password string) (*domain.Account, error)
	forgotFn   func(ctx context.Context, email string) (*ports.ForgotPasswordResult, error)
	roleFn     func(ctx context.Context, userID string, role domain.Role) (*domain.Account, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Register(ctx context.Context, accountCode, email, password string) (*domain.Account, error) {
	return s.registerFn(ctx, accountCode, email, password)
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email string) (*ports.ForgotPasswordResult, error) {
	return s.forgotFn(ctx, email)
}

func (s *stubAuthService) UpdateUserRole(ctx context.Context, userID string, role domain.Role) (*domain.Account, error) {
	return s.roleFn(ctx, userID, role)
}

type stubTokens struct {
	revoked []string
}

func (s *stubTokens) Sign(domain.TokenPayload) (domain.Session, error) { return domain.Session{}, nil }

func (s *stubTokens) Verify(context.Context, string) (*domain.TokenPayload, error) {
	return nil, errors.New("not used")
}

func (s *stubTokens) Revoke(_ context.Context, token string) error {
	s.revoked = append(s.revoked, token)
	return nil
}

func newContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, accountCode, email, password string) (*domain.Account, error) {
			if accountCode != "ACC-1" || email != "a@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s %s", accountCode, email, password)
			}
			return domain.NewAccount("id-1", accountCode, email, "hash", domain.RoleUser, time.Now()), nil
		},
	}
	handler := NewAuthHandler(stub, &stubTokens{})

	c, rec := newContext(http.MethodPost, "/auth/register", `{"accountCode":"ACC-1","email":"a@example.com","password":"secret"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	account, ok := resp["account"].(map[string]any)
	if !ok {
		t.Fatalf("expected account in response")
	}
	if account["accountCode"] != "ACC-1" || account["role"] != "user" {
		t.Fatalf("unexpected account payload: %+v", account)
	}
	if _, leaked := account["passwordHash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}
}

func TestAuthHandler_Register_AlreadyExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, accountCode, email, password string) (*domain.Account, error) {
			return nil, domain.NewResourceAlreadyExistsError("Account", email)
		},
	}
	handler := NewAuthHandler(stub, &stubTokens{})

	c, _ := newContext(http.MethodPost, "/auth/register", `{"accountCode":"ACC-1","email":"a@example.com","password":"x"}`)
	err := handler.Register(c)
	if !domain.HasCode(err, domain.CodeResourceAlreadyExists) {
		t.Fatalf("expected RESOURCE_ALREADY_EXISTS, got %v", err)
	}
}

func TestAuthHandler_Register_ValidationError(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, accountCode, email, password string) (*domain.Account, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, &stubTokens{})

	c, _ := newContext(http.MethodPost, "/auth/register", `{"email":"not-an-email"}`)
	err := handler.Register(c)
	if !domain.HasCode(err, domain.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	var appErr *domain.Error
	errors.As(err, &appErr)
	fields, _ := appErr.Details()["validationErrors"].(map[string][]string)
	for _, f := range []string{"accountCode", "email", "password"} {
		if len(fields[f]) == 0 {
			t.Fatalf("expected field error for %s, got %v", f, fields)
		}
	}
}

func TestAuthHandler_Register_PasswordTooLong(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, accountCode, email, password string) (*domain.Account, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, &stubTokens{})

	body := `{"accountCode":"ACC-L","email":"long@example.com","password":"` + strings.Repeat("a", 73) + `"}`
	c, _ := newContext(http.MethodPost, "/auth/register", body)
	err := handler.Register(c)
	if !domain.HasCode(err, domain.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	var appErr *domain.Error
	errors.As(err, &appErr)
	fields, _ := appErr.Details()["validationErrors"].(map[string][]string)
	if len(fields["password"]) == 0 {
		t.Fatalf("expected password field error, got %v", fields)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, &stubTokens{})

	c, _ := newContext(http.MethodPost, "/auth/register", "not-json")
	if err := handler.Register(c); !domain.HasCode(err, domain.CodeBadRequest) {
		t.Fatalf("expected BAD_REQUEST, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	expires := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.LoginResult{
				Account: domain.NewAccount("id-1", "ACC-1", email, "hash", domain.RoleAdmin, time.Now()),
				Session: domain.Session{Token: "token123", ExpiresAt: expires},
			}, nil
		},
	}
	handler := NewAuthHandler(stub, &stubTokens{})

	c, rec := newContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Account domain.Account `json:"account"`
		Session domain.Session `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Session.Token != "token123" || !resp.Session.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected session: %+v", resp.Session)
	}
	if resp.Account.ID != "id-1" || resp.Account.Role != domain.RoleAdmin {
		t.Fatalf("unexpected account: %+v", resp.Account)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			return nil, domain.NewInvalidCredentialsError("Invalid email or password")
		},
	}
	handler := NewAuthHandler(stub, &stubTokens{})

	c, _ := newContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"bad"}`)
	if err := handler.Login(c); !domain.HasCode(err, domain.CodeInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, &stubTokens{})

	c, _ := newContext(http.MethodPost, "/auth/login", "{")
	if err := handler.Login(c); !domain.HasCode(err, domain.CodeBadRequest) {
		t.Fatalf("expected BAD_REQUEST, got %v", err)
	}
}

func TestAuthHandler_ForgotPassword_UnknownEmailIsNotAnError(t *testing.T) {
	stub := &stubAuthService{
		forgotFn: func(ctx context.Context, email string) (*ports.ForgotPasswordResult, error) {
			return &ports.ForgotPasswordResult{Success: false, Message: "Email not found"}, nil
		},
	}
	handler := NewAuthHandler(stub, &stubTokens{})

	c, rec := newContext(http.MethodPost, "/auth/forgot-password", `{"email":"ghost@example.com"}`)
	if err := handler.ForgotPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_UpdateRole(t *testing.T) {
	stub := &stubAuthService{
		roleFn: func(ctx context.Context, userID string, role domain.Role) (*domain.Account, error) {
			if userID != "id-2" || role != domain.RoleAdmin {
				t.Fatalf("unexpected args: %s %s", userID, role)
			}
			return domain.NewAccount(userID, "ACC-2", "b@example.com", "", role, time.Now()), nil
		},
	}
	handler := NewAuthHandler(stub, &stubTokens{})

	c, rec := newContext(http.MethodPatch, "/auth/roles", `{"userId":"id-2","role":"admin"}`)
	if err := handler.UpdateRole(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_UpdateRole_RejectsUnknownRole(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, &stubTokens{})

	c, _ := newContext(http.MethodPatch, "/auth/roles", `{"userId":"id-2","role":"root"}`)
	if err := handler.UpdateRole(c); !domain.HasCode(err, domain.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestAuthHandler_UpdateRole_NotFound(t *testing.T) {
	stub := &stubAuthService{
		roleFn: func(ctx context.Context, userID string, role domain.Role) (*domain.Account, error) {
			return nil, domain.NewNotFoundError("User", userID)
		},
	}
	handler := NewAuthHandler(stub, &stubTokens{})

	c, _ := newContext(http.MethodPatch, "/auth/roles", `{"userId":"missing","role":"user"}`)
	if err := handler.UpdateRole(c); !domain.HasCode(err, domain.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	tokens := &stubTokens{}
	handler := NewAuthHandler(&stubAuthService{}, tokens)

	c, rec := newContext(http.MethodGet, "/auth/me", "")
	if err := handler.Me(c); !domain.HasCode(err, domain.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED without payload, got %v", err)
	}

	c, rec = newContext(http.MethodGet, "/auth/me", "")
	c.Set(middleware.ContextKeyPayload, &domain.TokenPayload{AccountID: "id-1", Email: "a@example.com", Role: domain.RoleUser})
	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"accountId":"id-1"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	c, rec = newContext(http.MethodPost, "/auth/logout", "")
	c.Set(middleware.ContextKeyToken, "tok")
	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || len(tokens.revoked) != 1 || tokens.revoked[0] != "tok" {
		t.Fatalf("expected token to be revoked, got %v", tokens.revoked)
	}
}
