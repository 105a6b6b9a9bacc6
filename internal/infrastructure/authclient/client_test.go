package authclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/piar/backoffice/internal/api"
	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/service"
	"github.com/piar/backoffice/internal/infrastructure/authclient"
	"github.com/piar/backoffice/internal/infrastructure/db/memory"
)

type fixture struct {
	client *authclient.Client
	auth   *service.AuthService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := memory.NewAccountRepository()
	tokens := service.NewTokenService("test-secret", time.Hour)
	auth := service.NewAuthService(repo, tokens, bcrypt.MinCost, zerolog.Nop())

	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Log:         zerolog.Nop(),
		AuthService: auth,
		Tokens:      tokens,
	}))
	t.Cleanup(srv.Close)

	client, err := authclient.New(authclient.Config{BaseURL: srv.URL + "/", Log: zerolog.Nop()})
	require.NoError(t, err)
	return fixture{client: client, auth: auth}
}

func TestClient_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	account, err := f.client.Register(ctx, "ACC-1", "jane@example.com", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, "ACC-1", account.AccountCode)
	assert.Equal(t, domain.RoleUser, account.Role)
	assert.NotEmpty(t, account.ID)

	result, err := f.client.Login(ctx, "jane@example.com", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, account.ID, result.Account.ID)
	assert.NotEmpty(t, result.Session.Token)
	assert.False(t, result.Session.ExpiresAt.IsZero())

	me, err := f.client.Me(authclient.WithAccessToken(ctx, result.Session.Token))
	require.NoError(t, err)
	assert.Equal(t, account.ID, me.AccountID)
	assert.Equal(t, domain.RoleUser, me.Role)
}

func TestClient_ErrorEnvelopeIsRebuilt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.client.Register(ctx, "ACC-1", "jane@example.com", "pa55word")
	require.NoError(t, err)

	_, err = f.client.Register(ctx, "ACC-2", "jane@example.com", "pa55word")
	var appErr *domain.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeResourceAlreadyExists, appErr.Code())
	assert.Equal(t, http.StatusConflict, appErr.StatusCode())
	assert.Equal(t, "email_exists", appErr.I18nKey())
	assert.Equal(t, "/auth/register", appErr.Path())

	_, err = f.client.Login(ctx, "jane@example.com", "wrong")
	assert.True(t, domain.HasCode(err, domain.CodeInvalidCredentials))
}

func TestClient_LocalValidation(t *testing.T) {
	client, err := authclient.New(authclient.Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		key  string
	}{
		{"login", func() error { _, err := client.Login(ctx, "", "x"); return err }, "missing_credentials"},
		{"register", func() error { _, err := client.Register(ctx, "", "a@b.c", "x"); return err }, "missing_fields"},
		{"forgot password", func() error { _, err := client.ForgotPassword(ctx, " "); return err }, "missing_email"},
		{"update role", func() error { _, err := client.UpdateUserRole(ctx, "", domain.RoleAdmin); return err }, "missing_fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var appErr *domain.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, domain.CodeValidation, appErr.Code())
			assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
			assert.Equal(t, tt.key, appErr.I18nKey())
		})
	}
}

func TestClient_ForgotPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.client.ForgotPassword(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Email not found", res.Message)
}

func TestClient_UpdateUserRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.EnsureAccount(ctx, "ADM-1", "admin@example.com", "adminpw", domain.RoleAdmin)
	require.NoError(t, err)
	user, err := f.client.Register(ctx, "ACC-1", "jane@example.com", "pa55word")
	require.NoError(t, err)

	_, err = f.client.UpdateUserRole(ctx, user.ID, domain.RoleAdmin)
	assert.True(t, domain.HasCode(err, domain.CodeUnauthorized), "no bearer token")

	userLogin, err := f.client.Login(ctx, "jane@example.com", "pa55word")
	require.NoError(t, err)
	_, err = f.client.UpdateUserRole(authclient.WithAccessToken(ctx, userLogin.Session.Token), user.ID, domain.RoleAdmin)
	assert.True(t, domain.HasCode(err, domain.CodeForbidden))

	adminLogin, err := f.client.Login(ctx, "admin@example.com", "adminpw")
	require.NoError(t, err)
	adminCtx := authclient.WithAccessToken(ctx, adminLogin.Session.Token)

	updated, err := f.client.UpdateUserRole(adminCtx, user.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	_, err = f.client.UpdateUserRole(adminCtx, "missing", domain.RoleUser)
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := authclient.New(authclient.Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "a@b.c", "x")
	var appErr *domain.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeUnknown, appErr.Code())
	assert.Equal(t, "network_error", appErr.I18nKey())
}

func TestClient_NonEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client, err := authclient.New(authclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.ForgotPassword(context.Background(), "a@b.c")
	var appErr *domain.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.CodeInternalServerError, appErr.Code())
	assert.Equal(t, "server_error", appErr.I18nKey())
	assert.Equal(t, "upstream unavailable", appErr.Message())
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := authclient.New(authclient.Config{})
	assert.Error(t, err)
}
