package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/piar/backoffice/internal/core/domain"
)

func newErrorTestServer() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())
	e.GET("/users/:id", func(c echo.Context) error {
		return domain.NewNotFoundError("User", c.Param("id")).WithI18nKey("user_not_found")
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("db down")
	})
	e.HEAD("/boom", func(c echo.Context) error {
		return errors.New("db down")
	})
	return e
}

func serveEnvelope(t *testing.T, e *echo.Echo, method, path string) (*httptest.ResponseRecorder, domain.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env domain.Envelope
	if method != http.MethodHead {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("invalid json: %v (%q)", err, rec.Body.String())
		}
	}
	return rec, env
}

func TestHTTPErrorHandler_DomainError(t *testing.T) {
	rec, env := serveEnvelope(t, newErrorTestServer(), http.MethodGet, "/users/u-9")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if env.Code != domain.CodeNotFound || env.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Path != "/users/u-9" {
		t.Fatalf("expected request path in envelope, got %q", env.Path)
	}
	if env.I18nKey != "user_not_found" {
		t.Fatalf("expected i18n key to survive, got %q", env.I18nKey)
	}
	if env.Timestamp == "" {
		t.Fatalf("expected timestamp")
	}
}

func TestHTTPErrorHandler_ForeignErrorBecomesInternal(t *testing.T) {
	rec, env := serveEnvelope(t, newErrorTestServer(), http.MethodGet, "/boom")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if env.Code != domain.CodeInternalServerError || env.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Details["originalError"] != "*errors.errorString" {
		t.Fatalf("expected original type in details, got %v", env.Details)
	}
	if env.Details["message"] != "db down" {
		t.Fatalf("expected original message in details, got %v", env.Details)
	}
	if env.Path != "/boom" {
		t.Fatalf("expected path /boom, got %q", env.Path)
	}
}

func TestHTTPErrorHandler_EchoErrorsFollowStatusTable(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   domain.ErrorCode
	}{
		{"unknown route", http.MethodGet, "/missing", http.StatusNotFound, domain.CodeNotFound},
		{"method not allowed", http.MethodDelete, "/boom", http.StatusBadRequest, domain.CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := serveEnvelope(t, newErrorTestServer(), tt.method, tt.path)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if env.Code != tt.wantCode {
				t.Fatalf("expected %s, got %s", tt.wantCode, env.Code)
			}
			if env.StatusCode != env.Code.HTTPStatus() {
				t.Fatalf("statusCode %d does not match table status %d", env.StatusCode, env.Code.HTTPStatus())
			}
			if env.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, env.Path)
			}
		})
	}
}

func TestHTTPErrorHandler_HeadHasNoBody(t *testing.T) {
	rec, _ := serveEnvelope(t, newErrorTestServer(), http.MethodHead, "/boom")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}
