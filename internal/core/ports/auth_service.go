package ports

import (
	"context"

	"github.com/piar/backoffice/internal/core/domain"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Account *domain.Account `json:"account"`
	Session domain.Session  `json:"session"`
}

// ForgotPasswordResult reports the outcome of a reset request. An unknown email
// is a regular result with Success=false, not an error.
type ForgotPasswordResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AuthService is the auth port. It is implemented by the backend service and by
// the HTTP client the backoffice gateway uses to reach the BFF.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, accountCode, email, password string) (*domain.Account, error)
	ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResult, error)
	UpdateUserRole(ctx context.Context, userID string, role domain.Role) (*domain.Account, error)
}
