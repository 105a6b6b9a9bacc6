package ports

import (
	"context"
	"time"

	"github.com/piar/backoffice/internal/core/domain"
)

// TokenService signs and verifies bearer tokens.
type TokenService interface {
	Sign(payload domain.TokenPayload) (domain.Session, error)
	// Verify checks signature, expiry and revocation. Failures are
	// TOKEN_EXPIRED or TOKEN_INVALID *domain.Error values.
	Verify(ctx context.Context, token string) (*domain.TokenPayload, error)
	Revoke(ctx context.Context, token string) error
}

// TokenDenylist records revoked tokens until their natural expiry.
type TokenDenylist interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}
