package ports

import (
	"context"

	"github.com/piar/backoffice/internal/core/domain"
)

// WebSessionStore keeps gateway sessions behind an opaque cookie id.
// Get returns domain.ErrSessionNotFound for unknown or expired ids.
type WebSessionStore interface {
	Save(ctx context.Context, sess domain.WebSession) error
	Get(ctx context.Context, id string) (domain.WebSession, error)
	Delete(ctx context.Context, id string) error
}
