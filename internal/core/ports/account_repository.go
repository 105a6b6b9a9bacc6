package ports

import (
	"context"

	"github.com/piar/backoffice/internal/core/domain"
)

// AccountRepository is the persistence port for accounts.
//
// Lookups that miss return domain.ErrAccountNotFound. Create must be atomic
// with respect to uniqueness: a duplicate email or account code returns a
// RESOURCE_ALREADY_EXISTS *domain.Error and leaves the store unchanged.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByAccountCode(ctx context.Context, accountCode string) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
	// Update replaces the mutable fields (role, password hash, updated_at).
	Update(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, id string) error
}
