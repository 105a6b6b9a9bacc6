// Package memory holds a process-local AccountRepository for development and
// tests. Uniqueness of email and account code is enforced under one lock.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
)

type AccountRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Account
	byMail map[string]string
	byCode map[string]string
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:   make(map[string]*domain.Account),
		byMail: make(map[string]string),
		byCode: make(map[string]string),
	}
}

func (r *AccountRepository) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.byID[id]; ok {
		return a.Clone(), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if email == "" {
		return nil, domain.ErrAccountNotFound
	}
	if id, ok := r.byMail[email]; ok {
		return r.byID[id].Clone(), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *AccountRepository) FindByAccountCode(_ context.Context, code string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byCode[code]; ok {
		return r.byID[id].Clone(), nil
	}
	return nil, domain.ErrAccountNotFound
}

// List returns accounts ordered by creation time.
func (r *AccountRepository) List(_ context.Context) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Account, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].AccountCode < out[j].AccountCode
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Create inserts account if neither its email nor its account code is taken.
func (r *AccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account.Email != "" {
		if _, taken := r.byMail[account.Email]; taken {
			return domain.NewResourceAlreadyExistsError("Account", account.Email).WithI18nKey("email_exists")
		}
	}
	if _, taken := r.byCode[account.AccountCode]; taken {
		return domain.NewResourceAlreadyExistsError("Account", account.AccountCode).WithI18nKey("account_code_exists")
	}
	if _, taken := r.byID[account.ID]; taken {
		return domain.NewResourceAlreadyExistsError("Account", account.ID)
	}

	r.byID[account.ID] = account.Clone()
	r.byCode[account.AccountCode] = account.ID
	if account.Email != "" {
		r.byMail[account.Email] = account.ID
	}
	return nil
}

// Update replaces role, password hash and updated_at. Identity fields are immutable.
func (r *AccountRepository) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	stored.Role = account.Role
	stored.PasswordHash = account.PasswordHash
	stored.UpdatedAt = account.UpdatedAt
	return nil
}

func (r *AccountRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	delete(r.byID, id)
	delete(r.byCode, stored.AccountCode)
	if stored.Email != "" {
		delete(r.byMail, stored.Email)
	}
	return nil
}
