package domain

import (
	"strings"
	"time"
)

// Role is the authorization role of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Satisfies reports whether r grants at least required. Admin satisfies every role.
func (r Role) Satisfies(required Role) bool {
	if required == "" {
		return r.Valid()
	}
	return r == required || r == RoleAdmin
}

// ParseRole normalises s into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Account models a registered backoffice user.
//
// AccountCode and Email (when present) are unique across the store. An empty
// PasswordHash means the account cannot authenticate with a password.
type Account struct {
	ID           string    `json:"id"`
	AccountCode  string    `json:"accountCode"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewAccount builds an account stamped with now. Role defaults to user.
func NewAccount(id, accountCode, email, passwordHash string, role Role, now time.Time) *Account {
	if !role.Valid() {
		role = RoleUser
	}
	return &Account{
		ID:           id,
		AccountCode:  accountCode,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanAuthenticate reports whether the account has a password to check against.
func (a *Account) CanAuthenticate() bool {
	return a.PasswordHash != ""
}

// ChangeRole sets the role and refreshes UpdatedAt.
func (a *Account) ChangeRole(role Role, now time.Time) {
	a.Role = role
	a.UpdatedAt = now
}

// Clone returns a shallow copy safe to hand out of a store.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
