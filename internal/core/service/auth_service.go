package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/piar/backoffice/internal/metrics"
	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
)

const invalidCredentialsMessage = "Invalid email or password"

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// AuthService implements login, registration, password reset and role updates
// on top of an AccountRepository and a TokenService.
type AuthService struct {
	repo       ports.AccountRepository
	tokens     ports.TokenService
	bcryptCost int
	now        func() time.Time
	newID      func() string
	log        zerolog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(repo ports.AccountRepository, tokens ports.TokenService, bcryptCost int, log zerolog.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
		log:        log,
	}
}

// Login checks the credentials and issues a session signed over
// {accountId, email, role}. Unknown emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (result *ports.LoginResult, err error) {
	defer func() { metrics.AuthLoginsTotal.WithLabelValues(metrics.Result(err)).Inc() }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalidCredentials()
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}

	if !account.CanAuthenticate() ||
		bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		s.log.Debug().Str("account_id", account.ID).Msg("login rejected: password mismatch")
		return nil, invalidCredentials()
	}

	session, err := s.tokens.Sign(domain.TokenPayload{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", account.ID).Str("role", string(account.Role)).Msg("login succeeded")
	return &ports.LoginResult{Account: account, Session: session}, nil
}

// Register creates a user-role account. Email and account code must both be
// unused; the repository enforces the same constraint atomically.
func (s *AuthService) Register(ctx context.Context, accountCode, email, password string) (account *domain.Account, err error) {
	defer func() { metrics.AuthRegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc() }()
	return s.create(ctx, accountCode, email, password, domain.RoleUser)
}

// ForgotPassword reports whether a reset could be started for email. An unknown
// email is a regular unsuccessful result.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*ports.ForgotPasswordResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.NewValidationError("", map[string][]string{
			"email": {"email is required"},
		}).WithI18nKey("missing_email")
	}

	_, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return &ports.ForgotPasswordResult{Success: false, Message: "Email not found"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account by email: %w", err)
	}

	// Delivery of the reset mail is outside this service.
	return &ports.ForgotPasswordResult{
		Success: true,
		Message: fmt.Sprintf("Password reset email sent to %s", email),
	}, nil
}

// UpdateUserRole sets the role of userID. Whether the caller may do so is
// decided by the route policy in front of the handler.
func (s *AuthService) UpdateUserRole(ctx context.Context, userID string, role domain.Role) (account *domain.Account, err error) {
	defer func() { metrics.AuthRoleUpdatesTotal.WithLabelValues(metrics.Result(err)).Inc() }()

	if !role.Valid() {
		return nil, domain.NewValidationError("", map[string][]string{
			"role": {fmt.Sprintf("role must be one of %s, %s", domain.RoleAdmin, domain.RoleUser)},
		})
	}

	account, err = s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.NewNotFoundError("User", userID).WithI18nKey("user_not_found")
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}

	account.ChangeRole(role, s.now())
	if err := s.repo.Update(ctx, account); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.NewNotFoundError("User", userID).WithI18nKey("user_not_found")
		}
		return nil, fmt.Errorf("update account: %w", err)
	}

	s.log.Info().Str("account_id", account.ID).Str("role", string(role)).Msg("role updated")
	return account, nil
}

// EnsureAccount creates an account with the given role unless one with the same
// email or account code already exists. It returns the stored account.
func (s *AuthService) EnsureAccount(ctx context.Context, accountCode, email, password string, role domain.Role) (*domain.Account, error) {
	if existing, err := s.repo.FindByEmail(ctx, normalizeEmail(email)); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	if existing, err := s.repo.FindByAccountCode(ctx, strings.TrimSpace(accountCode)); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("find account by code: %w", err)
	}
	return s.create(ctx, accountCode, email, password, role)
}

func (s *AuthService) create(ctx context.Context, accountCode, email, password string, role domain.Role) (*domain.Account, error) {
	accountCode = strings.TrimSpace(accountCode)
	email = normalizeEmail(email)

	fields := map[string][]string{}
	if accountCode == "" {
		fields["accountCode"] = []string{"accountCode is required"}
	}
	if email == "" {
		fields["email"] = []string{"email is required"}
	}
	if password == "" {
		fields["password"] = []string{"password is required"}
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError("", fields).WithI18nKey("missing_fields")
	}
	if len(password) > maxPasswordBytes {
		return nil, domain.NewValidationError("", map[string][]string{
			"password": {fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes)},
		}).WithI18nKey("password_too_long")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.NewResourceAlreadyExistsError("Account", email).WithI18nKey("email_exists")
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	if _, err := s.repo.FindByAccountCode(ctx, accountCode); err == nil {
		return nil, domain.NewResourceAlreadyExistsError("Account", accountCode).WithI18nKey("account_code_exists")
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("find account by code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := domain.NewAccount(s.newID(), accountCode, email, string(hash), role, s.now())
	if err := s.repo.Create(ctx, account); err != nil {
		// Lost a race against a concurrent registration: the store's error is
		// already RESOURCE_ALREADY_EXISTS.
		return nil, err
	}

	s.log.Info().Str("account_id", account.ID).Str("account_code", accountCode).Msg("account created")
	return account, nil
}

func invalidCredentials() *domain.Error {
	return domain.NewInvalidCredentialsError(invalidCredentialsMessage).WithI18nKey("invalid_credentials")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
