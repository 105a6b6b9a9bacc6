package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
)

const (
	accountCodeConstraint = "accounts_account_code_key"
	emailConstraint       = "accounts_email_key"
)

// schema is idempotent. NULL emails do not collide under a UNIQUE constraint,
// which is what makes email optional but unique when present.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	account_code  TEXT NOT NULL,
	email         TEXT,
	password_hash TEXT,
	role          TEXT NOT NULL CHECK (role IN ('admin', 'user')),
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	CONSTRAINT accounts_account_code_key UNIQUE (account_code),
	CONSTRAINT accounts_email_key UNIQUE (email)
)`

const accountColumns = `id, account_code, email, password_hash, role, created_at, updated_at`

type AccountRepository struct {
	db *sql.DB
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// EnsureSchema creates the accounts table when missing.
func (r *AccountRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create accounts table: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a           domain.Account
		email, hash sql.NullString
		role        string
	)
	if err := row.Scan(&a.ID, &a.AccountCode, &email, &hash, &role, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Email = email.String
	a.PasswordHash = hash.String
	a.Role = domain.Role(role)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if email == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *AccountRepository) FindByAccountCode(ctx context.Context, code string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_code = $1`, code)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, account_code`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

// Create inserts in one statement; the UNIQUE constraints reject duplicates.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.AccountCode, nullString(a.Email), nullString(a.PasswordHash), string(a.Role), a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		if appErr := mapUniqueViolation(err, a); appErr != nil {
			return appErr
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET role = $2, password_hash = $3, updated_at = $4 WHERE id = $1`,
		a.ID, string(a.Role), nullString(a.PasswordHash), a.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireOneRow(res)
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// mapUniqueViolation turns a UNIQUE violation into RESOURCE_ALREADY_EXISTS, or
// returns nil for any other error.
func mapUniqueViolation(err error, a *domain.Account) *domain.Error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case emailConstraint:
		return domain.NewResourceAlreadyExistsError("Account", a.Email).WithI18nKey("email_exists").WithCause(err)
	case accountCodeConstraint:
		return domain.NewResourceAlreadyExistsError("Account", a.AccountCode).WithI18nKey("account_code_exists").WithCause(err)
	default:
		return domain.NewResourceAlreadyExistsError("Account", a.ID).WithCause(err)
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
