package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authguard/pkg/pg"
)

const accountColumns = `id, username, email, password_hash, is_active, failed_attempts, locked_until, totp_secret, totp_enabled, backup_codes, last_totp_step, created_at`

// PostgresAccountStore implements AccountStore on top of pgx.
//
// UpdateAtomic runs inside a transaction with SELECT ... FOR UPDATE, so two
// concurrent login attempts against the same account serialize on the row
// lock and neither observes a stale failure counter or backup-code set.
// Locking is per row; no cross-account contention is introduced.
//
// Expected schema:
//
//	CREATE TABLE accounts (
//	    id              UUID PRIMARY KEY,
//	    username        TEXT NOT NULL UNIQUE,
//	    email           TEXT NOT NULL UNIQUE,
//	    password_hash   BYTEA NOT NULL,
//	    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
//	    failed_attempts INT NOT NULL DEFAULT 0,
//	    locked_until    TIMESTAMPTZ,
//	    totp_secret     TEXT NOT NULL DEFAULT '',
//	    totp_enabled    BOOLEAN NOT NULL DEFAULT FALSE,
//	    backup_codes    TEXT[] NOT NULL DEFAULT '{}',
//	    last_totp_step  BIGINT NOT NULL DEFAULT 0,
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresAccountStore struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountStore creates a Postgres-backed account store.
func NewPostgresAccountStore(pool *pgxpool.Pool) *PostgresAccountStore {
	return &PostgresAccountStore{pool: pool}
}

// Create inserts a new account row.
func (s *PostgresAccountStore) Create(ctx context.Context, acc *Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		acc.ID, acc.Username, acc.Email, acc.PasswordHash, acc.IsActive,
		acc.FailedAttempts, acc.LockedUntil, acc.TOTPSecret, acc.TOTPEnabled,
		acc.BackupCodes, acc.LastTOTPStep, acc.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID returns the account or ErrAccountNotFound.
func (s *PostgresAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByIdentifier resolves an account by username or email, case-insensitively.
func (s *PostgresAccountStore) GetByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(username) = $1 OR lower(email) = $1`, identifier)
	return scanAccount(row)
}

// UpdateAtomic applies fn to the row under a FOR UPDATE lock.
func (s *PostgresAccountStore) UpdateAtomic(ctx context.Context, id uuid.UUID, fn func(*Account) error) (*Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	acc, err := scanAccount(row)
	if err != nil {
		return nil, err
	}

	if err := fn(acc); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE accounts
		 SET password_hash = $2, is_active = $3, failed_attempts = $4, locked_until = $5,
		     totp_secret = $6, totp_enabled = $7, backup_codes = $8, last_totp_step = $9
		 WHERE id = $1`,
		acc.ID, acc.PasswordHash, acc.IsActive, acc.FailedAttempts, acc.LockedUntil,
		acc.TOTPSecret, acc.TOTPEnabled, acc.BackupCodes, acc.LastTOTPStep,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit account update: %w", err)
	}

	return acc, nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var acc Account
	err := row.Scan(
		&acc.ID, &acc.Username, &acc.Email, &acc.PasswordHash, &acc.IsActive,
		&acc.FailedAttempts, &acc.LockedUntil, &acc.TOTPSecret, &acc.TOTPEnabled,
		&acc.BackupCodes, &acc.LastTOTPStep, &acc.CreatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &acc, nil
}

// Compile-time interface assertion
var _ AccountStore = (*PostgresAccountStore)(nil)
