package auth

import (
	"context"

	"github.com/google/uuid"
)

// AccountStore is the persistence contract required by the authentication
// services. Implementations must scope locking to a single account record;
// no cross-account locks are taken by this package.
type AccountStore interface {
	// GetByID returns the account or ErrAccountNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByIdentifier resolves an account by username or email,
	// case-insensitively. Returns ErrAccountNotFound when nothing matches.
	GetByIdentifier(ctx context.Context, identifier string) (*Account, error)

	// UpdateAtomic loads the account, applies fn to it, and persists the
	// result as a single atomic read-modify-write. When fn returns an error
	// the account is left unchanged and the error is returned verbatim.
	// Two concurrent calls against the same account must serialize so that
	// neither observes a stale failure counter or backup-code set.
	UpdateAtomic(ctx context.Context, id uuid.UUID, fn func(*Account) error) (*Account, error)
}
