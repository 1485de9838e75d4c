package auth

import (
	"time"

	"github.com/google/uuid"
)

// Account represents the authentication-relevant slice of a user record.
// The surrounding application owns the rest of the row; this core only reads
// and updates the fields below, always through an AccountStore so the
// read-modify-write cycle stays atomic per account.
type Account struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash []byte // salted hash, opaque to this package; checked via PasswordVerifier
	IsActive     bool

	FailedAttempts int
	LockedUntil    *time.Time // set only by the lockout policy, cleared on successful verification

	TOTPSecret  string // present once provisioning starts; may be AES-encrypted at rest
	TOTPEnabled bool

	// BackupCodes holds SHA-256 hashes of single-use recovery codes.
	// Consumed codes are removed from the slice, not marked.
	BackupCodes []string

	// LastTOTPStep is the highest accepted TOTP counter, used to reject
	// replay of an already-accepted code within the same time step when
	// replay protection is enabled.
	LastTOTPStep int64

	CreatedAt time.Time
}

// IsLocked reports whether the account is inside an active lockout window.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// Clone returns a deep copy so stores can hand out accounts without sharing
// mutable slices with callers.
func (a *Account) Clone() *Account {
	cp := *a
	if a.LockedUntil != nil {
		until := *a.LockedUntil
		cp.LockedUntil = &until
	}
	if a.PasswordHash != nil {
		cp.PasswordHash = make([]byte, len(a.PasswordHash))
		copy(cp.PasswordHash, a.PasswordHash)
	}
	if a.BackupCodes != nil {
		cp.BackupCodes = make([]string, len(a.BackupCodes))
		copy(cp.BackupCodes, a.BackupCodes)
	}
	return &cp
}
