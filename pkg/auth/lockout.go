package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Lockout defaults applied when a policy field is zero-valued.
const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 30 * time.Minute
)

// PasswordVerifier checks a candidate password against a stored hash.
// The hash format is opaque to this package.
type PasswordVerifier func(hash []byte, candidate string) bool

// BcryptVerifier is the default PasswordVerifier.
func BcryptVerifier(hash []byte, candidate string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(candidate)) == nil
}

// AttemptOutcome is the result of evaluating a single password attempt.
type AttemptOutcome int

const (
	AttemptFailure AttemptOutcome = iota
	AttemptSuccess
	AttemptLocked
)

// AttemptResult reports how a password attempt was resolved.
type AttemptResult struct {
	Outcome AttemptOutcome

	// LockedUntil is set when Outcome is AttemptLocked, for user messaging.
	LockedUntil time.Time

	// RemainingAttempts is advisory only: it is exposed on AttemptFailure but
	// callers must not present it as a precise guarantee, to avoid helping
	// enumeration of the threshold.
	RemainingAttempts int
}

// LockoutPolicy governs failed-password counting and timed lockout.
// An account transitions to locked only when the failure counter reaches
// MaxAttempts; the lock lapses by timestamp comparison, there is no eviction.
type LockoutPolicy struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

// DefaultLockoutPolicy returns the standard 5-attempts / 30-minute policy.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxAttempts:     DefaultMaxAttempts,
		LockoutDuration: DefaultLockoutDuration,
	}
}

func (p LockoutPolicy) withDefaults() LockoutPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.LockoutDuration <= 0 {
		p.LockoutDuration = DefaultLockoutDuration
	}
	return p
}

// Evaluate applies a single password attempt to the account, mutating its
// failure counter and lock window in place. The caller must run it inside an
// atomic read-modify-write against the backing store so concurrent attempts
// against the same account cannot under-count.
//
// Check order: inactive accounts fail fast with ErrAccountInactive and no
// counter mutation; an active lock returns AttemptLocked unchanged (attempts
// during lockout neither extend nor reset the lock); then the password is
// verified. Success resets the counter and clears the lock regardless of how
// close the account was to the threshold. Failure increments the counter and
// locks the account once the threshold is reached.
func (p LockoutPolicy) Evaluate(acc *Account, password string, verify PasswordVerifier, now time.Time) (AttemptResult, error) {
	p = p.withDefaults()

	if !acc.IsActive {
		return AttemptResult{}, ErrAccountInactive
	}

	if acc.IsLocked(now) {
		return AttemptResult{Outcome: AttemptLocked, LockedUntil: *acc.LockedUntil}, nil
	}

	if verify(acc.PasswordHash, password) {
		acc.FailedAttempts = 0
		acc.LockedUntil = nil
		return AttemptResult{Outcome: AttemptSuccess}, nil
	}

	acc.FailedAttempts++
	if acc.FailedAttempts >= p.MaxAttempts {
		until := now.Add(p.LockoutDuration)
		acc.LockedUntil = &until
		return AttemptResult{Outcome: AttemptLocked, LockedUntil: until}, nil
	}

	return AttemptResult{
		Outcome:           AttemptFailure,
		RemainingAttempts: p.MaxAttempts - acc.FailedAttempts,
	}, nil
}
