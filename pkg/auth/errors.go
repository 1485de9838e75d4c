package auth

import (
	"errors"
	"fmt"
	"time"
)

// Account resolution and credential errors
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountInactive      = errors.New("account is deactivated")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountLocked        = errors.New("account is temporarily locked")
)

// Second-factor errors
var (
	ErrInvalidSecondFactor = errors.New("invalid second factor code")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrChallengeExpired    = errors.New("challenge expired")
	ErrTOTPNotProvisioned  = errors.New("totp is not provisioned")
	ErrTOTPAlreadyEnabled  = errors.New("totp is already enabled")
	ErrTOTPNotEnabled      = errors.New("totp is not enabled")
)

// Session errors
var (
	ErrSessionInvalid = errors.New("invalid session token")
	ErrSessionExpired = errors.New("session expired")
)

// LockedError carries the unlock timestamp for user-facing messaging.
// It matches ErrAccountLocked under errors.Is.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account is temporarily locked until %s", e.Until.UTC().Format(time.RFC3339))
}

// Is makes errors.Is(err, ErrAccountLocked) succeed for LockedError values.
func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
