package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authguard/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainVerifier(hash []byte, candidate string) bool {
	return string(hash) == candidate
}

func activeAccount() *auth.Account {
	return &auth.Account{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: []byte("correct horse"),
		IsActive:     true,
	}
}

func TestLockoutPolicyEvaluate(t *testing.T) {
	t.Parallel()
	policy := auth.DefaultLockoutPolicy()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("inactive account fails fast without mutation", func(t *testing.T) {
		t.Parallel()
		acc := activeAccount()
		acc.IsActive = false
		acc.FailedAttempts = 2

		_, err := policy.Evaluate(acc, "correct horse", plainVerifier, now)

		assert.ErrorIs(t, err, auth.ErrAccountInactive)
		assert.Equal(t, 2, acc.FailedAttempts)
		assert.Nil(t, acc.LockedUntil)
	})

	t.Run("correct password succeeds and resets counter", func(t *testing.T) {
		t.Parallel()
		acc := activeAccount()
		acc.FailedAttempts = 4

		result, err := policy.Evaluate(acc, "correct horse", plainVerifier, now)

		require.NoError(t, err)
		assert.Equal(t, auth.AttemptSuccess, result.Outcome)
		assert.Equal(t, 0, acc.FailedAttempts)
		assert.Nil(t, acc.LockedUntil)
	})

	t.Run("wrong password increments counter", func(t *testing.T) {
		t.Parallel()
		acc := activeAccount()

		result, err := policy.Evaluate(acc, "nope", plainVerifier, now)

		require.NoError(t, err)
		assert.Equal(t, auth.AttemptFailure, result.Outcome)
		assert.Equal(t, 1, acc.FailedAttempts)
		assert.Equal(t, 4, result.RemainingAttempts)
		assert.Nil(t, acc.LockedUntil)
	})

	t.Run("fifth consecutive failure locks the account", func(t *testing.T) {
		t.Parallel()
		acc := activeAccount()

		var result auth.AttemptResult
		var err error
		for i := 0; i < 5; i++ {
			result, err = policy.Evaluate(acc, "nope", plainVerifier, now)
			require.NoError(t, err)
		}

		assert.Equal(t, auth.AttemptLocked, result.Outcome)
		assert.Equal(t, now.Add(30*time.Minute), result.LockedUntil)
		require.NotNil(t, acc.LockedUntil)
		assert.True(t, acc.IsLocked(now))
	})

	t.Run("attempts during lockout change nothing even with correct password", func(t *testing.T) {
		t.Parallel()
		acc := activeAccount()
		until := now.Add(10 * time.Minute)
		acc.FailedAttempts = 5
		acc.LockedUntil = &until

		result, err := policy.Evaluate(acc, "correct horse", plainVerifier, now)

		require.NoError(t, err)
		assert.Equal(t, auth.AttemptLocked, result.Outcome)
		assert.Equal(t, until, result.LockedUntil)
		assert.Equal(t, 5, acc.FailedAttempts)
		assert.Equal(t, until, *acc.LockedUntil, "lockout must not be extended")
	})

	t.Run("correct password succeeds after lockout elapses", func(t *testing.T) {
		t.Parallel()
		acc := activeAccount()
		until := now.Add(30 * time.Minute)
		acc.FailedAttempts = 5
		acc.LockedUntil = &until

		later := now.Add(31 * time.Minute)
		result, err := policy.Evaluate(acc, "correct horse", plainVerifier, later)

		require.NoError(t, err)
		assert.Equal(t, auth.AttemptSuccess, result.Outcome)
		assert.Equal(t, 0, acc.FailedAttempts)
		assert.Nil(t, acc.LockedUntil)
	})

	t.Run("zero-valued policy falls back to defaults", func(t *testing.T) {
		t.Parallel()
		acc := activeAccount()

		var result auth.AttemptResult
		var err error
		for i := 0; i < auth.DefaultMaxAttempts; i++ {
			result, err = auth.LockoutPolicy{}.Evaluate(acc, "nope", plainVerifier, now)
			require.NoError(t, err)
		}

		assert.Equal(t, auth.AttemptLocked, result.Outcome)
		assert.Equal(t, now.Add(auth.DefaultLockoutDuration), result.LockedUntil)
	})
}

func TestBcryptVerifier(t *testing.T) {
	t.Parallel()
	hash := mustHashPassword(t, "s3cret-pass")

	assert.True(t, auth.BcryptVerifier(hash, "s3cret-pass"))
	assert.False(t, auth.BcryptVerifier(hash, "wrong"))
	assert.False(t, auth.BcryptVerifier(nil, "s3cret-pass"))
}
