package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authguard/pkg/auth"
	"github.com/dmitrymomot/authguard/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionTOTP(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns secret, URI and QR image", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, auth.WithIssuer("ExampleApp"))
		acc := env.seedAccount(t)

		prov, err := env.svc.ProvisionTOTP(ctx, acc.ID)
		require.NoError(t, err)

		assert.NotEmpty(t, prov.Secret)
		assert.Contains(t, prov.ProvisioningURI, "otpauth://totp/")
		assert.Contains(t, prov.ProvisioningURI, "ExampleApp")
		assert.Contains(t, prov.ProvisioningURI, "alice@example.com")
		assert.True(t, strings.HasPrefix(prov.QRCode, "data:image/png;base64,"))

		stored, err := env.accounts.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, prov.Secret, stored.TOTPSecret)
		assert.False(t, stored.TOTPEnabled, "provisioning must not enable the factor")
	})

	t.Run("re-provisioning before enablement replaces the secret", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		acc := env.seedAccount(t)

		first, err := env.svc.ProvisionTOTP(ctx, acc.ID)
		require.NoError(t, err)
		second, err := env.svc.ProvisionTOTP(ctx, acc.ID)
		require.NoError(t, err)
		assert.NotEqual(t, first.Secret, second.Secret)

		stored, err := env.accounts.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, second.Secret, stored.TOTPSecret)
	})

	t.Run("already enabled", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		secret, err := totp.GenerateSecretKey()
		require.NoError(t, err)
		acc := env.seedAccount(t, withTOTP(t, secret))

		_, err = env.svc.ProvisionTOTP(ctx, acc.ID)
		assert.ErrorIs(t, err, auth.ErrTOTPAlreadyEnabled)
	})

	t.Run("inactive account", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		acc := env.seedAccount(t, func(a *auth.Account) { a.IsActive = false })

		_, err := env.svc.ProvisionTOTP(ctx, acc.ID)
		assert.ErrorIs(t, err, auth.ErrAccountInactive)
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.svc.ProvisionTOTP(ctx, uuid.New())
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)
	})

	t.Run("secret is stored encrypted when a key is configured", func(t *testing.T) {
		t.Parallel()
		key, err := totp.GenerateEncryptionKey()
		require.NoError(t, err)

		env := newTestEnv(t, auth.WithEncryptionKey(key))
		acc := env.seedAccount(t)

		prov, err := env.svc.ProvisionTOTP(ctx, acc.ID)
		require.NoError(t, err)

		stored, err := env.accounts.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.NotEqual(t, prov.Secret, stored.TOTPSecret)

		decrypted, err := totp.DecryptSecret(stored.TOTPSecret, key)
		require.NoError(t, err)
		assert.Equal(t, prov.Secret, decrypted)
	})
}

func TestEnableTOTP(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	provisioned := func(t *testing.T, env *testEnv) (*auth.Account, string) {
		t.Helper()
		acc := env.seedAccount(t)
		prov, err := env.svc.ProvisionTOTP(ctx, acc.ID)
		require.NoError(t, err)
		return acc, prov.Secret
	}

	t.Run("valid code enables the factor and mints backup codes", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		acc, secret := provisioned(t, env)

		code, err := totp.GenerateTOTPAt(secret, t0)
		require.NoError(t, err)

		plainCodes, err := env.svc.EnableTOTP(ctx, acc.ID, code, t0)
		require.NoError(t, err)
		require.Len(t, plainCodes, 10)
		for _, c := range plainCodes {
			assert.Len(t, c, 8)
		}

		stored, err := env.accounts.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.True(t, stored.TOTPEnabled)
		require.Len(t, stored.BackupCodes, 10)
		assert.NotContains(t, stored.BackupCodes, plainCodes[0], "only hashes are persisted")

		// The plain codes must match the stored hashes
		for i, c := range plainCodes {
			assert.True(t, totp.VerifyRecoveryCode(c, stored.BackupCodes[i]))
		}
	})

	t.Run("invalid code", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		acc, _ := provisioned(t, env)

		_, err := env.svc.EnableTOTP(ctx, acc.ID, "000000", t0)
		assert.ErrorIs(t, err, auth.ErrInvalidSecondFactor)

		stored, err := env.accounts.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.False(t, stored.TOTPEnabled)
	})

	t.Run("not provisioned", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		acc := env.seedAccount(t)

		_, err := env.svc.EnableTOTP(ctx, acc.ID, "123456", t0)
		assert.ErrorIs(t, err, auth.ErrTOTPNotProvisioned)
	})

	t.Run("already enabled", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		secret, err := totp.GenerateSecretKey()
		require.NoError(t, err)
		acc := env.seedAccount(t, withTOTP(t, secret))

		code, err := totp.GenerateTOTPAt(secret, t0)
		require.NoError(t, err)

		_, err = env.svc.EnableTOTP(ctx, acc.ID, code, t0)
		assert.ErrorIs(t, err, auth.ErrTOTPAlreadyEnabled)
	})

	t.Run("works against an encrypted secret", func(t *testing.T) {
		t.Parallel()
		key, err := totp.GenerateEncryptionKey()
		require.NoError(t, err)

		env := newTestEnv(t, auth.WithEncryptionKey(key))
		acc, secret := provisioned(t, env)

		code, err := totp.GenerateTOTPAt(secret, t0)
		require.NoError(t, err)

		_, err = env.svc.EnableTOTP(ctx, acc.ID, code, t0)
		require.NoError(t, err)
	})
}

func TestDisableTOTP(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	t.Run("via TOTP code", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		acc := env.seedAccount(t, withTOTP(t, secret, "A1B2C3D4"))

		code, err := totp.GenerateTOTPAt(secret, t0)
		require.NoError(t, err)

		require.NoError(t, env.svc.DisableTOTP(ctx, acc.ID, code, t0))

		stored, err := env.accounts.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.False(t, stored.TOTPEnabled)
		assert.Empty(t, stored.TOTPSecret)
		assert.Empty(t, stored.BackupCodes)

		// Subsequent logins no longer require a second factor
		res, err := env.svc.Authenticate(ctx, "alice", testPassword, t0)
		require.NoError(t, err)
		assert.False(t, res.SecondFactorRequired)
	})

	t.Run("via backup code", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		acc := env.seedAccount(t, withTOTP(t, secret, "A1B2C3D4"))

		require.NoError(t, env.svc.DisableTOTP(ctx, acc.ID, "A1B2C3D4", t0))

		stored, err := env.accounts.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.False(t, stored.TOTPEnabled)
	})

	t.Run("invalid code leaves the factor on", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		acc := env.seedAccount(t, withTOTP(t, secret))

		err := env.svc.DisableTOTP(ctx, acc.ID, "000000", t0)
		assert.ErrorIs(t, err, auth.ErrInvalidSecondFactor)

		stored, err := env.accounts.GetByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.True(t, stored.TOTPEnabled)
	})

	t.Run("not enabled", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		acc := env.seedAccount(t)

		err := env.svc.DisableTOTP(ctx, acc.ID, "123456", t0)
		assert.ErrorIs(t, err, auth.ErrTOTPNotEnabled)
	})
}

func TestRegenerateBackupCodes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	t.Run("old set is invalidated in full", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		acc := env.seedAccount(t, withTOTP(t, secret, "A1B2C3D4", "E5F6G7H8"))

		fresh, err := env.svc.RegenerateBackupCodes(ctx, acc.ID)
		require.NoError(t, err)
		require.Len(t, fresh, 10)

		// An old code no longer completes a challenge
		res, err := env.svc.Authenticate(ctx, "alice", testPassword, t0)
		require.NoError(t, err)
		_, err = env.svc.CompleteSecondFactor(ctx, res.ChallengeID, "A1B2C3D4", t0)
		assert.ErrorIs(t, err, auth.ErrInvalidSecondFactor)

		// A fresh one does
		res, err = env.svc.Authenticate(ctx, "alice", testPassword, t0)
		require.NoError(t, err)
		_, err = env.svc.CompleteSecondFactor(ctx, res.ChallengeID, fresh[0], t0)
		require.NoError(t, err)
	})

	t.Run("requires the factor to be enabled", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		acc := env.seedAccount(t)

		_, err := env.svc.RegenerateBackupCodes(ctx, acc.ID)
		assert.ErrorIs(t, err, auth.ErrTOTPNotEnabled)
	})

	t.Run("custom count", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, auth.WithBackupCodeCount(5))
		acc := env.seedAccount(t, withTOTP(t, secret))

		fresh, err := env.svc.RegenerateBackupCodes(ctx, acc.ID)
		require.NoError(t, err)
		assert.Len(t, fresh, 5)
	})
}
