package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authguard/pkg/logger"
	"github.com/dmitrymomot/authguard/pkg/qrcode"
	"github.com/dmitrymomot/authguard/pkg/totp"
)

// qrCodeSize is the pixel size of generated provisioning QR codes.
const qrCodeSize = 256

// ProvisionTOTP generates and stores a fresh shared secret for the account
// and returns the material the host renders for enrollment. The second factor
// stays disabled until EnableTOTP confirms the user scanned the secret.
// Re-provisioning before enablement replaces the previous secret.
func (s *service) ProvisionTOTP(ctx context.Context, accountID uuid.UUID) (*TOTPProvisioning, error) {
	secret, err := totp.GenerateSecretKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	stored := secret
	if len(s.encryptionKey) > 0 {
		stored, err = totp.EncryptSecret(secret, s.encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to protect TOTP secret: %w", err)
		}
	}

	acc, err := s.accounts.UpdateAtomic(ctx, accountID, func(a *Account) error {
		if !a.IsActive {
			return ErrAccountInactive
		}
		if a.TOTPEnabled {
			return ErrTOTPAlreadyEnabled
		}
		a.TOTPSecret = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	uri, err := totp.GetTOTPURI(totp.TOTPParams{
		Secret:      secret,
		AccountName: accountLabel(acc),
		Issuer:      s.issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build provisioning URI: %w", err)
	}

	qr, err := qrcode.GenerateBase64Image(uri, qrCodeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render provisioning QR code: %w", err)
	}

	s.logger.Info("totp provisioned",
		logger.AccountID(accountID.String()),
		logger.Component("auth"),
	)

	return &TOTPProvisioning{
		Secret:          secret,
		ProvisioningURI: uri,
		QRCode:          qr,
	}, nil
}

// EnableTOTP verifies a code against the provisioned secret and turns the
// second factor on. The initial set of single-use backup codes is generated
// here and returned in plain form exactly once; only hashes are stored.
func (s *service) EnableTOTP(ctx context.Context, accountID uuid.UUID, code string, now time.Time) ([]string, error) {
	var plainCodes []string
	_, err := s.accounts.UpdateAtomic(ctx, accountID, func(a *Account) error {
		if !a.IsActive {
			return ErrAccountInactive
		}
		if a.TOTPEnabled {
			return ErrTOTPAlreadyEnabled
		}
		if a.TOTPSecret == "" {
			return ErrTOTPNotProvisioned
		}

		secret, err := s.secretFor(a)
		if err != nil {
			return err
		}

		ok, err := totp.ValidateTOTPWithSkew(secret, code, now, s.totpSkew)
		if err != nil || !ok {
			return ErrInvalidSecondFactor
		}

		codes, err := totp.GenerateRecoveryCodes(s.backupCodeCount)
		if err != nil {
			return fmt.Errorf("failed to generate backup codes: %w", err)
		}

		a.TOTPEnabled = true
		a.BackupCodes = hashCodes(codes)
		a.LastTOTPStep = 0
		plainCodes = codes
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("totp enabled",
		logger.AccountID(accountID.String()),
		logger.Component("auth"),
	)

	return plainCodes, nil
}

// DisableTOTP turns the second factor off after verifying a TOTP code or a
// backup code, then clears the secret and the whole backup-code set.
func (s *service) DisableTOTP(ctx context.Context, accountID uuid.UUID, code string, now time.Time) error {
	_, err := s.accounts.UpdateAtomic(ctx, accountID, func(a *Account) error {
		if !a.TOTPEnabled {
			return ErrTOTPNotEnabled
		}

		if err := s.verifySecondFactor(a, code, now); err != nil {
			if errors.Is(err, ErrInvalidSecondFactor) || errors.Is(err, ErrAccountInactive) {
				return err
			}
			return fmt.Errorf("failed to verify second factor: %w", err)
		}

		a.TOTPSecret = ""
		a.TOTPEnabled = false
		a.BackupCodes = nil
		a.LastTOTPStep = 0
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("totp disabled",
		logger.AccountID(accountID.String()),
		logger.Component("auth"),
	)

	return nil
}

// RegenerateBackupCodes replaces the backup-code set. The previous set is
// invalidated in full, even when it still contained unused codes.
func (s *service) RegenerateBackupCodes(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	codes, err := totp.GenerateRecoveryCodes(s.backupCodeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	_, err = s.accounts.UpdateAtomic(ctx, accountID, func(a *Account) error {
		if !a.IsActive {
			return ErrAccountInactive
		}
		if !a.TOTPEnabled {
			return ErrTOTPNotEnabled
		}
		a.BackupCodes = hashCodes(codes)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("backup codes regenerated",
		logger.AccountID(accountID.String()),
		logger.Component("auth"),
	)

	return codes, nil
}

func hashCodes(codes []string) []string {
	hashed := make([]string, len(codes))
	for i, code := range codes {
		hashed[i] = totp.HashRecoveryCode(code)
	}
	return hashed
}

func accountLabel(a *Account) string {
	if a.Email != "" {
		return a.Email
	}
	return a.Username
}
