package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
)

const (
	// RecoveryCodeLength is the number of characters in a generated recovery code.
	RecoveryCodeLength = 8

	// DefaultRecoveryCodeCount is the size of a freshly generated recovery code set.
	DefaultRecoveryCodeCount = 10

	// recoveryCodeAlphabet omits visually ambiguous characters (0/O, 1/I/L)
	// so codes survive being read off paper.
	recoveryCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
)

// GenerateRecoveryCodes creates cryptographically secure backup codes for account
// recovery. Each code is an 8-character upper-case string drawn from an
// unambiguous alphanumeric alphabet. Codes within a batch are unique.
func GenerateRecoveryCodes(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidRecoveryCodeCount
	}

	codes := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for len(codes) < count {
		code, err := generateRecoveryCode()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

func generateRecoveryCode() (string, error) {
	alphabetSize := big.NewInt(int64(len(recoveryCodeAlphabet)))
	buf := make([]byte, RecoveryCodeLength)
	for i := range buf {
		// rand.Int performs rejection sampling, so no modulo bias
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", errors.Join(ErrFailedToGenerateRecoveryCode, err)
		}
		buf[i] = recoveryCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// HashRecoveryCode creates a SHA-256 hash for secure storage of recovery codes.
// Matching is case-sensitive: the code is hashed exactly as provided.
func HashRecoveryCode(code string) string {
	hash := sha256.Sum256([]byte(code))
	return hex.EncodeToString(hash[:])
}

// VerifyRecoveryCode performs constant-time comparison to prevent timing attacks.
func VerifyRecoveryCode(code, hashedCode string) bool {
	computedHash := HashRecoveryCode(code)

	return subtle.ConstantTimeCompare(
		[]byte(computedHash),
		[]byte(hashedCode),
	) == 1
}
