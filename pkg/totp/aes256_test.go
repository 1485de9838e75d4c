package totp_test

import (
	"testing"

	"github.com/dmitrymomot/authguard/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecret(t *testing.T) {
	t.Parallel()
	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	encrypted, err := totp.EncryptSecret(secret, key)
	require.NoError(t, err)
	assert.NotEqual(t, secret, encrypted)

	decrypted, err := totp.DecryptSecret(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, secret, decrypted)
}

func TestEncryptSecretInvalidKey(t *testing.T) {
	t.Parallel()
	_, err := totp.EncryptSecret("whatever", []byte("short"))
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
}

func TestDecryptSecretErrors(t *testing.T) {
	t.Parallel()
	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	tests := []struct {
		name       string
		cipherText string
		key        []byte
	}{
		{
			name:       "Invalid key length",
			cipherText: "aGVsbG8=",
			key:        []byte("short"),
		},
		{
			name:       "Not base64",
			cipherText: "%%%not-base64%%%",
			key:        key,
		},
		{
			name:       "Cipher too short",
			cipherText: "aGk=",
			key:        key,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := totp.DecryptSecret(tt.cipherText, tt.key)
			assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
		})
	}
}

func TestDecryptSecretWrongKey(t *testing.T) {
	t.Parallel()
	key1, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)
	key2, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	encrypted, err := totp.EncryptSecret("top-secret", key1)
	require.NoError(t, err)

	_, err = totp.DecryptSecret(encrypted, key2)
	assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
}

func TestDecodeEncryptionKey(t *testing.T) {
	t.Parallel()
	encoded, err := totp.GenerateEncodedEncryptionKey()
	require.NoError(t, err)

	key, err := totp.DecodeEncryptionKey(encoded)
	require.NoError(t, err)
	assert.Len(t, key, totp.AESKeySize)

	_, err = totp.DecodeEncryptionKey("dG9vLXNob3J0")
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
}
