package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authguard/pkg/auth"

	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store is down")

func mustHashPassword(t *testing.T, password string) []byte {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return hash
}

// failingAccountStore returns errStoreDown from every operation.
type failingAccountStore struct{}

func (failingAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	return nil, errStoreDown
}

func (failingAccountStore) GetByIdentifier(ctx context.Context, identifier string) (*auth.Account, error) {
	return nil, errStoreDown
}

func (failingAccountStore) UpdateAtomic(ctx context.Context, id uuid.UUID, fn func(*auth.Account) error) (*auth.Account, error) {
	return nil, errStoreDown
}

// failingChallengeStore returns errStoreDown from every operation.
type failingChallengeStore struct{}

func (failingChallengeStore) Create(ctx context.Context, ch auth.Challenge) error {
	return errStoreDown
}

func (failingChallengeStore) Get(ctx context.Context, id uuid.UUID) (auth.Challenge, error) {
	return auth.Challenge{}, errStoreDown
}

func (failingChallengeStore) Consume(ctx context.Context, id uuid.UUID) (auth.Challenge, error) {
	return auth.Challenge{}, errStoreDown
}
