package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryAccountStore implements AccountStore with in-memory storage.
// Suitable for tests and single-process deployments; the store-wide mutex
// serializes UpdateAtomic calls, which satisfies the per-account atomicity
// contract trivially.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account
}

// NewMemoryAccountStore creates an empty in-memory account store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[uuid.UUID]*Account),
	}
}

// Create adds a new account. Returns ErrAccountAlreadyExists when the ID,
// username, or email is already taken.
func (s *MemoryAccountStore) Create(ctx context.Context, acc *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acc.ID]; exists {
		return ErrAccountAlreadyExists
	}
	for _, existing := range s.accounts {
		if identifierMatches(existing, acc.Username) || identifierMatches(existing, acc.Email) {
			return ErrAccountAlreadyExists
		}
	}

	s.accounts[acc.ID] = acc.Clone()
	return nil
}

// GetByID returns a copy of the account or ErrAccountNotFound.
func (s *MemoryAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, exists := s.accounts[id]
	if !exists {
		return nil, ErrAccountNotFound
	}
	return acc.Clone(), nil
}

// GetByIdentifier resolves a copy of the account by username or email, case-insensitively.
func (s *MemoryAccountStore) GetByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, acc := range s.accounts {
		if identifierMatches(acc, identifier) {
			return acc.Clone(), nil
		}
	}
	return nil, ErrAccountNotFound
}

// UpdateAtomic applies fn to the stored account under the store lock.
func (s *MemoryAccountStore) UpdateAtomic(ctx context.Context, id uuid.UUID, fn func(*Account) error) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, exists := s.accounts[id]
	if !exists {
		return nil, ErrAccountNotFound
	}

	// fn mutates a copy so a returned error leaves the stored record untouched
	updated := acc.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}

	s.accounts[id] = updated
	return updated.Clone(), nil
}

func identifierMatches(acc *Account, identifier string) bool {
	if identifier == "" {
		return false
	}
	identifier = strings.ToLower(identifier)
	return strings.ToLower(acc.Username) == identifier || strings.ToLower(acc.Email) == identifier
}

// Compile-time interface assertion
var _ AccountStore = (*MemoryAccountStore)(nil)
