package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Challenge is the ephemeral pending second-factor token issued after a
// successful password check on a TOTP-enabled account. It expires purely by
// timestamp comparison against the caller-supplied clock; no active eviction
// is required of stores.
type Challenge struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	ExpiresAt time.Time
}

// ChallengeStore keeps pending challenges between the password step and the
// second-factor step. Implementations may apply a TTL as a safety net but the
// authoritative expiry check is the service comparing ExpiresAt to its clock.
type ChallengeStore interface {
	// Create stores a new pending challenge.
	Create(ctx context.Context, ch Challenge) error

	// Get returns the challenge or ErrChallengeNotFound.
	Get(ctx context.Context, id uuid.UUID) (Challenge, error)

	// Consume atomically removes and returns the challenge, or
	// ErrChallengeNotFound when it was never created or already consumed.
	// Exactly one of any concurrent Consume calls for the same ID succeeds.
	Consume(ctx context.Context, id uuid.UUID) (Challenge, error)
}

// MemoryChallengeStore implements ChallengeStore with in-memory storage.
type MemoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]Challenge
}

// NewMemoryChallengeStore creates an empty in-memory challenge store.
func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[uuid.UUID]Challenge),
	}
}

// Create stores a new pending challenge.
func (s *MemoryChallengeStore) Create(ctx context.Context, ch Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[ch.ID] = ch
	return nil
}

// Get returns the challenge or ErrChallengeNotFound.
func (s *MemoryChallengeStore) Get(ctx context.Context, id uuid.UUID) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, exists := s.challenges[id]
	if !exists {
		return Challenge{}, ErrChallengeNotFound
	}
	return ch, nil
}

// Consume atomically removes and returns the challenge.
func (s *MemoryChallengeStore) Consume(ctx context.Context, id uuid.UUID) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, exists := s.challenges[id]
	if !exists {
		return Challenge{}, ErrChallengeNotFound
	}
	delete(s.challenges, id)
	return ch, nil
}

// Compile-time interface assertion
var _ ChallengeStore = (*MemoryChallengeStore)(nil)
