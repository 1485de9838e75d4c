package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisChallengeKeyPrefix = "auth:challenge:"

type redisChallengePayload struct {
	AccountID string `json:"aid"`
	ExpiresAt int64  `json:"exp"`
}

// RedisChallengeStore implements ChallengeStore on top of go-redis.
// Challenges are stored with a TTL matching their expiry as a safety net;
// Consume relies on GETDEL so concurrent completions race safely.
type RedisChallengeStore struct {
	client *redis.Client
}

// NewRedisChallengeStore creates a Redis-backed challenge store.
func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

// Create stores the challenge with a TTL derived from its expiry.
func (s *RedisChallengeStore) Create(ctx context.Context, ch Challenge) error {
	payload, err := json.Marshal(redisChallengePayload{
		AccountID: ch.AccountID.String(),
		ExpiresAt: ch.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode challenge: %w", err)
	}

	ttl := time.Until(ch.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := s.client.Set(ctx, redisChallengeKeyPrefix+ch.ID.String(), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	return nil
}

// Get returns the challenge or ErrChallengeNotFound.
func (s *RedisChallengeStore) Get(ctx context.Context, id uuid.UUID) (Challenge, error) {
	raw, err := s.client.Get(ctx, redisChallengeKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Challenge{}, ErrChallengeNotFound
		}
		return Challenge{}, fmt.Errorf("failed to load challenge: %w", err)
	}
	return s.decode(id, raw)
}

// Consume atomically removes and returns the challenge via GETDEL.
func (s *RedisChallengeStore) Consume(ctx context.Context, id uuid.UUID) (Challenge, error) {
	raw, err := s.client.GetDel(ctx, redisChallengeKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Challenge{}, ErrChallengeNotFound
		}
		return Challenge{}, fmt.Errorf("failed to consume challenge: %w", err)
	}
	return s.decode(id, raw)
}

func (s *RedisChallengeStore) decode(id uuid.UUID, raw []byte) (Challenge, error) {
	var payload redisChallengePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Challenge{}, fmt.Errorf("failed to decode challenge: %w", err)
	}

	accountID, err := uuid.Parse(payload.AccountID)
	if err != nil {
		return Challenge{}, fmt.Errorf("failed to decode challenge account id: %w", err)
	}

	return Challenge{
		ID:        id,
		AccountID: accountID,
		ExpiresAt: time.Unix(payload.ExpiresAt, 0),
	}, nil
}

// Compile-time interface assertion
var _ ChallengeStore = (*RedisChallengeStore)(nil)
