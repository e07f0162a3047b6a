package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCredentialKey is the key holding the bearer credential.
const DefaultCredentialKey = "dashboard:credential"

// CredentialStore keeps the bearer credential in a single Redis key so that
// several processes (the API server and the CLI) share one session. The key
// expires together with the credential.
type CredentialStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewCredentialStore wraps client. An empty key falls back to
// DefaultCredentialKey.
func NewCredentialStore(client *redis.Client, key string) *CredentialStore {
	if key == "" {
		key = DefaultCredentialKey
	}
	return &CredentialStore{client: client, key: key, now: time.Now}
}

// Load returns the stored credential, or "" when the key is absent.
func (s *CredentialStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	return token, nil
}

// Save replaces the credential. A zero expiresAt stores it without a TTL;
// an expiry in the past clears the slot instead.
func (s *CredentialStore) Save(ctx context.Context, token string, expiresAt time.Time) error {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(s.now())
		if ttl <= 0 {
			return s.Clear(ctx)
		}
	}
	if err := s.client.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// Clear removes the credential. Clearing an empty slot is not an error.
func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// Key returns the Redis key of the slot.
func (s *CredentialStore) Key() string { return s.key }

// Close releases the underlying connection.
func (s *CredentialStore) Close() error {
	return s.client.Close()
}

// Ping reports whether Redis is reachable.
func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
