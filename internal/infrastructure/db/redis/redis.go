package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// Config describes the Redis deployment holding the shared credential slot.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
	// Key names the slot; empty means DefaultCredentialKey.
	Key string
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}

// Connect opens a client and pings it once so a misconfigured address fails
// at start-up rather than on the first login.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.timeout()
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("credential slot at redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// OpenCredentialStore connects and returns the slot named by cfg.Key. The
// store owns the connection; Close releases it.
func OpenCredentialStore(ctx context.Context, cfg Config) (*CredentialStore, error) {
	client, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewCredentialStore(client, cfg.Key), nil
}
