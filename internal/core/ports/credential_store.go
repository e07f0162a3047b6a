package ports

import (
	"context"
	"time"
)

// CredentialStore is the single persistent slot holding the bearer
// credential. Load returns "" and a nil error when the slot is empty.
type CredentialStore interface {
	Load(ctx context.Context) (string, error)
	// Save replaces the stored credential. expiresAt may be zero when the
	// expiry is unknown.
	Save(ctx context.Context, token string, expiresAt time.Time) error
	Clear(ctx context.Context) error
}
