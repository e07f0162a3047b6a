package ports

import (
	"context"

	"github.com/taskdash/dashboard/internal/core/domain"
)

// SessionService owns the credential and the identity derived from it.
type SessionService interface {
	// Initialize resolves the stored credential. Invalid or expired
	// credentials downgrade the session to anonymous without an error.
	Initialize(ctx context.Context)
	Login(ctx context.Context, identifier, secret string) error
	Logout(ctx context.Context)

	Snapshot() domain.SessionState
	// Subscribe registers fn to receive every new state. The returned func
	// removes the subscription.
	Subscribe(fn func(domain.SessionState)) (unsubscribe func())

	// Token returns the live credential, or "" when anonymous.
	Token() string
	Authorization() domain.Authz
}
