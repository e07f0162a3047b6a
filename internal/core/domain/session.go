package domain

import "time"

// SessionStatus is a state of the session lifecycle:
//
//	Uninitialized → Resolving → {Authenticated, Anonymous}
//	Authenticated → Anonymous   (logout, validation failure)
//	Anonymous     → Resolving   (login attempt)
type SessionStatus string

const (
	SessionUninitialized SessionStatus = "uninitialized"
	SessionResolving     SessionStatus = "resolving"
	SessionAuthenticated SessionStatus = "authenticated"
	SessionAnonymous     SessionStatus = "anonymous"
)

// Claims is the decoded, unverified payload of a credential.
type Claims struct {
	Subject   string
	IsAdmin   bool
	ExpiresAt time.Time
	// UserID is the numeric account id when the issuer embeds one.
	UserID *int64
}

// Expired reports whether the claims are no longer usable at now. An expiry
// equal to now counts as expired.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// SessionState is the read model exposed to the rest of the application.
type SessionState struct {
	Status          SessionStatus `json:"status"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	Identity        *Identity     `json:"identity"`
	IsLoading       bool          `json:"isLoading"`
	// Generation changes every time the credential or identity changes.
	Generation uint64 `json:"-"`
}

// Role returns the identity role, or "" when anonymous.
func (s SessionState) Role() Role {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// Authz is the authorization context captured at the start of a remote
// operation so the result can be checked for staleness before commit.
type Authz struct {
	Generation uint64
	Role       Role
}

// Admin reports whether the captured context grants admin rights.
func (a Authz) Admin() bool {
	return a.Role == RoleAdmin
}
