package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
	"github.com/taskdash/dashboard/internal/metrics"
)

// ErrSessionSuperseded is returned by Login when a logout or another login
// replaced the session before the attempt finished.
var ErrSessionSuperseded = errors.New("session changed while resolving")

// SessionOption customises a SessionService.
type SessionOption func(*SessionService)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// WithProfileResolution toggles the GET /users/me/ lookup after a
// credential has been decoded.
func WithProfileResolution(enabled bool) SessionOption {
	return func(s *SessionService) { s.resolveProfile = enabled }
}

// SessionService implements ports.SessionService.
//
// Every change of credential or identity bumps generation; network results
// are committed only when the generation they started under is still
// current.
type SessionService struct {
	backend        ports.AuthBackend
	creds          ports.CredentialStore
	log            zerolog.Logger
	now            func() time.Time
	resolveProfile bool

	mu         sync.RWMutex
	status     domain.SessionStatus
	token      string
	identity   *domain.Identity
	generation uint64

	// credMu orders credential store I/O, which never runs under mu.
	credMu sync.Mutex

	subMu   sync.Mutex
	subs    []subscriber
	nextSub uint64
}

type subscriber struct {
	id uint64
	fn func(domain.SessionState)
}

// NewSessionService returns a session in the Uninitialized state. Profile
// resolution is enabled by default.
func NewSessionService(backend ports.AuthBackend, creds ports.CredentialStore, log zerolog.Logger, opts ...SessionOption) *SessionService {
	s := &SessionService{
		backend:        backend,
		creds:          creds,
		log:            log,
		now:            time.Now,
		resolveProfile: true,
		status:         domain.SessionUninitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize resolves whatever credential is in the store.
func (s *SessionService) Initialize(ctx context.Context) {
	token, err := s.creds.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("credential store unavailable, starting anonymous")
		token = ""
	}

	if token == "" {
		s.mu.Lock()
		s.generation++
		s.setStatus(domain.SessionAnonymous)
		s.token, s.identity = "", nil
		s.mu.Unlock()
		s.publish()
		return
	}

	gen := s.begin(token)
	if err := s.resolve(ctx, gen, token); err != nil {
		s.log.Info().Err(err).Msg("stored credential rejected, session is anonymous")
	}
}

// Login exchanges identifier and secret for a credential and resolves the
// identity behind it. On any failure the session ends up anonymous with no
// credential and the error is returned.
func (s *SessionService) Login(ctx context.Context, identifier, secret string) error {
	var missing []string
	if identifier == "" {
		missing = append(missing, "username is required")
	}
	if secret == "" {
		missing = append(missing, "password is required")
	}
	if len(missing) > 0 {
		// A failed attempt never leaves the previous identity signed in.
		s.discard(ctx, s.begin(""), "login_failed")
		return domain.NewValidationError(missing...)
	}

	gen := s.begin("")
	s.log.Debug().Str("username", identifier).Msg("login attempt")

	resp, err := s.backend.IssueToken(ctx, identifier, secret)
	if err != nil {
		s.discard(ctx, gen, "login_failed")
		return fmt.Errorf("login: %w", err)
	}

	claims, err := DecodeClaims(resp.AccessToken)
	if err != nil {
		s.discard(ctx, gen, "malformed")
		return fmt.Errorf("login: %w", err)
	}

	if !s.store(ctx, gen, resp.AccessToken, claims.ExpiresAt) {
		return ErrSessionSuperseded
	}

	if err := s.resolve(ctx, gen, resp.AccessToken); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("username", identifier).Msg("logged in")
	return nil
}

// Logout drops the credential and identity. It never waits on the network
// and is idempotent.
func (s *SessionService) Logout(ctx context.Context) {
	s.mu.Lock()
	changed := s.status != domain.SessionAnonymous || s.token != "" || s.identity != nil
	if changed {
		s.generation++
		s.setStatus(domain.SessionAnonymous)
	}
	s.token, s.identity = "", nil
	gen := s.generation
	s.mu.Unlock()

	s.persist(gen, func() error { return s.creds.Clear(ctx) })

	if changed {
		s.log.Info().Msg("logged out")
		s.publish()
	}
}

// Snapshot returns the current read model.
func (s *SessionService) Snapshot() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Token returns the credential of an authenticated session.
func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != domain.SessionAuthenticated {
		return ""
	}
	return s.token
}

// Authorization captures the current authorization context.
func (s *SessionService) Authorization() domain.Authz {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := domain.Authz{Generation: s.generation}
	if s.status == domain.SessionAuthenticated && s.identity != nil {
		a.Role = s.identity.Role
	}
	return a
}

// Subscribe registers fn for state changes. Handlers run synchronously on
// the goroutine that caused the change, in registration order.
func (s *SessionService) Subscribe(fn func(domain.SessionState)) func() {
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// begin enters Resolving for token and returns the new generation.
func (s *SessionService) begin(token string) uint64 {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.setStatus(domain.SessionResolving)
	s.token, s.identity = token, nil
	s.mu.Unlock()
	s.publish()
	return gen
}

// resolve validates token and commits the identity for generation gen.
func (s *SessionService) resolve(ctx context.Context, gen uint64, token string) error {
	claims, err := DecodeClaims(token)
	if err != nil {
		s.discard(ctx, gen, "malformed")
		return err
	}
	if claims.Expired(s.now()) {
		s.discard(ctx, gen, "expired")
		return fmt.Errorf("%w: expired at %s", domain.ErrAuthExpired, claims.ExpiresAt.UTC().Format(time.RFC3339))
	}

	identity := IdentityFromClaims(claims, s.now())
	if s.resolveProfile {
		profile, err := s.backend.CurrentUser(ctx, token)
		if err != nil {
			s.discard(ctx, gen, "profile_failed")
			return fmt.Errorf("resolve profile: %w", err)
		}
		identity = withProfile(identity, profile)
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return ErrSessionSuperseded
	}
	s.generation++
	s.setStatus(domain.SessionAuthenticated)
	s.identity = &identity
	s.mu.Unlock()

	s.publish()
	return nil
}

// store adopts and persists token if gen is still current.
func (s *SessionService) store(ctx context.Context, gen uint64, token string, expiresAt time.Time) bool {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return false
	}
	s.token = token
	s.mu.Unlock()

	return s.persist(gen, func() error { return s.creds.Save(ctx, token, expiresAt) })
}

// persist runs op against the credential store unless a later state change
// has taken over the slot. It reports whether op ran.
func (s *SessionService) persist(gen uint64, op func() error) bool {
	s.credMu.Lock()
	defer s.credMu.Unlock()

	s.mu.RLock()
	current := s.generation == gen
	s.mu.RUnlock()
	if !current {
		return false
	}
	if err := op(); err != nil {
		s.log.Warn().Err(err).Msg("credential store update failed")
	}
	return true
}

// discard drops the credential of generation gen and goes anonymous.
func (s *SessionService) discard(ctx context.Context, gen uint64, reason string) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.generation++
	s.setStatus(domain.SessionAnonymous)
	s.token, s.identity = "", nil
	cleared := s.generation
	s.mu.Unlock()

	s.persist(cleared, func() error { return s.creds.Clear(ctx) })
	metrics.SessionDowngradesTotal.WithLabelValues(reason).Inc()
	s.publish()
}

// setStatus must be called with mu held.
func (s *SessionService) setStatus(st domain.SessionStatus) {
	s.status = st
	metrics.SessionTransitionsTotal.WithLabelValues(string(st)).Inc()
}

func (s *SessionService) snapshotLocked() domain.SessionState {
	st := domain.SessionState{
		Status:          s.status,
		IsAuthenticated: s.status == domain.SessionAuthenticated,
		IsLoading:       s.status == domain.SessionUninitialized || s.status == domain.SessionResolving,
		Generation:      s.generation,
	}
	if s.identity != nil {
		id := *s.identity
		st.Identity = &id
	}
	return st
}

// publish delivers the current state to every subscriber. A panicking
// handler is logged and does not stop delivery to the others.
func (s *SessionService) publish() {
	state := s.Snapshot()

	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		s.safeCall(sub.fn, state)
	}
}

func (s *SessionService) safeCall(fn func(domain.SessionState), state domain.SessionState) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("session subscriber panicked")
		}
	}()
	fn(state)
}
