package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// signToken builds an HS256 token the way the backend does. The signature is
// never checked client-side, so the key is arbitrary.
func signToken(t *testing.T, sub string, isAdmin bool, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub, "is_admin": isAdmin, "exp": exp.Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// stubBackend implements the backend ports in memory.
type stubBackend struct {
	mu sync.Mutex

	token    string
	tokenErr error
	profiles map[string]*ports.BackendUser // by token
	meErr    error
	onMe     func()

	users     []ports.BackendUser
	listErr   error
	onList    func()
	createErr error

	issueCalls  int
	meCalls     int
	listCalls   int
	createCalls int
	created     []ports.CreateUserRequest
	tasks       []ports.CreateTaskRequest
}

func (b *stubBackend) IssueToken(_ context.Context, _, _ string) (*ports.TokenResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issueCalls++
	if b.tokenErr != nil {
		return nil, b.tokenErr
	}
	return &ports.TokenResponse{AccessToken: b.token, TokenType: "bearer"}, nil
}

func (b *stubBackend) CurrentUser(_ context.Context, token string) (*ports.BackendUser, error) {
	b.mu.Lock()
	b.meCalls++
	hook := b.onMe
	err := b.meErr
	p := b.profiles[token]
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.RemoteRejectedError{StatusCode: 401, Message: "Could not validate credentials"}
	}
	cp := *p
	return &cp, nil
}

func (b *stubBackend) ListUsers(_ context.Context, _ string) ([]ports.BackendUser, error) {
	b.mu.Lock()
	b.listCalls++
	hook := b.onList
	err := b.listErr
	out := append([]ports.BackendUser(nil), b.users...)
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *stubBackend) CreateUser(_ context.Context, _ string, req ports.CreateUserRequest) (*ports.BackendUser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createCalls++
	if b.createErr != nil {
		return nil, b.createErr
	}
	b.created = append(b.created, req)
	u := ports.BackendUser{ID: int64(len(b.users) + 1), Email: req.Email, IsAdmin: req.IsAdmin}
	b.users = append(b.users, u)
	return &u, nil
}

func (b *stubBackend) CreateTask(_ context.Context, _ string, req ports.CreateTaskRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = append(b.tasks, req)
	return nil
}

// stubCreds is an in-memory credential slot that counts writes.
type stubCreds struct {
	token   string
	loadErr error
	saves   int
	clears  int
	onWrite func()
}

func (c *stubCreds) Load(context.Context) (string, error) {
	if c.loadErr != nil {
		return "", c.loadErr
	}
	return c.token, nil
}

func (c *stubCreds) Save(_ context.Context, token string, _ time.Time) error {
	if c.onWrite != nil {
		c.onWrite()
	}
	c.saves++
	c.token = token
	return nil
}

func (c *stubCreds) Clear(context.Context) error {
	if c.onWrite != nil {
		c.onWrite()
	}
	c.clears++
	c.token = ""
	return nil
}

// fakeSession is a hand-driven ports.SessionService for store tests.
type fakeSession struct {
	mu    sync.Mutex
	state domain.SessionState
	token string
	subs  []func(domain.SessionState)
}

func newFakeSession() *fakeSession {
	return &fakeSession{state: domain.SessionState{Status: domain.SessionAnonymous, Generation: 1}}
}

func (f *fakeSession) Initialize(context.Context)                  {}
func (f *fakeSession) Login(context.Context, string, string) error { return nil }
func (f *fakeSession) Logout(context.Context)                      { f.set(nil, "") }

func (f *fakeSession) Snapshot() domain.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) Subscribe(fn func(domain.SessionState)) func() {
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	f.mu.Unlock()
	return func() {}
}

func (f *fakeSession) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeSession) Authorization() domain.Authz {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.Authz{Generation: f.state.Generation, Role: f.state.Role()}
}

// set switches identity (nil for anonymous), bumps the generation and
// publishes the new state.
func (f *fakeSession) set(id *domain.Identity, token string) {
	f.mu.Lock()
	f.state.Generation++
	f.state.Identity = id
	f.state.IsAuthenticated = id != nil
	f.state.Status = domain.SessionAnonymous
	if id != nil {
		f.state.Status = domain.SessionAuthenticated
	}
	f.token = token
	st := f.state
	subs := append([]func(domain.SessionState){}, f.subs...)
	f.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

func adminIdentity() *domain.Identity {
	return &domain.Identity{ID: "1", Name: "admin", Email: "admin@co.com", Role: domain.RoleAdmin, IsActive: true}
}

func memberIdentity() *domain.Identity {
	return &domain.Identity{ID: "2", Name: "bob", Email: "bob@co.com", Role: domain.RoleUser, IsActive: true}
}

// sequentialIDs returns an id generator producing id-1, id-2, ...
func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}
