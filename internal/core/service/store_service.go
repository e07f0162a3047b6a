package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
)

const defaultDeadlineWindow = 24 * time.Hour

// StoreOption customises a StoreService.
type StoreOption func(*StoreService)

// WithStoreClock overrides the time source for timestamps.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *StoreService) { s.now = now }
}

// WithIDGenerator overrides the identifier source for tasks and
// notifications.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *StoreService) { s.newID = gen }
}

// WithTaskMirror sends every locally created task to the backend as well.
func WithTaskMirror(b ports.TaskBackend) StoreOption {
	return func(s *StoreService) { s.mirror = b }
}

// WithClientDirectory sets the source of the customer catalog.
func WithClientDirectory(d ports.ClientDirectory) StoreOption {
	return func(s *StoreService) { s.clients = d }
}

// WithDeadlineWindow sets how far ahead of a due date the reminder sweep
// warns. Zero disables deadline warnings.
func WithDeadlineWindow(d time.Duration) StoreOption {
	return func(s *StoreService) { s.deadlineWindow = d }
}

// StoreService implements ports.StoreService. Tasks and notifications are
// client-authoritative and only ever live in memory; the user collection is
// a cache of the backend, populated only for administrators.
type StoreService struct {
	session        ports.SessionService
	users          ports.UserBackend
	mirror         ports.TaskBackend
	clients        ports.ClientDirectory
	log            zerolog.Logger
	now            func() time.Time
	newID          func() string
	deadlineWindow time.Duration

	mu               sync.Mutex
	userList         []domain.User
	taskList         []domain.Task
	notifications    []domain.Notification // newest first
	clientList       []domain.Client
	selectedClientID string
	reminded         map[string]struct{}
	deadlineWarned   map[string]struct{}
	lastGeneration   uint64
	adminView        bool
	loadSeq          uint64 // last LoadUsers started
	loadCommitted    uint64 // last LoadUsers whose result stands
}

// NewStoreService builds an empty store bound to session for authorization.
func NewStoreService(session ports.SessionService, users ports.UserBackend, log zerolog.Logger, opts ...StoreOption) *StoreService {
	s := &StoreService{
		session:        session,
		users:          users,
		log:            log,
		now:            time.Now,
		newID:          uuid.NewString,
		deadlineWindow: defaultDeadlineWindow,
		reminded:       make(map[string]struct{}),
		deadlineWarned: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind subscribes the store to session changes: entering the admin role
// loads users, leaving it clears them immediately. ctx bounds the loads
// triggered this way.
func (s *StoreService) Bind(ctx context.Context) (unsubscribe func()) {
	unsubscribe = s.session.Subscribe(func(st domain.SessionState) {
		s.onSession(ctx, st)
	})
	s.onSession(ctx, s.session.Snapshot())
	return unsubscribe
}

func (s *StoreService) onSession(ctx context.Context, st domain.SessionState) {
	s.mu.Lock()
	if st.Generation < s.lastGeneration {
		s.mu.Unlock()
		return
	}
	s.lastGeneration = st.Generation
	wasAdmin := s.adminView
	s.adminView = st.IsAuthenticated && st.Role() == domain.RoleAdmin
	if !s.adminView {
		s.userList = nil
	}
	becameAdmin := s.adminView && !wasAdmin
	s.mu.Unlock()

	if becameAdmin {
		if err := s.LoadUsers(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to load users after sign-in")
		}
	}
}

// LoadClients replaces the customer catalog from the configured directory.
func (s *StoreService) LoadClients(ctx context.Context) error {
	if s.clients == nil {
		return nil
	}
	list, err := s.clients.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("load clients: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientList = list
	if s.selectedClientID != "" && s.findClientLocked(s.selectedClientID) < 0 {
		s.selectedClientID = ""
	}
	return nil
}

// Clients returns a copy of the catalog.
func (s *StoreService) Clients() []domain.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Client(nil), s.clientList...)
}

// SelectClient marks a client as selected. An empty id clears the selection.
func (s *StoreService) SelectClient(id string) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.selectedClientID = ""
		return nil, nil
	}
	idx := s.findClientLocked(id)
	if idx < 0 {
		return nil, domain.ErrClientNotFound
	}
	s.selectedClientID = id
	c := s.clientList[idx]
	return &c, nil
}

// SelectedClient returns the selected client, or nil.
func (s *StoreService) SelectedClient() *domain.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findClientLocked(s.selectedClientID)
	if idx < 0 {
		return nil
	}
	c := s.clientList[idx]
	return &c
}

func (s *StoreService) findClientLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, c := range s.clientList {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Stats summarises tasks overall and for viewer.
func (s *StoreService) Stats(viewer *domain.Identity) ports.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st ports.Stats
	for _, t := range s.taskList {
		st.All.Add(t.Status)
		if viewer != nil && t.AssignedTo == viewer.ID {
			st.Mine.Add(t.Status)
		}
	}
	for _, u := range s.userList {
		if u.IsActive {
			st.ActiveUsers++
		}
	}
	if viewer != nil {
		for _, n := range s.notifications {
			if n.UserID == viewer.ID && !n.IsRead {
				st.Unread++
			}
		}
	}
	return st
}

// actorID is the id of the signed-in user, or "" when anonymous.
func (s *StoreService) actorID() string {
	st := s.session.Snapshot()
	if st.Identity == nil {
		return ""
	}
	return st.Identity.ID
}
