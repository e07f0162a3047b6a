package service

import (
	"context"
	"fmt"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
	"github.com/taskdash/dashboard/internal/metrics"
	"github.com/taskdash/dashboard/internal/pkg/validation"
)

// LoadUsers refreshes the user cache from the backend. Non-admin sessions
// get an empty collection and no network call. A response that arrives
// after the session changed, or after a later load already committed, is
// discarded.
func (s *StoreService) LoadUsers(ctx context.Context) error {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	authz := s.session.Authorization()
	if !authz.Admin() {
		s.mu.Lock()
		s.userList = nil
		s.loadCommitted = max(s.loadCommitted, seq)
		s.mu.Unlock()
		return nil
	}

	fetched, err := s.users.ListUsers(ctx, s.session.Token())
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	mapped := mapBackendUsers(fetched, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Authorization() != authz || seq < s.loadCommitted {
		metrics.UserLoadsDiscardedTotal.Inc()
		s.log.Debug().Uint64("generation", authz.Generation).Uint64("load", seq).Msg("discarding stale user list")
		return nil
	}
	s.userList = mapped
	s.loadCommitted = seq
	s.log.Debug().Int("count", len(mapped)).Msg("users loaded")
	return nil
}

// Users returns a copy of the cached accounts.
func (s *StoreService) Users() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.User(nil), s.userList...)
}

// AddUser creates an account on the backend and caches it. The form is
// validated before anything is sent; nothing is cached on failure.
func (s *StoreService) AddUser(ctx context.Context, in ports.NewUser) (domain.User, error) {
	if err := validation.Struct(in); err != nil {
		return domain.User{}, err
	}

	authz := s.session.Authorization()
	switch {
	case authz.Role == "":
		return domain.User{}, domain.ErrUnauthenticated
	case !authz.Admin():
		return domain.User{}, domain.ErrForbidden
	}

	created, err := s.users.CreateUser(ctx, s.session.Token(), ports.CreateUserRequest{
		Email:    in.Email,
		Password: in.Password,
		IsAdmin:  domain.Role(in.Role) == domain.RoleAdmin,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("email", in.Email).Msg("failed to add user")
		return domain.User{}, fmt.Errorf("add user: %w", err)
	}
	user := MapBackendUser(*created, s.now())

	s.mu.Lock()
	if s.session.Authorization() == authz {
		if idx := s.findUserLocked(user.ID); idx >= 0 {
			s.userList[idx] = user
		} else {
			s.userList = append(s.userList, user)
		}
	}
	s.mu.Unlock()

	s.log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("user created")

	if err := s.LoadUsers(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to reconcile users after create")
	}
	return user, nil
}

// UpdateUser merges patch into a cached account. The change is local only.
func (s *StoreService) UpdateUser(id string, patch ports.UserPatch) (domain.User, error) {
	if err := validation.Struct(patch); err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findUserLocked(id)
	if idx < 0 {
		return domain.User{}, domain.ErrUserNotFound
	}

	u := s.userList[idx]
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Role != nil {
		u.Role = domain.Role(*patch.Role)
		u.CanAssignTasks = u.Role == domain.RoleAdmin
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}
	if patch.IsActive != nil {
		u.IsActive = *patch.IsActive
	}
	if patch.LastLogin != nil {
		ts := *patch.LastLogin
		u.LastLogin = &ts
	}
	s.userList[idx] = u
	return u, nil
}

// DeleteUser removes an account from the cache.
func (s *StoreService) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findUserLocked(id)
	if idx < 0 {
		return domain.ErrUserNotFound
	}
	s.userList = append(s.userList[:idx:idx], s.userList[idx+1:]...)
	return nil
}

func (s *StoreService) findUserLocked(id string) int {
	for i, u := range s.userList {
		if u.ID == id {
			return i
		}
	}
	return -1
}
