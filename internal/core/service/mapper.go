package service

import (
	"strconv"
	"time"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
)

// MapBackendUser converts a backend profile into the local account shape.
// It is the only place the derivation rules live:
//   - name is the local part of the e-mail address
//   - role and canAssignTasks both follow is_admin
//   - the backend does not report activity or creation time, so accounts
//     are active and stamped with now
func MapBackendUser(u ports.BackendUser, now time.Time) domain.User {
	return domain.User{
		ID:             strconv.FormatInt(u.ID, 10),
		Name:           domain.NameFromEmail(u.Email),
		Email:          u.Email,
		Role:           domain.RoleFromAdminFlag(u.IsAdmin),
		Avatar:         domain.DefaultAvatar,
		CanAssignTasks: u.IsAdmin,
		IsActive:       true,
		CreatedAt:      now,
	}
}

func mapBackendUsers(in []ports.BackendUser, now time.Time) []domain.User {
	out := make([]domain.User, len(in))
	for i, u := range in {
		out[i] = MapBackendUser(u, now)
	}
	return out
}
