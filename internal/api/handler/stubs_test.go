package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskdash/dashboard/internal/api/middleware"
	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
)

// stubStore overrides the store methods a test needs. Any other method
// panics through the nil embedded interface.
type stubStore struct {
	ports.StoreService

	tasks         map[string]domain.Task
	addTaskFn     func(ports.NewTask) (domain.Task, error)
	updateTaskFn  func(string, ports.TaskPatch) (domain.Task, error)
	notifications []domain.Notification
	marked        []string
	selectFn      func(string) (*domain.Client, error)
}

func (s *stubStore) Task(id string) (domain.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return t, nil
}

func (s *stubStore) AddTask(_ context.Context, in ports.NewTask) (domain.Task, error) {
	return s.addTaskFn(in)
}

func (s *stubStore) UpdateTask(id string, patch ports.TaskPatch) (domain.Task, error) {
	return s.updateTaskFn(id, patch)
}

func (s *stubStore) Notifications(userID string) []domain.Notification {
	var out []domain.Notification
	for _, n := range s.notifications {
		if userID == "" || n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (s *stubStore) MarkNotificationAsRead(id string) error {
	s.marked = append(s.marked, id)
	return nil
}

func (s *stubStore) SelectClient(id string) (*domain.Client, error) {
	return s.selectFn(id)
}

func admin() *domain.Identity {
	return &domain.Identity{ID: "1", Name: "admin", Role: domain.RoleAdmin, IsActive: true}
}

func member(id string) *domain.Identity {
	return &domain.Identity{ID: id, Name: "member-" + id, Role: domain.RoleUser, IsActive: true}
}

// newContext builds an echo context carrying id as the session identity.
func newContext(method, target, body string, id *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != nil {
		c.Set(middleware.IdentityKey, id)
	}
	return c, rec
}
