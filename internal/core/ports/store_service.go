package ports

import (
	"context"
	"time"

	"github.com/taskdash/dashboard/internal/core/domain"
)

// NewTask carries the caller-supplied fields of a task. ID and CreatedAt are
// assigned by the store.
type NewTask struct {
	Title       string     `validate:"required"`
	Description string
	Priority    string     `validate:"required,oneof=low medium high urgent"`
	Status      string     `validate:"required,oneof=pending in-progress completed"`
	AssignedTo  string     `validate:"required"`
	AssignedBy  string     // defaults to the current identity's id
	DueDate     time.Time  `validate:"required"`
	ReminderSet *time.Time
	Tags        []string
}

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string    `validate:"omitnil,min=1"`
	Description *string
	Priority    *string    `validate:"omitnil,oneof=low medium high urgent"`
	Status      *string    `validate:"omitnil,oneof=pending in-progress completed"`
	AssignedTo  *string    `validate:"omitnil,min=1"`
	DueDate     *time.Time
	CompletedAt *time.Time
	ReminderSet *time.Time
	Tags        []string
}

// TaskFilter selects tasks for listing. Zero values match everything.
type TaskFilter struct {
	Search   string // case-insensitive match on title or description
	Status   string
	Priority string
	// VisibleTo restricts non-admin viewers to tasks assigned to them.
	VisibleTo *domain.Identity
}

// NewUser is the account form. Password is sent to the backend and never
// stored locally.
type NewUser struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Role     string `validate:"required,oneof=admin user"`
}

// UserPatch is a local-only partial update of a cached account.
type UserPatch struct {
	Name      *string `validate:"omitnil,min=1"`
	Email     *string `validate:"omitnil,email"`
	Role      *string `validate:"omitnil,oneof=admin user"`
	Avatar    *string
	IsActive  *bool
	LastLogin *time.Time
}

// NewNotification carries the fields of a system-generated notification.
type NewNotification struct {
	Type    domain.NotificationType
	Title   string
	Message string
	UserID  string
	TaskID  string
	IsRead  bool
}

// Stats is the dashboard summary.
type Stats struct {
	All         domain.TaskCounts `json:"all"`
	Mine        domain.TaskCounts `json:"mine"`
	ActiveUsers int               `json:"activeUsers"`
	Unread      int               `json:"unread"`
}

// StoreService is the in-memory entity store.
type StoreService interface {
	LoadUsers(ctx context.Context) error
	LoadClients(ctx context.Context) error
	Users() []domain.User
	AddUser(ctx context.Context, in NewUser) (domain.User, error)
	UpdateUser(id string, patch UserPatch) (domain.User, error)
	DeleteUser(id string) error

	Tasks(filter TaskFilter) []domain.Task
	Task(id string) (domain.Task, error)
	AddTask(ctx context.Context, in NewTask) (domain.Task, error)
	UpdateTask(id string, patch TaskPatch) (domain.Task, error)
	DeleteTask(id string) error

	Notifications(userID string) []domain.Notification
	AddNotification(in NewNotification) domain.Notification
	MarkNotificationAsRead(id string) error

	Clients() []domain.Client
	SelectClient(id string) (*domain.Client, error)
	SelectedClient() *domain.Client

	Stats(viewer *domain.Identity) Stats
	SweepReminders(now time.Time) []domain.Notification
}
