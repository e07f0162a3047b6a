package ports

import (
	"context"
	"time"
)

// TokenResponse is the body returned by POST /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// BackendUser is the profile shape returned by the /users endpoints.
type BackendUser struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// CreateUserRequest is the payload of POST /users/.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// CreateTaskRequest is the payload of POST /tasks/.
type CreateTaskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	AssignedTo  *int64    `json:"assignedTo,omitempty"`
	DueDate     time.Time `json:"dueDate"`
}

// AuthBackend issues credentials and resolves the profile behind one.
type AuthBackend interface {
	IssueToken(ctx context.Context, username, password string) (*TokenResponse, error)
	CurrentUser(ctx context.Context, token string) (*BackendUser, error)
}

// UserBackend manages accounts. ListUsers requires an admin credential.
type UserBackend interface {
	ListUsers(ctx context.Context, token string) ([]BackendUser, error)
	CreateUser(ctx context.Context, token string, req CreateUserRequest) (*BackendUser, error)
}

// TaskBackend mirrors locally created tasks to the backend.
type TaskBackend interface {
	CreateTask(ctx context.Context, token string, req CreateTaskRequest) error
}
