// Package backend is the REST client for the task backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
	"github.com/taskdash/dashboard/internal/metrics"
)

const defaultTimeout = 15 * time.Second

// Client implements ports.AuthBackend, ports.UserBackend and
// ports.TaskBackend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IssueToken exchanges credentials for a bearer token (POST /token).
func (c *Client) IssueToken(ctx context.Context, username, password string) (*ports.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out ports.TokenResponse
	if err := c.do(req, "token", &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response without access_token", domain.ErrAuthMalformed)
	}
	return &out, nil
}

// CurrentUser returns the profile behind token (GET /users/me/).
func (c *Client) CurrentUser(ctx context.Context, token string) (*ports.BackendUser, error) {
	var out ports.BackendUser
	if err := c.call(ctx, http.MethodGet, "/users/me/", "users_me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns every account (GET /users/). Admin only.
func (c *Client) ListUsers(ctx context.Context, token string) ([]ports.BackendUser, error) {
	var out []ports.BackendUser
	if err := c.call(ctx, http.MethodGet, "/users/", "users_list", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser registers an account (POST /users/).
func (c *Client) CreateUser(ctx context.Context, token string, in ports.CreateUserRequest) (*ports.BackendUser, error) {
	var out ports.BackendUser
	if err := c.call(ctx, http.MethodPost, "/users/", "users_create", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTask mirrors a task (POST /tasks/). The response body is ignored.
func (c *Client) CreateTask(ctx context.Context, token string, in ports.CreateTaskRequest) error {
	return c.call(ctx, http.MethodPost, "/tasks/", "tasks_create", token, in, nil)
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/docs", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNetworkUnavailable, err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) call(ctx context.Context, method, path, endpoint, token string, payload, dest any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.do(req, endpoint, dest)
}

func (c *Client) do(req *http.Request, endpoint string, dest any) error {
	req.Header.Set("Accept", "application/json")
	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "network"
		return fmt.Errorf("%w: %s %s: %w", domain.ErrNetworkUnavailable, req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "network"
		return fmt.Errorf("%w: read response: %w", domain.ErrNetworkUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "rejected"
		return &domain.RemoteRejectedError{StatusCode: resp.StatusCode, Message: detailMessage(data)}
	}

	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		outcome = "rejected"
		return &domain.RemoteRejectedError{StatusCode: resp.StatusCode, Message: "unexpected response from server"}
	}
	return nil
}

// detailMessage extracts the FastAPI error text. Structured details such as
// validation error lists fall back to the generic message.
func detailMessage(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var msg string
	if err := json.Unmarshal(envelope.Detail, &msg); err != nil {
		return ""
	}
	return msg
}
