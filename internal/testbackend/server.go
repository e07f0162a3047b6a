// Package testbackend is an in-process implementation of the task backend
// REST contract. It backs the package tests and `dashboard devbackend`.
package testbackend

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL = 30 * time.Minute
	ctxAccount      = "account"
)

type account struct {
	ID      int64
	Email   string
	Hash    []byte
	IsAdmin bool
}

// Task is a task as recorded by the fake backend.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	AssignedTo  *int64    `json:"assignedTo,omitempty"`
	DueDate     time.Time `json:"dueDate"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type userOut struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

type userCreate struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

type taskCreate struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	AssignedTo  *int64    `json:"assignedTo"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the HS256 signing key.
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.ttl = ttl }
}

// WithClock overrides the time source used for issuing and checking tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.cost = cost }
}

// WithUser seeds an account.
func WithUser(email, password string, isAdmin bool) Option {
	return func(s *Server) {
		s.seed = append(s.seed, userCreate{Email: email, Password: password, IsAdmin: isAdmin})
	}
}

// Server is the fake backend.
type Server struct {
	e        *echo.Echo
	validate *validator.Validate
	secret   []byte
	ttl      time.Duration
	cost     int
	now      func() time.Time
	seed     []userCreate

	mu       sync.Mutex
	accounts map[string]*account
	nextUser int64
	tasks    []Task
}

// New builds a server with its routes registered. Seeding fails only when
// bcrypt rejects a password.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		validate: validator.New(),
		secret:   []byte("dev-secret"),
		ttl:      defaultTokenTTL,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		accounts: make(map[string]*account),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, u := range s.seed {
		if _, err := s.createAccount(u); err != nil {
			return nil, fmt.Errorf("seed %s: %w", u.Email, err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = detailErrorHandler
	e.Use(echomiddleware.Recover())

	e.GET("/docs", func(c echo.Context) error { return c.String(http.StatusOK, "task backend") })
	e.POST("/token", s.issueToken)
	e.POST("/users/", s.createUser)

	e.GET("/users/me/", s.me, s.bearer)
	e.GET("/users/", s.listUsers, s.bearer, adminOnly)
	e.POST("/tasks/", s.createTask, s.bearer)
	e.GET("/tasks/", s.listTasks, s.bearer)

	s.e = e
	return s, nil
}

// Handler exposes the routes, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.e }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error { return s.e.Start(addr) }

// Echo returns the underlying echo instance for shutdown.
func (s *Server) Echo() *echo.Echo { return s.e }

// SignToken issues a token for email without checking a password. The
// account does not need to exist.
func (s *Server) SignToken(email string, isAdmin bool, exp time.Time) (string, error) {
	claims := jwt.MapClaims{"sub": email, "is_admin": isAdmin, "exp": exp.Unix()}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Tasks returns the tasks received so far.
func (s *Server) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.tasks...)
}

func (s *Server) createAccount(in userCreate) (*account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(in.Email)
	if _, exists := s.accounts[key]; exists {
		return nil, errEmailTaken
	}
	s.nextUser++
	a := &account{ID: s.nextUser, Email: in.Email, Hash: hash, IsAdmin: in.IsAdmin}
	s.accounts[key] = a
	return a, nil
}

var errEmailTaken = errors.New("email already registered")

func (s *Server) lookup(email string) *account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[strings.ToLower(email)]
}

func (s *Server) issueToken(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	a := s.lookup(username)
	if a == nil || bcrypt.CompareHashAndPassword(a.Hash, []byte(password)) != nil {
		c.Response().Header().Set("WWW-Authenticate", "Bearer")
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect username or password")
	}

	token, err := s.SignToken(a.Email, a.IsAdmin, s.now().Add(s.ttl))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) createUser(c echo.Context) error {
	var in userCreate
	if err := c.Bind(&in); err != nil {
		return unprocessable("body", "invalid payload")
	}
	if err := s.validate.Struct(in); err != nil {
		return validationFailure(err)
	}

	a, err := s.createAccount(in)
	if errors.Is(err, errEmailTaken) {
		return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserOut(a))
}

func (s *Server) me(c echo.Context) error {
	return c.JSON(http.StatusOK, toUserOut(c.Get(ctxAccount).(*account)))
}

func (s *Server) listUsers(c echo.Context) error {
	s.mu.Lock()
	out := make([]userOut, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, toUserOut(a))
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createTask(c echo.Context) error {
	var in taskCreate
	if err := c.Bind(&in); err != nil {
		return unprocessable("body", "invalid payload")
	}
	if err := s.validate.Struct(in); err != nil {
		return validationFailure(err)
	}
	if in.Status == "" {
		in.Status = "pending"
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}

	owner := c.Get(ctxAccount).(*account)
	s.mu.Lock()
	t := Task{
		ID:          int64(len(s.tasks) + 1),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		AssignedTo:  in.AssignedTo,
		DueDate:     in.DueDate,
		OwnerID:     owner.ID,
		CreatedAt:   s.now().UTC(),
	}
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()

	return c.JSON(http.StatusCreated, t)
}

func (s *Server) listTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Tasks())
}

func toUserOut(a *account) userOut {
	return userOut{ID: a.ID, Email: a.Email, IsAdmin: a.IsAdmin}
}
