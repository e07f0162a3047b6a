package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskdash/dashboard/docs"
	"github.com/taskdash/dashboard/internal/api/handler"
	"github.com/taskdash/dashboard/internal/api/middleware"
	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Session ports.SessionService
	Store   ports.StoreService
	// Checks are pinged by the readiness check, keyed by dependency name.
	Checks map[string]handler.Pinger
	Log    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Session routes ---
	sessionHandler := handler.NewSessionHandler(d.Session)
	v1 := e.Group("/v1")
	v1.GET("/session", sessionHandler.Get)
	v1.POST("/session/login", sessionHandler.Login)
	v1.POST("/session/logout", sessionHandler.Logout)

	// --- Signed-in routes ---
	authed := v1.Group("", middleware.RequireSession(d.Session))
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	tasks := handler.NewTaskHandler(d.Store)
	authed.GET("/tasks", tasks.List)
	authed.POST("/tasks", tasks.Create)
	authed.PATCH("/tasks/:id", tasks.Update)
	authed.DELETE("/tasks/:id", tasks.Delete, adminOnly)

	users := handler.NewUserHandler(d.Store)
	authed.GET("/users", users.List, adminOnly)
	authed.POST("/users", users.Create, adminOnly)
	authed.PATCH("/users/:id", users.Update, adminOnly)
	authed.DELETE("/users/:id", users.Delete, adminOnly)

	notifications := handler.NewNotificationHandler(d.Store)
	authed.GET("/notifications", notifications.List)
	authed.POST("/notifications/:id/read", notifications.MarkRead)

	clients := handler.NewClientHandler(d.Store)
	authed.GET("/clients", clients.List)
	authed.PUT("/clients/selected", clients.Select)

	stats := handler.NewStatsHandler(d.Store)
	authed.GET("/stats", stats.Get)

	return e
}
