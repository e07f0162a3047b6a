package main

import (
	"context"
	"fmt"

	"github.com/taskdash/dashboard/internal/api/handler"
	"github.com/taskdash/dashboard/internal/core/ports"
	"github.com/taskdash/dashboard/internal/core/service"
	"github.com/taskdash/dashboard/internal/infrastructure/backend"
	"github.com/taskdash/dashboard/internal/infrastructure/catalog"
	"github.com/taskdash/dashboard/internal/infrastructure/credential"
	mongodb "github.com/taskdash/dashboard/internal/infrastructure/db/mongo"
	redisdb "github.com/taskdash/dashboard/internal/infrastructure/db/redis"
	"github.com/taskdash/dashboard/internal/pkg/config"
	"github.com/taskdash/dashboard/pkg/logger"
)

// app is the wired session and store plus whatever connections they hold.
type app struct {
	backend *backend.Client
	session *service.SessionService
	store   *service.StoreService
	checks  map[string]handler.Pinger

	unbind  func()
	closers []func(context.Context) error
}

// buildApp wires the services from cfg. persistent forces a durable
// credential store so one CLI invocation sees the login of the previous one.
func buildApp(ctx context.Context, cfg *config.Config, persistent bool) (*app, error) {
	a := &app{
		backend: backend.NewClient(cfg.Backend.BaseURL, backend.WithTimeout(cfg.Backend.Timeout)),
		checks:  map[string]handler.Pinger{},
	}
	a.checks["backend"] = a.backend

	creds, err := a.credentialStore(ctx, cfg, persistent)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	directory, err := a.clientDirectory(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.session = service.NewSessionService(a.backend, creds, logger.For("session"),
		service.WithProfileResolution(cfg.Session.ResolveProfile),
	)

	opts := []service.StoreOption{
		service.WithClientDirectory(directory),
		service.WithDeadlineWindow(cfg.Reminders.DeadlineWindow),
	}
	if cfg.Store.TaskSync {
		opts = append(opts, service.WithTaskMirror(a.backend))
	}
	a.store = service.NewStoreService(a.session, a.backend, logger.For("store"), opts...)

	// Bind before Initialize so the store sees the restored session.
	a.unbind = a.store.Bind(ctx)
	a.session.Initialize(ctx)

	if err := a.store.LoadClients(ctx); err != nil {
		log.Warn().Err(err).Msg("client catalog unavailable")
	}
	return a, nil
}

func (a *app) credentialStore(ctx context.Context, cfg *config.Config, persistent bool) (ports.CredentialStore, error) {
	switch cfg.Session.CredentialStore {
	case config.CredentialStoreRedis:
		store, err := redisdb.OpenCredentialStore(ctx, redisdb.Config{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
			Key:  cfg.Redis.CredentialKey,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		a.checks["redis"] = store
		return store, nil
	case config.CredentialStoreFile:
		return credential.NewFileStore(cfg.Session.CredentialFile), nil
	}

	if persistent {
		return credential.NewFileStore(cfg.Session.CredentialFile), nil
	}
	return credential.NewMemoryStore(), nil
}

func (a *app) clientDirectory(ctx context.Context, cfg *config.Config) (ports.ClientDirectory, error) {
	if cfg.Store.ClientsSource != config.ClientsSourceMongo {
		return catalog.NewStatic(nil), nil
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, fmt.Errorf("client catalog: %w", err)
	}
	a.closers = append(a.closers, client.Disconnect)

	repo := mongodb.NewClientRepository(db)
	a.checks["mongodb"] = repo
	return repo, nil
}

// Close releases connections. It is safe to call on a partly built app.
func (a *app) Close(ctx context.Context) {
	if a.unbind != nil {
		a.unbind()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Warn().Err(err).Msg("close connection")
		}
	}
}
