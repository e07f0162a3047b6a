package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/taskdash/dashboard/internal/api"
	"github.com/taskdash/dashboard/internal/core/ports"
	"github.com/taskdash/dashboard/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to :$PORT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	e := api.NewRouter(api.Deps{
		Session: a.session,
		Store:   a.store,
		Checks:  a.checks,
		Log:     logger.For("http"),
	})

	addr := serveAddr
	if addr == "" {
		addr = ":" + cfg.Port
	}

	go runReminders(ctx, a.store, cfg.Reminders.Interval, logger.For("reminders"))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("backend", cfg.Backend.BaseURL).Msg("dashboard API listening")
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// runReminders sweeps the store on every tick until ctx is done. A
// non-positive interval disables the sweep.
func runReminders(ctx context.Context, store ports.StoreService, every time.Duration, log zerolog.Logger) {
	if every <= 0 {
		log.Info().Msg("reminder sweep disabled")
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if emitted := store.SweepReminders(now); len(emitted) > 0 {
				log.Info().Int("count", len(emitted)).Msg("reminders emitted")
			}
		}
	}
}
