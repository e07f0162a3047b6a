package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdash/dashboard/internal/testbackend"
)

var (
	devAddr   string
	devSecret string
	devTTL    time.Duration
	devUsers  []string
)

var devBackendCmd = &cobra.Command{
	Use:   "devbackend",
	Short: "Run an in-memory task backend for local development",
	Long: `Run an in-memory stand-in for the task REST backend.

Accounts are seeded with --user email:password[:admin]. Without any --user
an admin@example.com:admin administrator is created.`,
	Args: cobra.NoArgs,
	RunE: runDevBackend,
}

func init() {
	rootCmd.AddCommand(devBackendCmd)
	devBackendCmd.Flags().StringVar(&devAddr, "addr", ":8000", "Listen address")
	devBackendCmd.Flags().StringVar(&devSecret, "secret", "", "HMAC secret for issued tokens")
	devBackendCmd.Flags().DurationVar(&devTTL, "token-ttl", 30*time.Minute, "Lifetime of issued tokens")
	devBackendCmd.Flags().StringArrayVar(&devUsers, "user", nil, "Seed account as email:password[:admin]")
}

func runDevBackend(cmd *cobra.Command, _ []string) error {
	opts := []testbackend.Option{testbackend.WithTokenTTL(devTTL)}
	if devSecret != "" {
		opts = append(opts, testbackend.WithSecret(devSecret))
	}

	seeds := devUsers
	if len(seeds) == 0 {
		seeds = []string{"admin@example.com:admin:admin"}
	}
	for _, s := range seeds {
		email, password, isAdmin, err := parseSeedUser(s)
		if err != nil {
			return err
		}
		opts = append(opts, testbackend.WithUser(email, password, isAdmin))
	}

	srv, err := testbackend.New(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", devAddr).Int("accounts", len(seeds)).Msg("dev backend listening")
		errCh <- srv.Start(devAddr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Echo().Shutdown(shutdownCtx)
}

func parseSeedUser(s string) (email, password string, isAdmin bool, err error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return "", "", false, fmt.Errorf("invalid --user %q: want email:password[:admin]", s)
	}
	if len(parts) == 3 {
		if parts[2] != "admin" {
			return "", "", false, fmt.Errorf("invalid --user %q: third field must be \"admin\"", s)
		}
		isAdmin = true
	}
	return parts[0], parts[1], isAdmin, nil
}
