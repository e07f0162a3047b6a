package main

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
	"github.com/taskdash/dashboard/internal/infrastructure/credential"
	"github.com/taskdash/dashboard/internal/pkg/config"
)

func TestParseSeedUser(t *testing.T) {
	tests := []struct {
		in        string
		email     string
		password  string
		admin     bool
		wantError bool
	}{
		{in: "a@co.com:pw", email: "a@co.com", password: "pw"},
		{in: "a@co.com:pw:admin", email: "a@co.com", password: "pw", admin: true},
		{in: "a@co.com", wantError: true},
		{in: ":pw", wantError: true},
		{in: "a@co.com:pw:root", wantError: true},
	}

	for _, tt := range tests {
		email, password, admin, err := parseSeedUser(tt.in)
		if tt.wantError {
			if err == nil {
				t.Fatalf("parseSeedUser(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseSeedUser(%q): %v", tt.in, err)
		}
		if email != tt.email || password != tt.password || admin != tt.admin {
			t.Fatalf("parseSeedUser(%q) = %q %q %v", tt.in, email, password, admin)
		}
	}
}

func TestCredentialStoreSelection(t *testing.T) {
	cfg := &config.Config{Session: config.SessionConfig{
		CredentialStore: config.CredentialStoreMemory,
		CredentialFile:  filepath.Join(t.TempDir(), "credential.json"),
	}}
	a := &app{}

	store, err := a.credentialStore(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("credentialStore: %v", err)
	}
	if _, ok := store.(*credential.MemoryStore); !ok {
		t.Fatalf("expected memory store for the server, got %T", store)
	}

	store, err = a.credentialStore(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("credentialStore: %v", err)
	}
	if _, ok := store.(*credential.FileStore); !ok {
		t.Fatalf("expected file store for CLI commands, got %T", store)
	}
}

type sweepCounter struct {
	ports.StoreService
	calls atomic.Int32
}

func (s *sweepCounter) SweepReminders(time.Time) []domain.Notification {
	s.calls.Add(1)
	return nil
}

func TestRunReminders(t *testing.T) {
	store := &sweepCounter{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runReminders(ctx, store, time.Millisecond, zerolog.Nop())
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for store.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweep never ran")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done

	// Disabled sweep returns immediately.
	runReminders(context.Background(), store, 0, zerolog.Nop())
}
