// Package metrics defines and registers all custom Prometheus metrics for the
// dashboard. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation; the HTTP server exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashboard"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session state changes.
// Label:
//   - status: the state entered ("resolving", "authenticated", "anonymous")
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions, by target state.",
	},
	[]string{"status"},
)

// SessionDowngradesTotal counts credentials discarded during resolution.
// Label:
//   - reason: "expired", "malformed", "profile_failed", "login_failed"
var SessionDowngradesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_downgrades_total",
		Help:      "Total number of sessions dropped to anonymous, by reason.",
	},
	[]string{"reason"},
)

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestDuration measures REST backend round trips.
// Labels:
//   - endpoint: logical endpoint name (e.g. "token", "users_list")
//   - outcome: "ok", "rejected" or "network"
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of calls to the task backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint", "outcome"},
)

// ── Store metrics ─────────────────────────────────────────────────────────────

// NotificationsEmittedTotal counts notifications synthesised by the store.
// Label:
//   - type: the notification type (e.g. "task_assigned")
var NotificationsEmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_emitted_total",
		Help:      "Total number of notifications generated, by type.",
	},
	[]string{"type"},
)

// UserLoadsDiscardedTotal counts user-list responses dropped because the
// session changed while the request was in flight.
var UserLoadsDiscardedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_loads_discarded_total",
		Help:      "Total number of stale user-list responses discarded.",
	},
)

// TasksCreatedTotal counts tasks created, by priority.
var TasksCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created, by priority.",
	},
	[]string{"priority"},
)
