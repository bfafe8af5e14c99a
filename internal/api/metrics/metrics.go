// Package metrics defines and registers all custom Prometheus metrics for the
// back-office API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package init
// via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "backoffice"

// ── Authorization metrics ─────────────────────────────────────────────────────

// AuthzDecisionsTotal counts gate decisions.
// Labels:
//   - guard: "authenticated", "permissions" or "roles"
//   - outcome: "allowed" or "denied"
//   - code: the rejection code, or "OK" when allowed
var AuthzDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_decisions_total",
		Help:      "Total number of authorization gate decisions.",
	},
	[]string{"guard", "outcome", "code"},
)

// IdentityLookupDuration measures identity-store lookups made by the gate.
// Label:
//   - result: "found", "not_found" or "error"
var IdentityLookupDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "identity_lookup_duration_seconds",
		Help:      "Duration of identity-store lookups performed by the authorization gate.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsTotal counts session lifecycle events.
// Label:
//   - event: "login", "login_failed" or "logout"
var SessionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Total number of session lifecycle events.",
	},
	[]string{"event"},
)

// ── Access-event metrics ──────────────────────────────────────────────────────

// AccessEventsDroppedTotal counts access events discarded because the
// dispatcher queue was full.
var AccessEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_events_dropped_total",
		Help:      "Total number of access events dropped due to a full queue.",
	},
)

// AccessEventsQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index
var AccessEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "access_events_queue_depth",
		Help:      "Current number of access events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
