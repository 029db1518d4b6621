// Package metrics defines and registers the custom Prometheus metrics of the
// alumni portal. It is the single source of truth for metric names, labels
// and help strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Live binding metrics ──────────────────────────────────────────────────────

// SubscriptionsActive tracks open live subscriptions.
// Label:
//   - collection: "events", "jobs", "forum", "dues", "users", "donations"
var SubscriptionsActive = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "subscriptions_active",
		Help:      "Current number of open live collection subscriptions.",
	},
	[]string{"collection"},
)

// SnapshotsTotal counts full snapshots applied to binding mirrors.
var SnapshotsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshots_total",
		Help:      "Total number of snapshots that replaced a binding mirror.",
	},
	[]string{"collection"},
)

// SubscriptionErrorsTotal counts subscriptions that ended in the failed state.
var SubscriptionErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subscription_errors_total",
		Help:      "Total number of live subscriptions that failed.",
	},
	[]string{"collection"},
)

// ── Store metrics ─────────────────────────────────────────────────────────────

// StoreWritesTotal counts document writes.
// Labels:
//   - collection: target collection
//   - op: "create", "set", "update", "delete"
//   - result: "ok" or "error"
var StoreWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_writes_total",
		Help:      "Total number of document writes, by collection, operation and result.",
	},
	[]string{"collection", "op", "result"},
)

// ChangeNotificationsTotal counts change signals.
// Label:
//   - direction: "published" or "received"
var ChangeNotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "change_notifications_total",
		Help:      "Total number of collection change notifications, by direction.",
	},
	[]string{"collection", "direction"},
)

// ── Payment metrics ───────────────────────────────────────────────────────────

// PaymentsProcessedTotal counts payment confirmations.
// Labels:
//   - kind: "dues" or "donation"
//   - result: "recorded", "duplicate", "rejected", "error"
var PaymentsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_processed_total",
		Help:      "Total number of payment confirmations, by kind and result.",
	},
	[]string{"kind", "result"},
)

// PaymentsQueueDepth tracks webhook events waiting in each dispatcher worker channel.
var PaymentsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "payments_queue_depth",
		Help:      "Current number of payment events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// PaymentProcessingDuration measures webhook event processing from dequeue to persistence.
var PaymentProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "payment_processing_duration_seconds",
		Help:      "Duration of payment event processing from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts account operations.
// Labels:
//   - action: "signup", "signin", "signout", "password"
//   - result: "ok" or the auth error code
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of account operations, by action and result.",
	},
	[]string{"action", "result"},
)

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
