package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onswift_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// HireTransitions counts hire request state changes by resulting status.
	HireTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onswift_hire_transitions_total",
			Help: "Hire request transitions by resulting status",
		},
		[]string{"status"},
	)

	// InviteRedemptions counts invite redemption attempts (redeemed|skipped).
	InviteRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onswift_invite_redemptions_total",
			Help: "Invite token redemption attempts by outcome",
		},
		[]string{"outcome"},
	)

	// NotificationsCreated counts notifications written to the outbox by type.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onswift_notifications_created_total",
			Help: "Notifications created by type",
		},
		[]string{"type"},
	)

	// CalendarSyncs counts calendar provider calls by operation and result.
	CalendarSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onswift_calendar_sync_total",
			Help: "Calendar provider operations by outcome",
		},
		[]string{"operation", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onswift_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
