// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntentsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_intents_resolved_total",
			Help: "Total number of intents resolved, by source",
		},
		[]string{"source", "section"},
	)

	RemoteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_remote_failures_total",
			Help: "Total number of remote understanding failures, by class",
		},
		[]string{"class"},
	)

	CredentialRotations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_credential_rotations_total",
			Help: "Total number of credential pool rotations",
		},
	)

	ResolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bot_resolve_duration_seconds",
			Help: "Duration of intent resolution in seconds",
		},
		[]string{"source"},
	)

	SessionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_sessions_completed_total",
			Help: "Total number of slot-filling sessions by outcome",
		},
		[]string{"outcome"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_sessions_active",
			Help: "Number of open slot-filling sessions",
		},
	)
)
