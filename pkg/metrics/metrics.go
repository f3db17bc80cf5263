package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	ProposalTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposal_transition_count",
			Help: "Total number of proposal status transitions",
		},
		[]string{"target", "outcome"}, // target: accepted, rejected; outcome: success, conflict, error
	)

	ContractCompletionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_completion_count",
			Help: "Total number of contract completion attempts",
		},
		[]string{"outcome"},
	)

	NotificationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_count",
			Help: "Total number of notifications written by the worker",
		},
		[]string{"type"},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

func IncrementProposalTransition(target, outcome string) {
	ProposalTransitionCount.WithLabelValues(target, outcome).Inc()
}

func IncrementContractCompletion(outcome string) {
	ContractCompletionCount.WithLabelValues(outcome).Inc()
}

func IncrementNotification(notificationType string) {
	NotificationCount.WithLabelValues(notificationType).Inc()
}
