package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationAttempts tracks every attempt by result (success, retryable, terminal)
	OperationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbguard_operation_attempts_total",
			Help: "Total number of database operation attempts",
		},
		[]string{"operation", "result"},
	)

	// OperationErrors tracks classified failures per taxonomy code
	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbguard_operation_errors_total",
			Help: "Total number of classified database errors",
		},
		[]string{"operation", "code"},
	)

	// OperationRetries tracks retries scheduled after a retryable failure
	OperationRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbguard_operation_retries_total",
			Help: "Total number of database operation retries",
		},
		[]string{"operation"},
	)

	// OperationDuration tracks wall-clock time across all attempts
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dbguard_operation_duration_seconds",
			Help:    "Database operation duration including retries, in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Fallbacks tracks default values substituted for failed results
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbguard_fallbacks_total",
			Help: "Total number of fallback responses served",
		},
		[]string{"operation", "code"},
	)

	// HealthLatency tracks probe round-trip latency
	HealthLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dbguard_health_latency_seconds",
			Help:    "Health probe latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"probe"},
	)

	// Healthy reports the last probe result (1 healthy, 0 unhealthy)
	Healthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbguard_healthy",
			Help: "Whether the last health probe succeeded",
		},
		[]string{"probe"},
	)

	// DBConnectionPoolUsage tracks open connections as a percentage of the pool
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dbguard_db_connection_pool_usage_percent",
			Help: "Open database connections as a percentage of the maximum",
		},
	)
)
