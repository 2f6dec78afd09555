// Package metrics defines the Prometheus instruments for the event pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatcher metrics
var (
	// DispatchEventsTotal tracks ingestion events by terminal state
	DispatchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_events_total",
			Help: "Ingestion events by terminal state (dispatched/failed_validation/failed_persistence)",
		},
		[]string{"state"},
	)

	// DispatchDuration tracks full RECEIVED->DISPATCHED processing latency
	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Ingestion event processing duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// MatcherEvaluationsTotal counts customer profile evaluations
	MatcherEvaluationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matcher_evaluations_total",
			Help: "Total customer profile evaluations",
		},
	)

	// MatcherSkippedCustomersTotal counts customers skipped for malformed preferences
	MatcherSkippedCustomersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matcher_skipped_customers_total",
			Help: "Customers skipped in a cycle due to malformed preference data",
		},
	)

	// RecommendationsCreatedTotal counts brand new recommendation records
	RecommendationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendations_created_total",
			Help: "New recommendation records persisted",
		},
	)

	// RecommendationsSupersededTotal counts in-place updates of active records
	RecommendationsSupersededTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendations_superseded_total",
			Help: "Active recommendations updated in place by a newer match",
		},
	)
)

// Connection registry metrics
var (
	// RegistryConnectedClients tracks live connections by role
	RegistryConnectedClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "registry_connected_clients",
			Help: "Live WebSocket connections by role (admin/customer)",
		},
		[]string{"role"},
	)

	// RegistryCommandChannelDepth tracks the registry actor's queue depth
	RegistryCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_command_channel_depth",
			Help: "Current depth of the registry command channel",
		},
	)
)

// Fan-out metrics
var (
	// FanoutDeliveriesTotal counts event deliveries by channel
	FanoutDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_deliveries_total",
			Help: "Events enqueued for delivery by channel (admin/customer)",
		},
		[]string{"channel"},
	)

	// FanoutDeliveryFailuresTotal counts per-connection delivery failures
	FanoutDeliveryFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_delivery_failures_total",
			Help: "Per-connection delivery failures by channel (admin/customer)",
		},
		[]string{"channel"},
	)

	// FanoutSlowClientsEvicted counts clients evicted for a full send buffer
	FanoutSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanout_slow_clients_evicted_total",
			Help: "Clients lazily unregistered after a failed or overflowing send",
		},
	)

	// WebSocketPingFailures counts failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Failed WebSocket keepalive pings",
		},
	)
)

// Database metrics
var (
	// DBQueryDuration tracks query latency by leading SQL verb
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBErrorsTotal counts failed queries by leading SQL verb
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Database query errors",
		},
		[]string{"query"},
	)
)
