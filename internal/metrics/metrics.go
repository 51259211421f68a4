package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion Metrics
var (
	// CommentsSubmittedTotal tracks comment submissions by outcome
	CommentsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comments_submitted_total",
			Help: "Total comment submissions by outcome (created/rejected/failed)",
		},
		[]string{"outcome"},
	)

	// SubmissionRateLimitedTotal tracks submissions rejected by the rate limiter
	SubmissionRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "submission_rate_limited_total",
			Help: "Total submissions rejected by the per-IP rate limiter",
		},
	)
)

// Scoring Metrics
var (
	// ScoringDuration tracks external scoring call latency in seconds
	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "External sentiment scoring call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// ScoringFallbacksTotal tracks scoring failures resolved to the neutral fallback
	ScoringFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_fallbacks_total",
			Help: "Scoring failures resolved to the neutral fallback score, by reason",
		},
		[]string{"reason"},
	)

	// ScoringCircuitState tracks the scoring circuit breaker state (0=closed, 1=half-open, 2=open)
	ScoringCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scoring_circuit_state",
			Help: "Current scoring circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// Broadcast Metrics
var (
	// HubConnectedClients tracks the number of connected WebSocket subscribers
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Number of connected WebSocket subscribers on the comments topic",
		},
	)

	// HubPublishesTotal tracks comments published to the topic
	HubPublishesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_publishes_total",
			Help: "Total comments published to the comments topic",
		},
	)

	// HubSlowClientsEvicted tracks slow subscribers evicted
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Total slow WebSocket subscribers evicted due to buffer full",
		},
	)

	// HubStopTimeoutsTotal tracks hub stops that exceeded timeout
	HubStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_stop_timeouts_total",
			Help: "Hub stops that exceeded the shutdown timeout",
		},
	)

	// WSConnectionsRejectedTotal tracks subscriber connections rejected by limits
	WSConnectionsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_connections_rejected_total",
			Help: "WebSocket subscriber connections rejected, by limit reason",
		},
		[]string{"reason"},
	)

	// WebSocketPingFailures tracks failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total failed WebSocket keepalive pings",
		},
	)
)
