package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentroom_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentroom_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Room metrics
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentroom_rooms_active",
			Help: "Room actors currently running",
		},
	)

	SessionsLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentroom_sessions_live",
			Help: "Sessions currently in a live set",
		},
	)

	MessagesBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentroom_messages_broadcast_total",
			Help: "Messages broadcast to rooms",
		},
		[]string{"kind"}, // "system", "user" or "agent"
	)

	DeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentroom_delivery_failures_total",
			Help: "Failed deliveries to individual sessions",
		},
	)

	MalformedInputs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentroom_malformed_inputs_total",
			Help: "Client payloads rejected by the codec",
		},
	)

	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentroom_persist_failures_total",
			Help: "Transcript appends that failed",
		},
	)

	// Agent metrics
	AgentInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentroom_agent_invocations_total",
			Help: "Agent completions by outcome",
		},
		[]string{"agent", "outcome"}, // "ok" or "fallback"
	)

	AgentLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentroom_agent_latency_seconds",
			Help:    "Agent completion latency",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"agent"},
	)
)
