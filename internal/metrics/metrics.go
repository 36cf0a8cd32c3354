package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_chat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "market_chat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	RoomsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_chat_rooms_created_total",
			Help: "Total chat rooms created",
		},
		[]string{"room_type"},
	)

	RoomsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "market_chat_rooms_deleted_total",
			Help: "Total chat rooms deleted",
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "market_chat_messages_sent_total",
			Help: "Total messages persisted",
		},
	)

	MessagesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "market_chat_messages_read_total",
			Help: "Total messages flipped to read",
		},
	)

	BroadcastFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_chat_broadcast_failures_total",
			Help: "Broadcasts that could not be encoded or published",
		},
		[]string{"kind"}, // "message" or "read"
	)

	// Gateway metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "market_chat_websocket_connections",
			Help: "Open websocket connections",
		},
	)

	WebSocketDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_chat_websocket_dropped_total",
			Help: "Inbound events or subscribers dropped by the gateway",
		},
		[]string{"reason"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_chat_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"surface"}, // "http" or "ws"
	)
)
