package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unitypay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unitypay_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 30},
		},
		[]string{"method", "path"},
	)

	// Boardroom metrics
	MeetingsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unitypay_meetings_generated_total",
			Help: "Meeting reports generated",
		},
		[]string{"type", "outcome"}, // outcome: "ok" or "error"
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unitypay_generation_duration_seconds",
			Help:    "Text generation latency",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"kind"}, // "meeting", "chat" or "audit"
	)

	ChatMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unitypay_chat_messages_total",
			Help: "Chat messages stored",
		},
		[]string{"role"},
	)

	Audits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unitypay_audits_total",
			Help: "Security audits run",
		},
		[]string{"outcome"},
	)

	// Ledger metrics
	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unitypay_ledger_operations_total",
			Help: "Ledger operations by outcome",
		},
		[]string{"op", "outcome"}, // outcome: "ok" or the revert code
	)

	// Realtime metrics
	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "unitypay_realtime_clients",
			Help: "Connected realtime listeners",
		},
	)

	RealtimeBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unitypay_realtime_broadcasts_total",
			Help: "Realtime events broadcast",
		},
		[]string{"event"},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unitypay_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unitypay_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)

	// Infrastructure metrics
	RedisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "unitypay_redis_latency_seconds",
			Help:    "Redis operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)

	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unitypay_store_latency_seconds",
			Help:    "Data store query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1},
		},
		[]string{"backend", "op"},
	)
)
