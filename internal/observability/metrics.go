package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EngagementOperations counts like/unlike attempts by outcome.
	EngagementOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cidadeemfoco_engagement_operations_total",
		Help: "Total like and unlike operations by result",
	}, []string{"operation", "result"})

	// LedgerInvariantViolations counts unlikes and user deletions that would have driven a counter below zero.
	LedgerInvariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cidadeemfoco_ledger_invariant_violations_total",
		Help: "Total unlike or user deletion transactions rolled back because a like counter was already zero",
	})

	// MediaOperations counts media host calls by provider, operation and result.
	MediaOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cidadeemfoco_media_operations_total",
		Help: "Total media host operations",
	}, []string{"provider", "operation", "result"})

	// MediaUploadBytes records the size of accepted uploads.
	MediaUploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cidadeemfoco_media_upload_bytes",
		Help:    "Size of accepted image uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
	})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cidadeemfoco_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts cache-aside lookups by key family and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cidadeemfoco_cache_lookups_total",
		Help: "Cache lookups by key family and result (hit, miss, error)",
	}, []string{"family", "result"})

	// WebSocketConnections is the gauge of open feed connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cidadeemfoco_websocket_connections",
		Help: "Number of open realtime feed connections",
	})

	// WebSocketEvents counts feed events delivered by type.
	WebSocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cidadeemfoco_websocket_events_total",
		Help: "Total realtime feed events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped because a client's buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cidadeemfoco_websocket_backpressure_drops_total",
		Help: "Total number of feed messages dropped due to backpressure",
	}, []string{"reason"})
)
