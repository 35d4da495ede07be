// Package metrics defines the process-wide Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache Metrics
var (
	// CacheHitsTotal tracks entity cache hits by entity type
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entity_cache_hits_total",
			Help: "Total entity cache hits by entity type",
		},
		[]string{"entity"},
	)

	// CacheMissesTotal tracks entity cache misses by entity type
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entity_cache_misses_total",
			Help: "Total entity cache misses by entity type",
		},
		[]string{"entity"},
	)

	// CacheInvalidationsTotal tracks explicit cache invalidations by entity type
	CacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entity_cache_invalidations_total",
			Help: "Total entity cache invalidations by entity type",
		},
		[]string{"entity"},
	)
)

// WebSocket / Broadcaster Metrics
var (
	// WebsocketConnections tracks currently open viewer connections
	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_current",
			Help: "Number of currently open WebSocket viewer connections",
		},
	)

	// WebsocketRooms tracks rooms with at least one member
	WebsocketRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_rooms_current",
			Help: "Number of rooms with at least one connected member",
		},
	)

	// BroadcastMessagesTotal tracks published envelopes by action
	BroadcastMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_messages_total",
			Help: "Total envelopes published to rooms by action",
		},
		[]string{"action"},
	)

	// BroadcastSlowClientsEvicted tracks members dropped for a full send buffer
	BroadcastSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_slow_clients_evicted_total",
			Help: "Total slow WebSocket clients evicted during fan-out",
		},
	)
)

// External Forum Metrics
var (
	// RedditRequestsTotal tracks Reddit API calls by operation and status
	RedditRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reddit_requests_total",
			Help: "Total Reddit API requests by operation and status",
		},
		[]string{"operation", "status"},
	)
)
