package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geosocial_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FriendshipTransitions counts friendship lifecycle actions.
	FriendshipTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geosocial_friendship_transitions_total",
		Help: "Friendship requests, accepts, declines and removals",
	}, []string{"action"})

	// LikeToggles counts like toggles by resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geosocial_like_toggles_total",
		Help: "Like toggles by resulting state",
	}, []string{"state"})

	// FeedResolutions records feed resolution latency, split by whether a search term was given.
	FeedResolutions = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geosocial_feed_resolution_seconds",
		Help:    "Time spent resolving a viewer's feed",
		Buckets: prometheus.DefBuckets,
	}, []string{"search"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geosocial_cache_lookups_total",
		Help: "Cache-aside lookups by result",
	}, []string{"result"})

	// EventsPublished counts user events pushed to the notifier.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geosocial_events_published_total",
		Help: "User events published over Redis pub/sub",
	}, []string{"type"})

	// WebSocketBackpressureDrops counts messages dropped for slow websocket clients.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geosocial_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ObserveFeed records how long a feed resolution took.
func ObserveFeed(searched bool, start time.Time) {
	label := "none"
	if searched {
		label = "term"
	}
	FeedResolutions.WithLabelValues(label).Observe(time.Since(start).Seconds())
}
