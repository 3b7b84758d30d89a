package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ThreadsCreated counts threads created, including reposts.
	ThreadsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadline_threads_created_total",
		Help: "Total number of threads created",
	}, []string{"kind"})

	// Likes counts like and unlike actions by target kind.
	Likes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadline_likes_total",
		Help: "Total number of like and unlike actions",
	}, []string{"target", "action"})

	// Follows counts follow and unfollow actions.
	Follows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadline_follows_total",
		Help: "Total number of follow and unfollow actions",
	}, []string{"action"})

	// FeedBuildSeconds records how long composing a home feed takes.
	FeedBuildSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "threadline_feed_build_seconds",
		Help:    "Time spent composing a home feed",
		Buckets: prometheus.DefBuckets,
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "threadline_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// EventsPublished counts realtime events by type and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadline_events_published_total",
		Help: "Total realtime events published",
	}, []string{"event_type", "outcome"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadline_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// TrackFeedBuild returns a function that records feed build latency.
func TrackFeedBuild() func() {
	start := time.Now()
	return func() {
		FeedBuildSeconds.Observe(time.Since(start).Seconds())
	}
}
