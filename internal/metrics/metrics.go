package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Swipes counts committed swipes by direction.
	Swipes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaker_swipes_total",
			Help: "Total number of recorded swipes",
		},
		[]string{"direction"},
	)

	// Matches counts swipes that completed a mutual like.
	Matches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaker_matches_total",
			Help: "Total number of matches created",
		},
	)

	// SwipeRejections counts swipes refused before any write.
	SwipeRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaker_swipe_rejections_total",
			Help: "Total number of rejected swipes",
		},
		[]string{"reason"}, // "invalid", "duplicate", "rate_limited", "not_found"
	)

	SwipeRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaker_swipe_tx_retries_total",
			Help: "Swipe transactions replayed after a lock conflict",
		},
	)

	// Cache
	MatchCountCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaker_match_count_cache_hits_total",
			Help: "Match count reads served from Redis",
		},
	)

	MatchCountCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaker_match_count_cache_misses_total",
			Help: "Match count reads that fell back to the database",
		},
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchmaker_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchmaker_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)
