package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Query cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelscout_query_cache_hits_total",
			Help: "Query cache reads served from a fresh entry",
		},
		[]string{"op"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelscout_query_cache_misses_total",
			Help: "Query cache reads that required a fetch",
		},
		[]string{"op"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelscout_query_cache_invalidations_total",
			Help: "Query cache entries marked stale by a write",
		},
		[]string{"op"},
	)

	CacheDiscardedResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelscout_query_cache_discarded_results_total",
			Help: "Fetch results dropped because the key was invalidated while in flight",
		},
		[]string{"op"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelscout_query_cache_entries",
			Help: "Entries currently held by the query cache",
		},
	)

	// Catalog
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelscout_catalog_requests_total",
			Help: "Requests sent to the movie catalog",
		},
		[]string{"endpoint", "result"},
	)

	CatalogDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelscout_catalog_request_duration_seconds",
			Help:    "Latency of movie catalog requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	SearchesSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelscout_searches_superseded_total",
			Help: "Debounced searches dropped in favor of a newer query",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelscout_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// User state
	UserStateWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelscout_user_state_writes_total",
			Help: "Favorite, rating and profile writes",
		},
		[]string{"kind", "result"},
	)

	AuthEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelscout_auth_events_total",
			Help: "Identity provider events",
		},
		[]string{"event", "result"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelscout_active_sessions",
			Help: "Signed-in browser sessions known to the session observer",
		},
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelscout_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
