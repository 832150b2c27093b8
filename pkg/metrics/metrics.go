package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinetheque_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// ListCacheLookups counts list-cache lookups by resource prefix and outcome (hit|miss|error).
	ListCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinetheque_list_cache_lookups_total",
			Help: "Total number of versioned list-cache lookups",
		},
		[]string{"prefix", "result"},
	)

	// CacheInvalidations counts version bumps per resource prefix.
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinetheque_cache_invalidations_total",
			Help: "Total number of list-cache version increments",
		},
		[]string{"prefix"},
	)

	// ImportedMovies counts import pipeline outcomes (imported|skipped).
	ImportedMovies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinetheque_imported_movies_total",
			Help: "Total number of movies processed by the TMDb import pipeline",
		},
		[]string{"result"},
	)

	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinetheque_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)
)
