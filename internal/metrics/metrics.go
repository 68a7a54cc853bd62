// Package metrics provides Prometheus metrics for the fund analysis service.
// It tracks cache effectiveness, ranking computations, embedding calls, and
// session lifecycle events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fundlens"

var (
	// CacheRequests counts cache lookups by type and outcome (hit, miss).
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Total cache lookups by cache type and outcome",
		},
		[]string{"cache_type", "outcome"},
	)

	// CacheSets counts cache writes by type.
	CacheSets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_sets_total",
			Help:      "Total cache writes by cache type",
		},
		[]string{"cache_type"},
	)

	// CacheSweptEntries counts entries removed by expiry sweeps.
	CacheSweptEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_swept_entries_total",
			Help:      "Total expired cache entries removed by sweeps",
		},
	)

	// RankingsComputed counts ranking computations by criterion.
	RankingsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rankings_computed_total",
			Help:      "Total ranking computations by criterion",
		},
		[]string{"criterion"},
	)

	// EmbeddingCalls counts embedding generations by model and outcome.
	EmbeddingCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_calls_total",
			Help:      "Total embedding generation calls by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	// SimilarityQueries counts similarity searches.
	SimilarityQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "similarity_queries_total",
			Help:      "Total similarity queries",
		},
	)

	// ActiveSessions tracks the number of live sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live (unexpired) sessions",
		},
	)

	// SessionsSwept counts sessions removed by expiry sweeps.
	SessionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_swept_total",
			Help:      "Total expired sessions removed by sweeps",
		},
	)
)
