// Package metrics provides Prometheus instrumentation for the exchange
// server: store operation throughput and latency, recorded decisions and
// discovered matches.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StoreOperations counts store calls labeled by operation and outcome
	// ("ok", "not_found", "error").
	StoreOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circloth_store_operations_total",
		Help: "Total number of storage operations",
	}, []string{"op", "outcome"})

	// StoreLatency records store call latency in seconds.
	StoreLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circloth_store_latency_seconds",
		Help:    "Storage operation latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"op"})

	// Decisions counts recorded like/pass actions.
	Decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circloth_decisions_total",
		Help: "Total number of recorded like/pass decisions",
	}, []string{"kind"})

	// MatchesCreated counts likes that completed a reciprocal match.
	MatchesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "circloth_matches_created_total",
		Help: "Likes that completed a match",
	})

	// MatchGroups records how many match groups a discovery returned.
	MatchGroups = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "circloth_match_groups",
		Help:    "Number of match groups returned per discovery",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	// EmptyCandidates counts next-candidate requests with nothing eligible.
	EmptyCandidates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "circloth_empty_candidates_total",
		Help: "Candidate requests that found no eligible item",
	})

	// RateLimited counts requests rejected by the per-user limiter.
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "circloth_rate_limited_total",
		Help: "Requests rejected by the per-user rate limiter",
	})

	// IndexFailures counts stored decisions the like index could not apply.
	// The index catches up on the next rebuild.
	IndexFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "circloth_like_index_failures_total",
		Help: "Stored decisions that failed to reach the like index",
	})

	// SocketConnections tracks currently connected socket.io clients.
	SocketConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "circloth_socket_connections",
		Help: "Current number of socket.io connections",
	})
)

func init() {
	prometheus.MustRegister(
		StoreOperations,
		StoreLatency,
		Decisions,
		MatchesCreated,
		MatchGroups,
		EmptyCandidates,
		RateLimited,
		IndexFailures,
		SocketConnections,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
