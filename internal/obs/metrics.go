// Package obs holds the process-wide Prometheus metrics and health-check
// plumbing shared across the engine's packages.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter and histogram the engine exports.
type Metrics struct {
	NounInserts    prometheus.Counter
	VerbInserts    prometheus.Counter
	SearchQueries  prometheus.Counter
	SearchErrors   prometheus.Counter
	SearchLatency  prometheus.Histogram
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	ThrottleEvents prometheus.Counter
	CleanupRuns    prometheus.Counter
}

// NewMetrics registers and returns the engine's metric set.
func NewMetrics() *Metrics {
	return &Metrics{
		NounInserts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brainygraph_noun_inserts_total",
			Help: "Total nouns inserted",
		}),
		VerbInserts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brainygraph_verb_inserts_total",
			Help: "Total verbs inserted",
		}),
		SearchQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brainygraph_search_queries_total",
			Help: "Total search queries",
		}),
		SearchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brainygraph_search_errors_total",
			Help: "Total search errors",
		}),
		SearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "brainygraph_search_latency_seconds",
			Help: "Search latency",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brainygraph_cache_hits_total",
			Help: "Cache hits across hot and warm tiers",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brainygraph_cache_misses_total",
			Help: "Cache misses across hot and warm tiers",
		}),
		ThrottleEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brainygraph_throttle_events_total",
			Help: "Write-pipeline throttle events",
		}),
		CleanupRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brainygraph_cleanup_runs_total",
			Help: "Completed soft-delete cleanup passes",
		}),
	}
}
