package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline and assembly counters exposed on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	ItemsNormalized   *prometheus.CounterVec
	DuplicatesFound   prometheus.Counter
	BriefsGenerated   *prometheus.CounterVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	SourceFetchErrors *prometheus.CounterVec
	GenerationSeconds prometheus.Histogram
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ItemsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefd_items_normalized_total",
			Help: "Items normalized into the unified schema, by source type.",
		}, []string{"source_type"}),
		DuplicatesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "briefd_duplicates_found_total",
			Help: "Items suppressed as duplicates during batch analysis.",
		}),
		BriefsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefd_briefs_generated_total",
			Help: "Briefs generated, by brief type.",
		}, []string{"brief_type"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "briefd_brief_cache_hits_total",
			Help: "Brief generation requests served from cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "briefd_brief_cache_misses_total",
			Help: "Brief generation requests that missed the cache.",
		}),
		SourceFetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefd_source_fetch_errors_total",
			Help: "Aggregation fetches that failed, by source type.",
		}, []string{"source_type"}),
		GenerationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "briefd_brief_generation_seconds",
			Help:    "Wall time spent generating a brief.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.ItemsNormalized,
		m.DuplicatesFound,
		m.BriefsGenerated,
		m.CacheHits,
		m.CacheMisses,
		m.SourceFetchErrors,
		m.GenerationSeconds,
	)
	return m
}
