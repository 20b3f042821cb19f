// Package metrics exposes Prometheus instrumentation for feed builds.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuildDuration observes wall time of one full pipeline run.
	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "feedgen",
		Name:      "build_duration_seconds",
		Help:      "Duration of one feed generation run.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// CatalogEpisodes tracks how many episodes the last build normalized.
	CatalogEpisodes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "feedgen",
		Name:      "catalog_episodes",
		Help:      "Episodes in the most recently built catalog.",
	})

	// SourceFetches counts secondary source fetch outcomes.
	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedgen",
		Name:      "source_fetch_total",
		Help:      "Secondary content source fetches by source key and result.",
	}, []string{"source", "result"})

	// Outputs counts generated files by name and status.
	Outputs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedgen",
		Name:      "output_total",
		Help:      "Output files produced, by output name and status.",
	}, []string{"output", "status"})
)
