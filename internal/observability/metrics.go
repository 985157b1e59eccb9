package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "case_story"

// Metrics holds the Prometheus counters, histograms, and gauges for the story service.
type Metrics struct {
	// Ingestion metrics.
	RowsIngested  prometheus.Counter
	RowsDropped   prometheus.Counter
	RegionsLoaded prometheus.Gauge
	LoadDuration  prometheus.Histogram
	LoadFailures  prometheus.Counter
	ServiceReady  prometheus.Gauge

	// Selection metrics.
	Selections          *prometheus.CounterVec // labels: outcome={ok,degraded,not_found,invalid,not_ready}
	DegradedStories     prometheus.Counter
	AnnotationsPerStory prometheus.Histogram
	StoryCache          *prometheus.CounterVec // labels: result={hit,miss}

	StoriesPublished prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_ingested_total",
			Help:      "Rows accepted into a region series.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Malformed or duplicate rows skipped during ingestion.",
		}),
		RegionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions_loaded",
			Help:      "Number of regions in the current dataset.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete bulk load, including per-region analysis.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_failures_total",
			Help:      "Bulk loads that failed before a dataset was published.",
		}),
		ServiceReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ready",
			Help:      "1 once a dataset is loaded, 0 before.",
		}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Story selections by outcome.",
		}, []string{"outcome"}),
		DegradedStories: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_stories_total",
			Help:      "Stories built with fewer segments than requested.",
		}),
		AnnotationsPerStory: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "annotations_per_story",
			Help:      "Number of annotations in a built story, sentinel included.",
			Buckets:   []float64{1, 2, 4, 6, 8, 10, 15, 20, 30},
		}),
		StoryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "story_cache_total",
			Help:      "Story cache lookups by result.",
		}, []string{"result"}),
		StoriesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stories_published_total",
			Help:      "Stories written to the publish topic.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsIngested,
		m.RowsDropped,
		m.RegionsLoaded,
		m.LoadDuration,
		m.LoadFailures,
		m.ServiceReady,
		m.Selections,
		m.DegradedStories,
		m.AnnotationsPerStory,
		m.StoryCache,
		m.StoriesPublished,
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsWithRegistry creates Metrics registered with reg. One-shot tools
// pass a private registry so nothing leaks into the default one.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}
