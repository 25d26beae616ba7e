// Package prometheus registers and exposes the application metric set.  All
// metrics live on a dedicated registry so tests can construct isolated
// instances without tripping duplicate-registration panics.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default histogram buckets.
var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultLLMDurationBuckets  = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
)

// Metrics holds every metric the service emits.  Construct once per process
// via NewMetrics and inject where needed.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Valuation pipeline
	ValuationsTotal     *prometheus.CounterVec // label: outcome (ok|insufficient_data|error)
	ValuationDuration   prometheus.Histogram
	PassagesProcessed   *prometheus.CounterVec // label: outcome (record|dropped)
	RecencyTierSelected *prometheus.CounterVec // label: tier (90d|180d|all)
	OutliersRemoved     prometheus.Counter
	SampleSize          prometheus.Histogram

	// External collaborators
	SearchDuration prometheus.Histogram
	SearchErrors   prometheus.Counter
	LLMDuration    prometheus.Histogram
	LLMErrors      prometheus.Counter

	// Infrastructure
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	EventsPublished  *prometheus.CounterVec // label: topic
}

// NewMetrics registers the full application metric set under the given
// namespace on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "agvalue"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path, and status code.",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   DefaultHTTPDurationBuckets,
	}, []string{"method", "path"})

	m.ValuationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "valuations_total",
		Help:      "Completed valuation requests by outcome.",
	}, []string{"outcome"})

	m.ValuationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "valuation_duration_seconds",
		Help:      "End-to-end valuation latency including passage search.",
		Buckets:   DefaultHTTPDurationBuckets,
	})

	m.PassagesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "passages_processed_total",
		Help:      "Passages converted to sale records vs. dropped.",
	}, []string{"outcome"})

	m.RecencyTierSelected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recency_tier_selected_total",
		Help:      "Which recency window satisfied the minimum sample size.",
	}, []string{"tier"})

	m.OutliersRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "price_outliers_removed_total",
		Help:      "Sale records rejected by the IQR rule.",
	})

	m.SampleSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "valuation_sample_size",
		Help:      "Surviving comparable-sale count per valuation.",
		Buckets:   []float64{1, 3, 5, 10, 25, 50, 100},
	})

	m.SearchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "passage_search_duration_seconds",
		Help:      "External passage search latency.",
		Buckets:   DefaultHTTPDurationBuckets,
	})

	m.SearchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "passage_search_errors_total",
		Help:      "Failed passage search calls.",
	})

	m.LLMDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_request_duration_seconds",
		Help:      "Prose-formatter model latency.",
		Buckets:   DefaultLLMDurationBuckets,
	})

	m.LLMErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_errors_total",
		Help:      "Failed prose-formatter calls (result falls back to template).",
	})

	m.CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Valuation cache hits.",
	})

	m.CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Valuation cache misses.",
	})

	m.EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Messages published to the event bus by topic.",
	}, []string{"topic"})

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ValuationsTotal,
		m.ValuationDuration,
		m.PassagesProcessed,
		m.RecencyTierSelected,
		m.OutliersRemoved,
		m.SampleSize,
		m.SearchDuration,
		m.SearchErrors,
		m.LLMDuration,
		m.LLMErrors,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.EventsPublished,
	)

	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint for this
// registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
