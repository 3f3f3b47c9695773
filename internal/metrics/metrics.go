// Package metrics defines the Prometheus collectors for index builds,
// searches and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wordsearch"

// Cache status labels for search observations.
const (
	CacheHit      = "hit"
	CacheMiss     = "miss"
	CacheDisabled = "disabled"
)

// Metrics holds the collectors. Each value owns its registry, so several
// can live in one process. Methods on a nil *Metrics do nothing.
type Metrics struct {
	registry *prometheus.Registry

	SearchesTotal       *prometheus.CounterVec
	SearchLatency       *prometheus.HistogramVec
	SearchResults       prometheus.Histogram
	BuildsTotal         *prometheus.CounterVec
	BuildDuration       prometheus.Histogram
	IndexedDocuments    prometheus.Gauge
	SkippedDocuments    prometheus.Gauge
	IndexKeys           prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors on a fresh registry, together
// with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Searches by outcome (match, zero_result, error).",
			},
			[]string{"outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_latency_seconds",
				Help:      "Search latency in seconds.",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
			[]string{"cache_status"},
		),
		SearchResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_results_count",
				Help:      "Matching documents per search.",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
		),
		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_builds_total",
				Help:      "Index builds by status (ok, partial, error).",
			},
			[]string{"status"},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "index_build_duration_seconds",
				Help:      "Time to load the corpus and build the index.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		IndexedDocuments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_documents",
			Help:      "Documents in the current index.",
		}),
		SkippedDocuments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_skipped_documents",
			Help:      "Documents skipped by the last build.",
		}),
		IndexKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_keys",
			Help:      "Distinct words and phrases in the current index.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SearchesTotal,
		m.SearchLatency,
		m.SearchResults,
		m.BuildsTotal,
		m.BuildDuration,
		m.IndexedDocuments,
		m.SkippedDocuments,
		m.IndexKeys,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch records one search. matches is the number of matching
// documents before pagination.
func (m *Metrics) ObserveSearch(d time.Duration, matches int, cacheStatus string, err error) {
	if m == nil {
		return
	}
	outcome := "match"
	switch {
	case err != nil:
		outcome = "error"
	case matches == 0:
		outcome = "zero_result"
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	if err != nil {
		return
	}
	m.SearchLatency.WithLabelValues(cacheStatus).Observe(d.Seconds())
	m.SearchResults.Observe(float64(matches))
}

// ObserveBuild records one rebuild. A build that produced an index but
// skipped documents is partial.
func (m *Metrics) ObserveBuild(d time.Duration, documents, keys, skipped int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case skipped > 0:
		status = "partial"
	}
	m.BuildsTotal.WithLabelValues(status).Inc()
	if err != nil {
		return
	}
	m.BuildDuration.Observe(d.Seconds())
	m.IndexedDocuments.Set(float64(documents))
	m.SkippedDocuments.Set(float64(skipped))
	m.IndexKeys.Set(float64(keys))
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusLabel(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code)
}
