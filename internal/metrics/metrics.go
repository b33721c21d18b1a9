// Package metrics defines the Prometheus collectors for the quiz RAG
// service and exposes the scrape handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	DocumentsIngested    prometheus.Counter
	ChunksIndexed        prometheus.Counter
	DuplicateDocuments   prometheus.Counter
	SearchQueriesTotal   *prometheus.CounterVec
	QuizGenerationsTotal *prometheus.CounterVec
}

// New creates all collectors and registers them on a fresh registry, so
// tests can construct as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		DocumentsIngested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "documents_ingested_total",
				Help: "Total documents accepted into the retrieval engine.",
			},
		),
		ChunksIndexed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chunks_indexed_total",
				Help: "Total chunks stored in the TF-IDF index.",
			},
		),
		DuplicateDocuments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "duplicate_documents_total",
				Help: "Total document uploads skipped as exact-content duplicates.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by outcome (ok, error).",
			},
			[]string{"outcome"},
		),
		QuizGenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_generations_total",
				Help: "Total quiz generation attempts by outcome (ok, error).",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.DocumentsIngested,
		m.ChunksIndexed,
		m.DuplicateDocuments,
		m.SearchQueriesTotal,
		m.QuizGenerationsTotal,
	)
	return m
}

// Handler returns the scrape handler for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
