// Package metrics defines the Prometheus collectors for a search run and
// pushes them to a Pushgateway when the batch completes.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus collectors for a run.
type Metrics struct {
	registry *prometheus.Registry

	QueriesTotal        *prometheus.CounterVec
	QueryLatency        prometheus.Histogram
	CandidatesPerQuery  prometheus.Histogram
	ResultAngles        prometheus.Histogram
	CacheRequestsTotal  *prometheus.CounterVec
	DictionaryTerms     prometheus.Gauge
	CorpusDocuments     prometheus.Gauge
	IndexBuildSeconds   prometheus.Gauge
	SinkFailuresTotal   *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec
}

// New creates all collectors on a private registry so several runs (or
// tests) in one process never collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_queries_total",
				Help: "Queries processed by result type (ranked, zero_result, error).",
			},
			[]string{"result_type"},
		),
		QueryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsearch_query_duration_seconds",
				Help:    "Time to resolve, vectorise and rank one query.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		CandidatesPerQuery: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsearch_query_candidates",
				Help:    "Candidate documents per query after posting-list intersection.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 500},
			},
		),
		ResultAngles: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsearch_result_angle_degrees",
				Help:    "Angle between query and ranked document vectors.",
				Buckets: prometheus.LinearBuckets(0, 10, 10),
			},
		),
		CacheRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_cache_requests_total",
				Help: "Result cache lookups by outcome (hit, miss).",
			},
			[]string{"outcome"},
		),
		DictionaryTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_dictionary_terms",
				Help: "Distinct terms in the dictionary.",
			},
		),
		CorpusDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_corpus_documents",
				Help: "Documents (lines) in the corpus.",
			},
		),
		IndexBuildSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_index_build_seconds",
				Help: "Time spent building the dictionary and inverted index.",
			},
		),
		SinkFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_sink_failures_total",
				Help: "Failed writes to optional result sinks.",
			},
			[]string{"sink"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "docsearch_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	m.registry.MustRegister(
		m.QueriesTotal,
		m.QueryLatency,
		m.CandidatesPerQuery,
		m.ResultAngles,
		m.CacheRequestsTotal,
		m.DictionaryTerms,
		m.CorpusDocuments,
		m.IndexBuildSeconds,
		m.SinkFailuresTotal,
		m.CircuitBreakerState,
	)
	return m
}

// Registry exposes the private registry, mainly for tests and gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends every collector to the Pushgateway at url under job, grouped by
// run so concurrent batches do not overwrite each other.
func (m *Metrics) Push(url, job, runID string) error {
	err := push.New(url, job).
		Gatherer(m.registry).
		Grouping("run_id", runID).
		Push()
	if err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}

// PingGateway checks that the Pushgateway at url answers its health endpoint.
func PingGateway(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(url, "/")+"/-/healthy", nil)
	if err != nil {
		return fmt.Errorf("building pushgateway request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("reaching pushgateway: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushgateway unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
