// Package metrics defines the Prometheus collectors for the typeahead engine
// and exposes an HTTP handler for scraping.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/bastiangx/typeahead/pkg/typeahead"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors and implements typeahead.Observer.
type Metrics struct {
	registry       *prometheus.Registry
	OpsTotal       *prometheus.CounterVec
	QueryLatency   prometheus.Histogram
	CandidateCount prometheus.Histogram
	ResultCount    prometheus.Histogram
	Items          prometheus.Gauge
	TrieNodes      prometheus.Gauge
	ThrottledTotal prometheus.Counter
}

var _ typeahead.Observer = (*Metrics)(nil)

// New creates the collectors on their own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typeahead_operations_total",
				Help: "Engine operations by op (add, delete, query, wquery) and status (ok, invalid, error).",
			},
			[]string{"op", "status"},
		),
		QueryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "typeahead_query_duration_seconds",
				Help:    "Time spent intersecting and ranking a query.",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
		CandidateCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "typeahead_query_candidates",
				Help:    "Candidate set size after prefix intersection.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		ResultCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "typeahead_query_results",
				Help:    "Number of ids returned per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		Items: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "typeahead_items",
				Help: "Live items in the index.",
			},
		),
		TrieNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "typeahead_trie_nodes",
				Help: "Allocated trie nodes; never decreases.",
			},
		),
		ThrottledTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "typeahead_requests_throttled_total",
				Help: "IPC requests rejected by the rate limiter.",
			},
		),
	}

	m.registry.MustRegister(
		m.OpsTotal,
		m.QueryLatency,
		m.CandidateCount,
		m.ResultCount,
		m.Items,
		m.TrieNodes,
		m.ThrottledTotal,
	)
	return m
}

// ObserveOp counts one engine operation.
func (m *Metrics) ObserveOp(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, typeahead.ErrInvalidArgument) {
			status = "invalid"
		}
	}
	m.OpsTotal.WithLabelValues(op, status).Inc()
}

// ObserveQuery records latency and sizes of a successful query.
func (m *Metrics) ObserveQuery(elapsed time.Duration, candidates, returned int) {
	m.QueryLatency.Observe(elapsed.Seconds())
	m.CandidateCount.Observe(float64(candidates))
	m.ResultCount.Observe(float64(returned))
}

// ObserveSize updates the index size gauges.
func (m *Metrics) ObserveSize(items, nodes int) {
	m.Items.Set(float64(items))
	m.TrieNodes.Set(float64(nodes))
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
