package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipesearch"

// Search outcomes used as label values.
const (
	OutcomeResults   = "results"
	OutcomeNoResults = "no_results"
	OutcomeError     = "error"
)

// Metrics holds the Prometheus collectors for search.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	searchesTotal     *prometheus.CounterVec
	searchDuration    *prometheus.HistogramVec
	candidateFailures prometheus.Counter
	fallbacksTotal    prometheus.Counter
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
// Collectors already registered on reg are reused, so New may be called
// more than once against the same registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		searchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total number of searches by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Search duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"backend"},
		),
		candidateFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidate_embedding_failures_total",
				Help:      "Candidates skipped because their embedding failed",
			},
		),
		fallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "local_fallbacks_total",
				Help:      "Searches retried remotely after the local model failed",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	var err error
	if m.searchesTotal, err = register(reg, m.searchesTotal); err != nil {
		return nil, err
	}
	if m.searchDuration, err = register(reg, m.searchDuration); err != nil {
		return nil, err
	}
	if m.candidateFailures, err = register(reg, m.candidateFailures); err != nil {
		return nil, err
	}
	if m.fallbacksTotal, err = register(reg, m.fallbacksTotal); err != nil {
		return nil, err
	}
	if m.httpRequests, err = register(reg, m.httpRequests); err != nil {
		return nil, err
	}
	if m.httpDuration, err = register(reg, m.httpDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveSearch records one finished search.
func (m *Metrics) ObserveSearch(backend, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.searchesTotal.WithLabelValues(backend, outcome).Inc()
	m.searchDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// CandidateFailed records a candidate skipped because it could not be embedded.
func (m *Metrics) CandidateFailed() {
	if m == nil {
		return
	}
	m.candidateFailures.Inc()
}

// Fallback records a switch from the local model to the remote endpoint.
func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.fallbacksTotal.Inc()
}

// Handler serves the registry the metrics were created on.
// It falls back to the default gatherer when the registerer cannot gather.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
