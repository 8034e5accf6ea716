package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
)

const namespace = "property_matching"

// Metrics owns its registry so several servers (and tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	decisionsTotal   *prometheus.CounterVec
	decisionDuration prometheus.Histogram
	exchangeSearches prometheus.Counter
	exchangeMatches  prometheus.Histogram
	httpRequests     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Total number of decisions by status",
			},
			[]string{"status"},
		),
		decisionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "decision_duration_seconds",
				Help:      "Decision latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		exchangeSearches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exchange_searches_total",
				Help:      "Total number of exchange match searches",
			},
		),
		exchangeMatches: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "exchange_matches",
				Help:      "Number of exchange matches per search",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(
		m.decisionsTotal,
		m.decisionDuration,
		m.exchangeSearches,
		m.exchangeMatches,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveDecision(status domain.DecisionStatus, took time.Duration) {
	m.decisionsTotal.WithLabelValues(string(status)).Inc()
	m.decisionDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveExchangeSearch(matches int) {
	m.exchangeSearches.Inc()
	m.exchangeMatches.Observe(float64(matches))
}

func (m *Metrics) ObserveRequest(method, route, status string) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
