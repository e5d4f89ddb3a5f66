// Package metrics provides Prometheus metrics for openhours
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// Counters
	Evaluations      *prometheus.CounterVec // labels: result (open, closed, error)
	HorizonExhausted prometheus.Counter
	RateLimited      prometheus.Counter

	// Gauges
	Places prometheus.Gauge

	// Histograms
	RequestDuration *prometheus.HistogramVec // labels: route
}

// DurationBuckets suit an in-memory evaluation behind an HTTP handler.
var DurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// New creates a new Metrics instance
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openhours_evaluations_total",
				Help: "Opening-hours evaluations by result",
			},
			[]string{"result"},
		),
		HorizonExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openhours_horizon_exhausted_total",
			Help: "Evaluations whose transition search found nothing within the lookahead",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openhours_rate_limited_total",
			Help: "API requests rejected by the rate limiter",
		}),
		Places: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "openhours_places",
			Help: "Number of places in the registry",
		}),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "openhours_request_duration_seconds",
				Help:    "API request duration by route",
				Buckets: DurationBuckets,
			},
			[]string{"route"},
		),
	}

	m.registry.MustRegister(
		m.Evaluations,
		m.HorizonExhausted,
		m.RateLimited,
		m.Places,
		m.RequestDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveEvaluation records the outcome of one evaluation.
func (m *Metrics) ObserveEvaluation(open, transitionKnown bool, err error) {
	switch {
	case err != nil:
		m.Evaluations.WithLabelValues("error").Inc()
		return
	case open:
		m.Evaluations.WithLabelValues("open").Inc()
	default:
		m.Evaluations.WithLabelValues("closed").Inc()
	}
	if !transitionKnown {
		m.HorizonExhausted.Inc()
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for Prometheus metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
