// Package metrics agrupa los collectors de prometheus del portal.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	DoseFetchFailures   *prometheus.CounterVec
	DosesLogged         *prometheus.CounterVec
	SymptomFlagsServed  *prometheus.CounterVec
	AggregationDuration *prometheus.HistogramVec
	BreakerState        *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New crea un registry propio (no el global) para poder instanciar varios routers en tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route"}),
		DoseFetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dose_fetch_failures_total",
			Help: "Dose record store reads that failed and were masked as empty",
		}, []string{"component"}),
		DosesLogged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "doses_logged_total",
			Help: "Dose records ingested by status",
		}, []string{"status", "source"}),
		SymptomFlagsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "symptom_flags_served_total",
			Help: "Symptom flags returned in responses, by type and severity. Counts once per request",
		}, []string{"type", "severity"}),
		AggregationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aggregation_duration_seconds",
			Help:    "Adherence/symptom aggregation duration including store reads",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"kind"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
		registry: reg,
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.DoseFetchFailures,
		m.DosesLogged,
		m.SymptomFlagsServed,
		m.AggregationDuration,
		m.BreakerState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler expone /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry se expone para tests (testutil / Gather).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
