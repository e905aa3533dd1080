package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	registry *prometheus.Registry

	// Store metrics
	SessionSavesTotal   *prometheus.CounterVec
	SessionFetchesTotal *prometheus.CounterVec
	SessionDeletesTotal *prometheus.CounterVec
	SessionsStored      prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		SessionSavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_saves_total",
				Help: "Total number of session save operations",
			},
			[]string{"status"},
		),
		SessionFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_fetches_total",
				Help: "Total number of session get/list operations",
			},
			[]string{"operation", "status"},
		),
		SessionDeletesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_deletes_total",
				Help: "Total number of session delete operations",
			},
			[]string{"status"},
		),
		SessionsStored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sessions_stored",
				Help: "Number of sessions currently stored",
			},
		),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		m.SessionSavesTotal,
		m.SessionFetchesTotal,
		m.SessionDeletesTotal,
		m.SessionsStored,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler returns an HTTP handler exposing the registry in Prometheus format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
