package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps the Prometheus collectors exported on /metrics. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec

	requestsCreated    *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	rejections         *prometheus.CounterVec
	escalations        *prometheus.CounterVec
	openBreaches       prometheus.Gauge
	monitorScanSeconds prometheus.Histogram
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		errorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP requests that ended in a domain error",
		}, []string{"method", "path", "code"}),
		requestsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "help_requests_created_total",
			Help: "Help requests accepted, by priority",
		}, []string{"priority"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "help_request_transitions_total",
			Help: "Accepted status transitions, by target status",
		}, []string{"status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "help_request_rejections_total",
			Help: "Rejected lifecycle operations, by operation and error code",
		}, []string{"operation", "code"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "help_request_escalations_total",
			Help: "Escalations, by source",
		}, []string{"source"}),
		openBreaches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "help_request_open_breaches",
			Help: "Active requests past their SLA deadline at the last monitor scan",
		}),
		monitorScanSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sla_monitor_scan_seconds",
			Help:    "Duration of SLA monitor scans",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.requestDuration,
		m.requestTotal,
		m.errorTotal,
		m.requestsCreated,
		m.transitions,
		m.rejections,
		m.escalations,
		m.openBreaches,
		m.monitorScanSeconds,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest counts and times an HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, label).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, label).Inc()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorTotal.WithLabelValues(method, path, code).Inc()
}

func (m *Metrics) RequestCreated(priority string) {
	if m == nil {
		return
	}
	m.requestsCreated.WithLabelValues(priority).Inc()
}

func (m *Metrics) Transitioned(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) Rejected(operation, code string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) Escalated(source string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(source).Inc()
}

// ObserveMonitorScan records one monitor pass.
func (m *Metrics) ObserveMonitorScan(duration time.Duration, openBreaches int) {
	if m == nil {
		return
	}
	m.monitorScanSeconds.Observe(duration.Seconds())
	m.openBreaches.Set(float64(openBreaches))
}
