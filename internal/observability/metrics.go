package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	mutationsTotal  *prometheus.CounterVec
	syncTotal       *prometheus.CounterVec
	syncQueueDepth  prometheus.Gauge
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_errors_total",
			Help: "HTTP errors by domain error code",
		}, []string{"method", "route", "code"}),
		mutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_store_mutations_total",
			Help: "Committed store mutations",
		}, []string{"entity", "operation"}),
		syncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_sync_attempts_total",
			Help: "External sync attempts by target and result",
		}, []string{"target", "operation", "result"}),
		syncQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helpdesk_sync_queue_depth",
			Help: "Sync tasks waiting in the outbox",
		}),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.errorsTotal,
		m.mutationsTotal,
		m.syncTotal,
		m.syncQueueDepth,
		collectors.NewGoCollector(),
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, route, code).Inc()
}

// RecordMutation counts a committed store write.
func (m *Metrics) RecordMutation(entity, operation string) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(entity, operation).Inc()
}

// RecordSync counts one collaborator attempt.
func (m *Metrics) RecordSync(target, operation string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.syncTotal.WithLabelValues(target, operation, result).Inc()
}

// AddQueueDepth moves the outbox gauge by delta.
func (m *Metrics) AddQueueDepth(delta float64) {
	if m == nil {
		return
	}
	m.syncQueueDepth.Add(delta)
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
