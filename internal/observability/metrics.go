package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the service. A nil *Metrics is
// a valid no-op recorder.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestTotal      *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	errorTotal        *prometheus.CounterVec
	complaintsCreated *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	sweepUpdated      *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	errorTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "HTTP requests that ended in an error response, by error code",
	}, []string{"method", "path", "code"})

	complaintsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaints_created_total",
		Help: "Complaints registered, by submission channel",
	}, []string{"channel"})

	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaint_status_transitions_total",
		Help: "Complaint status changes",
	}, []string{"from", "to"})

	sweepUpdated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaint_sweep_updated_total",
		Help: "Complaints moved to pending by the sweep",
	}, []string{"reason"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Outbound notifications by channel and result",
	}, []string{"channel", "result"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"cache", "result"})

	registry.MustRegister(
		requestTotal,
		requestDuration,
		errorTotal,
		complaintsCreated,
		statusTransitions,
		sweepUpdated,
		notifications,
		cacheLookups,
		collectors.NewGoCollector(),
	)

	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		errorTotal:        errorTotal,
		complaintsCreated: complaintsCreated,
		statusTransitions: statusTransitions,
		sweepUpdated:      sweepUpdated,
		notifications:     notifications,
		cacheLookups:      cacheLookups,
	}
}

// Handler exposes the Prometheus scrape endpoint.
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

// RecordRequest observes a finished HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestTotal.WithLabelValues(method, path, code).Inc()
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorTotal.WithLabelValues(method, path, code).Inc()
}

// ComplaintCreated counts a registered complaint.
func (m *Metrics) ComplaintCreated(channel string) {
	if m == nil {
		return
	}
	m.complaintsCreated.WithLabelValues(channel).Inc()
}

// StatusTransition counts a complaint status change.
func (m *Metrics) StatusTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

// SweepUpdated adds complaints moved to pending.
func (m *Metrics) SweepUpdated(reason string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.sweepUpdated.WithLabelValues(reason).Add(float64(count))
}

// Notification counts a delivery attempt.
func (m *Metrics) Notification(channel string, ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}

// CacheLookup counts a cache hit or miss.
func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}
