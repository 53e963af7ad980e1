package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	registry        *prometheus.Registry
}

// New creates a new metrics set backed by its own registry.
func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests processed.",
		}, []string{"method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		registry: registry,
	}
}

// Handler returns the /metrics exposition handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per method/status.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		m.requestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		m.requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
