// Package metrics exposes Prometheus collectors for the HTTP layer and the
// note service, on a registry private to one application instance.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation results recorded by ObserveOp.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
)

// Metrics bundles the collectors and their registry.
type Metrics struct {
	reg         *prometheus.Registry
	reqDuration *prometheus.HistogramVec
	reqTotal    *prometheus.CounterVec
	ops         *prometheus.CounterVec
	activeNotes prometheus.Gauge
}

// New creates a fresh registry with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		reqDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		reqTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notes_operations_total",
				Help: "Note repository operations by name and result",
			},
			[]string{"op", "result"},
		),
		activeNotes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notes_active",
			Help: "Number of active notes after the last mutation",
		}),
	}
	m.reg.MustRegister(m.reqDuration, m.reqTotal, m.ops, m.activeNotes)
	return m
}

// ObserveOp counts one service operation.
func (m *Metrics) ObserveOp(op, result string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, result).Inc()
}

// SetActive records the current number of active notes.
func (m *Metrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.activeNotes.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Middleware records request count and latency labelled by chi route pattern,
// which keeps label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := normalizeStatus(ww.Status())
		m.reqDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

// normalizeStatus buckets status codes: 2xx, 4xx, 5xx.
func normalizeStatus(status int) string {
	switch {
	case status == 0:
		return "2xx"
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return strconv.Itoa(status)
}
