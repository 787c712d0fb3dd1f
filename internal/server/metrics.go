package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conneroisu/aeonkit/internal/renderer"
)

// Metrics holds the preview server's collectors on a private registry so
// that several servers can coexist in one process.
type Metrics struct {
	registry          *prometheus.Registry
	expansions        *prometheus.CounterVec
	tagErrors         *prometheus.CounterVec
	expansionDuration prometheus.Histogram
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	clients           prometheus.Gauge
}

// NewMetrics registers the collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		expansions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aeonkit_expansions_total",
				Help: "Page expansions by outcome (ok, tag_errors, failed)",
			},
			[]string{"status"},
		),
		tagErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aeonkit_tag_errors_total",
				Help: "Tag errors recorded during expansion",
			},
			[]string{"tag"},
		),
		expansionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aeonkit_expansion_duration_seconds",
				Help:    "Time spent expanding one page",
				Buckets: prometheus.DefBuckets,
			},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aeonkit_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aeonkit_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		clients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "aeonkit_websocket_clients",
				Help: "Connected live reload clients",
			},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records HTTP metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)

		// Use the route pattern to avoid one series per document path
		routePattern := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			routePattern = rctx.RoutePattern()
		}
		if routePattern == "" {
			routePattern = r.URL.Path
		}

		m.requests.WithLabelValues(r.Method, routePattern, code).Inc()
		m.requestDuration.WithLabelValues(r.Method, routePattern, code).Observe(time.Since(start).Seconds())
	})
}

// ObserveExpansion records the outcome of one preview.
func (m *Metrics) ObserveExpansion(res *renderer.Result, err error) {
	switch {
	case err != nil || res == nil:
		m.expansions.WithLabelValues("failed").Inc()
		return
	case len(res.Errors) > 0:
		m.expansions.WithLabelValues("tag_errors").Inc()
	default:
		m.expansions.WithLabelValues("ok").Inc()
	}
	m.expansionDuration.Observe(res.Duration.Seconds())
	for _, tagErr := range res.Errors {
		m.tagErrors.WithLabelValues(tagErr.Tag).Inc()
	}
}
