package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Storage metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
	StorageErrorsTotal       *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Rewrite middleware metrics
	RewritesTotal      *prometheus.CounterVec
	ResolverFailedOpen prometheus.Counter

	// Business metrics
	ArticlesTotal prometheus.Gauge
	UsersTotal    prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inkwell_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_storage_operations_total",
				Help: "Total number of storage operations",
			},
			[]string{"operation"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inkwell_storage_operation_duration_seconds",
				Help:    "Storage operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		StorageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"operation"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"kind"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"kind"},
		),
		RewritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkwell_rewrites_total",
				Help: "Path rewrites performed by the middleware",
			},
			[]string{"outcome"}, // asset, alias, slug, passthrough
		),
		ResolverFailedOpen: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "inkwell_resolver_failed_open_total",
				Help: "Slug resolutions that failed and fell through to passthrough",
			},
		),
		ArticlesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "inkwell_articles_total",
				Help: "Number of articles",
			},
		),
		UsersTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "inkwell_users_total",
				Help: "Number of user accounts",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
		m.StorageErrorsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.RewritesTotal,
		m.ResolverFailedOpen,
		m.ArticlesTotal,
		m.UsersTotal,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStorage records one storage operation.
func (m *Metrics) ObserveStorage(operation string, start time.Time, err error) {
	m.StorageOperationsTotal.WithLabelValues(operation).Inc()
	m.StorageOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StorageErrorsTotal.WithLabelValues(operation).Inc()
	}
}

// HTTPMiddleware records request counts and latencies. The path label uses the
// route template, not the raw URL, to keep cardinality bounded.
func (m *Metrics) HTTPMiddleware(routeTemplate func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if routeTemplate != nil {
				if tmpl := routeTemplate(r); tmpl != "" {
					path = tmpl
				}
			}
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
