package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the application metrics.
type MetricsService struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	cacheOperations    *prometheus.CounterVec
	cacheWriteDuration prometheus.Histogram

	dbQueryDuration *prometheus.HistogramVec

	overdueRequests prometheus.Gauge
	backupRuns      *prometheus.CounterVec
}

// NewMetricsService registers all collectors on a fresh registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &MetricsService{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "echotrack_http_requests_total",
			Help: "Number of HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "echotrack_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		cacheOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "echotrack_cache_operations_total",
			Help: "Cache lookups partitioned by outcome.",
		}, []string{"operation", "outcome"}),
		cacheWriteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "echotrack_cache_write_duration_seconds",
			Help:    "Latency of cache writes.",
			Buckets: prometheus.DefBuckets,
		}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "echotrack_db_query_duration_seconds",
			Help:    "Latency of database aggregate queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		overdueRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "echotrack_overdue_requests",
			Help: "Timed requests currently past their expected completion time.",
		}),
		backupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "echotrack_backup_runs_total",
			Help: "Backup snapshot runs partitioned by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.cacheOperations,
		m.cacheWriteDuration,
		m.dbQueryDuration,
		m.overdueRequests,
		m.backupRuns,
	)

	return m
}

// Handler exposes the registry over HTTP.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCacheOperation counts a cache lookup outcome (hit, miss, error).
func (m *MetricsService) RecordCacheOperation(operation, outcome string) {
	m.cacheOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveCacheWrite records the latency of one cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	m.cacheWriteDuration.Observe(duration.Seconds())
}

// ObserveDBQuery records the latency of one named aggregate query.
func (m *MetricsService) ObserveDBQuery(query string, duration time.Duration) {
	m.dbQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// SetOverdueRequests updates the overdue gauge shown on dashboards.
func (m *MetricsService) SetOverdueRequests(count int) {
	m.overdueRequests.Set(float64(count))
}

// RecordBackupRun counts a snapshot attempt (success, failure).
func (m *MetricsService) RecordBackupRun(outcome string) {
	m.backupRuns.WithLabelValues(outcome).Inc()
}
