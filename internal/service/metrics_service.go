package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry. A nil *MetricsService is a valid no-op.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	recordWrites    *prometheus.CounterVec
	destructive     *prometheus.CounterVec
	reports         *prometheus.CounterVec
	timerRunning    prometheus.Gauge
	timerClients    prometheus.Gauge
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
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
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total statistics cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total statistics cache misses",
		}),
		recordWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "study_record_writes_total",
			Help: "Study record mutations by operation",
		}, []string{"op"}),
		destructive: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backup_operations_total",
			Help: "Backup exports, imports and clears by outcome",
		}, []string{"op", "outcome"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Generated history reports by format",
		}, []string{"format"}),
		timerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "study_timer_running",
			Help: "1 while the study timer is running",
		}),
		timerClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "study_timer_subscribers",
			Help: "Connected timer relay subscribers",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(m.requestDuration, m.requestTotal, m.cacheLatency,
		m.cacheWrite, m.cacheHits, m.cacheMisses, m.recordWrites, m.destructive,
		m.reports, m.timerRunning, m.timerClients, goroutines)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordStudyRecordWrite counts create, update, delete and toggle operations.
func (m *MetricsService) RecordStudyRecordWrite(op string) {
	if m == nil {
		return
	}
	m.recordWrites.WithLabelValues(op).Inc()
}

// RecordBackupOperation counts export, import and clear attempts.
func (m *MetricsService) RecordBackupOperation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.destructive.WithLabelValues(op, outcome).Inc()
}

// RecordReport counts generated reports.
func (m *MetricsService) RecordReport(format string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(format).Inc()
}

// SetTimerRunning mirrors the timer state.
func (m *MetricsService) SetTimerRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.timerRunning.Set(1)
		return
	}
	m.timerRunning.Set(0)
}

// SetTimerSubscribers mirrors the relay's connection count.
func (m *MetricsService) SetTimerSubscribers(n int) {
	if m == nil {
		return
	}
	m.timerClients.Set(float64(n))
}
