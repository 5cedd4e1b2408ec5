package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/psychodraw/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the wizard service.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	previewsLive    prometheus.Gauge
	previewsAlloc   prometheus.Counter
	previewsRelease prometheus.Counter
	transitions     *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	sessionsActive  prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	allocCount           uint64
	releaseCount         uint64
	livePreviews         int64
	activeSessions       int64
}

// NewMetricsService registers the Prometheus collectors on a private registry.
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
			Name:    "report_cache_latency_seconds",
			Help:    "Latency for report cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_cache_write_seconds",
			Help:    "Latency for report cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "report_cache_hit_ratio",
			Help: "Ratio of report cache hits to total lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "report_cache_hits_total",
			Help: "Total report cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "report_cache_misses_total",
			Help: "Total report cache misses",
		}),
		previewsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "preview_handles_live",
			Help: "Preview handles currently allocated",
		}),
		previewsAlloc: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "preview_handles_allocated_total",
			Help: "Preview handles allocated",
		}),
		previewsRelease: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "preview_handles_released_total",
			Help: "Preview handles released",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wizard_transitions_total",
			Help: "Wizard step transitions",
		}, []string{"from", "to"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wizard_rejections_total",
			Help: "Rejected wizard events by error code",
		}, []string{"kind"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wizard_sessions_active",
			Help: "Wizard sessions currently open",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite,
		m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.previewsLive, m.previewsAlloc, m.previewsRelease,
		m.transitions, m.rejections, m.sessionsActive,
		goroutines,
	)
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a report cache hit or miss and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	if ratio, ok := m.hitRatio(); ok {
		m.cacheHitRatio.Set(ratio)
	}
}

// ObserveCacheWrite tracks report cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// PreviewAllocated counts a new preview handle.
func (m *MetricsService) PreviewAllocated() {
	if m == nil {
		return
	}
	m.previewsAlloc.Inc()
	m.previewsLive.Inc()
	atomic.AddUint64(&m.allocCount, 1)
	atomic.AddInt64(&m.livePreviews, 1)
}

// PreviewReleased counts a revoked preview handle.
func (m *MetricsService) PreviewReleased() {
	if m == nil {
		return
	}
	m.previewsRelease.Inc()
	m.previewsLive.Dec()
	atomic.AddUint64(&m.releaseCount, 1)
	atomic.AddInt64(&m.livePreviews, -1)
}

// ObserveTransition counts a successful step change.
func (m *MetricsService) ObserveTransition(from, to models.Step) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

// ObserveRejection counts a rejected wizard event by error code.
func (m *MetricsService) ObserveRejection(code string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(code).Inc()
}

// SessionOpened increments the active sessions gauge.
func (m *MetricsService) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
	atomic.AddInt64(&m.activeSessions, 1)
}

// SessionClosed decrements the active sessions gauge.
func (m *MetricsService) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
	atomic.AddInt64(&m.activeSessions, -1)
}

// Snapshot returns aggregated counters for the readiness endpoint.
func (m *MetricsService) Snapshot() models.RuntimeMetrics {
	if m == nil {
		return models.RuntimeMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	ratio, _ := m.hitRatio()

	return models.RuntimeMetrics{
		ActiveSessions:           atomic.LoadInt64(&m.activeSessions),
		LivePreviews:             atomic.LoadInt64(&m.livePreviews),
		PreviewsAllocated:        atomic.LoadUint64(&m.allocCount),
		PreviewsReleased:         atomic.LoadUint64(&m.releaseCount),
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHitRatio:            ratio,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func (m *MetricsService) hitRatio() (float64, bool) {
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total == 0 {
		return 0, false
	}
	return float64(hits) / float64(total), true
}
