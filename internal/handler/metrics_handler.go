package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/psychodraw/internal/service"
)

// Pinger checks an optional backing dependency for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	cache   Pinger
	logger  *zap.Logger
}

// NewMetricsHandler constructs a metrics handler. cache may be nil when no report cache is configured.
func NewMetricsHandler(metrics *service.MetricsService, cache Pinger, logger *zap.Logger) *MetricsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsHandler{metrics: metrics, cache: cache, logger: logger}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports runtime counters and fails when the report cache is configured but unreachable.
func (h *MetricsHandler) Ready(c *gin.Context) {
	status := http.StatusOK
	payload := gin.H{"status": "ready", "metrics": h.metrics.Snapshot()}
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.Warn("report cache not reachable", zap.Error(err))
			status = http.StatusServiceUnavailable
			payload["status"] = "degraded"
			payload["cache"] = err.Error()
		}
	}
	c.JSON(status, payload)
}
