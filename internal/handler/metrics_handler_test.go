package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/psychodraw/internal/service"
)

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(context.Context) error { return p.err }

func newMetricsRouter(cache Pinger) (*gin.Engine, *service.MetricsService) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	Routes{Metrics: NewMetricsHandler(metrics, cache, nil)}.Register(router, router.Group("/api/v1"))
	return router, metrics
}

func TestReadyReportsSnapshot(t *testing.T) {
	router, metrics := newMetricsRouter(pingerStub{})
	metrics.SessionOpened()
	metrics.PreviewAllocated()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status  string `json:"status"`
		Metrics struct {
			ActiveSessions int64 `json:"activeSessions"`
			LivePreviews   int64 `json:"livePreviews"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ready", body.Status)
	require.EqualValues(t, 1, body.Metrics.ActiveSessions)
	require.EqualValues(t, 1, body.Metrics.LivePreviews)
}

func TestReadyDegradedWhenCacheDown(t *testing.T) {
	router, _ := newMetricsRouter(pingerStub{err: errors.New("dial tcp: connection refused")})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), `"degraded"`)
}

func TestPrometheusEndpoint(t *testing.T) {
	router, metrics := newMetricsRouter(nil)
	metrics.PreviewAllocated()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "preview_handles_live 1"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
