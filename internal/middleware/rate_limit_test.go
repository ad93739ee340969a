package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniportal-api/internal/service"
)

func TestLoginLimiterThrottlesPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewLoginLimiter(1, 2, nil, nil)
	router := gin.New()
	router.POST("/login", limiter.Middleware(), okHandler)

	attempt := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":40000"
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		return recorder.Code
	}

	assert.Equal(t, http.StatusOK, attempt("10.0.0.1"))
	assert.Equal(t, http.StatusOK, attempt("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, attempt("10.0.0.1"))
	assert.Equal(t, http.StatusOK, attempt("10.0.0.2"))
}

func TestLoginLimiterSweepDropsIdleClients(t *testing.T) {
	limiter := NewLoginLimiter(10, 1, nil, nil)
	require.True(t, limiter.Allow("10.0.0.1"))

	limiter.sweep(time.Now().Add(limiterIdleTTL + time.Minute))
	assert.Empty(t, limiter.clients)
}

func TestMetricsMiddlewareLabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/results-approval/batches/:id/history", okHandler)

	for _, path := range []string{"/results-approval/batches/a/history", "/results-approval/batches/b/history", "/nope"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	routes := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					routes[label.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, float64(2), routes["/results-approval/batches/:id/history"])
	assert.Equal(t, float64(1), routes["unmatched"])
}
