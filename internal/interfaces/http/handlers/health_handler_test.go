package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

func newHealthRouter(h *HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
	r.GET("/healthz/detail", h.Detailed)
	return r
}

func doGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLiveness(t *testing.T) {
	r := newHealthRouter(NewHealthHandler("1.2.3"))

	w := doGet(r, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestReadinessWithoutCheckers(t *testing.T) {
	r := newHealthRouter(NewHealthHandler("dev"))

	w := doGet(r, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready"`)
}

func TestReadinessAllHealthy(t *testing.T) {
	h := NewHealthHandler("dev",
		NewChecker("redis", func(context.Context) error { return nil }),
		NewChecker("opensearch", func(context.Context) error { return nil }),
	)
	r := newHealthRouter(h)

	w := doGet(r, "/readyz")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Len(t, resp.Components, 2)
	assert.Equal(t, "healthy", resp.Components["redis"].Status)
}

func TestReadinessOneUnhealthy(t *testing.T) {
	h := NewHealthHandler("dev",
		NewChecker("redis", func(context.Context) error { return nil }),
		NewChecker("opensearch", func(context.Context) error {
			return errors.Unavailable("cluster unreachable")
		}),
	)
	r := newHealthRouter(h)

	w := doGet(r, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "unhealthy", resp.Components["opensearch"].Status)
	assert.Contains(t, resp.Components["opensearch"].Error, "unreachable")
}

func TestDetailedReportsLatency(t *testing.T) {
	h := NewHealthHandler("dev",
		NewChecker("redis", func(context.Context) error { return nil }),
	)
	r := newHealthRouter(h)

	w := doGet(r, "/healthz/detail")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status     string                    `json:"status"`
		Components map[string]ComponentCheck `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Components["redis"].Latency)
}
