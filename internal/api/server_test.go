package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tadoba-control-go/internal/api/handlers"
	"tadoba-control-go/internal/config"
	"tadoba-control-go/internal/services/registry"
	"tadoba-control-go/internal/storage/memory"
	"tadoba-control-go/internal/zoneindex"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{Version: "1.2.3", InstanceID: "control-test", Port: 8000, SwaggerHost: "localhost:8000"}
	store := memory.New()
	h := Handlers{
		Health:     handlers.NewHealthHandler(cfg.InstanceID, cfg.Version, map[string]handlers.HealthCheck{"store": store.Ping}),
		System:     handlers.NewSystemHandler(cfg.InstanceID, nil),
		Zones:      handlers.NewZoneHandler(zoneindex.Locator{Index: zoneindex.New()}, 5000),
		Frames:     handlers.NewFrameHandler(nil, nil, nil, 0),
		Detections: handlers.NewDetectionHandler(nil),
		Workers:    handlers.NewWorkerHandler(registry.New()),
		Cameras:    handlers.NewCameraHandler(store),
		Realtime:   func(c *gin.Context) { c.Status(http.StatusTeapot) },
	}
	s := NewServer(cfg, h)
	require.NoError(t, s.Setup())
	return s
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRoutesAreMounted(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, get(s, "/health").Code)
	assert.Equal(t, http.StatusOK, get(s, "/").Code)
	assert.Equal(t, http.StatusOK, get(s, "/api/workers").Code)
	assert.Equal(t, http.StatusOK, get(s, "/system/stats").Code)
	assert.Equal(t, http.StatusOK, get(s, "/api/zones/contains?lat=1&lon=1").Code)
	assert.Equal(t, http.StatusTeapot, get(s, "/ws").Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)

	w := get(s, "/health")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, "abc123", w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/frames", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIInfoAndDocsRedirect(t *testing.T) {
	s := newTestServer(t)

	w := get(s, "/api/info")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"1.2.3"`)
	assert.Contains(t, w.Body.String(), `"control-test"`)

	w = get(s, "/docs")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/docs/index.html", w.Header().Get("Location"))
}

func TestStopWithoutStart(t *testing.T) {
	s := newTestServer(t)
	assert.NoError(t, s.Stop(context.Background()))
}
