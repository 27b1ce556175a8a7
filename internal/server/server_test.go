package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/cache"
	"github.com/oggyb/matchmaker/internal/config"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newChecker(t *testing.T) (*HealthChecker, *miniredis.Miniredis) {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })

	return NewHealthChecker(database, rc), mr
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.ENV = "development"
	return cfg
}

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	api.GET("/teapot", func(c *gin.Context) { RespondError(c, svcErr.NotFound("no teapot")) })
}

func TestRouter_HealthMetricsAndRoutes(t *testing.T) {
	checker, mr := newChecker(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRouter(testConfig(), log, checker, pingRoutes{})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = get("/api/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = get("/api/teapot")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"no teapot"}`, w.Body.String())

	w = get("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "matchmaker_http_request_duration_seconds")

	mr.Close()
	w = get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis")
}

func TestHealthRegistrar_Refresh(t *testing.T) {
	ctx := context.Background()
	checker, mr := newChecker(t)
	reg := NewHealthRegistrar(checker)

	require.NoError(t, reg.Refresh(ctx))
	resp, err := reg.srv.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	mr.Close()
	assert.Error(t, reg.Refresh(ctx))
	resp, err = reg.srv.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestHTTPServer_StartAndShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = "0"
	srv := NewHTTPServer(cfg, http.NotFoundHandler(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "127.0.0.1:0", srv.Addr())

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done)
}
