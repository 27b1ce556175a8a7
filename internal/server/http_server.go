package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oggyb/matchmaker/internal/config"
	"github.com/oggyb/matchmaker/internal/middleware"
)

// NewRouter builds the gin engine: shared middleware, /health, /metrics and
// every registrar's routes under /api.
func NewRouter(cfg *config.Config, log *slog.Logger, health *HealthChecker, registrars ...RouteRegistrar) *gin.Engine {
	if err := RegisterValidators(); err != nil {
		log.Error("custom validators not registered", "err", err)
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(log),
		middleware.AccessLog(log),
		middleware.Metrics(),
	)

	r.GET("/health", func(c *gin.Context) {
		if health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		if err := health.Check(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	for _, reg := range registrars {
		reg.RegisterRoutes(api)
	}
	return r
}

// HTTPServer wraps http.Server with the configured address and timeouts.
type HTTPServer struct {
	srv *http.Server
	log *slog.Logger
}

func NewHTTPServer(cfg *config.Config, handler http.Handler, log *slog.Logger) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:         net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port),
			Handler:      handler,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		},
		log: log,
	}
}

func (s *HTTPServer) Addr() string { return s.srv.Addr }

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *HTTPServer) Start() error {
	s.log.Info("starting HTTP server", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
