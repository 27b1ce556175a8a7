package server

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/cache"
)

const probeTimeout = 2 * time.Second

// HealthChecker probes the database and Redis.
type HealthChecker struct {
	db    *gorm.DB
	redis *cache.RedisCache
}

func NewHealthChecker(db *gorm.DB, redis *cache.RedisCache) *HealthChecker {
	return &HealthChecker{db: db, redis: redis}
}

// Check returns the first failing dependency.
func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("db: %w", err)
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// HealthRegistrar serves grpc.health.v1 backed by a HealthChecker.
type HealthRegistrar struct {
	checker *HealthChecker
	srv     *health.Server
}

func NewHealthRegistrar(checker *HealthChecker) *HealthRegistrar {
	return &HealthRegistrar{checker: checker, srv: health.NewServer()}
}

// Register attaches the health service to the gRPC server
func (r *HealthRegistrar) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, r.srv)
}

// Refresh probes dependencies once and publishes the overall status.
func (r *HealthRegistrar) Refresh(ctx context.Context) error {
	err := r.checker.Check(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.srv.SetServingStatus("", status)
	return err
}

// Watch refreshes the status every interval until ctx is done.
func (r *HealthRegistrar) Watch(ctx context.Context, interval time.Duration) {
	_ = r.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.srv.Shutdown()
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}
