package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/cache"
	"github.com/oggyb/matchmaker/internal/config"
	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/logger"
	"github.com/oggyb/matchmaker/internal/server"
	"github.com/oggyb/matchmaker/internal/service/match"
	"github.com/oggyb/matchmaker/internal/service/user"
)

const healthInterval = 10 * time.Second

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	rule, err := match.ParseGenderMatrix(cfg.Match.GenderRules)
	if err != nil {
		log.Error("invalid MATCH_GENDER_RULES", "err", err)
		os.Exit(1)
	}

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	// Inject logger into app context
	appCtx := app.New(cfg, database, redisCache, log)

	if cfg.IsDevelopment() {
		if err := db.SeedTestData(database, log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	health := server.NewHealthChecker(database, redisCache)
	healthRegistrar := server.NewHealthRegistrar(health)
	grpcServer := server.NewGRPCServer(healthRegistrar)

	router := server.NewRouter(cfg, log, health,
		user.NewRegistrar(appCtx),
		match.NewRegistrar(appCtx, rule),
	)
	httpServer := server.NewHTTPServer(cfg, router, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go healthRegistrar.Watch(ctx, healthInterval)

	errCh := make(chan error, 2)
	go func() { errCh <- httpServer.Start() }()
	go func() {
		log.Info("starting gRPC server", "addr", net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port))
		errCh <- server.StartGRPCServer(cfg, grpcServer)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	grpcServer.GracefulStop()

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
}
