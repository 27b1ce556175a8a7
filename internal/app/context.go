package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/auth"
	"github.com/oggyb/matchmaker/internal/cache"
	"github.com/oggyb/matchmaker/internal/config"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Config     *config.Config
	Tokens     *auth.TokenManager
}

// New creates a new AppContext. The token manager is built from cfg.JWT.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Config:     cfg,
		Tokens:     auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL),
	}
}
