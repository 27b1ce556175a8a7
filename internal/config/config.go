package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Host            string
		Port            string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	JWT struct {
		Secret     string
		TTL        time.Duration
		BcryptCost int
	}

	Match struct {
		CandidateLimit    int
		CandidateMaxLimit int
		GenderRules       string
		SwipeRatePerMin   int
		SwipeRetries      int
		MatchesPageSize   int
	}
}

// New loads configuration from the environment (and an optional .env file).
// Every key has a default so a bare `go run ./cmd/server` works against local MySQL/Redis.
func New() *Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig() // .env is optional

	setDefaults(v)

	cfg := &Config{}

	cfg.App.ENV = v.GetString("APP_ENV")

	// Logger
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Format = v.GetString("LOG_FORMAT")
	cfg.Log.Component = v.GetString("LOG_COMPONENT")
	cfg.Log.Source = isTruthy(v.GetString("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = strings.TrimSpace(v.GetString("MYSQL_DSN"))
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")

	// gRPC (health + reflection)
	cfg.GRPC.Host = v.GetString("GRPC_HOST")
	cfg.GRPC.Port = v.GetString("GRPC_PORT")

	// HTTP
	cfg.HTTP.Host = v.GetString("HTTP_HOST")
	cfg.HTTP.Port = v.GetString("HTTP_PORT")
	cfg.HTTP.ReadTimeout = v.GetDuration("HTTP_READ_TIMEOUT")
	cfg.HTTP.WriteTimeout = v.GetDuration("HTTP_WRITE_TIMEOUT")
	cfg.HTTP.ShutdownTimeout = v.GetDuration("HTTP_SHUTDOWN_TIMEOUT")

	// Auth
	cfg.JWT.Secret = v.GetString("JWT_SECRET")
	cfg.JWT.TTL = v.GetDuration("JWT_TTL")
	cfg.JWT.BcryptCost = v.GetInt("BCRYPT_COST")

	// Matching
	cfg.Match.CandidateLimit = v.GetInt("MATCH_CANDIDATE_LIMIT")
	cfg.Match.CandidateMaxLimit = v.GetInt("MATCH_CANDIDATE_MAX_LIMIT")
	cfg.Match.GenderRules = v.GetString("MATCH_GENDER_RULES")
	cfg.Match.SwipeRatePerMin = v.GetInt("MATCH_SWIPE_RATE_PER_MINUTE")
	cfg.Match.SwipeRetries = v.GetInt("MATCH_SWIPE_RETRIES")
	cfg.Match.MatchesPageSize = v.GetInt("MATCH_PAGE_SIZE")

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_COMPONENT", "matchmaker")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "root")
	v.SetDefault("DB_NAME", "matchmaker")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("GRPC_HOST", "127.0.0.1")
	v.SetDefault("GRPC_PORT", "50051")

	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", "3000")
	v.SetDefault("HTTP_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", time.Hour)
	v.SetDefault("BCRYPT_COST", 10)

	v.SetDefault("MATCH_CANDIDATE_LIMIT", 10)
	v.SetDefault("MATCH_CANDIDATE_MAX_LIMIT", 50)
	v.SetDefault("MATCH_GENDER_RULES", "male:female;female:male")
	v.SetDefault("MATCH_SWIPE_RATE_PER_MINUTE", 60)
	v.SetDefault("MATCH_SWIPE_RETRIES", 3)
	v.SetDefault("MATCH_PAGE_SIZE", 20)
}

// IsDevelopment reports whether the service runs with development conveniences
// (auto-seeding, dev JWT secret).
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.ENV, "development")
}

// Validate checks values the server cannot run without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET is required")
		}
		c.JWT.Secret = "dev-only-secret-change-me-0123456789"
	}
	if len(c.JWT.Secret) < 32 && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.Match.CandidateLimit <= 0 || c.Match.CandidateMaxLimit < c.Match.CandidateLimit {
		return fmt.Errorf("invalid candidate limits: default=%d max=%d",
			c.Match.CandidateLimit, c.Match.CandidateMaxLimit)
	}
	return nil
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
