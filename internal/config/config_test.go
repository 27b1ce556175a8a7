package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("APP_ENV", "")

	cfg := New()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "3000", cfg.HTTP.Port)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 10, cfg.Match.CandidateLimit)
	assert.Equal(t, "male:female;female:male", cfg.Match.GenderRules)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/matchmaker?parseTime=true")
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("MYSQL_DSN", "u:p@tcp(db:3306)/x")
	t.Setenv("LOG_SOURCE", "yes")
	t.Setenv("MATCH_CANDIDATE_LIMIT", "5")
	t.Setenv("JWT_TTL", "30m")

	cfg := New()

	assert.Equal(t, "u:p@tcp(db:3306)/x", cfg.DB.DSN)
	assert.True(t, cfg.Log.Source)
	assert.Equal(t, 5, cfg.Match.CandidateLimit)
	assert.Equal(t, 30*time.Minute, cfg.JWT.TTL)
}

func TestValidate(t *testing.T) {
	t.Run("development fills a secret", func(t *testing.T) {
		cfg := New()
		cfg.App.ENV = "development"
		cfg.JWT.Secret = ""
		require.NoError(t, cfg.Validate())
		assert.NotEmpty(t, cfg.JWT.Secret)
	})

	t.Run("production requires a long secret", func(t *testing.T) {
		cfg := New()
		cfg.App.ENV = "production"
		cfg.JWT.Secret = ""
		assert.Error(t, cfg.Validate())

		cfg.JWT.Secret = "short"
		assert.Error(t, cfg.Validate())

		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("bad limits", func(t *testing.T) {
		cfg := New()
		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Match.CandidateMaxLimit = 1
		assert.Error(t, cfg.Validate())
	})
}
