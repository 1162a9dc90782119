package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORAGE_DRIVER", "REDIS_HOST", "JWT_TTL", "RATE_LIMIT", "SEED_DEMO"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "", cfg.Port, "set-but-empty variables win over defaults")
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.True(t, cfg.SeedDemo)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StorageGorm)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("RATE_WINDOW", "30s")
	t.Setenv("SEED_DEMO", "false")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "growth")

	cfg := Load()

	assert.Equal(t, StorageGorm, cfg.StorageDriver)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 90*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 30*time.Second, cfg.RateWindow)
	assert.False(t, cfg.SeedDemo)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://app:pw@db:5433/growth?sslmode=disable", cfg.PostgresDSN())
}

func TestConfig_Validate(t *testing.T) {
	t.Run("Success: development falls back to the dev secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("JWT_SECRET", DevJWTSecret)

		assert.NoError(t, Load().Validate())
	})

	t.Run("Fail: production without a secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")

		assert.ErrorIs(t, Load().Validate(), ErrMissingJWTSecret)
	})

	t.Run("Fail: production with the dev secret", func(t *testing.T) {
		cfg := &Config{Env: "production", JWTSecret: DevJWTSecret}

		assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)
	})

	t.Run("Success: production with a real secret", func(t *testing.T) {
		cfg := &Config{Env: "production", JWTSecret: "s3cr3t-from-vault"}

		assert.NoError(t, cfg.Validate())
	})
}
