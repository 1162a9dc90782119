package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StorageGorm     = "gorm"
	StoragePostgres = "postgres"
)

// DevJWTSecret signs tokens when JWT_SECRET is unset outside production.
const DevJWTSecret = "dev-secret-change-me"

var ErrMissingJWTSecret = errors.New("config: JWT_SECRET must be set in production")

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Redis struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (r Redis) Enabled() bool {
	return r.Host != ""
}

type Config struct {
	Port     string
	Env      string
	LogLevel string

	StorageDriver string
	DatabaseURL   string
	Postgres      Postgres
	Redis         Redis

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	RateLimit  int
	RateWindow time.Duration

	AdminEmail string
	SeedDemo   bool
}

// Load reads a .env file when present, then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageDriver: getEnv("STORAGE_DRIVER", StorageMemory),
		DatabaseURL:   getEnv("DATABASE_URL", "growth.db"),
		Postgres: Postgres{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "kanso_user"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "kanso_db"),
		},
		Redis: Redis{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		JWTSecret: getEnv("JWT_SECRET", DevJWTSecret),
		JWTIssuer: getEnv("JWT_ISSUER", "kanso-growth-engine"),
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour),

		RateLimit:  getEnvInt("RATE_LIMIT", 100),
		RateWindow: getEnvDuration("RATE_WINDOW", time.Minute),

		AdminEmail: getEnv("ADMIN_EMAIL", "waseem@skynetjoe.com"),
		SeedDemo:   getEnvBool("SEED_DEMO", true),
	}
}

func (c *Config) PostgresDSN() string {
	p := c.Postgres
	return "postgres://" + p.User + ":" + p.Password + "@" + p.Host + ":" + p.Port + "/" + p.Name + "?sslmode=disable"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings that are only acceptable in development.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == DevJWTSecret) {
		return ErrMissingJWTSecret
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}
