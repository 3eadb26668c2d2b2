package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"thumbio/internal/infra/setup"
)

// Config holds settings loaded from the environment (and .env when present).
type Config struct {
	ServerPort string
	AppEnv     string
	LogLevel   string

	DB setup.DBOptions

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string

	JWTSecret         string
	RateLimitMax      int
	RateLimitWindow   time.Duration
	QuotaDailyLimit   int64
	CORSAllowedOrigin string
	MDNSEnabled       bool
	CanvasCacheTTL    time.Duration
}

// LoadConfig reads the configuration. Only REDIS_ADDR is mandatory.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getenv("SERVER_PORT", "8080"),
		AppEnv:     getenv("APP_ENV", "development"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		DB: setup.DBOptions{
			Driver:     getenv("DB_DRIVER", setup.DriverSQLite),
			DSN:        os.Getenv("DB_DSN"),
			User:       os.Getenv("DB_USER"),
			Password:   os.Getenv("DB_PASSWORD"),
			Host:       os.Getenv("DB_HOST"),
			Port:       os.Getenv("DB_PORT"),
			Name:       os.Getenv("DB_NAME"),
			SQLitePath: getenv("SQLITE_PATH", "thumbio.db"),
		},
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		KeyPrefix:         getenv("REDIS_KEY_PREFIX", "tb:"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		CORSAllowedOrigin: getenv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
	}

	var err error
	if cfg.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = intEnv("RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = durationEnv("RATE_LIMIT_WINDOW", time.Second); err != nil {
		return nil, err
	}
	limit, err := intEnv("QUOTA_DAILY_LIMIT", 10000)
	if err != nil {
		return nil, err
	}
	cfg.QuotaDailyLimit = int64(limit)
	if cfg.CanvasCacheTTL, err = durationEnv("CANVAS_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if v := os.Getenv("MDNS_ENABLED"); v != "" {
		if cfg.MDNSEnabled, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid MDNS_ENABLED %q: %w", v, err)
		}
	}

	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.RateLimitMax <= 0 || cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
