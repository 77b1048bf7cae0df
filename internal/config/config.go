package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL      string
	DatabaseMaxConns int32
	ServerAddr       string
	JWTSecret        string
	MigrationsDir    string
	ShutdownTimeout  time.Duration
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "trade_hub")
		pass := getenv("POSTGRES_PASSWORD", "trade_hub_pass")
		db := getenv("POSTGRES_DB", "trade_hub")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return &Config{
		DatabaseURL:      dsn,
		DatabaseMaxConns: parseInt32(getenv("DATABASE_MAX_CONNS", "10"), 10),
		ServerAddr:       getenv("SERVER_ADDR", "0.0.0.0:8080"),
		JWTSecret:        secret,
		MigrationsDir:    getenv("MIGRATIONS_DIR", "internal/migrations"),
		ShutdownTimeout:  parseDuration(getenv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseInt32(val string, def int32) int32 {
	if val == "" {
		return def
	}
	n, err := strconv.ParseInt(val, 10, 32)
	if err != nil || n <= 0 {
		return def
	}
	return int32(n)
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}
