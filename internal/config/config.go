package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// AuthMode selects how bearer tokens are verified.
type AuthMode string

const (
	// AuthRemote delegates verification to the auth service over HTTP.
	AuthRemote AuthMode = "remote"
	// AuthLocal verifies HS256 tokens in-process with JWT_SECRET.
	AuthLocal AuthMode = "local"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ListCacheTTL  time.Duration
	CountCacheTTL time.Duration

	// Event bus
	RabbitURL         string
	ReconnectInterval time.Duration

	// Auth
	AuthMode       AuthMode
	AuthServiceURL string
	AuthTimeout    time.Duration
	JWTSecret      string

	// Fan-out engine
	FanoutWorkers int
	FanoutRate    int // store writes per second across the whole engine

	// Live delivery
	WSSendBuffer int
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "6001"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
		ListCacheTTL:  getDuration("LIST_CACHE_TTL", 300*time.Second),
		CountCacheTTL: getDuration("COUNT_CACHE_TTL", 60*time.Second),

		RabbitURL:         getEnv("RABBITMQ_URL", "amqp://localhost:5672"),
		ReconnectInterval: getDuration("RECONNECT_INTERVAL", 5*time.Second),

		AuthMode:       AuthMode(getEnv("AUTH_MODE", string(AuthRemote))),
		AuthServiceURL: getEnv("AUTH_SERVICE_URL", "http://localhost:5000"),
		AuthTimeout:    getDuration("AUTH_TIMEOUT", 5*time.Second),
		JWTSecret:      os.Getenv("JWT_SECRET"),

		FanoutWorkers: getInt("FANOUT_WORKERS", 8),
		FanoutRate:    getInt("FANOUT_RATE", 500),

		WSSendBuffer: getInt("WS_SEND_BUFFER", 64),
	}

	switch cfg.AuthMode {
	case AuthRemote, AuthLocal:
	default:
		return nil, fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthRemote, AuthLocal, cfg.AuthMode)
	}
	if cfg.AuthMode == AuthLocal && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required when AUTH_MODE=local")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
