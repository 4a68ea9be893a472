package main

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration, read from the
// environment with sane development defaults.
type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Feed     FeedConfig
	Likes    LikesConfig
	Log      LogConfig
}

type HTTPConfig struct {
	Addr         string        `env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" env-default:"user=admin password=password dbname=hookdb sslmode=disable"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET" env-default:"your_secret_key_please_change_in_production"`
}

type FeedConfig struct {
	// DefaultBatchSize is used when the client sends no limit.
	DefaultBatchSize int `env:"FEED_DEFAULT_BATCH_SIZE" env-default:"10"`
	// MaxBatchSize bounds the limit query parameter.
	MaxBatchSize int `env:"FEED_MAX_BATCH_SIZE" env-default:"50"`
	// ServedTTL is how long a served (and passed) candidate stays hidden.
	ServedTTL time.Duration `env:"FEED_SERVED_TTL" env-default:"24h"`
}

type LikesConfig struct {
	// RateWindow and RateMax bound like submissions per user.
	RateWindow time.Duration `env:"LIKES_RATE_WINDOW" env-default:"10s"`
	RateMax    int64         `env:"LIKES_RATE_MAX" env-default:"20"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config from env: %w", err)
	}
	if cfg.Feed.MaxBatchSize < 1 {
		return Config{}, fmt.Errorf("FEED_MAX_BATCH_SIZE must be positive")
	}
	return cfg, nil
}
