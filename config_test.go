package main

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("Expected default addr :8080, got %s", cfg.HTTP.Addr)
	}
	if cfg.Feed.DefaultBatchSize != 10 {
		t.Errorf("Expected default batch size 10, got %d", cfg.Feed.DefaultBatchSize)
	}
	if cfg.Feed.MaxBatchSize != 50 {
		t.Errorf("Expected max batch size 50, got %d", cfg.Feed.MaxBatchSize)
	}
	if cfg.Feed.ServedTTL != 24*time.Hour {
		t.Errorf("Expected served TTL 24h, got %s", cfg.Feed.ServedTTL)
	}
	if cfg.Likes.RateMax != 20 || cfg.Likes.RateWindow != 10*time.Second {
		t.Errorf("Unexpected like rate defaults: %d per %s", cfg.Likes.RateMax, cfg.Likes.RateWindow)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Log.Level)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("FEED_DEFAULT_BATCH_SIZE", "5")
	t.Setenv("LIKES_RATE_WINDOW", "1m")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("Expected addr :9999, got %s", cfg.HTTP.Addr)
	}
	if cfg.Feed.DefaultBatchSize != 5 {
		t.Errorf("Expected batch size 5, got %d", cfg.Feed.DefaultBatchSize)
	}
	if cfg.Likes.RateWindow != time.Minute {
		t.Errorf("Expected rate window 1m, got %s", cfg.Likes.RateWindow)
	}
}

func TestLoadConfigRejectsZeroMaxBatch(t *testing.T) {
	t.Setenv("FEED_MAX_BATCH_SIZE", "0")
	if _, err := loadConfig(); err == nil {
		t.Error("Expected error for zero max batch size")
	}
}
