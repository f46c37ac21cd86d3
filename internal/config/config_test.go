package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Expected defaults to load, got %v", err)
	}
	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("Expected 0.0.0.0:8080, got %s", cfg.ServerAddress())
	}
	if cfg.SessionStore != "memory" {
		t.Errorf("Expected memory session store, got %s", cfg.SessionStore)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("Expected 30m session TTL, got %s", cfg.SessionTTL)
	}
	if cfg.GarmentStorage != "http" {
		t.Errorf("Expected http garment storage, got %s", cfg.GarmentStorage)
	}
	if len(cfg.GarmentImageHosts) != 0 {
		t.Errorf("Expected no host restrictions, got %v", cfg.GarmentImageHosts)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_STORE", "REDIS")
	t.Setenv("REDIS_ADDRESS", "cache:6379")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("DETECTOR_TIMEOUT", "750ms")
	t.Setenv("GARMENT_IMAGE_HOSTS", " CDN.shop.test, ,*.blob.core.windows.net")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Expected overrides to load, got %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.SessionStore != "redis" {
		t.Errorf("Expected redis session store, got %s", cfg.SessionStore)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("Expected rate limit 2.5, got %v", cfg.RateLimitRPS)
	}
	if cfg.DetectorTimeout != 750*time.Millisecond {
		t.Errorf("Expected 750ms detector timeout, got %s", cfg.DetectorTimeout)
	}
	wantHosts := []string{"cdn.shop.test", "*.blob.core.windows.net"}
	if len(cfg.GarmentImageHosts) != len(wantHosts) {
		t.Fatalf("Expected hosts %v, got %v", wantHosts, cfg.GarmentImageHosts)
	}
	for i, h := range wantHosts {
		if cfg.GarmentImageHosts[i] != h {
			t.Errorf("Expected host %q at %d, got %q", h, i, cfg.GarmentImageHosts[i])
		}
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"PORT": "70000"}},
		{"unknown session store", map[string]string{"SESSION_STORE": "disk"}},
		{"azure without credentials", map[string]string{"GARMENT_STORAGE": "azure"}},
		{"s3 without bucket", map[string]string{"GARMENT_STORAGE": "s3"}},
		{"negative fuzzy distance", map[string]string{"CLASSIFIER_FUZZY_DISTANCE": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadFromEnv(); err == nil {
				t.Error("Expected an error, got nil")
			}
		})
	}
}
