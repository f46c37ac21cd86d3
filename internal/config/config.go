package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	RateLimitRPS   float64
	RateLimitBurst int

	// Capture sessions
	SessionStore  string
	SessionTTL    time.Duration
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// Optional Postgres garment catalog
	DatabaseURL string

	GarmentStorage      string
	AzureStorageAccount string
	AzureStorageKey     string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	S3Endpoint          string
	S3Bucket            string
	ImageCacheSize      int
	// Hosts garment images may be fetched from; "*.example.com" matches
	// subdomains. Empty allows any host.
	GarmentImageHosts []string

	DetectorURL     string
	DetectorTimeout time.Duration

	ClassifierFuzzyDistance int
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		RateLimitRPS:   parseFloatOrDefault("RATE_LIMIT_RPS", 10),
		RateLimitBurst: int(parseIntOrDefault("RATE_LIMIT_BURST", 20)),

		SessionStore:  strings.ToLower(getEnvOrDefault("SESSION_STORE", "memory")),
		SessionTTL:    parseDurationOrDefault("SESSION_TTL", 30*time.Minute),
		RedisAddress:  getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       int(parseIntOrDefault("REDIS_DB", 0)),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		GarmentStorage:      strings.ToLower(getEnvOrDefault("GARMENT_STORAGE", "http")),
		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),
		AWSRegion:           getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey:  os.Getenv("AWS_SECRET_ACCESS_KEY"),
		S3Endpoint:          os.Getenv("S3_ENDPOINT"),
		S3Bucket:            os.Getenv("S3_BUCKET"),
		ImageCacheSize:      int(parseIntOrDefault("IMAGE_CACHE_SIZE", 64)),
		GarmentImageHosts:   parseList("GARMENT_IMAGE_HOSTS"),

		DetectorURL:     os.Getenv("DETECTOR_URL"),
		DetectorTimeout: parseDurationOrDefault("DETECTOR_TIMEOUT", 5*time.Second),

		ClassifierFuzzyDistance: int(parseIntOrDefault("CLASSIFIER_FUZZY_DISTANCE", 0)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be > 0 (got rps=%v, burst=%d)", c.RateLimitRPS, c.RateLimitBurst)
	}

	switch c.SessionStore {
	case "memory":
	case "redis":
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("invalid SESSION_STORE: %q", c.SessionStore)
	}

	switch c.GarmentStorage {
	case "http":
	case "azure":
		if c.AzureStorageAccount == "" || c.AzureStorageKey == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY are required when GARMENT_STORAGE=azure")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when GARMENT_STORAGE=s3")
		}
	default:
		return fmt.Errorf("invalid GARMENT_STORAGE: %q", c.GarmentStorage)
	}

	if c.ClassifierFuzzyDistance < 0 {
		return fmt.Errorf("CLASSIFIER_FUZZY_DISTANCE must be >= 0 (got %d)", c.ClassifierFuzzyDistance)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// parseList splits a comma-separated variable, dropping blank entries.
func parseList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
