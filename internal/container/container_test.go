package container

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-tryon/internal/config"
)

func TestNewContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     time.Second,
		ImageFetchTimeout:  time.Second,
		AnalysisTimeout:    time.Second,
		MaxRequestBodySize: 1 << 20,
		RateLimitRPS:       10,
		RateLimitBurst:     10,
		SessionStore:       "memory",
		SessionTTL:         time.Minute,
		GarmentStorage:     "http",
		ImageCacheSize:     4,
	}

	c, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("Expected container, got error %v", err)
	}
	if c.Config() != cfg {
		t.Error("Expected the container to keep its config")
	}

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Expected clean close, got %v", err)
	}
}

func TestNewContainer_BadStorage(t *testing.T) {
	cfg := &config.Config{SessionStore: "memory", GarmentStorage: "ftp"}
	if _, err := NewContainer(cfg); err == nil {
		t.Error("Expected error for unsupported storage")
	}
}
