package container

import (
	"errors"
	"fmt"
	"net/http"

	"go-tryon/internal/analyzer"
	"go-tryon/internal/capture"
	"go-tryon/internal/config"
	"go-tryon/internal/factory"
	"go-tryon/internal/garment"
	"go-tryon/internal/logger"
	"go-tryon/internal/observer"
	"go-tryon/internal/overlay"
	"go-tryon/internal/pose"
	"go-tryon/internal/repository"
	"go-tryon/internal/service"
	"go-tryon/internal/sizing"
	"go-tryon/internal/transport"
	"go-tryon/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config       *config.Config
	detector     pose.Detector
	sessionStore repository.SessionStore
	catalog      repository.CatalogRepository
	events       *observer.EventPublisher
	metrics      *observer.MetricsObserver
	handler      http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	fetcher, err := components.StorageFactory.CreateStorage(factory.StorageType(cfg.GarmentStorage))
	if err != nil {
		return nil, fmt.Errorf("failed to create garment storage: %w", err)
	}
	sessionStore, err := components.SessionStoreFactory.CreateSessionStore(factory.SessionStoreType(cfg.SessionStore))
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}
	catalog, err := components.CatalogFactory.CreateCatalog()
	if err != nil {
		sessionStore.Close()
		return nil, fmt.Errorf("failed to create garment catalog: %w", err)
	}
	detector := components.DetectorFactory.CreateDetector()

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	classifier := garment.NewClassifier(cfg.ClassifierFuzzyDistance)
	engine := sizing.NewEngine(sizing.DefaultCalibration(), sizing.DefaultCharts(), validation.NewCaptureValidator(), classifier)
	// No camera runs server-side, so live captures report input unavailable.
	pipeline := capture.NewPipeline(analyzer.NewMeasurementExtractor(analyzer.DefaultCalibration()), detector, nil)

	services := transport.Services{
		SizeEstimation: service.NewSizeEstimationService(engine, events),
		TryOn:          service.NewTryOnService(pipeline, classifier, catalog, fetcher, components.StorageFactory.CreateURLValidator(), overlay.DefaultOptions(), cfg.ImageFetchTimeout, events),
		Sessions:       service.NewCaptureSessionService(sessionStore, pipeline, engine, events),
		Metrics:        metrics,
	}

	return &Container{
		config:       cfg,
		detector:     detector,
		sessionStore: sessionStore,
		catalog:      catalog,
		events:       events,
		metrics:      metrics,
		handler:      transport.NewHandler(services, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Metrics returns the event counters served on /metrics
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Close flushes pending events and releases backend connections
func (c *Container) Close() error {
	c.events.Wait()
	return errors.Join(
		c.detector.Close(),
		c.sessionStore.Close(),
		c.catalog.Close(),
	)
}
