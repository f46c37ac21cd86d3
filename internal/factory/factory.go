package factory

import (
	"fmt"

	"go-tryon/internal/config"
	"go-tryon/internal/logger"
	"go-tryon/internal/pose"
	"go-tryon/internal/repository"
	"go-tryon/internal/storage"
	"go-tryon/pkg/validation"
)

// StorageType represents different types of garment image backends
type StorageType string

const (
	// HTTPStorage for plain HTTP(S) image URLs
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// S3Storage for S3 or S3-compatible storage
	S3Storage StorageType = "s3"
)

// SessionStoreType represents different capture session backends
type SessionStoreType string

const (
	MemorySessionStore SessionStoreType = "memory"
	RedisSessionStore  SessionStoreType = "redis"
)

// StorageFactory creates garment image fetchers
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
	CreateURLValidator() *validation.URLValidator
}

// SessionStoreFactory creates capture session stores
type SessionStoreFactory interface {
	CreateSessionStore(storeType SessionStoreType) (repository.SessionStore, error)
}

// DetectorFactory creates pose detectors
type DetectorFactory interface {
	CreateDetector() pose.Detector
}

// CatalogFactory creates garment catalogs
type CatalogFactory interface {
	CreateCatalog() (repository.CatalogRepository, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage always serves plain URLs over HTTP; the selected type adds
// its backend for the locations it owns. The result is cached when
// IMAGE_CACHE_SIZE is positive.
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	router := &storage.RoutingFetcher{HTTP: storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout)}

	switch storageType {
	case HTTPStorage:
	case AzureStorage:
		azure, err := storage.NewAzureBlobFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure storage: %w", err)
		}
		router.Azure = azure
	case S3Storage:
		s3, err := storage.NewS3Fetcher(storage.S3Config{
			Region:          f.cfg.AWSRegion,
			AccessKeyID:     f.cfg.AWSAccessKeyID,
			SecretAccessKey: f.cfg.AWSSecretAccessKey,
			Endpoint:        f.cfg.S3Endpoint,
			Bucket:          f.cfg.S3Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 storage: %w", err)
		}
		router.S3 = s3
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}

	if f.cfg.ImageCacheSize > 0 {
		return storage.NewCachedFetcher(router, f.cfg.ImageCacheSize), nil
	}
	return router, nil
}

// CreateURLValidator restricts garment image locations to GARMENT_IMAGE_HOSTS
func (f *storageFactory) CreateURLValidator() *validation.URLValidator {
	return validation.NewURLValidator(f.cfg.GarmentImageHosts...)
}

// sessionStoreFactory implements SessionStoreFactory
type sessionStoreFactory struct {
	cfg *config.Config
}

// NewSessionStoreFactory creates a new session store factory
func NewSessionStoreFactory(cfg *config.Config) SessionStoreFactory {
	return &sessionStoreFactory{cfg: cfg}
}

// CreateSessionStore creates a store based on the specified type
func (f *sessionStoreFactory) CreateSessionStore(storeType SessionStoreType) (repository.SessionStore, error) {
	switch storeType {
	case MemorySessionStore:
		return repository.NewMemorySessionStore(f.cfg.SessionTTL), nil
	case RedisSessionStore:
		return repository.NewRedisSessionStore(repository.RedisOptions{
			Addr:     f.cfg.RedisAddress,
			Password: f.cfg.RedisPassword,
			DB:       f.cfg.RedisDB,
		}, f.cfg.SessionTTL)
	default:
		return nil, fmt.Errorf("unsupported session store type: %s", storeType)
	}
}

// detectorFactory implements DetectorFactory
type detectorFactory struct {
	cfg *config.Config
}

// NewDetectorFactory creates a new detector factory
func NewDetectorFactory(cfg *config.Config) DetectorFactory {
	return &detectorFactory{cfg: cfg}
}

// CreateDetector returns the websocket detector when DETECTOR_URL is set.
// Without one, detection requests fail as input unavailable.
func (f *detectorFactory) CreateDetector() pose.Detector {
	if f.cfg.DetectorURL == "" {
		logger.Warn("DETECTOR_URL not set, pose detection is unavailable")
		return pose.UnavailableDetector{}
	}
	dcfg := pose.DefaultConfig()
	dcfg.Timeout = f.cfg.DetectorTimeout
	return pose.NewRemoteDetector(f.cfg.DetectorURL, dcfg)
}

// catalogFactory implements CatalogFactory
type catalogFactory struct {
	cfg *config.Config
}

// NewCatalogFactory creates a new catalog factory
func NewCatalogFactory(cfg *config.Config) CatalogFactory {
	return &catalogFactory{cfg: cfg}
}

// CreateCatalog connects to Postgres when DATABASE_URL is set and otherwise
// returns an empty in-memory catalog, so only inline garments render.
func (f *catalogFactory) CreateCatalog() (repository.CatalogRepository, error) {
	if f.cfg.DatabaseURL == "" {
		return repository.NewStaticCatalog(), nil
	}
	return repository.NewPostgresCatalog(f.cfg.DatabaseURL)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory      StorageFactory
	SessionStoreFactory SessionStoreFactory
	DetectorFactory     DetectorFactory
	CatalogFactory      CatalogFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		StorageFactory:      NewStorageFactory(cfg),
		SessionStoreFactory: NewSessionStoreFactory(cfg),
		DetectorFactory:     NewDetectorFactory(cfg),
		CatalogFactory:      NewCatalogFactory(cfg),
	}
}
