package repository

import (
	"context"

	"go-tryon/internal/capture"
	"go-tryon/pkg/models"
)

// SessionStore defines the interface for capture session persistence
type SessionStore interface {
	// Save stores the session, replacing any previous version and
	// refreshing its expiry
	Save(ctx context.Context, session *capture.Session) error

	// Get retrieves a session or returns ErrSessionNotFound
	Get(ctx context.Context, id string) (*capture.Session, error)

	// Update loads a session, applies fn and saves the result atomically.
	// If fn returns an error nothing is saved and the error is returned.
	Update(ctx context.Context, id string, fn func(*capture.Session) error) (*capture.Session, error)

	// Delete removes a session
	Delete(ctx context.Context, id string) error

	// Close releases any connections held by the store
	Close() error
}

// CatalogRepository defines read-only access to garment descriptors
type CatalogRepository interface {
	// GetGarment retrieves a garment or returns ErrGarmentNotFound
	GetGarment(ctx context.Context, id string) (*models.GarmentDescriptor, error)

	// Close releases any connections held by the repository
	Close() error
}
