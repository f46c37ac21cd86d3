package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"go-tryon/internal/logger"
	"go-tryon/pkg/models"
)

const queryGetGarment = `
	SELECT id, name, COALESCE(image, '') AS image, COALESCE(color, '') AS color,
	       category, COALESCE(subcategory, '') AS subcategory,
	       COALESCE(article_type, '') AS article_type, COALESCE(gender, '') AS gender,
	       COALESCE(tags, '{}') AS tags
	FROM garments
	WHERE id = $1`

// garmentRow scans a garments row; tags are a Postgres text array.
type garmentRow struct {
	models.GarmentDescriptor
	Tags pq.StringArray `db:"tags"`
}

// PostgresCatalog reads garment descriptors from Postgres.
type PostgresCatalog struct {
	db *sqlx.DB
}

// NewPostgresCatalog opens and pings the database at dsn.
func NewPostgresCatalog(dsn string) (*PostgresCatalog, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: postgres ping: %v", ErrRepositoryUnavailable, err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	logger.Info("Connected to garment catalog database")

	return NewPostgresCatalogWithDB(db), nil
}

// NewPostgresCatalogWithDB wraps an open database handle
func NewPostgresCatalogWithDB(db *sqlx.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (c *PostgresCatalog) GetGarment(ctx context.Context, id string) (*models.GarmentDescriptor, error) {
	var row garmentRow
	if err := c.db.GetContext(ctx, &row, queryGetGarment, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGarmentNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Class() == "22" {
			// Malformed IDs, e.g. a non-UUID against a uuid column
			return nil, ErrGarmentNotFound
		}
		logger.WithContext(ctx).WithError(err).WithField("garment_id", id).Error("Catalog lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}

	garment := row.GarmentDescriptor
	garment.Tags = []string(row.Tags)
	return &garment, nil
}

func (c *PostgresCatalog) Close() error {
	return c.db.Close()
}

// StaticCatalog serves a fixed set of garments from memory.
type StaticCatalog struct {
	mu       sync.RWMutex
	garments map[string]models.GarmentDescriptor
}

// NewStaticCatalog creates a catalog holding the given garments
func NewStaticCatalog(garments ...models.GarmentDescriptor) *StaticCatalog {
	c := &StaticCatalog{garments: make(map[string]models.GarmentDescriptor, len(garments))}
	for _, g := range garments {
		c.garments[g.ID] = g
	}
	return c
}

// Put adds or replaces a garment
func (c *StaticCatalog) Put(g models.GarmentDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.garments[g.ID] = g
}

func (c *StaticCatalog) GetGarment(_ context.Context, id string) (*models.GarmentDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.garments[id]
	if !ok {
		return nil, ErrGarmentNotFound
	}
	g.Tags = append([]string(nil), g.Tags...)
	return &g, nil
}

func (c *StaticCatalog) Close() error { return nil }
