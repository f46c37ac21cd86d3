package storage

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"go-tryon/internal/logger"
)

// RoutingFetcher picks a backend by location: s3:// goes to S3, Azure Blob
// hosts go to Azure, everything else over HTTP. Missing backends are errors.
type RoutingFetcher struct {
	HTTP  ImageFetcher
	Azure ImageFetcher
	S3    ImageFetcher
}

func (r *RoutingFetcher) FetchImage(ctx context.Context, location string) (image.Image, error) {
	var backend ImageFetcher
	var name string
	switch {
	case strings.HasPrefix(location, "s3://"):
		backend, name = r.S3, "s3"
	case IsAzureBlobURL(location) && r.Azure != nil:
		backend, name = r.Azure, "azure"
	default:
		backend, name = r.HTTP, "http"
	}
	if backend == nil {
		return nil, fmt.Errorf("no %s image storage configured for %q", name, location)
	}
	return backend.FetchImage(ctx, location)
}

// CachedFetcher keeps the most recently used decoded images in memory.
// Decoded images are treated as read-only by every caller.
type CachedFetcher struct {
	next  ImageFetcher
	cache *lru.Cache[string, image.Image]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedFetcher wraps next with an LRU cache of capacity images.
func NewCachedFetcher(next ImageFetcher, capacity int) *CachedFetcher {
	if capacity < 1 {
		capacity = 1
	}
	cache, _ := lru.NewWithEvict(capacity, func(location string, _ image.Image) {
		logger.WithField("location", location).Debug("Evicted garment image from cache")
	})
	return &CachedFetcher{next: next, cache: cache}
}

func (c *CachedFetcher) FetchImage(ctx context.Context, location string) (image.Image, error) {
	if img, ok := c.cache.Get(location); ok {
		c.hits.Add(1)
		return img, nil
	}
	c.misses.Add(1)

	img, err := c.next.FetchImage(ctx, location)
	if err != nil {
		return nil, err
	}
	c.cache.Add(location, img)
	return img, nil
}

// Stats returns cache hits, misses and current size
func (c *CachedFetcher) Stats() (hits, misses int64, size int) {
	return c.hits.Load(), c.misses.Load(), c.cache.Len()
}
