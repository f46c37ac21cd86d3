package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"

	"go-tryon/internal/capture"
	apperrors "go-tryon/internal/errors"
	"go-tryon/internal/garment"
	"go-tryon/internal/logger"
	"go-tryon/internal/observer"
	"go-tryon/internal/overlay"
	"go-tryon/internal/repository"
	"go-tryon/internal/storage"
	"go-tryon/pkg/geometry"
	"go-tryon/pkg/models"
	"go-tryon/pkg/validation"
)

// RenderRequest is a still photo plus the garment to draw on it.
// Exactly one of GarmentID and Garment is expected; GarmentID wins.
type RenderRequest struct {
	Image     []byte
	GarmentID string
	Garment   *models.GarmentDescriptor
	Mirror    bool
	// SizeScale previews a size other than the fitted one; 0 means fitted
	SizeScale float64
}

// RenderResult is the composited PNG and where the overlay landed.
type RenderResult struct {
	PNG     []byte
	Layout  overlay.Layout
	Garment models.GarmentDescriptor
	// ImageUsed is false when the vector fallback was drawn
	ImageUsed bool
}

// TryOnService composites garment overlays onto uploaded stills
type TryOnService interface {
	Render(ctx context.Context, request RenderRequest) (*RenderResult, error)
}

type tryOnService struct {
	pipeline     *capture.Pipeline
	classifier   *garment.Classifier
	catalog      repository.CatalogRepository
	fetcher      storage.ImageFetcher
	urlValidator *validation.URLValidator
	options      overlay.Options
	fetchTimeout time.Duration
	events       observer.Subject
}

// NewTryOnService creates a new try-on service. catalog, fetcher and events
// may be nil; a nil urlValidator accepts garment images from any host.
func NewTryOnService(
	pipeline *capture.Pipeline,
	classifier *garment.Classifier,
	catalog repository.CatalogRepository,
	fetcher storage.ImageFetcher,
	urlValidator *validation.URLValidator,
	options overlay.Options,
	fetchTimeout time.Duration,
	events observer.Subject,
) TryOnService {
	if classifier == nil {
		classifier = garment.NewClassifier(0)
	}
	if urlValidator == nil {
		urlValidator = validation.NewURLValidator()
	}
	return &tryOnService{
		pipeline:     pipeline,
		classifier:   classifier,
		catalog:      catalog,
		fetcher:      fetcher,
		urlValidator: urlValidator,
		options:      options,
		fetchTimeout: fetchTimeout,
		events:       events,
	}
}

func (s *tryOnService) Render(ctx context.Context, request RenderRequest) (*RenderResult, error) {
	start := time.Now()
	result, err := s.render(ctx, request)

	event := observer.TryOnEvent{
		EventType:      observer.RenderCompleted,
		Timestamp:      time.Now(),
		ProcessingTime: time.Since(start),
		Success:        err == nil,
	}
	if err != nil {
		event.EventType = observer.RenderFailed
		event.ErrorMessage = err.Error()
	} else {
		event.Metadata = map[string]interface{}{
			"garment_type": string(result.Layout.Type),
			"fit_ratio":    result.Layout.FitRatio,
			"image_used":   result.ImageUsed,
		}
	}
	publish(ctx, s.events, event)

	return result, err
}

func (s *tryOnService) render(ctx context.Context, request RenderRequest) (*RenderResult, error) {
	descriptor, err := s.resolveGarment(ctx, request)
	if err != nil {
		return nil, err
	}

	img, err := capture.DecodeImage(request.Image)
	if err != nil {
		return nil, err
	}
	set, err := s.pipeline.DetectStill(ctx, img)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	mapping, canvas := geometry.IdentityMapping(bounds.Dx(), bounds.Dy())
	kp, ok := overlay.KeypointsFromLandmarks(set, mapping, canvas, request.Mirror)
	if !ok {
		return nil, apperrors.NewLowConfidenceError("shoulders and hips must be visible", nil)
	}

	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)
	if request.Mirror {
		capture.MirrorRGBA(dst)
	}

	g := overlay.Garment{
		Type:  s.classifier.Classify(*descriptor),
		Color: descriptor.Color,
		Image: s.garmentImage(ctx, descriptor.Image),
	}

	opts := s.options
	if request.SizeScale > 0 {
		opts = opts.WithSizeScale(request.SizeScale)
	}
	layout, drawn := overlay.NewRenderer(opts).Render(dst, g, kp)
	if !drawn {
		return nil, apperrors.NewLowConfidenceError("garment could not be placed on this pose", nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, apperrors.NewInternalError("failed to encode rendered image", err)
	}

	return &RenderResult{
		PNG:       buf.Bytes(),
		Layout:    layout,
		Garment:   *descriptor,
		ImageUsed: g.Image != nil,
	}, nil
}

func (s *tryOnService) resolveGarment(ctx context.Context, request RenderRequest) (*models.GarmentDescriptor, error) {
	id := strings.TrimSpace(request.GarmentID)
	if id == "" {
		if request.Garment == nil {
			return nil, apperrors.NewValidationError("garmentId or garment is required", nil)
		}
		return request.Garment, nil
	}

	if s.catalog == nil {
		return nil, apperrors.NewInputUnavailableError("garment catalog is not configured", nil)
	}
	g, err := s.catalog.GetGarment(ctx, id)
	switch {
	case errors.Is(err, repository.ErrGarmentNotFound):
		return nil, apperrors.NewNotFoundError("garment not found", err)
	case err != nil:
		return nil, apperrors.NewInputUnavailableError("garment catalog is unavailable", err)
	}
	return g, nil
}

// garmentImage loads the product image. Any failure falls back to the
// vector silhouette, so errors are only logged.
func (s *tryOnService) garmentImage(ctx context.Context, location string) image.Image {
	location = strings.TrimSpace(location)
	if location == "" || s.fetcher == nil {
		return nil
	}
	log := logger.WithContext(ctx).WithField("garment_image", location)

	if err := s.urlValidator.ValidateImageURL(location); err != nil {
		log.WithError(err).Warn("Garment image URL rejected, drawing fallback")
		return nil
	}

	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	img, err := s.fetcher.FetchImage(ctx, location)
	if err != nil {
		log.WithError(err).Warn("Garment image unavailable, drawing fallback")
		return nil
	}
	return img
}
