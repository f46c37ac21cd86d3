package pose

import (
	"context"
	"image"
	"time"

	apperrors "go-tryon/internal/errors"
	"go-tryon/pkg/models"
)

// Detector produces landmark sets from images.
type Detector interface {
	// DetectVideo analyzes one frame of a continuous stream. The timestamp
	// must increase monotonically between calls on the same stream.
	DetectVideo(ctx context.Context, frame image.Image, timestamp time.Duration) ([]models.LandmarkSet, error)

	// DetectImage analyzes a single still.
	DetectImage(ctx context.Context, img image.Image) ([]models.LandmarkSet, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds options forwarded to the detector service.
type Config struct {
	// NumPoses is the maximum number of people to detect.
	NumPoses int

	// MinDetectionConfidence is the minimum pose detection score (0.0-1.0).
	MinDetectionConfidence float64

	// Timeout bounds a single detection round trip.
	Timeout time.Duration
}

// DefaultConfig returns a Config for single-person try-on.
func DefaultConfig() Config {
	return Config{
		NumPoses:               1,
		MinDetectionConfidence: 0.5,
		Timeout:                5 * time.Second,
	}
}

// First returns the first landmark set, which is the one the pipeline uses.
func First(sets []models.LandmarkSet) (models.LandmarkSet, bool) {
	if len(sets) == 0 || len(sets[0]) == 0 {
		return nil, false
	}
	return sets[0], true
}

// UnavailableDetector is used when no detector service is configured.
type UnavailableDetector struct{}

func (UnavailableDetector) DetectVideo(context.Context, image.Image, time.Duration) ([]models.LandmarkSet, error) {
	return nil, apperrors.NewInputUnavailableError("pose detector is not configured", nil)
}

func (UnavailableDetector) DetectImage(context.Context, image.Image) ([]models.LandmarkSet, error) {
	return nil, apperrors.NewInputUnavailableError("pose detector is not configured", nil)
}

func (UnavailableDetector) Close() error { return nil }

// StaticDetector returns the same landmark sets for every call.
type StaticDetector struct {
	Sets []models.LandmarkSet
	Err  error
}

func (d *StaticDetector) DetectVideo(ctx context.Context, _ image.Image, _ time.Duration) ([]models.LandmarkSet, error) {
	return d.detect(ctx)
}

func (d *StaticDetector) DetectImage(ctx context.Context, _ image.Image) ([]models.LandmarkSet, error) {
	return d.detect(ctx)
}

func (d *StaticDetector) detect(ctx context.Context) ([]models.LandmarkSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.Sets, d.Err
}

func (d *StaticDetector) Close() error { return nil }
