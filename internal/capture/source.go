package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"go-tryon/internal/analyzer"
	apperrors "go-tryon/internal/errors"
	"go-tryon/internal/pose"
	"go-tryon/pkg/geometry"
	"go-tryon/pkg/models"
)

// Pipeline turns a live observation or an uploaded still into a capture
// record, rejecting frames whose pose is missing or below threshold.
type Pipeline struct {
	extractor analyzer.MeasurementExtractor
	detector  pose.Detector
	quality   analyzer.FrameQualityAssessor
	live      *Slot[Observation]
	now       func() time.Time
}

// NewPipeline creates a capture pipeline. live may be nil when no camera
// loop runs in this process; detector is used for uploads.
func NewPipeline(extractor analyzer.MeasurementExtractor, detector pose.Detector, live *Slot[Observation]) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		detector:  detector,
		quality:   analyzer.NewFrameQualityAssessor(analyzer.DefaultQualityThresholds()),
		live:      live,
		now:       time.Now,
	}
}

// CaptureLive snapshots the latest rendered canvas and its landmarks.
func (p *Pipeline) CaptureLive(view models.CaptureView) (models.CaptureRecord, error) {
	if p.live == nil {
		return models.CaptureRecord{}, apperrors.NewInputUnavailableError("camera is not running", nil)
	}
	obs := p.live.Load()
	if obs == nil || obs.Canvas == nil {
		return models.CaptureRecord{}, apperrors.NewInputUnavailableError("camera is not ready yet", nil)
	}

	metrics, err := p.measure(obs.Landmarks, obs.Mapping, obs.Size)
	if err != nil {
		return models.CaptureRecord{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, obs.Canvas); err != nil {
		return models.CaptureRecord{}, apperrors.NewInternalError("failed to encode capture", err)
	}

	return models.CaptureRecord{
		CapturedAt: p.now(),
		Image:      buf.Bytes(),
		Metrics:    *metrics,
		View:       view,
		Source:     models.SourceLive,
		Quality:    p.assess(obs.Canvas),
	}, nil
}

// CaptureUpload decodes an uploaded still and measures it on its own pixel grid.
func (p *Pipeline) CaptureUpload(ctx context.Context, view models.CaptureView, data []byte) (models.CaptureRecord, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return models.CaptureRecord{}, err
	}

	set, err := p.DetectStill(ctx, img)
	if err != nil {
		return models.CaptureRecord{}, err
	}

	mapping, canvas := geometry.IdentityMapping(img.Bounds().Dx(), img.Bounds().Dy())
	metrics, err := p.measure(set, mapping, canvas)
	if err != nil {
		return models.CaptureRecord{}, err
	}

	return models.CaptureRecord{
		CapturedAt: p.now(),
		Image:      data,
		Metrics:    *metrics,
		View:       view,
		Source:     models.SourceUpload,
		Quality:    p.assess(img),
	}, nil
}

// DetectStill runs the detector in single-image mode and returns the first pose.
func (p *Pipeline) DetectStill(ctx context.Context, img image.Image) (models.LandmarkSet, error) {
	if p.detector == nil {
		return nil, apperrors.NewInputUnavailableError("pose detector is not configured", nil)
	}
	sets, err := p.detector.DetectImage(ctx, img)
	if err != nil {
		return nil, err
	}
	set, ok := pose.First(sets)
	if !ok {
		return nil, apperrors.NewLowConfidenceError("no person detected in image", nil)
	}
	return set, nil
}

func (p *Pipeline) measure(set models.LandmarkSet, m geometry.FrameMapping, canvas geometry.CanvasSize) (*models.MeasurementSnapshot, error) {
	metrics, ok := p.extractor.Extract(set, m, canvas)
	if !ok {
		return nil, apperrors.NewLowConfidenceError("shoulders and hips must be visible", nil)
	}
	if !p.extractor.Accepts(metrics) {
		return nil, apperrors.NewLowConfidenceError(
			fmt.Sprintf("pose confidence %.2f is too low; step back and face the camera", metrics.Confidence), nil)
	}
	return metrics, nil
}

func (p *Pipeline) assess(img image.Image) *models.FrameQuality {
	if p.quality == nil {
		return nil
	}
	q := p.quality.Assess(img)
	return &q
}

// DecodeImage decodes PNG, JPEG, GIF, BMP or WebP data.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, apperrors.NewDecodeError("uploaded image is empty", nil)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("uploaded image could not be decoded", err)
	}
	if img.Bounds().Empty() {
		return nil, apperrors.NewDecodeError("uploaded image has no pixels", nil)
	}
	return img, nil
}
