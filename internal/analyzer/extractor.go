package analyzer

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"go-tryon/internal/pose"
	"go-tryon/pkg/geometry"
	"go-tryon/pkg/models"
)

// MeasurementExtractor turns a landmark set into pixel-space body measurements.
type MeasurementExtractor interface {
	Extract(set models.LandmarkSet, m geometry.FrameMapping, canvas geometry.CanvasSize) (*models.MeasurementSnapshot, bool)
	Accepts(snapshot *models.MeasurementSnapshot) bool
}

type extractor struct {
	cal Calibration
}

// NewMeasurementExtractor creates an extractor with the given calibration.
func NewMeasurementExtractor(cal Calibration) MeasurementExtractor {
	return &extractor{cal: cal}
}

// Extract returns false when either shoulder or either hip is missing.
// The result is a pure function of its inputs.
func (e *extractor) Extract(set models.LandmarkSet, m geometry.FrameMapping, canvas geometry.CanvasSize) (*models.MeasurementSnapshot, bool) {
	point := func(i int) (geometry.Point, bool) {
		return geometry.MapIndex(set, i, m, canvas)
	}

	ls, okLS := point(pose.LeftShoulder)
	rs, okRS := point(pose.RightShoulder)
	lh, okLH := point(pose.LeftHip)
	rh, okRH := point(pose.RightHip)
	if !okLS || !okRS || !okLH || !okRH {
		return nil, false
	}

	shoulderWidth := ls.Distance(rs)
	hipWidth := lh.Distance(rh)
	torsoHeight := ls.Midpoint(rs).Distance(lh.Midpoint(rh))
	bodyHeight := e.bodyHeight(point, torsoHeight)

	p := e.cal.Precision
	snapshot := &models.MeasurementSnapshot{
		ShoulderWidthPx: geometry.Round(shoulderWidth, p),
		ChestWidthPx:    geometry.Round(shoulderWidth*e.cal.ChestFromShoulder, p),
		WaistWidthPx:    geometry.Round(hipWidth*e.cal.WaistFromHip, p),
		HipWidthPx:      geometry.Round(hipWidth, p),
		TorsoHeightPx:   geometry.Round(torsoHeight, p),
		BodyHeightPx:    geometry.Round(bodyHeight, p),
		FrameHeightPx:   geometry.Round(canvas.Height, p),
		Confidence:      geometry.Round(e.confidence(set), p),
	}
	return snapshot, true
}

func (e *extractor) bodyHeight(point func(int) (geometry.Point, bool), torsoHeight float64) float64 {
	fallback := torsoHeight * e.cal.HeightFromTorso

	nose, ok := point(pose.Nose)
	if !ok {
		return fallback
	}

	la, okL := point(pose.LeftAnkle)
	ra, okR := point(pose.RightAnkle)
	var height float64
	switch {
	case okL && okR:
		height = nose.Distance(la.Midpoint(ra))
	case okL:
		height = nose.Distance(la)
	case okR:
		height = nose.Distance(ra)
	default:
		return fallback
	}

	// A short nose-to-ankle span means part of the body is out of frame.
	if height < torsoHeight*e.cal.MinBodyToTorso {
		return fallback
	}
	return height
}

// confidence averages the visibility of the shoulder and hip landmarks that report one.
func (e *extractor) confidence(set models.LandmarkSet) float64 {
	var scores []float64
	for _, i := range []int{pose.LeftShoulder, pose.RightShoulder, pose.LeftHip, pose.RightHip} {
		if lm := set.At(i); lm != nil && lm.Visibility != nil && !math.IsNaN(*lm.Visibility) {
			scores = append(scores, *lm.Visibility)
		}
	}
	if len(scores) == 0 {
		return e.cal.DefaultConfidence
	}
	return math.Max(0, math.Min(1, stat.Mean(scores, nil)))
}

// Accepts reports whether a snapshot is usable as a capture.
func (e *extractor) Accepts(snapshot *models.MeasurementSnapshot) bool {
	return snapshot != nil && snapshot.Valid() && snapshot.Confidence >= e.cal.MinConfidence
}
