package sizing

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"go-tryon/pkg/models"
)

// EllipsePerimeter approximates the circumference of an elliptical cross
// section with Ramanujan's first formula. Semi-axes are floored at 0.1 cm.
func EllipsePerimeter(widthCm, depthCm float64) float64 {
	a := math.Max(widthCm/2, 0.1)
	b := math.Max(depthCm/2, 0.1)
	return math.Pi * (3*(a+b) - math.Sqrt((3*a+b)*(a+3*b)))
}

// bodyMeasurements are real-world values before rounding.
type bodyMeasurements struct {
	ScaleCmPerPx      float64
	ShoulderCm        float64
	ChestCm           float64
	WaistCm           float64
	HipCm             float64
	TorsoDepthCm      float64
	TorsoHeightCm     float64
	TorsoVolumeLiters float64
}

func (r DepthRule) depth(sideWidthCm, frontWidthCm float64) float64 {
	return clamp(sideWidthCm*r.Factor, frontWidthCm*r.MinRatio, frontWidthCm*r.MaxRatio)
}

// derive scales both captures by the user's height and converts width and
// depth pairs into circumferences.
func (e *Engine) derive(heightCm float64, front, side *models.MeasurementSnapshot) bodyMeasurements {
	c := e.cal
	scale := heightCm / mean(front.BodyHeightPx, side.BodyHeightPx)

	chestWidth := front.ChestWidthPx * scale
	chestDepth := c.ChestDepth.depth(side.ChestWidthPx*scale, chestWidth)
	waistWidth := front.WaistWidthPx * scale
	waistDepth := c.WaistDepth.depth(side.WaistWidthPx*scale, waistWidth)
	hipWidth := front.HipWidthPx * scale
	hipDepth := c.HipDepth.depth(side.HipWidthPx*scale, hipWidth)
	torsoHeight := mean(front.TorsoHeightPx, side.TorsoHeightPx) * scale

	return bodyMeasurements{
		ScaleCmPerPx:      scale,
		ShoulderCm:        mean(front.ShoulderWidthPx, side.ShoulderWidthPx*c.ShoulderSideFactor) * scale,
		ChestCm:           EllipsePerimeter(chestWidth, chestDepth),
		WaistCm:           EllipsePerimeter(waistWidth, waistDepth),
		HipCm:             EllipsePerimeter(hipWidth, hipDepth),
		TorsoDepthCm:      chestDepth,
		TorsoHeightCm:     torsoHeight,
		TorsoVolumeLiters: math.Pi * (chestWidth / 2) * (chestDepth / 2) * torsoHeight / 1000,
	}
}

// outliers names the circumferences outside plausible human ranges.
func (e *Engine) outliers(m bodyMeasurements) []string {
	var out []string
	for _, check := range []struct {
		name  string
		value float64
		r     Range
	}{
		{"chest", m.ChestCm, e.cal.ChestPlausible},
		{"waist", m.WaistCm, e.cal.WaistPlausible},
		{"hip", m.HipCm, e.cal.HipPlausible},
	} {
		if check.value < check.r.Min || check.value > check.r.Max {
			out = append(out, check.name)
		}
	}
	return out
}

// ParseMetrics turns request metrics into a snapshot. Missing widths are
// derived from the neighbouring measurement, missing body height from the
// torso, and missing confidence from the default. Values that cannot be
// derived stay zero and fail validation.
func (e *Engine) ParseMetrics(in *models.CaptureInput) *models.MeasurementSnapshot {
	if in == nil || in.Metrics == nil {
		return nil
	}
	m := in.Metrics
	c := e.cal

	shoulder := positive(m.ShoulderWidthPx, 0)
	chest := positive(m.ChestWidthPx, shoulder*c.ChestFromShoulder)
	waist := positive(m.WaistWidthPx, chest*c.WaistFromChest)
	hip := positive(m.HipWidthPx, waist*c.HipFromWaist)
	torso := positive(m.TorsoHeightPx, 0)
	body := positive(m.BodyHeightPx, torso*c.HeightFromTorso)

	confidence := c.DefaultConfidence
	if m.Confidence != nil && !math.IsNaN(*m.Confidence) && !math.IsInf(*m.Confidence, 0) {
		confidence = *m.Confidence
	}

	return &models.MeasurementSnapshot{
		ShoulderWidthPx: shoulder,
		ChestWidthPx:    chest,
		WaistWidthPx:    waist,
		HipWidthPx:      hip,
		TorsoHeightPx:   torso,
		BodyHeightPx:    body,
		FrameHeightPx:   positive(m.FrameHeightPx, 0),
		Confidence:      clamp(confidence, c.MinConfidence, 1),
	}
}

func positive(v *float64, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return fallback
	}
	return *v
}

func mean(values ...float64) float64 {
	return stat.Mean(values, nil)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
