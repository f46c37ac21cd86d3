package overlay

import (
	"math"

	"go-tryon/pkg/geometry"
	"go-tryon/pkg/models"
)

// FitTint flags a visibly tight or loose overlay.
type FitTint string

const (
	TintNone  FitTint = "none"
	TintTight FitTint = "tight"
	TintLoose FitTint = "loose"
)

// Proportions are the per-silhouette box ratios, relative to body measurements.
type Proportions struct {
	TopWidth, TopHeight, TopDrop float64

	BottomWidth                   float64
	PantsLegHeight, PantsMinTorso float64
	ShortsThighHeight             float64

	SkirtWidth, SkirtThighHeight, SkirtRaise float64

	DressShoulderWidth, DressHipWidth float64
	DressLegHeight, DressThighHeight  float64

	// Used when knees or ankles are missing, as multiples of torso height
	FallbackLegHeight   float64
	FallbackThighHeight float64

	TightBelow float64
	LooseAbove float64
}

// DefaultProportions returns the standard silhouette proportions.
func DefaultProportions() Proportions {
	return Proportions{
		TopWidth:  1.22,
		TopHeight: 0.95,
		TopDrop:   0.03,

		BottomWidth:       1.15,
		PantsLegHeight:    1.05,
		PantsMinTorso:     0.9,
		ShortsThighHeight: 0.65,

		SkirtWidth:       1.25,
		SkirtThighHeight: 0.95,
		SkirtRaise:       0.05,

		DressShoulderWidth: 1.25,
		DressHipWidth:      1.3,
		DressLegHeight:     0.9,
		DressThighHeight:   1.2,

		FallbackLegHeight:   1.6,
		FallbackThighHeight: 0.8,

		TightBelow: 0.9,
		LooseAbove: 1.25,
	}
}

// Layout is the computed placement of one garment overlay.
type Layout struct {
	Type      models.GarmentType `json:"type"`
	Box       geometry.Rect      `json:"box"`
	BodyWidth float64            `json:"bodyWidth"`
	FitRatio  float64            `json:"fitRatio"`
	Tint      FitTint            `json:"tint"`
}

// ComputeLayout places the silhouette box for garment type t. sizeScale
// widens (>1) or narrows (<1) the garment relative to the body, for previewing
// a size other than the fitted one; pass 1 for the fitted size.
func ComputeLayout(t models.GarmentType, kp Keypoints, p Proportions, sizeScale float64) (Layout, bool) {
	if sizeScale <= 0 || math.IsNaN(sizeScale) || math.IsInf(sizeScale, 0) {
		sizeScale = 1
	}

	sw := kp.shoulderWidth()
	hw := kp.hipWidth()
	th := kp.torsoHeight()
	shoulders := kp.shoulderCenter()
	hips := kp.hipCenter()

	legHeight := th * p.FallbackLegHeight
	if y, ok := lowerY(kp.LeftAnkle, kp.RightAnkle); ok && y > hips.Y {
		legHeight = y - hips.Y
	}
	thighHeight := th * p.FallbackThighHeight
	if y, ok := lowerY(kp.LeftKnee, kp.RightKnee); ok && y > hips.Y {
		thighHeight = y - hips.Y
	}

	var box geometry.Rect
	var body float64
	switch t {
	case models.GarmentPants, models.GarmentShorts:
		body = hw
		box.Width = hw * p.BottomWidth
		if t == models.GarmentPants {
			box.Height = math.Max(legHeight*p.PantsLegHeight, th*p.PantsMinTorso)
		} else {
			box.Height = thighHeight * p.ShortsThighHeight
		}
		box.X = hips.X - box.Width*sizeScale/2
		box.Y = hips.Y
	case models.GarmentSkirt:
		body = hw
		box.Width = hw * p.SkirtWidth
		box.Height = thighHeight * p.SkirtThighHeight
		box.X = hips.X - box.Width*sizeScale/2
		box.Y = hips.Y - th*p.SkirtRaise
	case models.GarmentDress:
		body = math.Max(sw, hw)
		box.Width = math.Max(sw*p.DressShoulderWidth, hw*p.DressHipWidth)
		box.Height = th + math.Max(legHeight*p.DressLegHeight, thighHeight*p.DressThighHeight)
		box.X = shoulders.X - box.Width*sizeScale/2
		box.Y = shoulders.Y
	default:
		t = models.GarmentTop
		body = sw
		box.Width = sw * p.TopWidth
		box.Height = th * p.TopHeight
		box.X = shoulders.X - box.Width*sizeScale/2
		box.Y = shoulders.Y + th*p.TopDrop
	}
	box.Width *= sizeScale

	if box.Empty() || math.IsNaN(box.X) || math.IsNaN(box.Y) {
		return Layout{Type: t}, false
	}

	ratio := box.Width / math.Max(body, 1)
	tint := TintNone
	switch {
	case ratio < p.TightBelow:
		tint = TintTight
	case ratio > p.LooseAbove:
		tint = TintLoose
	}

	return Layout{Type: t, Box: box, BodyWidth: body, FitRatio: ratio, Tint: tint}, true
}
