package geometry

import (
	"fmt"

	"go-tryon/pkg/models"
)

// CanvasSize is the destination surface in pixels.
type CanvasSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FrameMapping is the crop rectangle, in source pixels, that fills the canvas.
// A mapping is only valid for the source and canvas sizes it was resolved from.
type FrameMapping struct {
	SX           float64 `json:"sx"`
	SY           float64 `json:"sy"`
	SWidth       float64 `json:"sWidth"`
	SHeight      float64 `json:"sHeight"`
	SourceWidth  float64 `json:"sourceWidth"`
	SourceHeight float64 `json:"sourceHeight"`
}

// ResolveCoverMapping computes a "cover" fit of the source frame onto the
// destination canvas: the canvas is filled without distortion and the excess
// source is cropped symmetrically along one axis.
func ResolveCoverMapping(sourceWidth, sourceHeight, destWidth, destHeight int) (FrameMapping, error) {
	if sourceWidth <= 0 || sourceHeight <= 0 || destWidth <= 0 || destHeight <= 0 {
		return FrameMapping{}, fmt.Errorf("invalid frame sizes: source %dx%d, dest %dx%d",
			sourceWidth, sourceHeight, destWidth, destHeight)
	}

	sw, sh := float64(sourceWidth), float64(sourceHeight)
	dw, dh := float64(destWidth), float64(destHeight)

	// Aspects are compared by cross-multiplication so that equal ratios stay uncropped.
	m := FrameMapping{SWidth: sw, SHeight: sh, SourceWidth: sw, SourceHeight: sh}
	switch {
	case sw*dh > sh*dw:
		m.SWidth = sh * dw / dh
		m.SX = (sw - m.SWidth) / 2
	case sw*dh < sh*dw:
		m.SHeight = sw * dh / dw
		m.SY = (sh - m.SHeight) / 2
	}
	return m, nil
}

// IdentityMapping maps an image onto itself, used for uploaded stills.
func IdentityMapping(width, height int) (FrameMapping, CanvasSize) {
	w, h := float64(width), float64(height)
	return FrameMapping{SWidth: w, SHeight: h, SourceWidth: w, SourceHeight: h},
		CanvasSize{Width: w, Height: h}
}

// MapLandmark projects a normalized landmark into canvas pixels through the
// mapping. ok is false for a missing landmark; no point is ever invented.
// The result is not mirrored.
func MapLandmark(lm *models.Landmark, m FrameMapping, canvas CanvasSize) (Point, bool) {
	if lm == nil || !lm.Valid() || m.SWidth <= 0 || m.SHeight <= 0 {
		return Point{}, false
	}
	sourceX := lm.X * m.SourceWidth
	sourceY := lm.Y * m.SourceHeight
	return Point{
		X: (sourceX - m.SX) / m.SWidth * canvas.Width,
		Y: (sourceY - m.SY) / m.SHeight * canvas.Height,
	}, true
}

// MapIndex maps the landmark at index i of set, see MapLandmark.
func MapIndex(set models.LandmarkSet, i int, m FrameMapping, canvas CanvasSize) (Point, bool) {
	return MapLandmark(set.At(i), m, canvas)
}
