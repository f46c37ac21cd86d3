package models

import (
	"math"
	"time"
)

// MeasurementSnapshot holds pixel-space body measurements from one capture.
type MeasurementSnapshot struct {
	ShoulderWidthPx float64 `json:"shoulderWidthPx"`
	ChestWidthPx    float64 `json:"chestWidthPx"`
	WaistWidthPx    float64 `json:"waistWidthPx"`
	HipWidthPx      float64 `json:"hipWidthPx"`
	TorsoHeightPx   float64 `json:"torsoHeightPx"`
	BodyHeightPx    float64 `json:"bodyHeightPx"`
	FrameHeightPx   float64 `json:"frameHeightPx"`
	Confidence      float64 `json:"confidence"`
}

// Valid reports whether the snapshot can feed size estimation.
func (m MeasurementSnapshot) Valid() bool {
	for _, v := range []float64{m.ShoulderWidthPx, m.HipWidthPx, m.TorsoHeightPx, m.BodyHeightPx} {
		if !positiveFinite(v) {
			return false
		}
	}
	return m.Confidence >= 0 && m.Confidence <= 1
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// CaptureView identifies which body view a capture shows.
type CaptureView string

const (
	ViewFront CaptureView = "front"
	ViewSide  CaptureView = "side"
)

// CaptureSource identifies where a capture frame came from.
type CaptureSource string

const (
	SourceLive   CaptureSource = "live"
	SourceUpload CaptureSource = "upload"
)

// CaptureRecord is an accepted capture for one view.
type CaptureRecord struct {
	CapturedAt time.Time           `json:"capturedAt"`
	Image      []byte              `json:"image,omitempty"`
	Metrics    MeasurementSnapshot `json:"metrics"`
	View       CaptureView         `json:"view"`
	Source     CaptureSource       `json:"source"`
	Quality    *FrameQuality       `json:"quality,omitempty"`
}

// FrameQuality grades the lighting and focus of a capture frame.
type FrameQuality struct {
	Brightness  float64 `json:"brightness"`
	Sharpness   float64 `json:"sharpness"`
	Dark        bool    `json:"dark"`
	Overexposed bool    `json:"overexposed"`
	Blurry      bool    `json:"blurry"`
}

// Hints lists user-facing retake suggestions for the flagged checks.
func (q FrameQuality) Hints() []string {
	var hints []string
	if q.Dark {
		hints = append(hints, "the frame is dark; add light in front of you")
	}
	if q.Overexposed {
		hints = append(hints, "the frame is overexposed; move away from bright light")
	}
	if q.Blurry {
		hints = append(hints, "the frame looks blurry; hold still")
	}
	return hints
}
