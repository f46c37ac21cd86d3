package validation

import (
	"fmt"
	"math"

	"go-tryon/pkg/models"
)

// Thresholds defines configurable limits for profile and capture validation
type Thresholds struct {
	// Profile ranges
	MinHeightCm float64
	MaxHeightCm float64
	MinWeightKg float64
	MaxWeightKg float64

	// Pose confidence
	MinCaptureConfidence  float64
	GoodCaptureConfidence float64

	// Framing, as fractions of the frame height
	MaxBodyToFrame     float64
	MinShoulderToFrame float64
}

// DefaultThresholds returns the default validation thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinHeightCm:           120,
		MaxHeightCm:           230,
		MinWeightKg:           30,
		MaxWeightKg:           250,
		MinCaptureConfidence:  0.4,
		GoodCaptureConfidence: 0.6,
		MaxBodyToFrame:        0.98,
		MinShoulderToFrame:    0.06,
	}
}

// CaptureValidator checks size estimation inputs and turns weak captures into tips
type CaptureValidator struct {
	thresholds Thresholds
}

// NewCaptureValidator creates a validator with default thresholds
func NewCaptureValidator() *CaptureValidator {
	return &CaptureValidator{
		thresholds: DefaultThresholds(),
	}
}

// NewCaptureValidatorWithThresholds creates a validator with custom thresholds
func NewCaptureValidatorWithThresholds(thresholds Thresholds) *CaptureValidator {
	return &CaptureValidator{
		thresholds: thresholds,
	}
}

// Thresholds returns the limits in use
func (v *CaptureValidator) Thresholds() Thresholds {
	return v.thresholds
}

// Issue represents a single validation finding
type Issue struct {
	Type        string  `json:"type"`
	Field       string  `json:"field,omitempty"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// ValidateProfile checks height and weight ranges
func (v *CaptureValidator) ValidateProfile(p models.Profile) []Issue {
	var issues []Issue

	if !inRange(p.HeightCm, v.thresholds.MinHeightCm, v.thresholds.MaxHeightCm) {
		issues = append(issues, Issue{
			Type:        "height_range",
			Field:       "profile.heightCm",
			Message:     fmt.Sprintf("profile.heightCm must be between %g and %g", v.thresholds.MinHeightCm, v.thresholds.MaxHeightCm),
			Severity:    "error",
			ActualValue: p.HeightCm,
		})
	}

	if !inRange(p.WeightKg, v.thresholds.MinWeightKg, v.thresholds.MaxWeightKg) {
		issues = append(issues, Issue{
			Type:        "weight_range",
			Field:       "profile.weightKg",
			Message:     fmt.Sprintf("profile.weightKg must be between %g and %g", v.thresholds.MinWeightKg, v.thresholds.MaxWeightKg),
			Severity:    "error",
			ActualValue: p.WeightKg,
		})
	}

	switch p.FitPreference {
	case "", models.FitSlim, models.FitRegular, models.FitRelaxed:
	default:
		issues = append(issues, Issue{
			Type:     "fit_preference",
			Field:    "profile.fitPreference",
			Message:  "profile.fitPreference must be slim, regular or relaxed",
			Severity: "error",
		})
	}

	return issues
}

// ValidateCapture checks one view's measurements. Missing metrics and low
// confidence are errors; framing problems are warnings.
func (v *CaptureValidator) ValidateCapture(view models.CaptureView, m *models.MeasurementSnapshot) []Issue {
	var issues []Issue

	if m == nil || !m.Valid() {
		return append(issues, Issue{
			Type:     "incomplete_metrics",
			Field:    string(view),
			Message:  "front and side capture metrics are incomplete",
			Severity: "error",
		})
	}

	if m.Confidence < v.thresholds.MinCaptureConfidence {
		issues = append(issues, Issue{
			Type:        "low_confidence",
			Field:       string(view),
			Message:     fmt.Sprintf("%s capture confidence %.2f is below %.2f", view, m.Confidence, v.thresholds.MinCaptureConfidence),
			Severity:    "error",
			ActualValue: m.Confidence,
			Threshold:   v.thresholds.MinCaptureConfidence,
		})
	} else if m.Confidence < v.thresholds.GoodCaptureConfidence {
		issues = append(issues, Issue{
			Type:        "weak_pose",
			Field:       string(view),
			Message:     "Capture quality was low. Use brighter light and form-fitting clothes.",
			Severity:    "warning",
			ActualValue: m.Confidence,
			Threshold:   v.thresholds.GoodCaptureConfidence,
		})
	}

	if m.FrameHeightPx > 0 {
		if m.BodyHeightPx/m.FrameHeightPx > v.thresholds.MaxBodyToFrame {
			issues = append(issues, Issue{
				Type:        "cropped_body",
				Field:       string(view),
				Message:     "Your body nearly fills the frame. Step back so head and feet are visible.",
				Severity:    "warning",
				ActualValue: m.BodyHeightPx / m.FrameHeightPx,
				Threshold:   v.thresholds.MaxBodyToFrame,
			})
		}
		if view == models.ViewFront && m.ShoulderWidthPx/m.FrameHeightPx < v.thresholds.MinShoulderToFrame {
			issues = append(issues, Issue{
				Type:        "too_far",
				Field:       string(view),
				Message:     "You are far from the camera. Move closer for more accurate measurements.",
				Severity:    "warning",
				ActualValue: m.ShoulderWidthPx / m.FrameHeightPx,
				Threshold:   v.thresholds.MinShoulderToFrame,
			})
		}
	}

	return issues
}

// ConvertIssuesToMessages converts issues to plain messages, dropping duplicates
func (v *CaptureValidator) ConvertIssuesToMessages(issues []Issue) []string {
	var messages []string
	seen := make(map[string]bool)
	for _, issue := range issues {
		if seen[issue.Message] {
			continue
		}
		seen[issue.Message] = true
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any error severity issues
func (v *CaptureValidator) HasCriticalIssues(issues []Issue) bool {
	return FirstCritical(issues) != nil
}

// FirstCritical returns the first error severity issue, or nil
func FirstCritical(issues []Issue) *Issue {
	for i := range issues {
		if issues[i].Severity == "error" {
			return &issues[i]
		}
	}
	return nil
}

// Warnings returns only the warning severity issues
func Warnings(issues []Issue) []Issue {
	var out []Issue
	for _, issue := range issues {
		if issue.Severity == "warning" {
			out = append(out, issue)
		}
	}
	return out
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
