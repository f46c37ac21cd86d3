package capture

import (
	"time"

	apperrors "go-tryon/internal/errors"
	"go-tryon/pkg/models"
)

// State is the capture session's progress.
type State string

const (
	StateIdle          State = "idle"
	StateFrontCaptured State = "frontCaptured"
	StateBothCaptured  State = "bothCaptured"
	StateEstimated     State = "estimated"
	StateError         State = "error"
)

// Session tracks the two captures needed for a size estimate. It is a plain
// value; callers serialize access through the session store.
type Session struct {
	ID        string                                       `json:"id"`
	State     State                                        `json:"state"`
	Captures  map[models.CaptureView]*models.CaptureRecord `json:"captures"`
	Estimate  *models.SizeEstimateResult                   `json:"estimate,omitempty"`
	LastError string                                       `json:"lastError,omitempty"`
	CreatedAt time.Time                                    `json:"createdAt"`
	UpdatedAt time.Time                                    `json:"updatedAt"`
}

// NewSession creates an idle session.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		State:     StateIdle,
		Captures:  make(map[models.CaptureView]*models.CaptureRecord),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Accept stores rec for its view, replacing any earlier capture of that view,
// and drops any computed estimate. The front view must be captured first.
func (s *Session) Accept(rec models.CaptureRecord) error {
	if s.State == StateError {
		return apperrors.NewValidationError("capture session has failed; reset it before capturing again", nil)
	}
	switch rec.View {
	case models.ViewFront:
	case models.ViewSide:
		if s.Captures[models.ViewFront] == nil {
			return apperrors.NewValidationError("capture the front view before the side view", nil)
		}
	default:
		return apperrors.NewValidationError("capture view must be front or side", nil)
	}

	if s.Captures == nil {
		s.Captures = make(map[models.CaptureView]*models.CaptureRecord)
	}
	r := rec
	s.Captures[rec.View] = &r
	s.Estimate = nil
	s.LastError = ""
	s.UpdatedAt = rec.CapturedAt

	if s.Captures[models.ViewSide] != nil {
		s.State = StateBothCaptured
	} else {
		s.State = StateFrontCaptured
	}
	return nil
}

// Ready reports whether both views are captured.
func (s *Session) Ready() bool {
	return s.Captures[models.ViewFront] != nil && s.Captures[models.ViewSide] != nil
}

// Complete records an estimate computed from the current captures.
func (s *Session) Complete(result *models.SizeEstimateResult, now time.Time) error {
	if !s.Ready() || s.State == StateError {
		return apperrors.NewValidationError("front and side captures are required before estimating size", nil)
	}
	s.Estimate = result
	s.State = StateEstimated
	s.UpdatedAt = now
	return nil
}

// Fail moves the session to the error state.
func (s *Session) Fail(err error, now time.Time) {
	s.State = StateError
	if err != nil {
		s.LastError = err.Error()
	}
	s.UpdatedAt = now
}

// Reset discards captures and returns the session to idle.
func (s *Session) Reset(now time.Time) {
	s.State = StateIdle
	s.Captures = make(map[models.CaptureView]*models.CaptureRecord)
	s.Estimate = nil
	s.LastError = ""
	s.UpdatedAt = now
}

// Recoverable reports whether a capture failure should leave the session in
// its current state. Anything else sends it to the error state.
func Recoverable(err error) bool {
	return apperrors.IsType(err, apperrors.ErrorTypeLowConfidence) ||
		apperrors.IsType(err, apperrors.ErrorTypeDecode) ||
		apperrors.IsType(err, apperrors.ErrorTypeValidation) ||
		apperrors.IsType(err, apperrors.ErrorTypeInputUnavailable) ||
		apperrors.IsType(err, apperrors.ErrorTypeTimeout)
}
