package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"go-tryon/internal/capture"
	apperrors "go-tryon/internal/errors"
	"go-tryon/internal/logger"
	"go-tryon/internal/observer"
	"go-tryon/internal/repository"
	"go-tryon/internal/sizing"
	"go-tryon/pkg/models"
)

// CaptureSessionService drives the front/side capture flow and the estimate
// computed from it. Session state lives in the session store.
type CaptureSessionService interface {
	CreateSession(ctx context.Context) (*capture.Session, error)
	GetSession(ctx context.Context, id string) (*capture.Session, error)

	// UploadCapture measures an uploaded still and stores it for view
	UploadCapture(ctx context.Context, id string, view models.CaptureView, data []byte) (*capture.Session, error)

	// CaptureLive snapshots the camera loop running in this process
	CaptureLive(ctx context.Context, id string, view models.CaptureView) (*capture.Session, error)

	Estimate(ctx context.Context, id string, request models.SessionEstimateRequest) (*capture.Session, error)
	ResetSession(ctx context.Context, id string) (*capture.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type captureSessionService struct {
	store    repository.SessionStore
	pipeline *capture.Pipeline
	engine   *sizing.Engine
	events   observer.Subject
	now      func() time.Time
	newID    func() string
}

// NewCaptureSessionService creates a new capture session service
func NewCaptureSessionService(
	store repository.SessionStore,
	pipeline *capture.Pipeline,
	engine *sizing.Engine,
	events observer.Subject,
) CaptureSessionService {
	if engine == nil {
		engine = sizing.NewDefaultEngine()
	}
	return &captureSessionService{
		store:    store,
		pipeline: pipeline,
		engine:   engine,
		events:   events,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *captureSessionService) CreateSession(ctx context.Context) (*capture.Session, error) {
	session := capture.NewSession(s.newID(), s.now())
	if err := s.store.Save(ctx, session); err != nil {
		return nil, storeError(err)
	}
	logger.WithContext(ctx).WithField("session_id", session.ID).Info("Capture session created")
	return session, nil
}

func (s *captureSessionService) GetSession(ctx context.Context, id string) (*capture.Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return session, nil
}

func (s *captureSessionService) UploadCapture(ctx context.Context, id string, view models.CaptureView, data []byte) (*capture.Session, error) {
	return s.capture(ctx, id, view, func() (models.CaptureRecord, error) {
		return s.pipeline.CaptureUpload(ctx, view, data)
	})
}

func (s *captureSessionService) CaptureLive(ctx context.Context, id string, view models.CaptureView) (*capture.Session, error) {
	return s.capture(ctx, id, view, func() (models.CaptureRecord, error) {
		return s.pipeline.CaptureLive(view)
	})
}

// capture checks the session before running the detector so that unknown
// sessions fail fast, then applies the record under the store's update lock.
// Rejected frames leave the session as it was; any other failure moves it
// to the error state.
func (s *captureSessionService) capture(ctx context.Context, id string, view models.CaptureView, take func() (models.CaptureRecord, error)) (*capture.Session, error) {
	if _, err := s.GetSession(ctx, id); err != nil {
		return nil, err
	}
	ctx = WithSessionID(ctx, id)
	start := time.Now()

	rec, err := take()
	if err == nil {
		var session *capture.Session
		session, err = s.store.Update(ctx, id, func(session *capture.Session) error {
			return session.Accept(rec)
		})
		if err == nil {
			publish(ctx, s.events, observer.TryOnEvent{
				EventType:      observer.CaptureAccepted,
				Timestamp:      time.Now(),
				SessionID:      id,
				ProcessingTime: time.Since(start),
				Success:        true,
				Metadata: map[string]interface{}{
					"view":       string(view),
					"source":     string(rec.Source),
					"confidence": rec.Metrics.Confidence,
				},
			})
			return session, nil
		}
		if isStoreError(err) {
			return nil, storeError(err)
		}
	}

	publish(ctx, s.events, observer.TryOnEvent{
		EventType:      observer.CaptureRejected,
		Timestamp:      time.Now(),
		SessionID:      id,
		ProcessingTime: time.Since(start),
		Success:        false,
		ErrorMessage:   err.Error(),
		Metadata:       map[string]interface{}{"view": string(view)},
	})

	if !capture.Recoverable(err) {
		logger.WithContext(ctx).WithError(err).WithField("session_id", id).Warn("Capture failed, session moved to error state")
		if _, uerr := s.store.Update(ctx, id, func(session *capture.Session) error {
			session.Fail(err, s.now())
			return nil
		}); uerr != nil {
			logger.WithContext(ctx).WithError(uerr).Error("Failed to record capture failure")
		}
	}
	return nil, err
}

// Estimate runs inside the store update so the result always matches the
// captures it is saved with.
func (s *captureSessionService) Estimate(ctx context.Context, id string, request models.SessionEstimateRequest) (*capture.Session, error) {
	ctx = WithSessionID(ctx, id)
	start := time.Now()
	profile := ProfileFromInput(request.Profile)

	session, err := s.store.Update(ctx, id, func(session *capture.Session) error {
		if session.State == capture.StateError || !session.Ready() {
			return apperrors.NewValidationError("front and side captures are required before estimating size", nil)
		}
		front := session.Captures[models.ViewFront].Metrics
		side := session.Captures[models.ViewSide].Metrics
		result, err := s.engine.Estimate(profile, &front, &side, request.SelectedCloth)
		if err != nil {
			return err
		}
		return session.Complete(result, s.now())
	})

	event := observer.TryOnEvent{
		EventType:      observer.EstimateCompleted,
		Timestamp:      time.Now(),
		SessionID:      id,
		ProcessingTime: time.Since(start),
		Success:        err == nil,
	}
	if err != nil {
		event.EventType = observer.EstimateFailed
		event.ErrorMessage = err.Error()
	}
	publish(ctx, s.events, event)

	if err != nil {
		if isStoreError(err) {
			return nil, storeError(err)
		}
		return nil, err
	}
	return session, nil
}

func (s *captureSessionService) ResetSession(ctx context.Context, id string) (*capture.Session, error) {
	session, err := s.store.Update(ctx, id, func(session *capture.Session) error {
		session.Reset(s.now())
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return session, nil
}

func (s *captureSessionService) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.GetSession(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err)
	}
	return nil
}

// SessionView converts a session to its API shape, leaving out image bytes.
func SessionView(session *capture.Session) models.SessionResponse {
	resp := models.SessionResponse{
		ID:       session.ID,
		State:    string(session.State),
		Captures: make(map[models.CaptureView]models.CaptureSummary, len(session.Captures)),
		Estimate: session.Estimate,
		Message:  session.LastError,
	}
	for view, rec := range session.Captures {
		if rec == nil {
			continue
		}
		summary := models.CaptureSummary{
			CapturedAt: rec.CapturedAt.UTC().Format(time.RFC3339),
			Source:     rec.Source,
			Metrics:    rec.Metrics,
			ImageBytes: len(rec.Image),
			Quality:    rec.Quality,
		}
		if rec.Quality != nil {
			summary.Hints = rec.Quality.Hints()
		}
		resp.Captures[view] = summary
	}
	return resp
}

func isStoreError(err error) bool {
	return errors.Is(err, repository.ErrSessionNotFound) || errors.Is(err, repository.ErrRepositoryUnavailable)
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return apperrors.NewNotFoundError("capture session not found", err)
	case errors.Is(err, repository.ErrRepositoryUnavailable):
		return apperrors.NewInputUnavailableError("capture session store is unavailable", err)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.NewInternalError("capture session store failed", err)
}
