package service

import (
	"context"
	"time"

	"go-tryon/internal/observer"
	"go-tryon/internal/sizing"
	"go-tryon/pkg/models"
)

// SizeEstimationService turns a profile and two captures into a size recommendation
type SizeEstimationService interface {
	// Estimate runs the engine on request metrics sent by a client
	Estimate(ctx context.Context, request models.SizeEstimationRequest) (*models.SizeEstimateResult, error)

	// EstimateSnapshots runs the engine on measurements produced in-process
	EstimateSnapshots(ctx context.Context, profile models.Profile, front, side *models.MeasurementSnapshot, hint *models.ClothHint) (*models.SizeEstimateResult, error)
}

type sizeEstimationService struct {
	engine *sizing.Engine
	events observer.Subject
}

// NewSizeEstimationService creates a new size estimation service. events may be nil.
func NewSizeEstimationService(engine *sizing.Engine, events observer.Subject) SizeEstimationService {
	if engine == nil {
		engine = sizing.NewDefaultEngine()
	}
	return &sizeEstimationService{engine: engine, events: events}
}

func (s *sizeEstimationService) Estimate(ctx context.Context, request models.SizeEstimationRequest) (*models.SizeEstimateResult, error) {
	front := s.engine.ParseMetrics(request.Front)
	side := s.engine.ParseMetrics(request.Side)
	return s.EstimateSnapshots(ctx, ProfileFromInput(request.Profile), front, side, request.SelectedCloth)
}

func (s *sizeEstimationService) EstimateSnapshots(ctx context.Context, profile models.Profile, front, side *models.MeasurementSnapshot, hint *models.ClothHint) (*models.SizeEstimateResult, error) {
	start := time.Now()
	result, err := s.engine.Estimate(profile, front, side, hint)

	event := observer.TryOnEvent{
		EventType:      observer.EstimateCompleted,
		Timestamp:      time.Now(),
		SessionID:      SessionIDFromContext(ctx),
		ProcessingTime: time.Since(start),
		Success:        err == nil,
	}
	if err != nil {
		event.EventType = observer.EstimateFailed
		event.ErrorMessage = err.Error()
	} else {
		event.Metadata = map[string]interface{}{
			"size":       result.Recommended.Primary,
			"garment":    result.Recommended.GarmentType,
			"confidence": string(result.Recommended.Confidence),
		}
	}
	publish(ctx, s.events, event)

	return result, err
}

// ProfileFromInput converts request fields; absent numbers become zero and
// fail validation downstream.
func ProfileFromInput(in models.ProfileInput) models.Profile {
	p := models.Profile{
		FitPreference: models.FitPreference(in.FitPreference),
		Gender:        in.Gender,
	}
	if in.HeightCm != nil {
		p.HeightCm = *in.HeightCm
	}
	if in.WeightKg != nil {
		p.WeightKg = *in.WeightKg
	}
	return p
}

type sessionIDKey struct{}

// WithSessionID tags ctx so that published events carry the capture session.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext returns the session tagged by WithSessionID, if any.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

func publish(ctx context.Context, events observer.Subject, event observer.TryOnEvent) {
	if events == nil {
		return
	}
	events.NotifyObservers(ctx, event)
}
