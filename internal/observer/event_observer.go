package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-tryon/internal/logger"
)

// TryOnEvent represents a capture, estimate or render outcome
type TryOnEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	SessionID      string                 `json:"session_id,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of try-on event
type EventType string

const (
	// CaptureAccepted when a front or side capture is stored
	CaptureAccepted EventType = "capture_accepted"
	// CaptureRejected when a capture fails the pose checks
	CaptureRejected EventType = "capture_rejected"
	// EstimateCompleted when a size estimate is produced
	EstimateCompleted EventType = "estimate_completed"
	// EstimateFailed when size estimation rejects its inputs
	EstimateFailed EventType = "estimate_failed"
	// RenderCompleted when an overlay is composited
	RenderCompleted EventType = "render_completed"
	// RenderFailed when an overlay cannot be produced
	RenderFailed EventType = "render_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event TryOnEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event TryOnEvent)
}

// LoggingObserver logs try-on events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles try-on events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event TryOnEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if id := logger.RequestID(ctx); id != "" {
		fields[logger.RequestIDKey] = id
	}
	if event.SessionID != "" {
		fields["session_id"] = event.SessionID
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case CaptureAccepted:
		entry.Info("Capture accepted")
	case CaptureRejected:
		entry.Warn("Capture rejected")
	case EstimateCompleted:
		entry.Info("Size estimate completed")
	case EstimateFailed:
		entry.Warn("Size estimate failed")
	case RenderCompleted:
		entry.Debug("Overlay rendered")
	case RenderFailed:
		entry.Error("Overlay render failed")
	default:
		entry.Info("Try-on event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from try-on events
type MetricsObserver struct {
	mu                  sync.RWMutex
	capturesAccepted    int64
	capturesRejected    int64
	estimatesCompleted  int64
	estimatesFailed     int64
	rendersCompleted    int64
	rendersFailed       int64
	totalProcessingTime time.Duration
	timedEvents         int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles try-on events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event TryOnEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case CaptureAccepted:
		o.capturesAccepted++
	case CaptureRejected:
		o.capturesRejected++
	case EstimateCompleted:
		o.estimatesCompleted++
	case EstimateFailed:
		o.estimatesFailed++
	case RenderCompleted:
		o.rendersCompleted++
	case RenderFailed:
		o.rendersFailed++
	}

	if event.Success {
		o.totalProcessingTime += event.ProcessingTime
		o.timedEvents++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.timedEvents > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.timedEvents)
	}

	return map[string]interface{}{
		"captures_accepted":      o.capturesAccepted,
		"captures_rejected":      o.capturesRejected,
		"estimates_completed":    o.estimatesCompleted,
		"estimates_failed":       o.estimatesFailed,
		"renders_completed":      o.rendersCompleted,
		"renders_failed":         o.rendersFailed,
		"avg_processing_time_ms": float64(avgProcessingTime.Microseconds()) / 1000,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	wg        sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event concurrently. The
// context is detached from cancellation so observers outlive the request.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event TryOnEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	ctx = context.WithoutCancel(ctx)

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		p.wg.Add(1)
		go func(obs Observer) {
			defer p.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logger.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every notification delivered so far has been handled
func (p *EventPublisher) Wait() {
	p.wg.Wait()
}
