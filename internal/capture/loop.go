package capture

import (
	"context"
	"image"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"

	"go-tryon/internal/analyzer"
	"go-tryon/internal/logger"
	"go-tryon/internal/overlay"
	"go-tryon/internal/pose"
	"go-tryon/pkg/geometry"
	"go-tryon/pkg/models"
)

// FrameGrabber supplies the current video frame and its stream timestamp.
type FrameGrabber interface {
	Frame() (image.Image, time.Duration, error)
}

// RenderSink receives each composed canvas.
type RenderSink interface {
	Present(canvas *image.RGBA)
}

// LoopConfig holds timing and presentation settings for a live loop.
type LoopConfig struct {
	DetectInterval time.Duration
	RenderInterval time.Duration
	Canvas         geometry.CanvasSize
	Mirror         bool
	// Detections older than this are not drawn. Zero means five detect intervals.
	StaleAfter time.Duration
}

// DefaultLoopConfig detects at 10 Hz and renders at about 60 Hz.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		DetectInterval: 100 * time.Millisecond,
		RenderInterval: 16 * time.Millisecond,
		Canvas:         geometry.CanvasSize{Width: 720, Height: 1280},
		Mirror:         true,
		StaleAfter:     500 * time.Millisecond,
	}
}

// Loop drives live try-on: detection on a fixed interval, rendering on a
// frame clock against whatever landmarks were detected last.
type Loop struct {
	cfg      LoopConfig
	grabber  FrameGrabber
	detector pose.Detector
	renderer *overlay.Renderer
	sink     RenderSink

	gate      *analyzer.DetectionGate
	detection Slot[Detection]
	observed  *Slot[Observation]
	garment   atomic.Pointer[overlay.Garment]
	canvas    atomic.Pointer[geometry.CanvasSize]

	frames atomic.Int64
	now    func() time.Time
}

// NewLoop creates a live loop. Observations are published to observed, which
// the capture pipeline reads for live captures.
func NewLoop(cfg LoopConfig, grabber FrameGrabber, detector pose.Detector, renderer *overlay.Renderer, sink RenderSink, observed *Slot[Observation]) *Loop {
	if observed == nil {
		observed = &Slot[Observation]{}
	}
	l := &Loop{
		cfg:      cfg,
		grabber:  grabber,
		detector: detector,
		renderer: renderer,
		sink:     sink,
		gate:     analyzer.NewDetectionGate(),
		observed: observed,
		now:      time.Now,
	}
	if l.cfg.StaleAfter <= 0 {
		l.cfg.StaleAfter = 5 * cfg.DetectInterval
	}
	size := cfg.Canvas
	l.canvas.Store(&size)
	return l
}

// SetGarment selects the garment to overlay; nil clears it.
func (l *Loop) SetGarment(g *overlay.Garment) { l.garment.Store(g) }

// Resize changes the destination canvas. The next frame resolves a new mapping.
func (l *Loop) Resize(size geometry.CanvasSize) { l.canvas.Store(&size) }

// Observed returns the slot live captures read from.
func (l *Loop) Observed() *Slot[Observation] { return l.observed }

// Stats returns detection gate counters and the number of frames rendered.
func (l *Loop) Stats() (analyzer.GateStats, int64) {
	return l.gate.GetStats(), l.frames.Load()
}

// Run blocks until ctx is cancelled. Both tickers are stopped and any
// in-flight detection has returned by the time Run returns.
func (l *Loop) Run(ctx context.Context) error {
	detectTicker := time.NewTicker(l.cfg.DetectInterval)
	defer detectTicker.Stop()
	renderTicker := time.NewTicker(l.cfg.RenderInterval)
	defer renderTicker.Stop()
	defer l.gate.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-detectTicker.C:
			l.gate.TrySubmit(func() { l.detect(ctx) })
		case <-renderTicker.C:
			l.render()
		}
	}
}

func (l *Loop) detect(ctx context.Context) {
	frame, ts, err := l.grabber.Frame()
	if err != nil || frame == nil {
		return
	}
	sets, err := l.detector.DetectVideo(ctx, frame, ts)
	if err != nil {
		if ctx.Err() == nil {
			logger.WithError(err).Debug("Live pose detection failed")
		}
		return
	}
	set, _ := pose.First(sets)
	l.detection.Store(&Detection{Landmarks: set, DetectedAt: l.now()})
}

// render composes one frame. Missing input, missing landmarks or a stale
// detection only suppress the overlay for this frame.
func (l *Loop) render() {
	frame, _, err := l.grabber.Frame()
	if err != nil || frame == nil {
		return
	}
	size := *l.canvas.Load()
	fb := frame.Bounds()
	mapping, err := geometry.ResolveCoverMapping(fb.Dx(), fb.Dy(), int(size.Width), int(size.Height))
	if err != nil {
		logger.WithError(err).Debug("Skipping frame")
		return
	}

	canvas := image.NewRGBA(image.Rect(0, 0, int(size.Width), int(size.Height)))
	crop := image.Rect(
		fb.Min.X+int(mapping.SX), fb.Min.Y+int(mapping.SY),
		fb.Min.X+int(mapping.SX+mapping.SWidth), fb.Min.Y+int(mapping.SY+mapping.SHeight),
	)
	xdraw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), frame, crop, xdraw.Src, nil)
	if l.cfg.Mirror {
		MirrorRGBA(canvas)
	}

	landmarks := l.latestLandmarks()
	if g := l.garment.Load(); g != nil && landmarks != nil {
		if kp, ok := overlay.KeypointsFromLandmarks(landmarks, mapping, size, l.cfg.Mirror); ok {
			if layout, drawn := l.renderer.Render(canvas, *g, kp); drawn {
				logger.WithFields(logrus.Fields{
					"garment_type": layout.Type,
					"fit_ratio":    layout.FitRatio,
				}).Trace("Overlay drawn")
			}
		}
	}

	l.observed.Store(&Observation{
		Canvas:    canvas,
		Landmarks: landmarks,
		Mapping:   mapping,
		Size:      size,
		At:        l.now(),
	})
	l.frames.Add(1)
	if l.sink != nil {
		l.sink.Present(canvas)
	}
}

// latestLandmarks returns the last detection unless it has gone stale, as
// happens when the detector keeps failing.
func (l *Loop) latestLandmarks() models.LandmarkSet {
	d := l.detection.Load()
	if d == nil || l.now().Sub(d.DetectedAt) > l.cfg.StaleAfter {
		return nil
	}
	return d.Landmarks
}

// MirrorRGBA flips img horizontally in place, matching a selfie preview.
func MirrorRGBA(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i, j := 0, len(row)-4; i < j; i, j = i+4, j-4 {
			for k := 0; k < 4; k++ {
				row[i+k], row[j+k] = row[j+k], row[i+k]
			}
		}
	}
}
