package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"go-tryon/internal/overlay"
	"go-tryon/internal/pose"
	"go-tryon/pkg/geometry"
	"go-tryon/pkg/models"
)

type stillGrabber struct {
	img image.Image
	err error
}

func (g *stillGrabber) Frame() (image.Image, time.Duration, error) {
	return g.img, 0, g.err
}

type countingSink struct {
	frames atomic.Int64
}

func (s *countingSink) Present(*image.RGBA) { s.frames.Add(1) }

func testLoopConfig() LoopConfig {
	return LoopConfig{
		DetectInterval: 5 * time.Millisecond,
		RenderInterval: 2 * time.Millisecond,
		Canvas:         geometry.CanvasSize{Width: 60, Height: 120},
		Mirror:         true,
	}
}

func solidFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0x20, 0x20, 0x20, 0xff
	}
	return img
}

func TestLoop_RendersAndDetects(t *testing.T) {
	det := &pose.StaticDetector{Sets: []models.LandmarkSet{standingPose(0.9)}}
	sink := &countingSink{}
	loop := NewLoop(testLoopConfig(), &stillGrabber{img: solidFrame(160, 120)}, det,
		overlay.NewRenderer(overlay.DefaultOptions()), sink, nil)
	loop.SetGarment(&overlay.Garment{Type: models.GarmentTop, Color: "red"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Expected clean stop, got %v", err)
	}

	if sink.frames.Load() == 0 {
		t.Fatal("Expected frames to be presented")
	}
	stats, frames := loop.Stats()
	if frames != sink.frames.Load() {
		t.Errorf("Expected %d rendered frames, got %d", sink.frames.Load(), frames)
	}
	if stats.TotalJobs == 0 {
		t.Error("Expected at least one detection")
	}
	if stats.Active {
		t.Error("Expected no detection in flight after Run returns")
	}

	obs := loop.Observed().Load()
	if obs == nil {
		t.Fatal("Expected an observation")
	}
	if obs.Canvas.Bounds() != image.Rect(0, 0, 60, 120) {
		t.Errorf("Expected canvas bounds 60x120, got %v", obs.Canvas.Bounds())
	}
	// 160x120 into 60x120 keeps a centered 60x120 crop.
	want := geometry.FrameMapping{SX: 50, SY: 0, SWidth: 60, SHeight: 120, SourceWidth: 160, SourceHeight: 120}
	if obs.Mapping != want {
		t.Errorf("Expected mapping %+v, got %+v", want, obs.Mapping)
	}
}

func TestLoop_NoFrames(t *testing.T) {
	sink := &countingSink{}
	loop := NewLoop(testLoopConfig(), &stillGrabber{err: errors.New("camera busy")}, &pose.StaticDetector{},
		overlay.NewRenderer(overlay.DefaultOptions()), sink, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = loop.Run(ctx)

	if sink.frames.Load() != 0 {
		t.Errorf("Expected no frames, got %d", sink.frames.Load())
	}
	if loop.Observed().Load() != nil {
		t.Error("Expected no observation without camera input")
	}
}

func TestLoop_StaleDetectionHidesOverlay(t *testing.T) {
	loop := NewLoop(testLoopConfig(), &stillGrabber{img: solidFrame(160, 120)}, &pose.StaticDetector{},
		overlay.NewRenderer(overlay.DefaultOptions()), nil, nil)
	loop.SetGarment(&overlay.Garment{Type: models.GarmentTop, Color: "red"})

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	loop.now = func() time.Time { return now }
	loop.detection.Store(&Detection{Landmarks: standingPose(0.9), DetectedAt: now})

	loop.render()
	if obs := loop.Observed().Load(); obs == nil || obs.Landmarks == nil {
		t.Fatal("Expected a fresh detection to be drawn")
	}

	// Five 5ms detect intervals without a new detection.
	now = now.Add(30 * time.Millisecond)
	loop.render()
	if obs := loop.Observed().Load(); obs.Landmarks != nil {
		t.Error("Expected a stale detection to be dropped")
	}
}

type blockingDetector struct {
	pose.StaticDetector
	started chan struct{}
}

func (d *blockingDetector) DetectVideo(ctx context.Context, _ image.Image, _ time.Duration) ([]models.LandmarkSet, error) {
	select {
	case d.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestLoop_StopsDuringDetection(t *testing.T) {
	det := &blockingDetector{started: make(chan struct{}, 1)}
	loop := NewLoop(testLoopConfig(), &stillGrabber{img: solidFrame(160, 120)}, det,
		overlay.NewRenderer(overlay.DefaultOptions()), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	<-det.started
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected Run to return once the in-flight detection is cancelled")
	}
}

func TestMirrorRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.RGBA{R: 1, A: 255})
	img.Set(1, 0, color.RGBA{R: 2, A: 255})
	img.Set(2, 0, color.RGBA{R: 3, A: 255})

	MirrorRGBA(img)

	for x, want := range []uint8{3, 2, 1} {
		if got := img.RGBAAt(x, 0).R; got != want {
			t.Errorf("Pixel %d: expected %d, got %d", x, want, got)
		}
	}
}
