package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"go-tryon/internal/analyzer"
	"go-tryon/internal/capture"
	apperrors "go-tryon/internal/errors"
	"go-tryon/internal/pose"
	"go-tryon/internal/repository"
	"go-tryon/pkg/models"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func standingPose(visibility float64) models.LandmarkSet {
	points := map[int][2]float64{
		pose.Nose:          {0.5, 0.1},
		pose.LeftShoulder:  {0.4, 0.3},
		pose.RightShoulder: {0.6, 0.3},
		pose.LeftHip:       {0.42, 0.6},
		pose.RightHip:      {0.58, 0.6},
		pose.LeftKnee:      {0.44, 0.78},
		pose.RightKnee:     {0.56, 0.78},
		pose.LeftAnkle:     {0.45, 0.95},
		pose.RightAnkle:    {0.55, 0.95},
	}
	set := make(models.LandmarkSet, pose.NumLandmarks)
	for i, p := range points {
		set[i] = &models.Landmark{X: p[0], Y: p[1], Visibility: floatPtr(visibility)}
	}
	return set
}

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}
	return buf.Bytes()
}

func newTestPipeline(det pose.Detector) *capture.Pipeline {
	return capture.NewPipeline(analyzer.NewMeasurementExtractor(analyzer.DefaultCalibration()), det, nil)
}

func newTestSessionService(det pose.Detector) (*captureSessionService, *repository.MemorySessionStore) {
	store := repository.NewMemorySessionStore(time.Hour)
	svc := NewCaptureSessionService(store, newTestPipeline(det), nil, nil).(*captureSessionService)
	svc.now = func() time.Time { return t0 }
	svc.newID = func() string { return "session-1" }
	return svc, store
}

func assertErrorType(t *testing.T, err error, want apperrors.ErrorType) {
	t.Helper()
	appErr, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("Expected %s error, got %v", want, err)
	}
	if appErr.Type != want {
		t.Errorf("Expected %s error, got %s (%v)", want, appErr.Type, err)
	}
}

func TestCaptureSession_FullFlow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&pose.StaticDetector{Sets: []models.LandmarkSet{standingPose(0.9)}})
	data := pngFixture(t, 200, 400)

	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("Expected session, got error %v", err)
	}
	if session.ID != "session-1" || session.State != capture.StateIdle {
		t.Errorf("Expected idle session-1, got %s %s", session.ID, session.State)
	}

	session, err = svc.UploadCapture(ctx, session.ID, models.ViewFront, data)
	if err != nil {
		t.Fatalf("Expected front capture, got error %v", err)
	}
	if session.State != capture.StateFrontCaptured {
		t.Errorf("Expected state %s, got %s", capture.StateFrontCaptured, session.State)
	}
	if got := session.Captures[models.ViewFront].Metrics.ShoulderWidthPx; got != 40 {
		t.Errorf("Expected front shoulder width 40, got %v", got)
	}

	session, err = svc.UploadCapture(ctx, session.ID, models.ViewSide, data)
	if err != nil {
		t.Fatalf("Expected side capture, got error %v", err)
	}
	if session.State != capture.StateBothCaptured {
		t.Errorf("Expected state %s, got %s", capture.StateBothCaptured, session.State)
	}

	session, err = svc.Estimate(ctx, session.ID, models.SessionEstimateRequest{
		Profile: models.ProfileInput{HeightCm: floatPtr(175), WeightKg: floatPtr(70)},
	})
	if err != nil {
		t.Fatalf("Expected estimate, got error %v", err)
	}
	if session.State != capture.StateEstimated || session.Estimate == nil {
		t.Fatalf("Expected estimated session with result, got %s", session.State)
	}
	if session.Estimate.Recommended.Primary == "" {
		t.Error("Expected a primary size")
	}

	stored, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("Expected stored session, got error %v", err)
	}
	if stored.State != capture.StateEstimated {
		t.Errorf("Expected stored state %s, got %s", capture.StateEstimated, stored.State)
	}

	// A new capture invalidates the estimate.
	session, err = svc.UploadCapture(ctx, session.ID, models.ViewFront, data)
	if err != nil {
		t.Fatalf("Expected recapture, got error %v", err)
	}
	if session.Estimate != nil || session.State != capture.StateBothCaptured {
		t.Errorf("Expected estimate to be dropped, got state %s estimate %v", session.State, session.Estimate)
	}
}

func TestCaptureSession_SideBeforeFront(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&pose.StaticDetector{Sets: []models.LandmarkSet{standingPose(0.9)}})
	session, _ := svc.CreateSession(ctx)

	_, err := svc.UploadCapture(ctx, session.ID, models.ViewSide, pngFixture(t, 100, 200))
	assertErrorType(t, err, apperrors.ErrorTypeValidation)

	stored, _ := svc.GetSession(ctx, session.ID)
	if stored.State != capture.StateIdle {
		t.Errorf("Expected session to stay idle, got %s", stored.State)
	}
}

func TestCaptureSession_RejectedFrameKeepsState(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&pose.StaticDetector{Sets: []models.LandmarkSet{standingPose(0.2)}})
	session, _ := svc.CreateSession(ctx)

	_, err := svc.UploadCapture(ctx, session.ID, models.ViewFront, pngFixture(t, 100, 200))
	assertErrorType(t, err, apperrors.ErrorTypeLowConfidence)

	_, err = svc.UploadCapture(ctx, session.ID, models.ViewFront, []byte("not an image"))
	assertErrorType(t, err, apperrors.ErrorTypeDecode)

	stored, _ := svc.GetSession(ctx, session.ID)
	if stored.State != capture.StateIdle {
		t.Errorf("Expected session to stay idle, got %s", stored.State)
	}
}

func TestCaptureSession_DetectorDropKeepsState(t *testing.T) {
	ctx := context.Background()
	det := &pose.StaticDetector{Err: apperrors.NewInputUnavailableError("pose detector connection lost", errors.New("eof"))}
	svc, _ := newTestSessionService(det)
	session, _ := svc.CreateSession(ctx)

	_, err := svc.UploadCapture(ctx, session.ID, models.ViewFront, pngFixture(t, 100, 200))
	assertErrorType(t, err, apperrors.ErrorTypeInputUnavailable)

	stored, _ := svc.GetSession(ctx, session.ID)
	if stored.State != capture.StateIdle {
		t.Fatalf("Expected session to stay idle, got %s", stored.State)
	}

	// Retrying once the detector is back needs no reset.
	det.Err = nil
	det.Sets = []models.LandmarkSet{standingPose(0.9)}
	if _, err := svc.UploadCapture(ctx, session.ID, models.ViewFront, pngFixture(t, 100, 200)); err != nil {
		t.Errorf("Expected retry to succeed, got %v", err)
	}
}

func TestCaptureSession_DetectorFailureMovesToError(t *testing.T) {
	ctx := context.Background()
	det := &pose.StaticDetector{Err: apperrors.NewProcessingError("invalid detector response", errors.New("unexpected end of JSON input"))}
	svc, _ := newTestSessionService(det)
	session, _ := svc.CreateSession(ctx)

	_, err := svc.UploadCapture(ctx, session.ID, models.ViewFront, pngFixture(t, 100, 200))
	assertErrorType(t, err, apperrors.ErrorTypeProcessing)

	stored, _ := svc.GetSession(ctx, session.ID)
	if stored.State != capture.StateError {
		t.Fatalf("Expected error state, got %s", stored.State)
	}
	if stored.LastError == "" {
		t.Error("Expected the failure to be recorded")
	}

	// The error state is left only through reset.
	det.Err = nil
	det.Sets = []models.LandmarkSet{standingPose(0.9)}
	_, err = svc.UploadCapture(ctx, session.ID, models.ViewFront, pngFixture(t, 100, 200))
	assertErrorType(t, err, apperrors.ErrorTypeValidation)

	reset, err := svc.ResetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("Expected reset, got error %v", err)
	}
	if reset.State != capture.StateIdle || len(reset.Captures) != 0 {
		t.Errorf("Expected empty idle session, got %s with %d captures", reset.State, len(reset.Captures))
	}
	if _, err := svc.UploadCapture(ctx, session.ID, models.ViewFront, pngFixture(t, 100, 200)); err != nil {
		t.Errorf("Expected capture after reset, got error %v", err)
	}
}

func TestCaptureSession_EstimateRequiresBothViews(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&pose.StaticDetector{Sets: []models.LandmarkSet{standingPose(0.9)}})
	session, _ := svc.CreateSession(ctx)
	if _, err := svc.UploadCapture(ctx, session.ID, models.ViewFront, pngFixture(t, 100, 200)); err != nil {
		t.Fatalf("Expected front capture, got error %v", err)
	}

	_, err := svc.Estimate(ctx, session.ID, models.SessionEstimateRequest{
		Profile: models.ProfileInput{HeightCm: floatPtr(175), WeightKg: floatPtr(70)},
	})
	assertErrorType(t, err, apperrors.ErrorTypeValidation)

	stored, _ := svc.GetSession(ctx, session.ID)
	if stored.State != capture.StateFrontCaptured {
		t.Errorf("Expected state %s, got %s", capture.StateFrontCaptured, stored.State)
	}
}

func TestCaptureSession_InvalidProfileKeepsCaptures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&pose.StaticDetector{Sets: []models.LandmarkSet{standingPose(0.9)}})
	session, _ := svc.CreateSession(ctx)
	data := pngFixture(t, 200, 400)
	svc.UploadCapture(ctx, session.ID, models.ViewFront, data)
	svc.UploadCapture(ctx, session.ID, models.ViewSide, data)

	_, err := svc.Estimate(ctx, session.ID, models.SessionEstimateRequest{
		Profile: models.ProfileInput{HeightCm: floatPtr(300), WeightKg: floatPtr(70)},
	})
	assertErrorType(t, err, apperrors.ErrorTypeValidation)

	stored, _ := svc.GetSession(ctx, session.ID)
	if stored.State != capture.StateBothCaptured {
		t.Errorf("Expected state %s, got %s", capture.StateBothCaptured, stored.State)
	}
}

func TestCaptureSession_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&pose.StaticDetector{})

	_, err := svc.GetSession(ctx, "missing")
	assertErrorType(t, err, apperrors.ErrorTypeNotFound)
	if !errors.Is(err, repository.ErrSessionNotFound) {
		t.Error("Expected the repository error to be wrapped")
	}

	_, err = svc.UploadCapture(ctx, "missing", models.ViewFront, pngFixture(t, 10, 10))
	assertErrorType(t, err, apperrors.ErrorTypeNotFound)

	_, err = svc.Estimate(ctx, "missing", models.SessionEstimateRequest{})
	assertErrorType(t, err, apperrors.ErrorTypeNotFound)

	_, err = svc.ResetSession(ctx, "missing")
	assertErrorType(t, err, apperrors.ErrorTypeNotFound)

	err = svc.DeleteSession(ctx, "missing")
	assertErrorType(t, err, apperrors.ErrorTypeNotFound)
}

func TestCaptureSession_Delete(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestSessionService(&pose.StaticDetector{})
	session, _ := svc.CreateSession(ctx)

	if err := svc.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("Expected delete, got error %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected empty store, got %d sessions", store.Len())
	}
}

func TestCaptureSession_LiveWithoutCamera(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(&pose.StaticDetector{})
	session, _ := svc.CreateSession(ctx)

	_, err := svc.CaptureLive(ctx, session.ID, models.ViewFront)
	assertErrorType(t, err, apperrors.ErrorTypeInputUnavailable)

	stored, _ := svc.GetSession(ctx, session.ID)
	if stored.State != capture.StateIdle {
		t.Errorf("Expected session to stay idle, got %s", stored.State)
	}
}

func TestCaptureSession_Events(t *testing.T) {
	ctx := context.Background()
	publisher, metrics := newMetricsPublisher()
	store := repository.NewMemorySessionStore(0)
	det := &pose.StaticDetector{Sets: []models.LandmarkSet{standingPose(0.9)}}
	svc := NewCaptureSessionService(store, newTestPipeline(det), nil, publisher)

	session, _ := svc.CreateSession(ctx)
	svc.UploadCapture(ctx, session.ID, models.ViewFront, pngFixture(t, 100, 200))
	svc.UploadCapture(ctx, session.ID, models.ViewFront, nil)

	publisher.Wait()
	m := metrics.GetMetrics()
	if m["captures_accepted"] != int64(1) || m["captures_rejected"] != int64(1) {
		t.Errorf("Expected 1 accepted and 1 rejected capture, got %v", m)
	}
}

func TestSessionView(t *testing.T) {
	session := capture.NewSession("s", t0)
	if err := session.Accept(models.CaptureRecord{
		CapturedAt: t0,
		Image:      []byte{1, 2, 3},
		Metrics:    models.MeasurementSnapshot{ShoulderWidthPx: 40},
		View:       models.ViewFront,
		Source:     models.SourceUpload,
		Quality:    &models.FrameQuality{Brightness: 20, Sharpness: 80, Dark: true},
	}); err != nil {
		t.Fatal(err)
	}

	view := SessionView(session)
	if view.ID != "s" || view.State != string(capture.StateFrontCaptured) {
		t.Errorf("Expected s/frontCaptured, got %s/%s", view.ID, view.State)
	}
	summary, ok := view.Captures[models.ViewFront]
	if !ok {
		t.Fatal("Expected a front capture summary")
	}
	if summary.ImageBytes != 3 || summary.CapturedAt != "2024-05-01T12:00:00Z" || summary.Source != models.SourceUpload {
		t.Errorf("Unexpected summary %+v", summary)
	}
	if len(summary.Hints) != 1 || summary.Hints[0] != "the frame is dark; add light in front of you" {
		t.Errorf("Expected one lighting hint, got %v", summary.Hints)
	}
}
