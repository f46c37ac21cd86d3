package sizing

import (
	"math"
	"reflect"
	"testing"

	"go-tryon/internal/analyzer"
	apperrors "go-tryon/internal/errors"
	"go-tryon/internal/pose"
	"go-tryon/pkg/geometry"
	"go-tryon/pkg/models"
)

func floatPtr(v float64) *float64 { return &v }

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

// craftSnapshots returns front and side metrics that produce the given
// circumferences at 175 cm. Every side depth is 0.7 of the front width,
// which sits inside all depth clamps.
func craftSnapshots(chestCm, waistCm, hipCm float64) (*models.MeasurementSnapshot, *models.MeasurementSnapshot) {
	const (
		bodyPx = 875.0
		scale  = 175 / bodyPx
		ratio  = 0.7
	)
	cal := DefaultCalibration()
	unit := EllipsePerimeter(1, ratio)
	chestW, waistW, hipW := chestCm/unit, waistCm/unit, hipCm/unit

	front := &models.MeasurementSnapshot{
		ShoulderWidthPx: 220,
		ChestWidthPx:    chestW / scale,
		WaistWidthPx:    waistW / scale,
		HipWidthPx:      hipW / scale,
		TorsoHeightPx:   300,
		BodyHeightPx:    bodyPx,
		FrameHeightPx:   1000,
		Confidence:      0.9,
	}
	side := &models.MeasurementSnapshot{
		ShoulderWidthPx: 90,
		ChestWidthPx:    ratio * chestW / (scale * cal.ChestDepth.Factor),
		WaistWidthPx:    ratio * waistW / (scale * cal.WaistDepth.Factor),
		HipWidthPx:      ratio * hipW / (scale * cal.HipDepth.Factor),
		TorsoHeightPx:   300,
		BodyHeightPx:    bodyPx,
		FrameHeightPx:   1000,
		Confidence:      0.9,
	}
	return front, side
}

func TestEllipsePerimeter_Circle(t *testing.T) {
	for _, r := range []float64{0.5, 5, 17.3, 40} {
		got := EllipsePerimeter(2*r, 2*r)
		if !approx(got, 2*math.Pi*r, 1e-9) {
			t.Errorf("Expected circumference %f for radius %f, got %f", 2*math.Pi*r, r, got)
		}
	}
}

func TestEllipsePerimeter_FloorsAxes(t *testing.T) {
	if got, want := EllipsePerimeter(0, 0), 2*math.Pi*0.1; !approx(got, want, 1e-9) {
		t.Errorf("Expected %f for degenerate ellipse, got %f", want, got)
	}
}

func TestRangeDeviation(t *testing.T) {
	r := Range{Min: 96, Max: 102}
	tests := []struct {
		v    float64
		want float64
	}{
		{99, 0},
		{96, 0},
		{102, 0},
		{93, 0.5},
		{108, 1},
	}
	for _, tt := range tests {
		if got := r.Deviation(tt.v); !approx(got, tt.want, 1e-12) {
			t.Errorf("Deviation(%v): expected %v, got %v", tt.v, tt.want, got)
		}
	}

	// Degenerate ranges use a width of one.
	if got := (Range{Min: 10, Max: 10}).Deviation(12); got != 2 {
		t.Errorf("Expected deviation 2 for zero-width range, got %v", got)
	}
}

func TestEstimate_FitPreference(t *testing.T) {
	engine := NewDefaultEngine()

	tests := []struct {
		name          string
		chest, waist  float64
		fit           models.FitPreference
		wantPrimary   string
		wantSecondary []string
	}{
		{"regular at M", 99, 85, models.FitRegular, "M", []string{"S", "L"}},
		{"slim at M", 99, 85, models.FitSlim, "S", []string{"XS", "M"}},
		{"relaxed at M", 99, 85, models.FitRelaxed, "L", []string{"M", "XL"}},
		{"default is regular", 99, 85, "", "M", []string{"S", "L"}},
		{"slim at floor", 87, 73, models.FitSlim, "XS", []string{"S"}},
		{"relaxed at ceiling", 122, 108, models.FitRelaxed, "XXL", []string{"XL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			front, side := craftSnapshots(tt.chest, tt.waist, 100)
			profile := models.Profile{HeightCm: 175, WeightKg: 75, FitPreference: tt.fit}

			result, err := engine.Estimate(profile, front, side, nil)
			if err != nil {
				t.Fatalf("Expected estimate, got error %v", err)
			}
			if result.Recommended.Primary != tt.wantPrimary {
				t.Errorf("Expected primary %s, got %s", tt.wantPrimary, result.Recommended.Primary)
			}
			if !reflect.DeepEqual(result.Recommended.Secondary, tt.wantSecondary) {
				t.Errorf("Expected secondary %v, got %v", tt.wantSecondary, result.Recommended.Secondary)
			}
			if result.Recommended.GarmentType != "top" {
				t.Errorf("Expected garment type top, got %s", result.Recommended.GarmentType)
			}
			if !approx(result.MeasurementsCm.Chest, tt.chest, 0.05) {
				t.Errorf("Expected chest %.1f, got %.1f", tt.chest, result.MeasurementsCm.Chest)
			}
		})
	}
}

func TestEstimate_BottomChartForWomen(t *testing.T) {
	front, side := craftSnapshots(90, 73, 99)
	hint := &models.ClothHint{Category: "Bottoms", Name: "High-rise jeans", Gender: "Women"}

	result, err := NewDefaultEngine().Estimate(models.Profile{HeightCm: 175, WeightKg: 60}, front, side, hint)
	if err != nil {
		t.Fatalf("Expected estimate, got error %v", err)
	}
	if result.Recommended.GarmentType != "bottom" {
		t.Errorf("Expected garment type bottom, got %s", result.Recommended.GarmentType)
	}
	if result.Recommended.Primary != "M" {
		t.Errorf("Expected primary M, got %s", result.Recommended.Primary)
	}
}

func TestEstimate_Rejections(t *testing.T) {
	engine := NewDefaultEngine()
	front, side := craftSnapshots(99, 85, 100)
	lowSide := *side
	lowSide.Confidence = 0.39
	partial := *front
	partial.BodyHeightPx = 0

	tests := []struct {
		name    string
		profile models.Profile
		front   *models.MeasurementSnapshot
		side    *models.MeasurementSnapshot
		message string
	}{
		{"height 110", models.Profile{HeightCm: 110, WeightKg: 70}, front, side, "profile.heightCm must be between 120 and 230"},
		{"height 235", models.Profile{HeightCm: 235, WeightKg: 70}, front, side, "profile.heightCm must be between 120 and 230"},
		{"weight 20", models.Profile{HeightCm: 175, WeightKg: 20}, front, side, "profile.weightKg must be between 30 and 250"},
		{"unknown fit", models.Profile{HeightCm: 175, WeightKg: 70, FitPreference: "oversized"}, front, side, "profile.fitPreference must be slim, regular or relaxed"},
		{"missing side", models.Profile{HeightCm: 175, WeightKg: 70}, front, nil, incompleteCapturesMessage},
		{"partial front", models.Profile{HeightCm: 175, WeightKg: 70}, &partial, side, incompleteCapturesMessage},
		{"confidence 0.39", models.Profile{HeightCm: 175, WeightKg: 70}, front, &lowSide, "side capture confidence 0.39 is below 0.40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Estimate(tt.profile, tt.front, tt.side, nil)
			if result != nil {
				t.Errorf("Expected no result, got %+v", result)
			}
			appErr, ok := apperrors.As(err)
			if !ok {
				t.Fatalf("Expected AppError, got %v", err)
			}
			if appErr.Type != apperrors.ErrorTypeValidation || appErr.StatusCode != 400 {
				t.Errorf("Expected 400 validation error, got %s/%d", appErr.Type, appErr.StatusCode)
			}
			if appErr.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, appErr.Message)
			}
		})
	}
}

func TestEstimate_IncompleteDetail(t *testing.T) {
	_, err := NewDefaultEngine().Estimate(models.Profile{HeightCm: 175, WeightKg: 70}, nil, nil, nil)
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Details != incompleteCapturesDetail {
		t.Errorf("Expected capture hint in details, got %v", err)
	}
}

// TestEstimate_EndToEnd runs two synthetic poses through the extractor and
// the engine. Expected values are the regression fixture for the pipeline.
func TestEstimate_EndToEnd(t *testing.T) {
	mapping, canvas := geometry.IdentityMapping(1000, 1000)
	extractor := analyzer.NewMeasurementExtractor(analyzer.DefaultCalibration())

	buildPose := func(shoulderHalf, hipHalf, visibility float64) models.LandmarkSet {
		set := make(models.LandmarkSet, pose.NumLandmarks)
		put := func(i int, x, y float64) {
			set[i] = &models.Landmark{X: x, Y: y, Visibility: floatPtr(visibility)}
		}
		put(pose.Nose, 0.5, 0.1)
		put(pose.LeftShoulder, 0.5-shoulderHalf, 0.3)
		put(pose.RightShoulder, 0.5+shoulderHalf, 0.3)
		put(pose.LeftHip, 0.5-hipHalf, 0.6)
		put(pose.RightHip, 0.5+hipHalf, 0.6)
		put(pose.LeftAnkle, 0.45, 0.95)
		put(pose.RightAnkle, 0.55, 0.95)
		return set
	}

	front, ok := extractor.Extract(buildPose(0.1, 0.08, 0.9), mapping, canvas)
	if !ok {
		t.Fatal("Expected front measurements")
	}
	side, ok := extractor.Extract(buildPose(0.04, 0.05, 0.7), mapping, canvas)
	if !ok {
		t.Fatal("Expected side measurements")
	}

	result, err := NewDefaultEngine().Estimate(models.Profile{HeightCm: 170, WeightKg: 62}, front, side, nil)
	if err != nil {
		t.Fatalf("Expected estimate, got error %v", err)
	}

	wantCm := models.MeasurementsCm{
		Shoulder:    29.4,
		Chest:       86.5,
		Waist:       76.0,
		Hip:         85.0,
		TorsoDepth:  15.6,
		TorsoHeight: 60.0,
	}
	if result.MeasurementsCm != wantCm {
		t.Errorf("Expected measurements %+v, got %+v", wantCm, result.MeasurementsCm)
	}

	if result.Diagnostics.ScaleCmPerPx != 0.2 {
		t.Errorf("Expected scale 0.2, got %v", result.Diagnostics.ScaleCmPerPx)
	}
	if result.Diagnostics.TorsoVolumeLiters != 27.39 {
		t.Errorf("Expected torso volume 27.39, got %v", result.Diagnostics.TorsoVolumeLiters)
	}
	if result.Diagnostics.CaptureConfidence != 0.8 {
		t.Errorf("Expected capture confidence 0.8, got %v", result.Diagnostics.CaptureConfidence)
	}
	if len(result.Diagnostics.Outliers) != 0 {
		t.Errorf("Expected no outliers, got %v", result.Diagnostics.Outliers)
	}

	wantRec := models.Recommendation{
		GarmentType: "top",
		Primary:     "XS",
		Secondary:   []string{"S"},
		Confidence:  models.ConfidenceHigh,
	}
	if !reflect.DeepEqual(result.Recommended, wantRec) {
		t.Errorf("Expected recommendation %+v, got %+v", wantRec, result.Recommended)
	}

	wantNotes := []string{disclaimerNote, defaultTipNote, "Regular fit preference applied."}
	if !reflect.DeepEqual(result.Notes, wantNotes) {
		t.Errorf("Expected notes %v, got %v", wantNotes, result.Notes)
	}
}

func TestEstimate_Outliers(t *testing.T) {
	front, side := craftSnapshots(160, 150, 100)
	result, err := NewDefaultEngine().Estimate(models.Profile{HeightCm: 175, WeightKg: 120}, front, side, nil)
	if err != nil {
		t.Fatalf("Expected estimate, got error %v", err)
	}
	if !reflect.DeepEqual(result.Diagnostics.Outliers, []string{"chest", "waist"}) {
		t.Errorf("Expected chest and waist outliers, got %v", result.Diagnostics.Outliers)
	}
	if result.Recommended.Confidence != models.ConfidenceLow {
		t.Errorf("Expected low confidence, got %s", result.Recommended.Confidence)
	}
}

func TestEstimate_CaptureTips(t *testing.T) {
	front, side := craftSnapshots(99, 85, 100)
	front.Confidence = 0.5

	result, err := NewDefaultEngine().Estimate(models.Profile{HeightCm: 175, WeightKg: 75, FitPreference: "SLIM"}, front, side, nil)
	if err != nil {
		t.Fatalf("Expected estimate, got error %v", err)
	}
	if len(result.Notes) != 3 {
		t.Fatalf("Expected 3 notes, got %v", result.Notes)
	}
	if result.Notes[1] == defaultTipNote {
		t.Error("Expected a capture quality tip instead of the default note")
	}
	if result.Recommended.Primary != "S" {
		t.Errorf("Expected case-insensitive slim preference to give S, got %s", result.Recommended.Primary)
	}
}

func TestConfidenceTier(t *testing.T) {
	tests := []struct {
		best, capture float64
		outliers      int
		want          models.ConfidenceTier
	}{
		{0, 0.9, 0, models.ConfidenceHigh},
		{0.8, 0.45, 0, models.ConfidenceMedium},
		{1.5, 0.45, 0, models.ConfidenceLow},
		{0, 0.9, 3, models.ConfidenceHigh},
		{0.7, 0.45, 1, models.ConfidenceMedium},
		{2, 0.2, 3, models.ConfidenceLow},
	}
	for _, tt := range tests {
		if got := ConfidenceTier(tt.best, tt.capture, tt.outliers); got != tt.want {
			t.Errorf("ConfidenceTier(%v, %v, %d): expected %s, got %s", tt.best, tt.capture, tt.outliers, tt.want, got)
		}
	}
}

func TestChartGroupFor(t *testing.T) {
	tests := map[string]ChartGroup{
		"Women":   GroupWomen,
		" female": GroupWomen,
		"womens":  GroupWomen,
		"men":     GroupMen,
		"Male":    GroupMen,
		"unisex":  GroupMen,
		"":        GroupMen,
	}
	for in, want := range tests {
		if got := ChartGroupFor(in); got != want {
			t.Errorf("ChartGroupFor(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestGarmentKind(t *testing.T) {
	engine := NewDefaultEngine()
	tests := []struct {
		hint *models.ClothHint
		want GarmentKind
	}{
		{nil, KindTop},
		{&models.ClothHint{Category: "Topwear", Name: "Short sleeve shirt"}, KindTop},
		{&models.ClothHint{Category: "Bottomwear", Subcategory: "Trousers"}, KindBottom},
		{&models.ClothHint{Name: "Denim shorts"}, KindBottom},
		{&models.ClothHint{Name: "Pleated skirt"}, KindBottom},
		{&models.ClothHint{Name: "Summer dress"}, KindTop},
	}
	for _, tt := range tests {
		if got := engine.GarmentKind(tt.hint); got != tt.want {
			t.Errorf("GarmentKind(%+v): expected %s, got %s", tt.hint, tt.want, got)
		}
	}
}

func TestParseMetrics(t *testing.T) {
	engine := NewDefaultEngine()

	if engine.ParseMetrics(nil) != nil {
		t.Error("Expected nil snapshot for missing capture")
	}

	got := engine.ParseMetrics(&models.CaptureInput{Metrics: &models.MetricsInput{
		ShoulderWidthPx: floatPtr(100),
		TorsoHeightPx:   floatPtr(200),
		HipWidthPx:      floatPtr(-5),
	}})

	checks := []struct {
		name      string
		got, want float64
	}{
		{"chest", got.ChestWidthPx, 92},
		{"waist", got.WaistWidthPx, 82.8},
		{"hip", got.HipWidthPx, 89.424},
		{"body", got.BodyHeightPx, 510},
		{"confidence", got.Confidence, 0.55},
	}
	for _, c := range checks {
		if !approx(c.got, c.want, 1e-9) {
			t.Errorf("Expected %s %v, got %v", c.name, c.want, c.got)
		}
	}

	low := engine.ParseMetrics(&models.CaptureInput{Metrics: &models.MetricsInput{Confidence: floatPtr(0.1)}})
	if low.Confidence != 0.2 {
		t.Errorf("Expected confidence clamped to 0.2, got %v", low.Confidence)
	}
	if low.Valid() {
		t.Error("Expected empty metrics to be invalid")
	}
}
