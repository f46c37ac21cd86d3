// Package sizing turns front and side captures plus a user profile into
// body measurements and a size recommendation.
package sizing

import (
	"sort"
	"strings"

	apperrors "go-tryon/internal/errors"
	"go-tryon/internal/garment"
	"go-tryon/pkg/geometry"
	"go-tryon/pkg/models"
	"go-tryon/pkg/validation"
)

const (
	incompleteCapturesMessage = "front and side capture metrics are incomplete"
	incompleteCapturesDetail  = "Capture both views with full body in frame before estimating size."

	disclaimerNote = "Heuristic estimate from 2D front and side captures, not a 3D body scan."
	defaultTipNote = "For best results wear form-fitting clothes, keep your full body in frame and hold the camera at torso height."
)

// Candidate is a chart size with its distance from the measured body.
type Candidate struct {
	Size  string
	Score float64
}

// Engine computes size estimates. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	cal        Calibration
	charts     Charts
	validator  *validation.CaptureValidator
	classifier *garment.Classifier
}

// NewEngine creates an engine. Nil validator or classifier fall back to defaults.
func NewEngine(cal Calibration, charts Charts, validator *validation.CaptureValidator, classifier *garment.Classifier) *Engine {
	if charts == nil {
		charts = DefaultCharts()
	}
	if validator == nil {
		validator = validation.NewCaptureValidator()
	}
	if classifier == nil {
		classifier = garment.NewClassifier(0)
	}
	return &Engine{
		cal:        cal,
		charts:     charts,
		validator:  validator,
		classifier: classifier,
	}
}

// NewDefaultEngine creates an engine with the built-in calibration and charts.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultCalibration(), DefaultCharts(), nil, nil)
}

// Estimate validates its inputs and returns a recommendation. It never
// returns a partial result: any failed precondition yields a validation error.
func (e *Engine) Estimate(profile models.Profile, front, side *models.MeasurementSnapshot, hint *models.ClothHint) (*models.SizeEstimateResult, error) {
	profile.FitPreference = models.FitPreference(strings.ToLower(strings.TrimSpace(string(profile.FitPreference))))
	if profile.FitPreference == "" {
		profile.FitPreference = models.FitRegular
	}

	if issue := validation.FirstCritical(e.validator.ValidateProfile(profile)); issue != nil {
		return nil, apperrors.NewValidationError(issue.Message, nil)
	}

	frontIssues := e.validator.ValidateCapture(models.ViewFront, front)
	sideIssues := e.validator.ValidateCapture(models.ViewSide, side)
	if front == nil || side == nil || !front.Valid() || !side.Valid() {
		return nil, apperrors.NewValidationErrorWithDetails(incompleteCapturesMessage, incompleteCapturesDetail)
	}
	captureIssues := append(frontIssues, sideIssues...)
	if issue := validation.FirstCritical(captureIssues); issue != nil {
		return nil, apperrors.NewValidationError(issue.Message, nil)
	}

	kind := e.GarmentKind(hint)
	gender := profile.Gender
	if hint != nil && hint.Gender != "" {
		gender = hint.Gender
	}
	chart := e.charts.Lookup(ChartGroupFor(gender), kind)
	if len(chart) == 0 {
		return nil, apperrors.NewInternalError("no size chart for "+string(kind), nil)
	}

	m := e.derive(profile.HeightCm, front, side)
	ranking := e.Rank(chart, kind, m.ChestCm, m.WaistCm, m.HipCm)

	base := chart.Index(ranking[0].Size)
	adjusted := int(clamp(float64(base+fitOffset(profile.FitPreference)), 0, float64(len(chart)-1)))
	secondary := []string{}
	for _, i := range []int{adjusted - 1, adjusted + 1} {
		if i >= 0 && i < len(chart) {
			secondary = append(secondary, chart[i].Size)
		}
	}

	outliers := e.outliers(m)
	captureConfidence := mean(front.Confidence, side.Confidence)

	return &models.SizeEstimateResult{
		Recommended: models.Recommendation{
			GarmentType: string(kind),
			Primary:     chart[adjusted].Size,
			Secondary:   secondary,
			Confidence:  ConfidenceTier(ranking[0].Score, captureConfidence, len(outliers)),
		},
		MeasurementsCm: models.MeasurementsCm{
			Shoulder:    geometry.Round(m.ShoulderCm, 1),
			Chest:       geometry.Round(m.ChestCm, 1),
			Waist:       geometry.Round(m.WaistCm, 1),
			Hip:         geometry.Round(m.HipCm, 1),
			TorsoDepth:  geometry.Round(m.TorsoDepthCm, 1),
			TorsoHeight: geometry.Round(m.TorsoHeightCm, 1),
		},
		Diagnostics: models.Diagnostics{
			TorsoVolumeLiters: geometry.Round(m.TorsoVolumeLiters, 2),
			ScaleCmPerPx:      geometry.Round(m.ScaleCmPerPx, 5),
			CaptureConfidence: geometry.Round(captureConfidence, 2),
			Outliers:          outliers,
		},
		Notes: e.notes(profile.FitPreference, captureIssues),
	}, nil
}

// Rank scores every chart row against the measurements, best first. Ties
// keep chart order.
func (e *Engine) Rank(chart Chart, kind GarmentKind, chestCm, waistCm, hipCm float64) []Candidate {
	ranking := make([]Candidate, 0, len(chart))
	for _, row := range chart {
		var score float64
		if kind == KindBottom {
			score = row.Waist.Deviation(waistCm) + e.cal.BottomHipWeight*row.Hip.Deviation(hipCm)
		} else {
			score = row.Chest.Deviation(chestCm) + e.cal.TopWaistWeight*row.Waist.Deviation(waistCm)
		}
		ranking = append(ranking, Candidate{Size: row.Size, Score: score})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score < ranking[j].Score
	})
	return ranking
}

// GarmentKind picks the bottom chart for pants, shorts and skirts and the
// top chart for everything else, including a missing hint.
func (e *Engine) GarmentKind(hint *models.ClothHint) GarmentKind {
	if hint == nil {
		return KindTop
	}
	switch e.classifier.Classify(models.GarmentDescriptor{
		Name:        hint.Name,
		Category:    hint.Category,
		Subcategory: hint.Subcategory,
	}) {
	case models.GarmentPants, models.GarmentShorts, models.GarmentSkirt:
		return KindBottom
	default:
		return KindTop
	}
}

// ChartGroupFor maps free-text gender to a chart group. Anything that is not
// recognizably women's wear uses the men's charts.
func ChartGroupFor(gender string) ChartGroup {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "female", "woman", "women", "womens", "women's":
		return GroupWomen
	default:
		return GroupMen
	}
}

// ConfidenceTier grades a recommendation from the best chart score, the mean
// capture confidence and the number of outlier measurements.
func ConfidenceTier(bestScore, captureConfidence float64, outliers int) models.ConfidenceTier {
	score := 0.4
	score += clamp(1-bestScore, 0, 0.42)
	score += clamp((captureConfidence-0.45)*0.6, 0, 0.2)
	score -= float64(outliers) * 0.08
	score = clamp(score, 0.15, 0.95)

	switch {
	case score >= 0.72:
		return models.ConfidenceHigh
	case score >= 0.5:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func fitOffset(fit models.FitPreference) int {
	switch fit {
	case models.FitSlim:
		return -1
	case models.FitRelaxed:
		return 1
	default:
		return 0
	}
}

func (e *Engine) notes(fit models.FitPreference, issues []validation.Issue) []string {
	notes := []string{disclaimerNote}

	tips := e.validator.ConvertIssuesToMessages(validation.Warnings(issues))
	if len(tips) == 0 {
		tips = []string{defaultTipNote}
	}
	notes = append(notes, tips...)

	switch fit {
	case models.FitSlim:
		notes = append(notes, "Slim fit preference applied: recommendation shifted one size smaller when possible.")
	case models.FitRelaxed:
		notes = append(notes, "Relaxed fit preference applied: recommendation shifted one size larger when possible.")
	default:
		notes = append(notes, "Regular fit preference applied.")
	}
	return notes
}
