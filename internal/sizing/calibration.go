package sizing

import "go-tryon/internal/analyzer"

// DepthRule converts a side-view width into a depth, bounded by fractions
// of the matching front width.
type DepthRule struct {
	Factor   float64
	MinRatio float64
	MaxRatio float64
}

// Calibration holds the empirical ratios used to turn pixel measurements
// into circumferences and a recommendation.
type Calibration struct {
	// Side shoulder span is foreshortened relative to the front view.
	ShoulderSideFactor float64

	ChestDepth DepthRule
	WaistDepth DepthRule
	HipDepth   DepthRule

	// Secondary measurement weights in the chart score
	TopWaistWeight  float64
	BottomHipWeight float64

	// Plausible human circumferences; values outside count as outliers
	ChestPlausible Range
	WaistPlausible Range
	HipPlausible   Range

	// Fallbacks for metrics missing from a request
	ChestFromShoulder float64
	WaistFromChest    float64
	HipFromWaist      float64
	HeightFromTorso   float64
	DefaultConfidence float64
	MinConfidence     float64
}

// DefaultCalibration returns the ratios the size charts were tuned against.
func DefaultCalibration() Calibration {
	return Calibration{
		ShoulderSideFactor: 1.18,
		ChestDepth:         DepthRule{Factor: 1.05, MinRatio: 0.42, MaxRatio: 0.86},
		WaistDepth:         DepthRule{Factor: 1.06, MinRatio: 0.45, MaxRatio: 0.92},
		HipDepth:           DepthRule{Factor: 1.08, MinRatio: 0.5, MaxRatio: 0.95},
		TopWaistWeight:     0.55,
		BottomHipWeight:    0.65,
		ChestPlausible:     Range{Min: 70, Max: 150},
		WaistPlausible:     Range{Min: 55, Max: 145},
		HipPlausible:       Range{Min: 70, Max: 165},
		ChestFromShoulder:  0.92,
		WaistFromChest:     0.9,
		HipFromWaist:       1.08,
		HeightFromTorso:    analyzer.DefaultCalibration().HeightFromTorso,
		DefaultConfidence:  analyzer.DefaultVisibilityConfidence,
		MinConfidence:      0.2,
	}
}

// WithShoulderSideFactor sets the side-view shoulder correction
func (c Calibration) WithShoulderSideFactor(factor float64) Calibration {
	c.ShoulderSideFactor = factor
	return c
}

// WithDepthRules replaces the chest, waist and hip depth rules
func (c Calibration) WithDepthRules(chest, waist, hip DepthRule) Calibration {
	c.ChestDepth = chest
	c.WaistDepth = waist
	c.HipDepth = hip
	return c
}

// WithScoreWeights sets the weight of the secondary measurement for tops and bottoms
func (c Calibration) WithScoreWeights(topWaist, bottomHip float64) Calibration {
	c.TopWaistWeight = topWaist
	c.BottomHipWeight = bottomHip
	return c
}
