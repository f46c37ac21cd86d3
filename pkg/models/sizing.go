package models

// FitPreference shifts the recommended size along the chart.
type FitPreference string

const (
	FitSlim    FitPreference = "slim"
	FitRegular FitPreference = "regular"
	FitRelaxed FitPreference = "relaxed"
)

// Profile is the user input that accompanies two captures.
type Profile struct {
	HeightCm      float64       `json:"heightCm"`
	WeightKg      float64       `json:"weightKg"`
	FitPreference FitPreference `json:"fitPreference"`
	Gender        string        `json:"gender,omitempty"`
}

// ClothHint carries the garment fields used to pick a size chart.
type ClothHint struct {
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Name        string `json:"name,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

// ConfidenceTier is the coarse confidence label attached to a recommendation.
type ConfidenceTier string

const (
	ConfidenceLow    ConfidenceTier = "low"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceHigh   ConfidenceTier = "high"
)

type Recommendation struct {
	GarmentType string         `json:"garmentType"`
	Primary     string         `json:"primary"`
	Secondary   []string       `json:"secondary"`
	Confidence  ConfidenceTier `json:"confidence"`
}

type MeasurementsCm struct {
	Shoulder    float64 `json:"shoulder"`
	Chest       float64 `json:"chest"`
	Waist       float64 `json:"waist"`
	Hip         float64 `json:"hip"`
	TorsoDepth  float64 `json:"torsoDepth"`
	TorsoHeight float64 `json:"torsoHeight"`
}

type Diagnostics struct {
	TorsoVolumeLiters float64  `json:"torsoVolumeLiters"`
	ScaleCmPerPx      float64  `json:"scaleCmPerPx"`
	CaptureConfidence float64  `json:"captureConfidence"`
	Outliers          []string `json:"outliers,omitempty"`
}

// SizeEstimateResult is the outcome of a size estimation.
type SizeEstimateResult struct {
	Recommended    Recommendation `json:"recommended"`
	MeasurementsCm MeasurementsCm `json:"measurementsCm"`
	Diagnostics    Diagnostics    `json:"diagnostics"`
	Notes          []string       `json:"notes"`
}
