package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// MetricsInput is a capture's measurements as received over HTTP. Fields are
// optional so that missing values can be told apart from zeros.
type MetricsInput struct {
	ShoulderWidthPx *float64 `json:"shoulderWidthPx"`
	ChestWidthPx    *float64 `json:"chestWidthPx"`
	WaistWidthPx    *float64 `json:"waistWidthPx"`
	HipWidthPx      *float64 `json:"hipWidthPx"`
	TorsoHeightPx   *float64 `json:"torsoHeightPx"`
	BodyHeightPx    *float64 `json:"bodyHeightPx"`
	FrameHeightPx   *float64 `json:"frameHeightPx"`
	Confidence      *float64 `json:"confidence"`
}

type CaptureInput struct {
	Metrics *MetricsInput `json:"metrics"`
}

// ProfileInput mirrors Profile with optional numeric fields.
type ProfileInput struct {
	HeightCm      *float64 `json:"heightCm"`
	WeightKg      *float64 `json:"weightKg"`
	FitPreference string   `json:"fitPreference" binding:"omitempty,fit_preference"`
	Gender        string   `json:"gender,omitempty"`
}

// SizeEstimationRequest is the body of POST /api/size-estimation/estimate.
type SizeEstimationRequest struct {
	Profile       ProfileInput  `json:"profile"`
	SelectedCloth *ClothHint    `json:"selectedCloth,omitempty"`
	Front         *CaptureInput `json:"front"`
	Side          *CaptureInput `json:"side"`
}

// SessionEstimateRequest is the body of a capture session estimate call.
type SessionEstimateRequest struct {
	Profile       ProfileInput `json:"profile"`
	SelectedCloth *ClothHint   `json:"selectedCloth,omitempty"`
}

// SessionResponse describes a capture session without image bytes.
type SessionResponse struct {
	ID       string                         `json:"id"`
	State    string                         `json:"state"`
	Captures map[CaptureView]CaptureSummary `json:"captures"`
	Estimate *SizeEstimateResult            `json:"estimate,omitempty"`
	Message  string                         `json:"message,omitempty"`
}

type CaptureSummary struct {
	CapturedAt string              `json:"capturedAt"`
	Source     CaptureSource       `json:"source"`
	Metrics    MeasurementSnapshot `json:"metrics"`
	ImageBytes int                 `json:"imageBytes"`
	Quality    *FrameQuality       `json:"quality,omitempty"`
	Hints      []string            `json:"hints,omitempty"`
}
