package analyzer

const (
	// DefaultVisibilityConfidence is used when the detector reports no visibility scores.
	DefaultVisibilityConfidence = 0.55
	// MinCaptureConfidence is the lowest snapshot confidence a capture may have.
	MinCaptureConfidence = 0.4
)

// Calibration holds the empirical anthropometric ratios used by the extractor.
type Calibration struct {
	// Chest width as a fraction of shoulder width
	ChestFromShoulder float64
	// Waist width as a fraction of hip width
	WaistFromHip float64
	// Full body height as a multiple of torso height, used when ankles are unusable
	HeightFromTorso float64
	// Below this body-to-torso ratio the measured body height is treated as cropped
	MinBodyToTorso float64

	DefaultConfidence float64
	MinConfidence     float64

	// Decimal places kept on every output
	Precision int
}

// DefaultCalibration returns the ratios the size charts were tuned against.
func DefaultCalibration() Calibration {
	return Calibration{
		ChestFromShoulder: 0.93,
		WaistFromHip:      0.9,
		HeightFromTorso:   2.55,
		MinBodyToTorso:    1.6,
		DefaultConfidence: DefaultVisibilityConfidence,
		MinConfidence:     MinCaptureConfidence,
		Precision:         2,
	}
}

// WithChestFromShoulder sets the chest ratio
func (c Calibration) WithChestFromShoulder(ratio float64) Calibration {
	c.ChestFromShoulder = ratio
	return c
}

// WithWaistFromHip sets the waist ratio
func (c Calibration) WithWaistFromHip(ratio float64) Calibration {
	c.WaistFromHip = ratio
	return c
}

// WithHeightFromTorso sets the fallback height ratio
func (c Calibration) WithHeightFromTorso(ratio float64) Calibration {
	c.HeightFromTorso = ratio
	return c
}

// WithMinConfidence sets the capture acceptance threshold
func (c Calibration) WithMinConfidence(threshold float64) Calibration {
	c.MinConfidence = threshold
	return c
}
