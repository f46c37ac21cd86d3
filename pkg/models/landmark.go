package models

import "math"

// MinLandmarkCount is the number of landmarks a full-body pose set carries.
const MinLandmarkCount = 33

// Landmark is a single pose keypoint in normalized source-image coordinates.
type Landmark struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          *float64 `json:"z,omitempty"`
	Visibility *float64 `json:"visibility,omitempty"`
}

// Valid reports whether the landmark has finite coordinates.
func (l Landmark) Valid() bool {
	return !math.IsNaN(l.X) && !math.IsInf(l.X, 0) && !math.IsNaN(l.Y) && !math.IsInf(l.Y, 0)
}

// LandmarkSet is the ordered landmark list returned by the detector.
// A nil entry marks a landmark the detector did not report.
type LandmarkSet []*Landmark

// At returns the landmark at index i, or nil if it is absent.
func (s LandmarkSet) At(i int) *Landmark {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

// Complete reports whether the set has the full body landmark count.
func (s LandmarkSet) Complete() bool {
	return len(s) >= MinLandmarkCount
}
