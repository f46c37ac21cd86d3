package capture

import (
	"image"
	"sync/atomic"
	"time"

	"go-tryon/pkg/geometry"
	"go-tryon/pkg/models"
)

// Slot holds the most recent value of T. Writers replace the value in a
// single atomic store, so readers never see a partial update and never block.
type Slot[T any] struct {
	p atomic.Pointer[T]
}

// Store replaces the current value.
func (s *Slot[T]) Store(v *T) { s.p.Store(v) }

// Load returns the current value, or nil if nothing was stored yet.
func (s *Slot[T]) Load() *T { return s.p.Load() }

// Detection is one detector result.
type Detection struct {
	Landmarks  models.LandmarkSet
	DetectedAt time.Time
}

// Observation is what the render loop last put on screen: the composed
// canvas together with the landmarks and mapping it was drawn from.
type Observation struct {
	Canvas    image.Image
	Landmarks models.LandmarkSet
	Mapping   geometry.FrameMapping
	Size      geometry.CanvasSize
	At        time.Time
}
