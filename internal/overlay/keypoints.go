package overlay

import (
	"math"

	"go-tryon/internal/pose"
	"go-tryon/pkg/geometry"
	"go-tryon/pkg/models"
)

// Keypoints are the canvas-space body points the overlay is anchored to.
// Shoulders and hips are required; knees and ankles are optional.
type Keypoints struct {
	LeftShoulder  geometry.Point
	RightShoulder geometry.Point
	LeftHip       geometry.Point
	RightHip      geometry.Point
	LeftKnee      *geometry.Point
	RightKnee     *geometry.Point
	LeftAnkle     *geometry.Point
	RightAnkle    *geometry.Point
}

// KeypointsFromLandmarks maps the overlay landmarks onto the canvas. With
// mirror set, x is reflected to match a horizontally flipped video.
func KeypointsFromLandmarks(set models.LandmarkSet, m geometry.FrameMapping, canvas geometry.CanvasSize, mirror bool) (Keypoints, bool) {
	get := func(i int) (geometry.Point, bool) {
		p, ok := geometry.MapIndex(set, i, m, canvas)
		if ok && mirror {
			p = p.MirrorX(canvas.Width)
		}
		return p, ok
	}
	opt := func(i int) *geometry.Point {
		if p, ok := get(i); ok {
			return &p
		}
		return nil
	}

	var kp Keypoints
	var ok1, ok2, ok3, ok4 bool
	kp.LeftShoulder, ok1 = get(pose.LeftShoulder)
	kp.RightShoulder, ok2 = get(pose.RightShoulder)
	kp.LeftHip, ok3 = get(pose.LeftHip)
	kp.RightHip, ok4 = get(pose.RightHip)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Keypoints{}, false
	}
	kp.LeftKnee = opt(pose.LeftKnee)
	kp.RightKnee = opt(pose.RightKnee)
	kp.LeftAnkle = opt(pose.LeftAnkle)
	kp.RightAnkle = opt(pose.RightAnkle)
	return kp, true
}

func (k Keypoints) shoulderCenter() geometry.Point { return k.LeftShoulder.Midpoint(k.RightShoulder) }
func (k Keypoints) hipCenter() geometry.Point      { return k.LeftHip.Midpoint(k.RightHip) }
func (k Keypoints) shoulderWidth() float64         { return math.Abs(k.LeftShoulder.X - k.RightShoulder.X) }
func (k Keypoints) hipWidth() float64              { return math.Abs(k.LeftHip.X - k.RightHip.X) }
func (k Keypoints) torsoHeight() float64           { return math.Abs(k.hipCenter().Y - k.shoulderCenter().Y) }

// lowerY returns the mean y of whichever of the two points are present.
func lowerY(a, b *geometry.Point) (float64, bool) {
	switch {
	case a != nil && b != nil:
		return (a.Y + b.Y) / 2, true
	case a != nil:
		return a.Y, true
	case b != nil:
		return b.Y, true
	}
	return 0, false
}
