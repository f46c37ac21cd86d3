// Package geometry maps normalized pose landmarks onto a destination canvas.
package geometry

import "math"

// Point is a position in canvas pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Midpoint returns the point halfway between p and other.
func (p Point) Midpoint(other Point) Point {
	return Point{X: (p.X + other.X) / 2, Y: (p.Y + other.Y) / 2}
}

// MirrorX reflects the point across the vertical centre line of a canvas of the given width.
func (p Point) MirrorX(canvasWidth float64) Point {
	return Point{X: canvasWidth - p.X, Y: p.Y}
}

// Rect is an axis-aligned box in canvas pixel space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the centre of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Empty reports whether the rectangle has no drawable area.
func (r Rect) Empty() bool {
	return !(r.Width > 0 && r.Height > 0) || math.IsInf(r.Width, 0) || math.IsInf(r.Height, 0)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
