package overlay

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"

	"go-tryon/pkg/geometry"
)

// verticalGradient is an unbounded source image that fades from top to
// bottom between y0 and y1, in destination coordinates.
type verticalGradient struct {
	top, bottom color.NRGBA
	y0, y1      float64
}

func (g *verticalGradient) ColorModel() color.Model { return color.NRGBAModel }

func (g *verticalGradient) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (g *verticalGradient) At(_, y int) color.Color {
	t := 0.0
	if g.y1 > g.y0 {
		t = clampUnit((float64(y) + 0.5 - g.y0) / (g.y1 - g.y0))
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return color.NRGBA{
		R: lerp(g.top.R, g.bottom.R),
		G: lerp(g.top.G, g.bottom.G),
		B: lerp(g.top.B, g.bottom.B),
		A: lerp(g.top.A, g.bottom.A),
	}
}

// pathBuilder writes float64 canvas coordinates into a rasterizer whose
// origin is at offset in the destination image.
type pathBuilder struct {
	z      *vector.Rasterizer
	offset image.Point
}

func (b pathBuilder) pt(p geometry.Point) (float32, float32) {
	return float32(p.X - float64(b.offset.X)), float32(p.Y - float64(b.offset.Y))
}

func (b pathBuilder) moveTo(p geometry.Point) { b.z.MoveTo(b.pt(p)) }
func (b pathBuilder) lineTo(p geometry.Point) { b.z.LineTo(b.pt(p)) }

func (b pathBuilder) quadTo(c, p geometry.Point) {
	cx, cy := b.pt(c)
	px, py := b.pt(p)
	b.z.QuadTo(cx, cy, px, py)
}

func (b pathBuilder) close() { b.z.ClosePath() }

func pt(x, y float64) geometry.Point { return geometry.Point{X: x, Y: y} }

// shirtPath traces a shirt silhouette with a scooped neckline and sleeve
// notches on both sides. sw is the body shoulder width driving neck and sleeves.
func shirtPath(b pathBuilder, box geometry.Rect, sw float64) {
	x, y, w, h := box.X, box.Y, box.Width, box.Height
	cx := x + w/2
	neck := sw * 0.3
	sleeve := sw * 0.2
	armpit := y + h*0.35

	b.moveTo(pt(cx-neck/2, y))
	b.lineTo(pt(x, y+h*0.1))
	b.lineTo(pt(x-sleeve, armpit))
	b.quadTo(pt(x-sleeve*0.25, armpit-h*0.04), pt(x, armpit))
	b.lineTo(pt(x, y+h))
	b.lineTo(pt(x+w, y+h))
	b.lineTo(pt(x+w, armpit))
	b.quadTo(pt(x+w+sleeve*0.25, armpit-h*0.04), pt(x+w+sleeve, armpit))
	b.lineTo(pt(x+w, y+h*0.1))
	b.lineTo(pt(cx+neck/2, y))
	b.quadTo(neckControl(box), pt(cx-neck/2, y))
	b.close()
}

func neckControl(box geometry.Rect) geometry.Point {
	return pt(box.X+box.Width/2, box.Y+box.Height*0.08)
}

// collarCurve samples the neckline as a polyline.
func collarCurve(box geometry.Rect, sw float64, steps int) []geometry.Point {
	neck := sw * 0.3
	cx := box.X + box.Width/2
	p0 := pt(cx-neck/2, box.Y)
	p1 := neckControl(box)
	p2 := pt(cx+neck/2, box.Y)

	out := make([]geometry.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		u := 1 - t
		out = append(out, pt(
			u*u*p0.X+2*u*t*p1.X+t*t*p2.X,
			u*u*p0.Y+2*u*t*p1.Y+t*t*p2.Y,
		))
	}
	return out
}

// strokePath outlines a polyline of the given width as one closed polygon.
func strokePath(b pathBuilder, pts []geometry.Point, width float64) {
	if len(pts) < 2 {
		return
	}
	half := width / 2
	left := make([]geometry.Point, len(pts))
	right := make([]geometry.Point, len(pts))
	for i := range pts {
		a, c := pts[max(i-1, 0)], pts[min(i+1, len(pts)-1)]
		dx, dy := c.X-a.X, c.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			l = 1
		}
		nx, ny := -dy/l*half, dx/l*half
		left[i] = pt(pts[i].X+nx, pts[i].Y+ny)
		right[i] = pt(pts[i].X-nx, pts[i].Y-ny)
	}

	b.moveTo(left[0])
	for _, p := range left[1:] {
		b.lineTo(p)
	}
	for i := len(right) - 1; i >= 0; i-- {
		b.lineTo(right[i])
	}
	b.close()
}

// roundedRectPath traces a rounded rectangle. reverse flips the winding, so
// that an inner path drawn reversed cuts a hole in an outer one.
func roundedRectPath(b pathBuilder, r geometry.Rect, radius float64, reverse bool) {
	radius = math.Max(0, math.Min(radius, math.Min(r.Width, r.Height)/2))
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.Width, r.Y+r.Height

	b.moveTo(pt(x0+radius, y0))
	if !reverse {
		b.lineTo(pt(x1-radius, y0))
		b.quadTo(pt(x1, y0), pt(x1, y0+radius))
		b.lineTo(pt(x1, y1-radius))
		b.quadTo(pt(x1, y1), pt(x1-radius, y1))
		b.lineTo(pt(x0+radius, y1))
		b.quadTo(pt(x0, y1), pt(x0, y1-radius))
		b.lineTo(pt(x0, y0+radius))
		b.quadTo(pt(x0, y0), pt(x0+radius, y0))
	} else {
		b.quadTo(pt(x0, y0), pt(x0, y0+radius))
		b.lineTo(pt(x0, y1-radius))
		b.quadTo(pt(x0, y1), pt(x0+radius, y1))
		b.lineTo(pt(x1-radius, y1))
		b.quadTo(pt(x1, y1), pt(x1, y1-radius))
		b.lineTo(pt(x1, y0+radius))
		b.quadTo(pt(x1, y0), pt(x1-radius, y0))
	}
	b.close()
}
