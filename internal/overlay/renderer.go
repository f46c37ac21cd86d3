// Package overlay places and draws a garment silhouette over a body.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"go-tryon/internal/logger"
	"go-tryon/pkg/geometry"
	"go-tryon/pkg/models"
)

// maxBoxSide bounds the overlay box in pixels; larger boxes come from
// degenerate landmarks and are skipped.
const maxBoxSide = 1 << 14

var (
	tightTint = color.NRGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
	looseTint = color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
)

// Options controls how overlays are drawn.
type Options struct {
	ImageOpacity    float64
	FallbackOpacity float64
	TintOpacity     float64
	// Darkening applied to the bottom of the fallback gradient and to strokes
	GradientShade int
	StrokeShade   int
	StrokeWidth   float64
	SizeScale     float64
	Proportions   Proportions
}

// DefaultOptions returns the standard overlay options.
func DefaultOptions() Options {
	return Options{
		ImageOpacity:    0.86,
		FallbackOpacity: 0.7,
		TintOpacity:     0.22,
		GradientShade:   -30,
		StrokeShade:     -50,
		StrokeWidth:     3,
		SizeScale:       1,
		Proportions:     DefaultProportions(),
	}
}

// WithSizeScale previews a garment wider or narrower than the fitted size
func (o Options) WithSizeScale(scale float64) Options {
	o.SizeScale = scale
	return o
}

// WithImageOpacity sets the opacity of garment images
func (o Options) WithImageOpacity(opacity float64) Options {
	o.ImageOpacity = opacity
	return o
}

// Garment is what the renderer needs to know about the selected item.
type Garment struct {
	Type  models.GarmentType
	Color string
	// Image is the decoded product image; nil selects the vector fallback.
	Image image.Image
}

// Renderer draws garment overlays.
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Render draws g over dst at the position given by kp and reports the layout
// used. It never panics: bad geometry or a failing image simply yields
// drawn=false and leaves the frame without an overlay.
func (r *Renderer) Render(dst xdraw.Image, g Garment, kp Keypoints) (layout Layout, drawn bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.WithField("panic", fmt.Sprint(rec)).Warn("Overlay rendering aborted")
			drawn = false
		}
	}()

	layout, ok := ComputeLayout(g.Type, kp, r.opts.Proportions, r.opts.SizeScale)
	if !ok || dst == nil || layout.Box.Width > maxBoxSide || layout.Box.Height > maxBoxSide {
		return layout, false
	}

	target := toRectangle(layout.Box)
	if target.Intersect(dst.Bounds()).Empty() {
		return layout, false
	}

	if g.Image != nil && !g.Image.Bounds().Empty() {
		r.drawImage(dst, g.Image, target)
	} else {
		r.drawFallback(dst, layout, ParseColor(g.Color), kp.shoulderWidth())
	}
	r.drawTint(dst, target, layout.Tint)
	return layout, true
}

func (r *Renderer) drawImage(dst xdraw.Image, src image.Image, target image.Rectangle) {
	visible := target.Intersect(dst.Bounds())
	scaled := image.NewRGBA(image.Rect(0, 0, visible.Dx(), visible.Dy()))
	xdraw.CatmullRom.Scale(scaled, target.Sub(visible.Min), src, src.Bounds(), xdraw.Over, nil)

	mask := image.NewUniform(color.Alpha{A: uint8(clampUnit(r.opts.ImageOpacity)*255 + 0.5)})
	xdraw.DrawMask(dst, visible, scaled, image.Point{}, mask, image.Point{}, xdraw.Over)
}

func (r *Renderer) drawFallback(dst xdraw.Image, layout Layout, base color.NRGBA, sw float64) {
	bounds := dst.Bounds()
	box := layout.Box
	alpha := r.opts.FallbackOpacity

	fill := &verticalGradient{
		top:    withAlpha(base, alpha),
		bottom: withAlpha(Shade(base, r.opts.GradientShade), alpha),
		y0:     box.Y,
		y1:     box.Y + box.Height,
	}
	stroke := image.NewUniform(withAlpha(Shade(base, r.opts.StrokeShade), alpha))

	if layout.Type == models.GarmentTop {
		z := newRasterizer(bounds)
		shirtPath(pathBuilder{z: z, offset: bounds.Min}, box, sw)
		z.Draw(dst, bounds, fill, bounds.Min)

		z = newRasterizer(bounds)
		strokePath(pathBuilder{z: z, offset: bounds.Min}, collarCurve(box, sw, 16), r.opts.StrokeWidth)
		z.Draw(dst, bounds, stroke, bounds.Min)
		return
	}

	radius := math.Min(box.Width, box.Height) * 0.12
	z := newRasterizer(bounds)
	roundedRectPath(pathBuilder{z: z, offset: bounds.Min}, box, radius, false)
	z.Draw(dst, bounds, fill, bounds.Min)

	inset := r.opts.StrokeWidth
	inner := geometry.Rect{X: box.X + inset, Y: box.Y + inset, Width: box.Width - 2*inset, Height: box.Height - 2*inset}
	z = newRasterizer(bounds)
	b := pathBuilder{z: z, offset: bounds.Min}
	roundedRectPath(b, box, radius, false)
	if !inner.Empty() {
		roundedRectPath(b, inner, math.Max(radius-inset, 0), true)
	}
	z.Draw(dst, bounds, stroke, bounds.Min)
}

func (r *Renderer) drawTint(dst xdraw.Image, target image.Rectangle, tint FitTint) {
	var c color.NRGBA
	switch tint {
	case TintTight:
		c = tightTint
	case TintLoose:
		c = looseTint
	default:
		return
	}
	xdraw.Draw(dst, target, image.NewUniform(withAlpha(c, r.opts.TintOpacity)), image.Point{}, xdraw.Over)
}

func newRasterizer(bounds image.Rectangle) *vector.Rasterizer {
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	z.DrawOp = xdraw.Over
	return z
}

func toRectangle(r geometry.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
	)
}
