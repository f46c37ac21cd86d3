package overlay

import (
	"image/color"
	"strconv"
	"strings"
)

// defaultGarmentColor is used when a catalog color cannot be parsed.
var defaultGarmentColor = color.NRGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}

var namedColors = map[string]color.NRGBA{
	"black":  {R: 0x1f, G: 0x1f, B: 0x1f, A: 0xff},
	"white":  {R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff},
	"grey":   {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"gray":   {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"red":    {R: 0xc6, G: 0x28, B: 0x28, A: 0xff},
	"maroon": {R: 0x80, G: 0x00, B: 0x00, A: 0xff},
	"pink":   {R: 0xf4, G: 0x8f, B: 0xb1, A: 0xff},
	"orange": {R: 0xf5, G: 0x7c, B: 0x00, A: 0xff},
	"yellow": {R: 0xfb, G: 0xc0, B: 0x2d, A: 0xff},
	"green":  {R: 0x2e, G: 0x7d, B: 0x32, A: 0xff},
	"olive":  {R: 0x80, G: 0x80, B: 0x00, A: 0xff},
	"blue":   {R: 0x15, G: 0x65, B: 0xc0, A: 0xff},
	"navy":   {R: 0x1a, G: 0x23, B: 0x7e, A: 0xff},
	"purple": {R: 0x6a, G: 0x1b, B: 0x9a, A: 0xff},
	"brown":  {R: 0x6d, G: 0x4c, B: 0x41, A: 0xff},
	"beige":  {R: 0xd7, G: 0xc4, B: 0xa3, A: 0xff},
}

// ParseColor reads "#rgb", "#rrggbb" or a basic color name. The last word of a
// multi-word name wins, so "Navy Blue" is blue.
func ParseColor(s string) color.NRGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "#") {
		if c, ok := parseHex(s[1:]); ok {
			return c
		}
		return defaultGarmentColor
	}
	words := strings.Fields(s)
	for i := len(words) - 1; i >= 0; i-- {
		if c, ok := namedColors[words[i]]; ok {
			return c
		}
	}
	return defaultGarmentColor
}

func parseHex(h string) (color.NRGBA, bool) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}

// Shade adds amount to each channel, clamped to [0,255]. Negative amounts darken.
func Shade(c color.NRGBA, amount int) color.NRGBA {
	ch := func(v uint8) uint8 {
		n := int(v) + amount
		if n < 0 {
			return 0
		}
		if n > 255 {
			return 255
		}
		return uint8(n)
	}
	return color.NRGBA{R: ch(c.R), G: ch(c.G), B: ch(c.B), A: c.A}
}

// withAlpha scales the color's alpha by opacity.
func withAlpha(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(float64(c.A)*clampUnit(opacity) + 0.5)
	return c
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
