package model

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a fill colour with RGB components in the range [0, 1].
type Color struct {
	R, G, B float64
}

// RGB returns a colour from DeviceRGB components.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b}
}

// Gray returns a colour from a DeviceGray component.
func Gray(g float64) Color {
	return Color{R: g, G: g, B: g}
}

// CMYK returns a colour from DeviceCMYK components using the naive
// subtractive conversion.
func CMYK(c, m, y, k float64) Color {
	return Color{
		R: (1 - math.Min(1, c)) * (1 - math.Min(1, k)),
		G: (1 - math.Min(1, m)) * (1 - math.Min(1, k)),
		B: (1 - math.Min(1, y)) * (1 - math.Min(1, k)),
	}
}

// ParseHex parses a "#rrggbb" colour.
func ParseHex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	return Color{R: c.R, G: c.G, B: c.B}, nil
}

// Hex returns the colour as "#rrggbb", clamping out-of-range components.
func (c Color) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

// MarshalText encodes the colour as a hex string.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText decodes a hex string.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TextRun is one positioned piece of text observed while replaying a page,
// in bottom-left-origin point space. Runs are never modified after creation.
type TextRun struct {
	Text      string
	BBox      BBox
	FontName  string // empty when the source could not name the font
	FontSize  float64
	FontColor *Color // nil when the source reports no fill colour
}
