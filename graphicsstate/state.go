package graphicsstate

import (
	"errors"
	"math"

	"github.com/tsawler/regiontag/model"
)

// ErrStackUnderflow is returned by Restore when there is no saved state.
var ErrStackUnderflow = errors.New("graphics state stack underflow")

// ColorSpace is a device colour space selected for filling.
type ColorSpace int

const (
	DeviceGray ColorSpace = iota
	DeviceRGB
	DeviceCMYK
)

// ColorSpaceByName maps a colour space name (cs operator) to a device
// space. Unknown spaces are guessed later from the component count.
func ColorSpaceByName(name string) (ColorSpace, bool) {
	switch name {
	case "DeviceGray", "G", "CalGray":
		return DeviceGray, true
	case "DeviceRGB", "RGB", "CalRGB":
		return DeviceRGB, true
	case "DeviceCMYK", "CMYK":
		return DeviceCMYK, true
	}
	return DeviceGray, false
}

// GraphicsState is the part of the PDF graphics state needed to place text.
type GraphicsState struct {
	// Current Transformation Matrix
	CTM model.Matrix

	Text TextState

	FillSpace ColorSpace
	Fill      model.Color

	stack []saved
}

type saved struct {
	ctm       model.Matrix
	text      TextState
	fillSpace ColorSpace
	fill      model.Color
}

// TextState holds the text parameters and matrices.
type TextState struct {
	FontName string
	FontSize float64

	CharSpacing float64
	WordSpacing float64

	// Horizontal scaling in percent
	HorizontalScaling float64

	Leading float64
	Rise    float64

	TextMatrix     model.Matrix
	TextLineMatrix model.Matrix
}

// NewGraphicsState returns the initial state: identity CTM, black fill,
// 100% horizontal scaling.
func NewGraphicsState() *GraphicsState {
	return &GraphicsState{
		CTM:       model.Identity(),
		FillSpace: DeviceGray,
		Fill:      model.Gray(0),
		Text: TextState{
			HorizontalScaling: 100,
			TextMatrix:        model.Identity(),
			TextLineMatrix:    model.Identity(),
		},
	}
}

// Depth returns the number of saved states.
func (gs *GraphicsState) Depth() int {
	return len(gs.stack)
}

// Save pushes the current state (q).
func (gs *GraphicsState) Save() {
	gs.stack = append(gs.stack, saved{ctm: gs.CTM, text: gs.Text, fillSpace: gs.FillSpace, fill: gs.Fill})
}

// Restore pops the last saved state (Q).
func (gs *GraphicsState) Restore() error {
	if len(gs.stack) == 0 {
		return ErrStackUnderflow
	}
	s := gs.stack[len(gs.stack)-1]
	gs.stack = gs.stack[:len(gs.stack)-1]
	gs.CTM, gs.Text, gs.FillSpace, gs.Fill = s.ctm, s.text, s.fillSpace, s.fill
	return nil
}

// Concat premultiplies the CTM by m (cm).
func (gs *GraphicsState) Concat(m model.Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}

// SetFillGray sets a DeviceGray fill (g).
func (gs *GraphicsState) SetFillGray(g float64) {
	gs.FillSpace = DeviceGray
	gs.Fill = model.Gray(g)
}

// SetFillRGB sets a DeviceRGB fill (rg).
func (gs *GraphicsState) SetFillRGB(r, g, b float64) {
	gs.FillSpace = DeviceRGB
	gs.Fill = model.RGB(r, g, b)
}

// SetFillCMYK sets a DeviceCMYK fill (k).
func (gs *GraphicsState) SetFillCMYK(c, m, y, k float64) {
	gs.FillSpace = DeviceCMYK
	gs.Fill = model.CMYK(c, m, y, k)
}

// SetFillSpace selects the fill colour space (cs) and resets the colour to
// the space's initial black.
func (gs *GraphicsState) SetFillSpace(space ColorSpace) {
	gs.FillSpace = space
	gs.Fill = model.Gray(0)
}

// SetFillComponents sets the fill from sc/scn components, interpreted in
// the current space. Component counts that do not match the space fall back
// to the space implied by the count; other counts are ignored.
func (gs *GraphicsState) SetFillComponents(v []float64) {
	space := gs.FillSpace
	want := map[ColorSpace]int{DeviceGray: 1, DeviceRGB: 3, DeviceCMYK: 4}[space]
	if len(v) != want {
		switch len(v) {
		case 1:
			space = DeviceGray
		case 3:
			space = DeviceRGB
		case 4:
			space = DeviceCMYK
		default:
			return
		}
	}
	switch space {
	case DeviceGray:
		gs.Fill = model.Gray(v[0])
	case DeviceRGB:
		gs.Fill = model.RGB(v[0], v[1], v[2])
	case DeviceCMYK:
		gs.Fill = model.CMYK(v[0], v[1], v[2], v[3])
	}
	gs.FillSpace = space
}

// SetFont sets the font resource name and size (Tf).
func (gs *GraphicsState) SetFont(name string, size float64) {
	gs.Text.FontName = name
	gs.Text.FontSize = size
}

// BeginText resets the text matrices (BT).
func (gs *GraphicsState) BeginText() {
	gs.Text.TextMatrix = model.Identity()
	gs.Text.TextLineMatrix = model.Identity()
}

// SetTextMatrix sets both text matrices (Tm).
func (gs *GraphicsState) SetTextMatrix(m model.Matrix) {
	gs.Text.TextMatrix = m
	gs.Text.TextLineMatrix = m
}

// TranslateText moves to the start of the next line offset by (tx, ty)
// (Td).
func (gs *GraphicsState) TranslateText(tx, ty float64) {
	gs.Text.TextLineMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextLineMatrix)
	gs.Text.TextMatrix = gs.Text.TextLineMatrix
}

// TranslateTextSetLeading is Td that also sets the leading to -ty (TD).
func (gs *GraphicsState) TranslateTextSetLeading(tx, ty float64) {
	gs.Text.Leading = -ty
	gs.TranslateText(tx, ty)
}

// NextLine moves down by the leading (T*).
func (gs *GraphicsState) NextLine() {
	gs.TranslateText(0, -gs.Text.Leading)
}

// Advance moves the text matrix after showing glyphs. glyphWidth is the sum
// of glyph widths in text space (already multiplied by the font size);
// chars and spaces count the shown characters and single-byte spaces for
// Tc and Tw. It returns the horizontal displacement in text space.
func (gs *GraphicsState) Advance(glyphWidth float64, chars, spaces int) float64 {
	th := gs.Text.HorizontalScaling / 100
	tx := (glyphWidth + float64(chars)*gs.Text.CharSpacing + float64(spaces)*gs.Text.WordSpacing) * th
	gs.Text.TextMatrix = model.Translate(tx, 0).Multiply(gs.Text.TextMatrix)
	return tx
}

// Kern applies a TJ position adjustment, given in thousandths of text space.
func (gs *GraphicsState) Kern(adjust float64) float64 {
	tx := -adjust / 1000 * gs.Text.FontSize * gs.Text.HorizontalScaling / 100
	gs.Text.TextMatrix = model.Translate(tx, 0).Multiply(gs.Text.TextMatrix)
	return tx
}

// TextOrigin returns the current baseline origin in device space, including
// the text rise.
func (gs *GraphicsState) TextOrigin() model.Point {
	m := gs.Text.TextMatrix.Multiply(gs.CTM)
	return m.Transform(model.Point{X: 0, Y: gs.Text.Rise})
}

// EffectiveFontSize returns the font size scaled by the text matrix and CTM
// along the vertical axis.
func (gs *GraphicsState) EffectiveFontSize() float64 {
	m := gs.Text.TextMatrix.Multiply(gs.CTM)
	return gs.Text.FontSize * math.Hypot(m[2], m[3])
}
