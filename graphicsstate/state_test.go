package graphicsstate

import (
	"errors"
	"math"
	"testing"

	"github.com/tsawler/regiontag/model"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewGraphicsState(t *testing.T) {
	gs := NewGraphicsState()
	if gs.CTM != model.Identity() {
		t.Errorf("CTM = %v, want identity", gs.CTM)
	}
	if gs.Fill != model.Gray(0) || gs.FillSpace != DeviceGray {
		t.Errorf("fill = %v in %v, want black gray", gs.Fill, gs.FillSpace)
	}
	if gs.Text.HorizontalScaling != 100 {
		t.Errorf("horizontal scaling = %v, want 100", gs.Text.HorizontalScaling)
	}
}

func TestSaveRestore(t *testing.T) {
	gs := NewGraphicsState()
	gs.SetFont("F1", 10)
	gs.SetFillRGB(1, 0, 0)

	gs.Save()
	gs.Concat(model.Translate(50, 50))
	gs.SetFont("F2", 20)
	gs.SetFillGray(0.5)
	if gs.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", gs.Depth())
	}

	if err := gs.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if gs.CTM != model.Identity() {
		t.Errorf("CTM not restored: %v", gs.CTM)
	}
	if gs.Text.FontName != "F1" || gs.Text.FontSize != 10 {
		t.Errorf("font not restored: %s %v", gs.Text.FontName, gs.Text.FontSize)
	}
	if gs.Fill != model.RGB(1, 0, 0) || gs.FillSpace != DeviceRGB {
		t.Errorf("fill not restored: %v", gs.Fill)
	}

	if err := gs.Restore(); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("Restore on empty stack = %v, want ErrStackUnderflow", err)
	}
}

func TestConcatOrder(t *testing.T) {
	gs := NewGraphicsState()
	gs.Concat(model.Translate(100, 200))
	gs.Concat(model.Scale(2, 2))

	// The later cm applies first: (1,1) -> (2,2) -> (102,202).
	p := gs.CTM.Transform(model.Point{X: 1, Y: 1})
	if !near(p.X, 102) || !near(p.Y, 202) {
		t.Errorf("got %v, want (102,202)", p)
	}
}

func TestFillColours(t *testing.T) {
	tests := []struct {
		name  string
		apply func(gs *GraphicsState)
		space ColorSpace
		hex   string
	}{
		{"gray", func(gs *GraphicsState) { gs.SetFillGray(1) }, DeviceGray, "#ffffff"},
		{"rgb", func(gs *GraphicsState) { gs.SetFillRGB(0, 0, 1) }, DeviceRGB, "#0000ff"},
		{"cmyk", func(gs *GraphicsState) { gs.SetFillCMYK(0, 1, 1, 0) }, DeviceCMYK, "#ff0000"},
		{"sc in rgb space", func(gs *GraphicsState) {
			gs.SetFillSpace(DeviceRGB)
			gs.SetFillComponents([]float64{0, 1, 0})
		}, DeviceRGB, "#00ff00"},
		{"scn count implies space", func(gs *GraphicsState) {
			gs.SetFillSpace(DeviceGray)
			gs.SetFillComponents([]float64{0, 0, 0, 1})
		}, DeviceCMYK, "#000000"},
		{"unsupported count ignored", func(gs *GraphicsState) {
			gs.SetFillRGB(1, 0, 0)
			gs.SetFillComponents([]float64{0.1, 0.2})
		}, DeviceRGB, "#ff0000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := NewGraphicsState()
			tt.apply(gs)
			if gs.FillSpace != tt.space {
				t.Errorf("space = %v, want %v", gs.FillSpace, tt.space)
			}
			if got := gs.Fill.Hex(); got != tt.hex {
				t.Errorf("fill = %s, want %s", got, tt.hex)
			}
		})
	}
}

func TestColorSpaceByName(t *testing.T) {
	if s, ok := ColorSpaceByName("DeviceCMYK"); !ok || s != DeviceCMYK {
		t.Errorf("DeviceCMYK -> %v, %v", s, ok)
	}
	if _, ok := ColorSpaceByName("Pattern"); ok {
		t.Error("Pattern should not map to a device space")
	}
}

func TestTextPositioning(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.SetTextMatrix(model.Matrix{2, 0, 0, 2, 100, 700})

	// Td offsets are in text space, so they are scaled by Tm.
	gs.TranslateText(10, -5)
	o := gs.TextOrigin()
	if !near(o.X, 120) || !near(o.Y, 690) {
		t.Errorf("after Td origin = %v, want (120,690)", o)
	}

	gs.TranslateTextSetLeading(0, -12)
	if gs.Text.Leading != 12 {
		t.Errorf("leading = %v, want 12", gs.Text.Leading)
	}
	gs.NextLine()
	o = gs.TextOrigin()
	if !near(o.X, 120) || !near(o.Y, 642) {
		t.Errorf("after TD and T* origin = %v, want (120,642)", o)
	}
}

func TestAdvanceAndKern(t *testing.T) {
	gs := NewGraphicsState()
	gs.SetFont("F1", 10)
	gs.SetTextMatrix(model.Translate(50, 100))
	gs.Text.CharSpacing = 1
	gs.Text.WordSpacing = 2
	gs.Text.HorizontalScaling = 50

	tx := gs.Advance(20, 4, 1)
	if !near(tx, (20+4+2)*0.5) {
		t.Errorf("advance = %v, want 13", tx)
	}
	if o := gs.TextOrigin(); !near(o.X, 63) {
		t.Errorf("origin x = %v, want 63", o.X)
	}

	k := gs.Kern(-200)
	if !near(k, 1) {
		t.Errorf("kern = %v, want 1", k)
	}
	if o := gs.TextOrigin(); !near(o.X, 64) || !near(o.Y, 100) {
		t.Errorf("origin = %v, want (64,100)", o)
	}
}

func TestTextRiseAndCTM(t *testing.T) {
	gs := NewGraphicsState()
	gs.Concat(model.Translate(0, 10))
	gs.SetTextMatrix(model.Translate(5, 5))
	gs.Text.Rise = 3

	o := gs.TextOrigin()
	if !near(o.X, 5) || !near(o.Y, 18) {
		t.Errorf("origin = %v, want (5,18)", o)
	}
}

func TestEffectiveFontSize(t *testing.T) {
	gs := NewGraphicsState()
	gs.SetFont("F1", 1)
	gs.SetTextMatrix(model.Matrix{12, 0, 0, 12, 0, 0})
	if got := gs.EffectiveFontSize(); !near(got, 12) {
		t.Errorf("effective size = %v, want 12", got)
	}

	gs.Concat(model.Scale(0.5, 0.5))
	if got := gs.EffectiveFontSize(); !near(got, 6) {
		t.Errorf("effective size with CTM = %v, want 6", got)
	}
}
