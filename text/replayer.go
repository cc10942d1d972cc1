package text

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/tsawler/regiontag/collector"
	"github.com/tsawler/regiontag/contentstream"
	"github.com/tsawler/regiontag/graphicsstate"
	"github.com/tsawler/regiontag/logging"
	"github.com/tsawler/regiontag/model"
)

// DefaultDescentRatio places a run's bounding line below the baseline by
// this fraction of the font size.
const DefaultDescentRatio = 0.2

// Replayer replays a decoded content stream and reports every text-showing
// operation as a run event. It implements collector.Source and can be
// replayed any number of times; each replay starts from a fresh graphics
// state.
type Replayer struct {
	content      []byte
	fonts        map[string]*Font
	descentRatio float64
}

// Option configures a Replayer.
type Option func(*Replayer)

// WithFont registers the font used for a resource name (as written in Tf,
// without the slash).
func WithFont(resource string, f *Font) Option {
	return func(r *Replayer) { r.fonts[resource] = f }
}

// WithDescentRatio overrides DefaultDescentRatio.
func WithDescentRatio(ratio float64) Option {
	return func(r *Replayer) { r.descentRatio = ratio }
}

// NewReplayer returns a Replayer over decoded content stream bytes.
func NewReplayer(content []byte, opts ...Option) *Replayer {
	r := &Replayer{
		content:      content,
		fonts:        make(map[string]*Font),
		descentRatio: DefaultDescentRatio,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Replay implements collector.Source.
func (r *Replayer) Replay(h collector.Handler) error {
	p := contentstream.NewParser(r.content)
	s := &replay{Replayer: r, gs: graphicsstate.NewGraphicsState(), h: h}

	for i := 0; ; i++ {
		op, err := p.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse content stream: %w", err)
		}
		if err := s.apply(op); err != nil {
			return fmt.Errorf("operation %d (%s): %w", i, op.Operator, err)
		}
	}
}

// replay is the per-call state of a Replayer.
type replay struct {
	*Replayer
	gs *graphicsstate.GraphicsState
	h  collector.Handler
}

func (s *replay) apply(op contentstream.Operation) error {
	args := op.Operands
	switch op.Operator {
	case "q":
		s.gs.Save()
	case "Q":
		if err := s.gs.Restore(); err != nil {
			logging.For("text").Debug("ignoring unbalanced Q")
		}
	case "cm":
		m, err := matrix(args)
		if err != nil {
			return err
		}
		s.gs.Concat(m)

	case "g":
		return s.fill(args, 1, func(v []float64) { s.gs.SetFillGray(v[0]) })
	case "rg":
		return s.fill(args, 3, func(v []float64) { s.gs.SetFillRGB(v[0], v[1], v[2]) })
	case "k":
		return s.fill(args, 4, func(v []float64) { s.gs.SetFillCMYK(v[0], v[1], v[2], v[3]) })
	case "cs":
		if len(args) == 1 {
			if name, ok := args[0].(contentstream.Name); ok {
				space, _ := graphicsstate.ColorSpaceByName(string(name))
				s.gs.SetFillSpace(space)
			}
		}
	case "sc", "scn":
		var v []float64
		for _, a := range args {
			if f, ok := contentstream.Float(a); ok {
				v = append(v, f)
			}
		}
		s.gs.SetFillComponents(v)

	case "BT":
		s.gs.BeginText()
	case "ET":
	case "Tf":
		if len(args) != 2 {
			return fmt.Errorf("need 2 operands, got %d", len(args))
		}
		name, ok := args[0].(contentstream.Name)
		size, ok2 := contentstream.Float(args[1])
		if !ok || !ok2 {
			return fmt.Errorf("invalid operands %v", args)
		}
		s.gs.SetFont(string(name), size)
	case "Tc":
		return s.number(args, func(v float64) { s.gs.Text.CharSpacing = v })
	case "Tw":
		return s.number(args, func(v float64) { s.gs.Text.WordSpacing = v })
	case "Tz":
		return s.number(args, func(v float64) { s.gs.Text.HorizontalScaling = v })
	case "TL":
		return s.number(args, func(v float64) { s.gs.Text.Leading = v })
	case "Ts":
		return s.number(args, func(v float64) { s.gs.Text.Rise = v })

	case "Tm":
		m, err := matrix(args)
		if err != nil {
			return err
		}
		s.gs.SetTextMatrix(m)
	case "Td", "TD":
		v, err := contentstream.Floats(args, 2)
		if err != nil {
			return err
		}
		if op.Operator == "TD" {
			s.gs.TranslateTextSetLeading(v[0], v[1])
		} else {
			s.gs.TranslateText(v[0], v[1])
		}
	case "T*":
		s.gs.NextLine()

	case "Tj":
		if len(args) == 1 {
			if str, ok := args[0].(contentstream.String); ok {
				s.show(str)
			}
		}
	case "TJ":
		if len(args) == 1 {
			if arr, ok := args[0].(contentstream.Array); ok {
				for _, item := range arr {
					switch v := item.(type) {
					case contentstream.String:
						s.show(v)
					case contentstream.Number:
						s.gs.Kern(float64(v))
					}
				}
			}
		}
	case "'":
		s.gs.NextLine()
		if len(args) == 1 {
			if str, ok := args[0].(contentstream.String); ok {
				s.show(str)
			}
		}
	case "\"":
		if len(args) != 3 {
			return fmt.Errorf("need 3 operands, got %d", len(args))
		}
		if v, ok := contentstream.Float(args[0]); ok {
			s.gs.Text.WordSpacing = v
		}
		if v, ok := contentstream.Float(args[1]); ok {
			s.gs.Text.CharSpacing = v
		}
		s.gs.NextLine()
		if str, ok := args[2].(contentstream.String); ok {
			s.show(str)
		}
	}
	return nil
}

func (s *replay) number(args []contentstream.Operand, set func(float64)) error {
	v, err := contentstream.Floats(args, 1)
	if err != nil {
		return err
	}
	set(v[0])
	return nil
}

func (s *replay) fill(args []contentstream.Operand, n int, set func([]float64)) error {
	v, err := contentstream.Floats(args, n)
	if err != nil {
		return err
	}
	set(v)
	return nil
}

// show emits a run for one string and advances the text matrix past it.
func (s *replay) show(raw contentstream.String) {
	resource := s.gs.Text.FontName
	f := s.fonts[resource]
	decoded := f.DecodeString(raw)

	start := s.gs.TextOrigin()
	size := s.gs.EffectiveFontSize()

	spaces := 0
	for _, c := range raw {
		if c == ' ' {
			spaces++
		}
	}
	s.gs.Advance(f.StringWidth(raw, decoded, s.gs.Text.FontSize), len(raw), spaces)
	end := s.gs.TextOrigin()

	if decoded == "" {
		return
	}

	name := resource
	if f != nil && f.BaseFont != "" {
		name = f.BaseFont
	}
	fill := s.gs.Fill

	s.h.HandleRun(collector.RunEvent{
		Text: decoded,
		BBox: model.NewBBox(
			math.Min(start.X, end.X),
			start.Y-s.descentRatio*size,
			math.Abs(end.X-start.X),
			0,
		),
		FontName:  name,
		FontSize:  size,
		FontColor: &fill,
	})
}

func matrix(args []contentstream.Operand) (model.Matrix, error) {
	v, err := contentstream.Floats(args, 6)
	if err != nil {
		return model.Matrix{}, err
	}
	return model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}, nil
}
