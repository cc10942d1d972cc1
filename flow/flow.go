// Package flow rebuilds a single logical text flow from the runs collected
// in a region.
//
// Runs are read top to bottom (descending Y in page space). Between two
// consecutive runs the vertical distance decides the separator: more than a
// paragraph threshold inserts a blank line, more than a line threshold
// inserts a newline, anything smaller joins the runs directly.
package flow

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/regiontag/collector"
	"github.com/tsawler/regiontag/logging"
	"github.com/tsawler/regiontag/model"
)

// Thresholds control break insertion. Each threshold is
// max(fontSize*Factor, Min), using the font size of the current run.
type Thresholds struct {
	LineFactor      float64
	LineMin         float64
	ParagraphFactor float64
	ParagraphMin    float64
}

// DefaultThresholds returns the standard break thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LineFactor:      1.0,
		LineMin:         7.0,
		ParagraphFactor: 3.0,
		ParagraphMin:    12.0,
	}
}

// Line returns the line-break threshold for a font size.
func (t Thresholds) Line(fontSize float64) float64 {
	return math.Max(fontSize*t.LineFactor, t.LineMin)
}

// Paragraph returns the paragraph-break threshold for a font size.
func (t Thresholds) Paragraph(fontSize float64) float64 {
	return math.Max(fontSize*t.ParagraphFactor, t.ParagraphMin)
}

// Break is the separator inserted before a run.
type Break int

const (
	NoBreak Break = iota
	LineBreak
	ParagraphBreak
)

// String returns the text inserted for the break.
func (b Break) String() string {
	switch b {
	case LineBreak:
		return "\n"
	case ParagraphBreak:
		return "\n\n"
	default:
		return ""
	}
}

// Classify decides the separator for a vertical distance between runs.
func (t Thresholds) Classify(yDiff, fontSize float64) Break {
	switch {
	case yDiff > t.Paragraph(fontSize):
		return ParagraphBreak
	case yDiff > t.Line(fontSize):
		return LineBreak
	default:
		return NoBreak
	}
}

// Reconstructor turns collected runs into an ExtractedFlow.
type Reconstructor struct {
	Thresholds Thresholds
}

// New returns a Reconstructor with the default thresholds.
func New() *Reconstructor {
	return &Reconstructor{Thresholds: DefaultThresholds()}
}

// Reconstruct builds a flow from runs using the default thresholds.
func Reconstruct(runs []model.TextRun) model.ExtractedFlow {
	return New().Reconstruct(runs)
}

// Reconstruct builds a flow from runs. The input slice is not modified.
// An empty input yields an empty flow with a zero bounding box.
func (r *Reconstructor) Reconstruct(runs []model.TextRun) model.ExtractedFlow {
	if len(runs) == 0 {
		return model.ExtractedFlow{}
	}

	sorted := SortForReading(runs)

	var sb strings.Builder
	previousY := sorted[0].BBox.Y
	for i, run := range sorted {
		if i > 0 {
			yDiff := math.Abs(previousY - run.BBox.Y)
			sb.WriteString(r.Thresholds.Classify(yDiff, run.FontSize).String())
		}
		sb.WriteString(run.Text)
		previousY = run.BBox.Y
	}

	boxes := make([]model.BBox, len(runs))
	for i, run := range runs {
		boxes[i] = run.BBox
	}

	last := sorted[len(sorted)-1]
	return model.ExtractedFlow{
		Text:      sb.String(),
		BBox:      model.UnionAll(boxes...),
		FontName:  last.FontName,
		FontSize:  last.FontSize,
		FontColor: last.FontColor,
		RunCount:  len(runs),
	}
}

// SortForReading returns a copy of runs stably sorted top of page first.
// Runs sharing a Y keep their arrival order.
func SortForReading(runs []model.TextRun) []model.TextRun {
	sorted := make([]model.TextRun, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.Y > sorted[j].BBox.Y
	})
	return sorted
}

// Extract replays src once, collects the runs inside rect and reconstructs
// them into a flow.
func (r *Reconstructor) Extract(src collector.Source, rect model.BBox) (model.ExtractedFlow, error) {
	runs, err := collector.Collect(src, rect)
	if err != nil {
		return model.ExtractedFlow{}, err
	}
	f := r.Reconstruct(runs)

	log := logging.For("flow")
	if f.Empty() {
		log.Warn("no text found in region", "rect", rect)
	} else {
		log.Debug("reconstructed flow",
			"runs", f.RunCount,
			"text", f.CanonicalText(),
			"bbox", f.BBox,
			"font", f.FontName,
			"size", f.FontSize)
	}
	return f, nil
}

// Extract is Reconstructor.Extract with the default thresholds.
func Extract(src collector.Source, rect model.BBox) (model.ExtractedFlow, error) {
	return New().Extract(src, rect)
}
