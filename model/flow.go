package model

import "strings"

// ExtractedFlow is the text reconstructed from every run inside a filter
// rectangle, with line and paragraph breaks inserted from geometry.
//
// Font attributes come from the last run in reading order; mixed fonts in a
// single flow are not reported.
type ExtractedFlow struct {
	Text      string
	BBox      BBox
	FontName  string
	FontSize  float64
	FontColor *Color

	// RunCount is the number of runs that contributed to the flow
	RunCount int
}

// Empty reports whether nothing was found in the region. Callers should skip
// placement for empty flows.
func (f ExtractedFlow) Empty() bool {
	return f.Text == ""
}

// CanonicalText returns the text with line breaks escaped, for logs and
// debugging output.
func (f ExtractedFlow) CanonicalText() string {
	return strings.ReplaceAll(f.Text, "\n", `\n`)
}
