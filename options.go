package regiontag

import (
	"github.com/tsawler/regiontag/dedup"
	"github.com/tsawler/regiontag/flow"
	"github.com/tsawler/regiontag/model"
)

// ExtractOptions holds configuration for region extraction.
type ExtractOptions struct {
	// Page selection (1-indexed)
	pages []int

	// User units per point, for plan and table coordinates
	scale float64

	thresholds flow.Thresholds

	// Concurrent plan elements
	workers int

	// Explicit guard shared across runs; nil means one fresh set per run
	guard dedup.Guard

	sharedReplay bool

	// Read the parser's glyph layout instead of replaying content streams
	glyphRuns bool
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		pages:      nil, // nil means all pages
		scale:      model.CentimetersToPoints,
		thresholds: flow.DefaultThresholds(),
		workers:    1,
	}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := ExtractOptions{
		scale:        o.scale,
		thresholds:   o.thresholds,
		workers:      o.workers,
		guard:        o.guard,
		sharedReplay: o.sharedReplay,
		glyphRuns:    o.glyphRuns,
	}

	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}

	return newOpts
}
