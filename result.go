package regiontag

import (
	"github.com/tsawler/regiontag/model"
	"github.com/tsawler/regiontag/plan"
	"github.com/tsawler/regiontag/render"
	"github.com/tsawler/regiontag/tables"
)

// Item is the extraction output of one plan element. Exactly one of Flow
// and Table is set.
type Item struct {
	Element plan.Element
	Flow    *model.ExtractedFlow
	Table   *tables.Result
}

// Result is the output of Run, in plan order.
type Result struct {
	Items []Item
}

// Flows returns the text items.
func (r *Result) Flows() []Item {
	var out []Item
	for _, it := range r.Items {
		if it.Flow != nil {
			out = append(out, it)
		}
	}
	return out
}

// Tables returns the table items, including skipped duplicates.
func (r *Result) Tables() []Item {
	var out []Item
	for _, it := range r.Items {
		if it.Table != nil {
			out = append(out, it)
		}
	}
	return out
}

// Blocks converts the result into renderable blocks. Empty flows and
// skipped tables are left out, as there is nothing to place.
func (r *Result) Blocks() []render.Block {
	var blocks []render.Block
	for _, it := range r.Items {
		el := it.Element
		b := render.Block{
			ID:       el.ID,
			Tag:      el.Tag,
			Lang:     el.Language,
			Artifact: el.IsArtifact,
		}
		switch {
		case it.Flow != nil:
			if it.Flow.Empty() {
				continue
			}
			b.Flow = it.Flow
		case it.Table != nil:
			if it.Table.Skipped {
				continue
			}
			b.Table = it.Table.Table()
			if w := el.WcagData; w != nil {
				b.Caption = w.Caption
				b.Summary = w.Summary
				b.Scope = w.Scope
			}
		default:
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}
