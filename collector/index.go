package collector

import (
	"sort"

	"github.com/tidwall/rtree"

	"github.com/tsawler/regiontag/model"
)

type indexed struct {
	seq int
	ev  RunEvent
}

// Index holds every run of one page replay in an R-tree so that many
// regions (for example all cells of a table) can be answered from a single
// replay. Query results match what a Collector would keep for the same
// rectangle, in the same order.
type Index struct {
	tree  rtree.RTreeG[indexed]
	count int
}

// NewIndex replays src once and indexes every run.
func NewIndex(src Source) (*Index, error) {
	idx := &Index{}
	if err := src.Replay(idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// HandleRun implements Handler.
func (idx *Index) HandleRun(ev RunEvent) {
	b := ev.BBox
	idx.tree.Insert(
		[2]float64{b.Left(), b.Bottom()},
		[2]float64{b.Right(), b.Top()},
		indexed{seq: idx.count, ev: ev},
	)
	idx.count++
}

// Len returns the number of indexed runs.
func (idx *Index) Len() int {
	return idx.count
}

// Query returns the runs intersecting filter, in replay order.
func (idx *Index) Query(filter model.BBox) []model.TextRun {
	var hits []indexed
	idx.tree.Search(
		[2]float64{filter.Left(), filter.Bottom()},
		[2]float64{filter.Right(), filter.Top()},
		func(_, _ [2]float64, item indexed) bool {
			// the tree matches closed rectangles; apply the strict test
			if filter.Intersects(item.ev.BBox) {
				hits = append(hits, item)
			}
			return true
		},
	)
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })

	c := New(filter)
	for _, h := range hits {
		c.Accept(h.ev)
	}
	return c.Finalize()
}

// Source returns a Source that replays the indexed runs intersecting filter,
// in replay order, without replaying the underlying source.
func (idx *Index) Source(filter model.BBox) Source {
	return SourceFunc(func(h Handler) error {
		for _, r := range idx.Query(filter) {
			h.HandleRun(RunEvent{
				Text:      r.Text,
				BBox:      r.BBox,
				FontName:  r.FontName,
				FontSize:  r.FontSize,
				FontColor: r.FontColor,
			})
		}
		return nil
	})
}

// SourceFunc adapts a function to Source.
type SourceFunc func(h Handler) error

// Replay calls f(h).
func (f SourceFunc) Replay(h Handler) error { return f(h) }
