// Package collector filters the runs reported by a content-stream replay
// down to the ones that fall inside a region of interest.
//
// A [Source] replays one page and pushes a [RunEvent] for each text-showing
// operation. A [Collector] is the consumer: it keeps only the events whose
// box intersects its filter rectangle, in arrival order.
//
//	c := collector.New(rect)
//	if err := source.Replay(c); err != nil {
//	    return err
//	}
//	runs := c.Finalize()
package collector

import (
	"github.com/tsawler/regiontag/model"
)

// RunEvent is what an event source reports for one text-showing operation.
// BBox is the run's descent-line rectangle in page space.
type RunEvent struct {
	Text      string
	BBox      model.BBox
	FontName  string
	FontSize  float64
	FontColor *model.Color
}

// Handler receives run events during a replay.
type Handler interface {
	HandleRun(ev RunEvent)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev RunEvent)

// HandleRun calls f(ev).
func (f HandlerFunc) HandleRun(ev RunEvent) { f(ev) }

// Source replays a page's drawing operations, calling h for every text run.
// A Source is single-pass per call: each Replay walks the page once.
type Source interface {
	Replay(h Handler) error
}

// Collector accumulates the runs that intersect a filter rectangle.
// It is not safe for concurrent use; give each extraction its own.
type Collector struct {
	filter model.BBox
	runs   []model.TextRun
	seen   int
}

// New creates a collector for the given page-space filter rectangle.
func New(filter model.BBox) *Collector {
	return &Collector{filter: filter}
}

// Filter returns the collector's filter rectangle.
func (c *Collector) Filter() model.BBox {
	return c.filter
}

// Accept records the event if its box intersects the filter rectangle and
// reports whether it was kept.
func (c *Collector) Accept(ev RunEvent) bool {
	c.seen++
	if !c.filter.Intersects(ev.BBox) {
		return false
	}
	c.runs = append(c.runs, model.TextRun{
		Text:      ev.Text,
		BBox:      ev.BBox,
		FontName:  ev.FontName,
		FontSize:  ev.FontSize,
		FontColor: ev.FontColor,
	})
	return true
}

// HandleRun implements Handler.
func (c *Collector) HandleRun(ev RunEvent) {
	c.Accept(ev)
}

// Seen returns how many events were offered, kept or not.
func (c *Collector) Seen() int {
	return c.seen
}

// Finalize returns the kept runs in the order they were observed. The
// returned slice is a copy; the collector can keep accepting events.
func (c *Collector) Finalize() []model.TextRun {
	out := make([]model.TextRun, len(c.runs))
	copy(out, c.runs)
	return out
}

// Collect replays src once and returns the runs intersecting filter.
func Collect(src Source, filter model.BBox) ([]model.TextRun, error) {
	c := New(filter)
	if err := src.Replay(c); err != nil {
		return nil, err
	}
	return c.Finalize(), nil
}

// Runs is a Source that replays a fixed list of events. It is handy for
// callers that already hold positioned text.
type Runs []RunEvent

// Replay implements Source.
func (r Runs) Replay(h Handler) error {
	for _, ev := range r {
		h.HandleRun(ev)
	}
	return nil
}

// Tee forwards every event to each handler in order, so one replay can feed
// several consumers.
func Tee(handlers ...Handler) Handler {
	return HandlerFunc(func(ev RunEvent) {
		for _, h := range handlers {
			h.HandleRun(ev)
		}
	})
}
