package regiontag

import (
	"errors"
	"fmt"
	"io"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/regiontag/dedup"
	"github.com/tsawler/regiontag/flow"
	"github.com/tsawler/regiontag/logging"
	"github.com/tsawler/regiontag/model"
	"github.com/tsawler/regiontag/pdfsource"
	"github.com/tsawler/regiontag/plan"
	"github.com/tsawler/regiontag/tables"
)

// Extractor provides a fluent interface for extracting regions and tables.
// Each configuration method returns a new Extractor instance, allowing
// method chaining. An Extractor from Open loads its document on the first
// terminal call, so that call must complete before the same instance is used
// from other goroutines. One built with FromDocument may be shared at once.
type Extractor struct {
	// Source
	filename string
	doc      Document

	// Lifecycle
	ownsDoc   bool // true if we opened the document and should close it
	docOpened bool

	// Configuration
	options ExtractOptions

	// Deduplicates Table calls made outside Run; shared by clones
	jobGuard dedup.Guard

	// Accumulated error (fail-fast)
	err error

	// Warnings accumulated during configuration
	warnings []Warning
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename:  e.filename,
		doc:       e.doc,
		ownsDoc:   e.ownsDoc,
		docOpened: e.docOpened,
		options:   e.options.clone(),
		jobGuard:  e.jobGuard,
		err:       e.err,
		warnings:  append([]Warning(nil), e.warnings...),
	}
}

// ensureDocument opens the document if not already open.
func (e *Extractor) ensureDocument() error {
	if e.docOpened {
		return nil
	}
	if e.filename == "" {
		return fmt.Errorf("no filename specified")
	}

	var opts []pdfsource.Option
	if e.options.glyphRuns {
		opts = append(opts, pdfsource.WithGlyphRuns())
	}
	d, err := pdfsource.Open(e.filename, opts...)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	e.doc = d
	e.ownsDoc = true
	e.docOpened = true
	return nil
}

// Close releases the document if the Extractor opened it.
// It is safe to call Close multiple times.
func (e *Extractor) Close() error {
	if !e.ownsDoc || e.doc == nil {
		return nil
	}
	var err error
	if c, ok := e.doc.(io.Closer); ok {
		err = c.Close()
	}
	e.doc = nil
	e.ownsDoc = false
	e.docOpened = false
	return err
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Pages restricts Run to plan elements on the given pages (1-indexed).
// Multiple calls are cumulative.
func (e *Extractor) Pages(pages ...int) *Extractor {
	newExt := e.clone()
	newExt.options.pages = append(newExt.options.pages, pages...)
	return newExt
}

// Scale sets the number of points per plan unit. The default is
// centimetres (28.3465).
func (e *Extractor) Scale(pointsPerUnit float64) *Extractor {
	newExt := e.clone()
	if !(pointsPerUnit > 0) || math.IsInf(pointsPerUnit, 0) {
		newExt.err = fmt.Errorf("invalid scale %v", pointsPerUnit)
		return newExt
	}
	newExt.options.scale = pointsPerUnit
	return newExt
}

// Thresholds sets the line and paragraph break thresholds.
func (e *Extractor) Thresholds(t flow.Thresholds) *Extractor {
	newExt := e.clone()
	newExt.options.thresholds = t
	return newExt
}

// Workers sets how many plan elements Run processes at once. Values below
// one are treated as one and reported as a warning.
func (e *Extractor) Workers(n int) *Extractor {
	newExt := e.clone()
	if n < 1 {
		newExt.warnings = append(newExt.warnings, Warning{
			Message: fmt.Sprintf("workers %d below 1, using 1", n),
		})
		n = 1
	}
	newExt.options.workers = n
	return newExt
}

// Guard sets the table deduplication guard. It is shared by every Run and
// Table call of the returned Extractor, so ids are skipped across runs.
func (e *Extractor) Guard(g dedup.Guard) *Extractor {
	newExt := e.clone()
	newExt.options.guard = g
	return newExt
}

// SharedReplay makes table extraction replay each page once into a spatial
// index and answer every cell from it.
func (e *Extractor) SharedReplay() *Extractor {
	newExt := e.clone()
	newExt.options.sharedReplay = true
	return newExt
}

// GlyphRuns reads text from the PDF parser's per-glyph layout instead of
// replaying content streams. It only affects documents opened with Open.
func (e *Extractor) GlyphRuns() *Extractor {
	newExt := e.clone()
	newExt.options.glyphRuns = true
	return newExt
}

// ============================================================================
// Terminal Methods
// ============================================================================

// PageCount returns the number of pages in the document.
// This does NOT close the document, allowing further operations.
func (e *Extractor) PageCount() (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	if err := e.ensureDocument(); err != nil {
		return 0, err
	}
	return e.doc.PageCount(), nil
}

// Region reconstructs the text inside rect, given in page space, on page.
// An empty region is not an error; the returned flow reports Empty.
func (e *Extractor) Region(page int, rect model.BBox) (model.ExtractedFlow, error) {
	if e.err != nil {
		return model.ExtractedFlow{}, e.err
	}
	if err := e.ensureDocument(); err != nil {
		return model.ExtractedFlow{}, err
	}

	src, err := e.doc.Source(page)
	if err != nil {
		return model.ExtractedFlow{}, fmt.Errorf("page %d: %w", page, err)
	}
	return e.reconstructor().Extract(src, rect)
}

// Table extracts the grid described by spec from page spec.Page.
//
// Table ids are deduplicated across every Table call of this Extractor and
// its clones, or through the configured Guard.
func (e *Extractor) Table(spec model.TableSpec) (tables.Result, error) {
	if e.err != nil {
		return tables.Result{}, e.err
	}
	if err := e.ensureDocument(); err != nil {
		return tables.Result{}, err
	}

	guard := e.options.guard
	if guard == nil {
		guard = e.jobGuard
	}
	return e.extractTable(spec, guard)
}

func (e *Extractor) extractTable(spec model.TableSpec, guard dedup.Guard) (tables.Result, error) {
	height, err := e.doc.PageHeight(spec.Page)
	if err != nil {
		return tables.Result{}, fmt.Errorf("page %d: %w", spec.Page, err)
	}
	src, err := e.doc.Source(spec.Page)
	if err != nil {
		return tables.Result{}, fmt.Errorf("page %d: %w", spec.Page, err)
	}

	tx := &tables.Extractor{
		Converter:     e.converter(),
		Reconstructor: e.reconstructor(),
		Guard:         guard,
		SharedReplay:  e.options.sharedReplay,
	}
	return tx.Extract(spec, height, src)
}

// Run executes every text and table element of p.
//
// Elements run concurrently up to the Workers limit, but the result lists
// them in plan order. Problems with single elements are reported as
// warnings; only document-level failures return an error. Unless a Guard is
// configured, each Run deduplicates table ids with a fresh set.
func (e *Extractor) Run(p *plan.Plan) (*Result, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}
	if p == nil || len(p.Elements) == 0 {
		return nil, nil, plan.ErrNoElements
	}
	if err := e.ensureDocument(); err != nil {
		return nil, nil, err
	}

	pageCount := e.doc.PageCount()
	if pageCount == 0 {
		return nil, nil, ErrNoPages
	}
	pages, err := e.resolvePages(pageCount)
	if err != nil {
		return nil, nil, err
	}

	guard := e.options.guard
	if guard == nil {
		guard = dedup.NewSet()
	}

	log := logging.For("regiontag")
	log.Debug("running plan", "elements", len(p.Elements), "pages", pageCount, "workers", e.options.workers)

	items := make([]*Item, len(p.Elements))
	elementWarnings := make([][]Warning, len(p.Elements))

	var g errgroup.Group
	g.SetLimit(e.options.workers)
	for i, el := range p.Elements {
		if pages != nil && !pages[el.Page] {
			log.Debug("element outside selected pages", "element", el.ID, "page", el.Page)
			continue
		}
		g.Go(func() error {
			items[i], elementWarnings[i] = e.runElement(el, guard, pageCount)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	warnings := append([]Warning(nil), e.warnings...)
	for _, msg := range p.Warnings {
		warnings = append(warnings, Warning{Message: msg})
	}

	res := &Result{}
	for i := range p.Elements {
		warnings = append(warnings, elementWarnings[i]...)
		if items[i] != nil {
			res.Items = append(res.Items, *items[i])
		}
	}

	log.Info("plan finished", "items", len(res.Items), "warnings", len(warnings))
	return res, warnings, nil
}

// runElement extracts one plan element. A nil item means the element
// produced nothing to place.
func (e *Extractor) runElement(el plan.Element, guard dedup.Guard, pageCount int) (*Item, []Warning) {
	log := logging.For("regiontag").With("element", el.ID, "page", el.Page)
	warn := func(format string, args ...any) []Warning {
		return []Warning{{ElementID: el.ID, Page: el.Page, Message: fmt.Sprintf(format, args...)}}
	}

	if el.Kind == plan.Image {
		log.Info("image element skipped")
		return nil, nil
	}
	if el.Kind != plan.Text && el.Kind != plan.Table {
		return nil, warn("unknown element type %q", el.Kind)
	}
	if el.Page > pageCount {
		return nil, warn("page out of range (1-%d)", pageCount)
	}

	if el.IsTable() {
		res, err := e.extractTable(el.TableSpec(), guard)
		if err != nil {
			if errors.Is(err, model.ErrInvalidGrid) {
				log.Warn("invalid table grid", "error", err)
			}
			return nil, warn("%v", err)
		}
		var ws []Warning
		for _, cerr := range res.Errors {
			ws = append(ws, warn("%v", cerr)...)
		}
		return &Item{Element: el, Table: &res}, ws
	}

	height, err := e.doc.PageHeight(el.Page)
	if err != nil {
		return nil, warn("%v", err)
	}
	src, err := e.doc.Source(el.Page)
	if err != nil {
		return nil, warn("%v", err)
	}
	f, err := e.reconstructor().Extract(src, el.Region(e.converter(), height))
	if err != nil {
		return nil, warn("%v", err)
	}

	var ws []Warning
	if f.Empty() {
		ws = warn("no text found in region")
	}
	return &Item{Element: el, Flow: &f}, ws
}

// resolvePages returns the selected pages as a set, or nil for all pages.
func (e *Extractor) resolvePages(pageCount int) (map[int]bool, error) {
	if len(e.options.pages) == 0 {
		return nil, nil
	}

	set := make(map[int]bool, len(e.options.pages))
	for _, p := range e.options.pages {
		if p < 1 || p > pageCount {
			return nil, fmt.Errorf("page %d out of range (1-%d)", p, pageCount)
		}
		set[p] = true
	}
	return set, nil
}

func (e *Extractor) converter() model.Converter {
	return model.NewConverter(e.options.scale)
}

func (e *Extractor) reconstructor() *flow.Reconstructor {
	return &flow.Reconstructor{Thresholds: e.options.thresholds}
}
