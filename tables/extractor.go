package tables

import (
	"fmt"

	"github.com/tsawler/regiontag/collector"
	"github.com/tsawler/regiontag/dedup"
	"github.com/tsawler/regiontag/flow"
	"github.com/tsawler/regiontag/logging"
	"github.com/tsawler/regiontag/model"
)

// CellError records a failed cell.
type CellError struct {
	Row int
	Col int
	Err error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("cell (%d,%d): %v", e.Row, e.Col, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// Result is the outcome of extracting one table.
type Result struct {
	TableID string
	Rows    int
	Cols    int

	// Cells holds one entry per successfully extracted cell, row-major.
	Cells []model.TableCell

	// Errors holds the cells that could not be extracted.
	Errors []*CellError

	// Skipped is set when the table id had already been processed.
	Skipped bool
}

// Table arranges the cells into a grid. Failed cells are nil.
func (r Result) Table() *model.Table {
	return model.NewTableFromCells(r.TableID, r.Rows, r.Cols, r.Cells)
}

// Extractor extracts grid tables from a page source.
type Extractor struct {
	// Converter maps TableSpec coordinates to page space.
	Converter model.Converter

	// Reconstructor rebuilds the text of each cell.
	Reconstructor *flow.Reconstructor

	// Guard deduplicates table ids. Nil disables deduplication.
	Guard dedup.Guard

	// SharedReplay replays the page once into a spatial index and answers
	// every cell from it, instead of replaying once per cell.
	SharedReplay bool
}

// New returns an Extractor with centimetre coordinates, default thresholds
// and the given guard.
func New(guard dedup.Guard) *Extractor {
	return &Extractor{
		Converter:     model.NewConverter(model.CentimetersToPoints),
		Reconstructor: flow.New(),
		Guard:         guard,
	}
}

// CellRect returns the page-space rectangle of a cell.
func (e *Extractor) CellRect(spec model.TableSpec, row, col int, pageHeight float64) model.BBox {
	b := spec.CellBounds(row, col)
	return e.Converter.Rect(b.X, b.Y, b.Width, b.Height, pageHeight)
}

// Extract validates spec, consults the guard and reconstructs every cell.
//
// An invalid grid returns an error wrapping model.ErrInvalidGrid and does
// not mark the table id. Cell failures are reported in Result.Errors. With
// SharedReplay the page is indexed before the guard is consulted; if that
// replay fails every cell is reported as failed and the id stays unmarked.
// An empty TableID is never deduplicated.
func (e *Extractor) Extract(spec model.TableSpec, pageHeight float64, src collector.Source) (Result, error) {
	log := logging.For("tables").With("table", spec.TableID)

	if err := spec.Validate(); err != nil {
		return Result{}, fmt.Errorf("table %q: %w", spec.TableID, err)
	}

	res := Result{
		TableID: spec.TableID,
		Rows:    spec.RowCount(),
		Cols:    spec.ColCount(),
	}

	cellSource := func(model.BBox) collector.Source { return src }
	if e.SharedReplay {
		idx, err := collector.NewIndex(src)
		if err != nil {
			log.Warn("page replay failed", "error", err)
			err = fmt.Errorf("replay page: %w", err)
			for row := 0; row < res.Rows; row++ {
				for col := 0; col < res.Cols; col++ {
					res.Errors = append(res.Errors, &CellError{Row: row, Col: col, Err: err})
				}
			}
			return res, nil
		}
		log.Debug("indexed page", "runs", idx.Len())
		cellSource = idx.Source
	}

	if e.Guard != nil && spec.TableID != "" && !e.Guard.MarkIfNew(spec.TableID) {
		log.Info("table already processed, skipping")
		res.Skipped = true
		return res, nil
	}

	res.Cells = make([]model.TableCell, 0, res.Rows*res.Cols)
	for row := 0; row < res.Rows; row++ {
		for col := 0; col < res.Cols; col++ {
			rect := e.CellRect(spec, row, col, pageHeight)
			cell, err := e.extractCell(cellSource(rect), rect, row, col, spec.IsHeader(row, col))
			if err != nil {
				cerr := &CellError{Row: row, Col: col, Err: err}
				log.Warn("cell extraction failed", "row", row, "col", col, "error", err)
				res.Errors = append(res.Errors, cerr)
				continue
			}
			log.Debug("extracted cell", "row", row, "col", col, "content", cell.Content, "header", cell.IsHeader)
			res.Cells = append(res.Cells, cell)
		}
	}

	log.Debug("extracted table", "rows", res.Rows, "cols", res.Cols,
		"cells", len(res.Cells), "failed", len(res.Errors))
	return res, nil
}

func (e *Extractor) extractCell(src collector.Source, rect model.BBox, row, col int, header bool) (cell model.TableCell, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during replay: %v", r)
		}
	}()

	runs, err := collector.Collect(src, rect)
	if err != nil {
		return model.TableCell{}, err
	}

	rec := e.Reconstructor
	if rec == nil {
		rec = flow.New()
	}
	f := rec.Reconstruct(runs)

	return model.TableCell{
		Row:       row,
		Col:       col,
		Rect:      rect,
		Content:   f.Text,
		IsHeader:  header,
		FontName:  f.FontName,
		FontSize:  f.FontSize,
		FontColor: f.FontColor,
	}, nil
}
