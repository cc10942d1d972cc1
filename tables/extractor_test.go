package tables

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/regiontag/collector"
	"github.com/tsawler/regiontag/dedup"
	"github.com/tsawler/regiontag/logging"
	"github.com/tsawler/regiontag/model"
)

const pageHeight = 800.0

// countingSource replays its runs and counts how often it was driven. When
// failOn matches a call number that replay fails (or panics).
type countingSource struct {
	runs    collector.Runs
	calls   int
	failOn  map[int]error
	panicOn int
}

func (s *countingSource) Replay(h collector.Handler) error {
	s.calls++
	if s.calls == s.panicOn {
		panic("corrupt content stream")
	}
	if err, ok := s.failOn[s.calls]; ok {
		return err
	}
	return s.runs.Replay(h)
}

// gridSpec is the 2x3 grid [0,10,20] x [0,5,15,25] placed at (2,3) in user
// units of one point each.
func gridSpec(id string) model.TableSpec {
	return model.TableSpec{
		TableID:       id,
		Page:          1,
		Region:        model.NewBBox(2, 3, 25, 20),
		RowBoundaries: []float64{0, 10, 20},
		ColBoundaries: []float64{0, 5, 15, 25},
		HeaderRows:    []int{0},
	}
}

// gridRuns puts one run in the middle of every cell of gridSpec.
func gridRuns() collector.Runs {
	rowY := []float64{790, 780}
	colX := []float64{3, 8, 18}
	var runs collector.Runs
	for r, y := range rowY {
		for c, x := range colX {
			runs = append(runs, collector.RunEvent{
				Text:     fmt.Sprintf("r%dc%d", r, c),
				BBox:     model.NewBBox(x, y, 2, 0),
				FontName: "Helvetica",
				FontSize: 4,
			})
		}
	}
	return runs
}

func newPointExtractor(guard dedup.Guard) *Extractor {
	e := New(guard)
	e.Converter = model.NewConverter(1)
	return e
}

func TestExtract_GridCells(t *testing.T) {
	src := &countingSource{runs: gridRuns()}
	res, err := newPointExtractor(nil).Extract(gridSpec("T1"), pageHeight, src)
	require.NoError(t, err)

	require.Len(t, res.Cells, 6)
	assert.Empty(t, res.Errors)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 3, res.Cols)
	assert.Equal(t, 6, src.calls, "one replay per cell")

	for i, cell := range res.Cells {
		assert.Equal(t, i/3, cell.Row)
		assert.Equal(t, i%3, cell.Col)
		assert.Equal(t, fmt.Sprintf("r%dc%d", cell.Row, cell.Col), cell.Content)
		assert.Equal(t, cell.Row == 0, cell.IsHeader)
		assert.Equal(t, "Helvetica", cell.FontName)
	}

	last := res.Cells[5]
	assert.True(t, last.Rect.Equal(model.NewBBox(17, 777, 10, 10), 1e-9), "cell (1,2) rect %+v", last.Rect)
}

func TestExtract_CellTextIsNotTrimmed(t *testing.T) {
	src := collector.Runs{
		{Text: "  12.50 ", BBox: model.NewBBox(3, 790, 2, 0), FontSize: 4},
		{Text: " EUR", BBox: model.NewBBox(4, 790, 1, 0), FontSize: 4},
	}
	res, err := newPointExtractor(nil).Extract(gridSpec("T1"), pageHeight, src)
	require.NoError(t, err)

	cell := res.Table().GetCell(0, 0)
	require.NotNil(t, cell)
	assert.Equal(t, "  12.50  EUR", cell.Content)
}

func TestExtract_EmptyCells(t *testing.T) {
	res, err := newPointExtractor(nil).Extract(gridSpec("T1"), pageHeight, collector.Runs{})
	require.NoError(t, err)
	require.Len(t, res.Cells, 6)
	for _, c := range res.Cells {
		assert.Equal(t, "", c.Content)
	}
}

func TestExtract_HeaderClassification(t *testing.T) {
	spec := model.TableSpec{
		TableID:       "H",
		Region:        model.NewBBox(0, 0, 25, 40),
		RowBoundaries: []float64{0, 10, 20, 30, 40},
		ColBoundaries: []float64{0, 5, 15, 25},
		HeaderRows:    []int{0},
		HeaderCols:    []int{1},
	}
	res, err := newPointExtractor(nil).Extract(spec, pageHeight, collector.Runs{})
	require.NoError(t, err)

	table := res.Table()
	assert.True(t, table.GetCell(0, 2).IsHeader)
	assert.True(t, table.GetCell(3, 1).IsHeader)
	assert.False(t, table.GetCell(2, 2).IsHeader)
	assert.Equal(t, 12, table.Cells)
}

func TestExtract_InvalidGrid(t *testing.T) {
	guard := dedup.NewSet()
	spec := gridSpec("bad")
	spec.RowBoundaries = []float64{0}

	src := &countingSource{}
	_, err := newPointExtractor(guard).Extract(spec, pageHeight, src)
	assert.ErrorIs(t, err, model.ErrInvalidGrid)
	assert.Zero(t, src.calls)
	assert.False(t, guard.Seen("bad"), "invalid tables are not marked")
}

func TestExtract_DuplicateTableIsSkipped(t *testing.T) {
	buf := logging.NewBufferedLogHandler(nil)
	old := logging.Logger()
	logging.SetLogger(slog.New(buf))
	defer logging.SetLogger(old)

	src := &countingSource{runs: gridRuns()}
	e := newPointExtractor(dedup.NewSet())

	first, err := e.Extract(gridSpec("T1"), pageHeight, src)
	require.NoError(t, err)
	assert.Len(t, first.Cells, 6)
	calls := src.calls

	second, err := e.Extract(gridSpec("T1"), pageHeight, src)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Empty(t, second.Cells)
	assert.Equal(t, calls, src.calls, "a skipped table must not replay the page")
	assert.Equal(t, 1, buf.Count(slog.LevelInfo))
	assert.True(t, buf.Contains("table already processed"))

	other, err := e.Extract(gridSpec("T2"), pageHeight, src)
	require.NoError(t, err)
	assert.Len(t, other.Cells, 6)
}

func TestExtract_EmptyIDIsNotDeduplicated(t *testing.T) {
	e := newPointExtractor(dedup.NewSet())
	for i := 0; i < 2; i++ {
		res, err := e.Extract(gridSpec(""), pageHeight, gridRuns())
		require.NoError(t, err)
		assert.False(t, res.Skipped)
	}
}

func TestExtract_PartialFailure(t *testing.T) {
	boom := errors.New("bad operator")
	src := &countingSource{
		runs:    gridRuns(),
		failOn:  map[int]error{2: boom},
		panicOn: 5,
	}
	res, err := newPointExtractor(nil).Extract(gridSpec("T1"), pageHeight, src)
	require.NoError(t, err)

	assert.Len(t, res.Cells, 4)
	require.Len(t, res.Errors, 2)

	assert.Equal(t, 0, res.Errors[0].Row)
	assert.Equal(t, 1, res.Errors[0].Col)
	assert.ErrorIs(t, res.Errors[0], boom)
	assert.Contains(t, res.Errors[0].Error(), "cell (0,1)")

	assert.Equal(t, 1, res.Errors[1].Row)
	assert.Equal(t, 1, res.Errors[1].Col)
	assert.Contains(t, res.Errors[1].Error(), "panic")

	table := res.Table()
	assert.Nil(t, table.GetCell(0, 1))
	assert.Nil(t, table.GetCell(1, 1))
	assert.Equal(t, "r1c2", table.GetCell(1, 2).Content)
}

func TestExtract_SharedReplay(t *testing.T) {
	src := &countingSource{runs: gridRuns()}
	e := newPointExtractor(nil)
	e.SharedReplay = true

	res, err := e.Extract(gridSpec("T1"), pageHeight, src)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	perCell, err := newPointExtractor(nil).Extract(gridSpec("T1"), pageHeight, gridRuns())
	require.NoError(t, err)
	assert.Equal(t, perCell.Cells, res.Cells)
}

func TestExtract_SharedReplayFailure(t *testing.T) {
	boom := errors.New("unreadable page")
	src := &countingSource{failOn: map[int]error{1: boom}}
	guard := dedup.NewSet()
	e := newPointExtractor(guard)
	e.SharedReplay = true

	res, err := e.Extract(gridSpec("T1"), pageHeight, src)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Empty(t, res.Cells)
	require.Len(t, res.Errors, 6)
	for i, cerr := range res.Errors {
		assert.ErrorIs(t, cerr, boom)
		assert.Equal(t, i/3, cerr.Row)
		assert.Equal(t, i%3, cerr.Col)
	}
	assert.False(t, guard.Seen("T1"), "failed replay leaves the id unmarked")

	retry, err := e.Extract(gridSpec("T1"), pageHeight, &countingSource{runs: gridRuns()})
	require.NoError(t, err)
	assert.False(t, retry.Skipped)
	assert.Len(t, retry.Cells, 6)
	assert.Empty(t, retry.Errors)
	assert.True(t, guard.Seen("T1"))
}

func TestCellRect_Centimetres(t *testing.T) {
	e := New(nil)
	spec := gridSpec("T1")

	got := e.CellRect(spec, 1, 2, 841.89)
	s := model.CentimetersToPoints
	want := model.BBox{X: 17 * s, Y: 841.89 - 13*s - 10*s, Width: 10 * s, Height: 10 * s}
	assert.True(t, got.Equal(want, 1e-9), "got %+v", got)
}
