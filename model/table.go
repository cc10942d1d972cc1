package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// ErrInvalidGrid is returned for table descriptors whose boundaries cannot
// describe a grid.
var ErrInvalidGrid = errors.New("invalid table grid")

// TableSpec describes a table region and its explicit grid.
//
// Region and boundaries are in user space: top-left origin, measured in the
// same unit as the Converter used to extract the table. Boundaries are
// offsets from the region's top-left corner; N+1 values describe N rows
// (or columns).
type TableSpec struct {
	TableID       string
	Page          int
	Region        BBox
	RowBoundaries []float64
	ColBoundaries []float64
	HeaderRows    []int
	HeaderCols    []int
}

// Validate checks the grid invariants.
func (s TableSpec) Validate() error {
	if len(s.RowBoundaries) < 2 {
		return fmt.Errorf("%w: need at least 2 row boundaries, got %d", ErrInvalidGrid, len(s.RowBoundaries))
	}
	if len(s.ColBoundaries) < 2 {
		return fmt.Errorf("%w: need at least 2 column boundaries, got %d", ErrInvalidGrid, len(s.ColBoundaries))
	}
	if err := checkBoundaries("row", s.RowBoundaries); err != nil {
		return err
	}
	if err := checkBoundaries("column", s.ColBoundaries); err != nil {
		return err
	}
	if !s.Region.IsValid() {
		return fmt.Errorf("%w: region %+v has negative or non-finite size", ErrInvalidGrid, s.Region)
	}
	return nil
}

func checkBoundaries(axis string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s boundary %d is not finite", ErrInvalidGrid, axis, i)
		}
		if i > 0 && v < values[i-1] {
			return fmt.Errorf("%w: %s boundaries must not decrease (%g after %g)", ErrInvalidGrid, axis, v, values[i-1])
		}
	}
	return nil
}

// RowCount returns the number of rows
func (s TableSpec) RowCount() int {
	if len(s.RowBoundaries) <= 1 {
		return 0
	}
	return len(s.RowBoundaries) - 1
}

// ColCount returns the number of columns
func (s TableSpec) ColCount() int {
	if len(s.ColBoundaries) <= 1 {
		return 0
	}
	return len(s.ColBoundaries) - 1
}

// CellBounds returns the user-space rectangle of a cell, offset by the
// region's origin. Y grows downwards, as in the boundaries.
func (s TableSpec) CellBounds(row, col int) BBox {
	if row < 0 || row >= s.RowCount() || col < 0 || col >= s.ColCount() {
		return BBox{}
	}
	return BBox{
		X:      s.Region.X + s.ColBoundaries[col],
		Y:      s.Region.Y + s.RowBoundaries[row],
		Width:  s.ColBoundaries[col+1] - s.ColBoundaries[col],
		Height: s.RowBoundaries[row+1] - s.RowBoundaries[row],
	}
}

// IsHeader reports whether the cell lies in a header row or header column.
func (s TableSpec) IsHeader(row, col int) bool {
	return slices.Contains(s.HeaderRows, row) || slices.Contains(s.HeaderCols, col)
}

// TableCell is the reconstructed content of one grid cell. Rect is in page
// space. Content is never trimmed: spacing inside a cell is significant.
type TableCell struct {
	Row       int
	Col       int
	Rect      BBox
	Content   string
	IsHeader  bool
	FontName  string
	FontSize  float64
	FontColor *Color
}

// Table represents extracted cells organized in rows and columns.
// Missing cells (for example cells whose extraction failed) are nil.
type Table struct {
	ID    string
	Rows  [][]*TableCell
	Cells int
}

// NewTableFromCells arranges cells into a rows x cols grid. Cells outside
// the grid are ignored; a later cell replaces an earlier one at the same
// position.
func NewTableFromCells(id string, rows, cols int, cells []TableCell) *Table {
	t := &Table{ID: id, Rows: make([][]*TableCell, rows)}
	for i := range t.Rows {
		t.Rows[i] = make([]*TableCell, cols)
	}
	for i := range cells {
		c := cells[i]
		if c.Row < 0 || c.Row >= rows || c.Col < 0 || c.Col >= cols {
			continue
		}
		if t.Rows[c.Row][c.Col] == nil {
			t.Cells++
		}
		t.Rows[c.Row][c.Col] = &c
	}
	return t
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of columns in the first row
func (t *Table) ColCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// GetCell returns the cell at the given row and column (0-indexed), or nil
func (t *Table) GetCell(row, col int) *TableCell {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return t.Rows[row][col]
}

// HeaderRows returns the indices of rows made up only of header cells.
func (t *Table) HeaderRows() []int {
	var out []int
	for i, row := range t.Rows {
		header := len(row) > 0
		for _, c := range row {
			if c == nil || !c.IsHeader {
				header = false
				break
			}
		}
		if header {
			out = append(out, i)
		}
	}
	return out
}

func (t *Table) cellText(row, col int) string {
	if c := t.GetCell(row, col); c != nil {
		return c.Content
	}
	return ""
}

// ToMarkdown converts the table to markdown format. The first row is used
// as the header line.
func (t *Table) ToMarkdown() string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder

	writeRow := func(i int) {
		for j := range t.Rows[i] {
			sb.WriteString("| ")
			sb.WriteString(strings.ReplaceAll(t.cellText(i, j), "\n", " "))
			sb.WriteString(" ")
			if j == len(t.Rows[i])-1 {
				sb.WriteString("|")
			}
		}
		sb.WriteString("\n")
	}

	writeRow(0)

	// Separator
	for j := range t.Rows[0] {
		sb.WriteString("|---")
		if j == len(t.Rows[0])-1 {
			sb.WriteString("|")
		}
	}
	sb.WriteString("\n")

	for i := 1; i < len(t.Rows); i++ {
		writeRow(i)
	}

	return sb.String()
}

// ToCSV converts the table to CSV format
func (t *Table) ToCSV() string {
	var sb strings.Builder
	for i, row := range t.Rows {
		for j := range row {
			text := t.cellText(i, j)
			if strings.ContainsAny(text, ",\"\n") {
				text = "\"" + strings.ReplaceAll(text, "\"", "\"\"") + "\""
			}
			sb.WriteString(text)
			if j < len(row)-1 {
				sb.WriteString(",")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
