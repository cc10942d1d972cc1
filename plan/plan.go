// Package plan reads tagging plans: JSON documents listing the regions of a
// document to extract and how each should be tagged.
//
//	{"taggingInformation": [
//	  {"id": "h1", "type": "text", "tag": "H1", "x": 2, "y": 2.5, "width": 17, "height": 1.2, "page": 1},
//	  {"id": "t1", "type": "table", "containsTable": true, "x": 2, "y": 6, "width": 17, "height": 8,
//	   "rowPositions": [0, 1, 2], "colPositions": [0, 8, 17], "wcagData": {"headerRows": [0]}}
//	]}
//
// Coordinates are in user units (centimetres by default) measured from the
// top-left corner of the page.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/tsawler/regiontag/logging"
	"github.com/tsawler/regiontag/model"
)

var (
	// ErrNoElements is returned for a plan without a taggingInformation list.
	ErrNoElements = errors.New("plan has no elements")

	// ErrInvalidElement is returned for an element that cannot be processed.
	ErrInvalidElement = errors.New("invalid plan element")
)

// Element defaults applied when a field is absent.
const (
	DefaultPage    = 1
	DefaultWidth   = 100.0
	DefaultHeight  = 12.0
	DefaultTag     = "P"
	DefaultSection = "Default"
)

// Kind is an element type.
type Kind string

const (
	Text  Kind = "text"
	Table Kind = "table"
	Image Kind = "image"
)

// WcagData carries the accessibility metadata of a table.
type WcagData struct {
	HasHeader  bool   `json:"hasHeader"`
	HeaderRows []int  `json:"headerRows,omitempty"`
	HeaderCols []int  `json:"headerCols,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Caption    string `json:"caption,omitempty"`
	Scope      string `json:"scope,omitempty"`
	IsComplex  bool   `json:"isComplex"`
}

// Element is one entry of a plan, with defaults applied.
type Element struct {
	ID         string  `json:"id,omitempty"`
	Kind       Kind    `json:"type"`
	Name       string  `json:"name,omitempty"`
	Tag        string  `json:"tag"`
	Language   string  `json:"language,omitempty"`
	Font       string  `json:"font,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Page       int     `json:"page"`
	Alt        string  `json:"alt,omitempty"`
	Section    string  `json:"section,omitempty"`
	IsArtifact bool    `json:"isArtifact"`

	ContainsTable bool      `json:"containsTable"`
	RowCount      int       `json:"rowCount,omitempty"`
	ColCount      int       `json:"colCount,omitempty"`
	RowPositions  []float64 `json:"rowPositions,omitempty"`
	ColPositions  []float64 `json:"colPositions,omitempty"`
	HeaderRow     *int      `json:"headerRow,omitempty"`
	HeaderCol     *int      `json:"headerCol,omitempty"`
	WcagData      *WcagData `json:"wcagData,omitempty"`
}

// rawElement mirrors Element with optional fields, so absent values can be
// told apart from zeros.
type rawElement struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Name       string   `json:"name"`
	Tag        *string  `json:"tag"`
	Language   string   `json:"language"`
	Font       string   `json:"font"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      *float64 `json:"width"`
	Height     *float64 `json:"height"`
	Page       *int     `json:"page"`
	Alt        string   `json:"alt"`
	Section    string   `json:"section"`
	IsArtifact bool     `json:"isArtifact"`

	ContainsTable bool      `json:"containsTable"`
	RowCount      int       `json:"rowCount"`
	ColCount      int       `json:"colCount"`
	RowPositions  []float64 `json:"rowPositions"`
	ColPositions  []float64 `json:"colPositions"`
	HeaderRow     *int      `json:"headerRow"`
	HeaderCol     *int      `json:"headerCol"`
	WcagData      *WcagData `json:"wcagData"`
}

type document struct {
	TaggingInformation []rawElement `json:"taggingInformation"`
}

// Plan is a parsed tagging plan.
type Plan struct {
	Elements []Element

	// Warnings lists problems that did not prevent parsing, such as
	// duplicate element ids.
	Warnings []string
}

// Parse decodes and validates a plan.
func Parse(data []byte) (*Plan, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if len(doc.TaggingInformation) == 0 {
		return nil, ErrNoElements
	}

	log := logging.For("plan")
	p := &Plan{Elements: make([]Element, 0, len(doc.TaggingInformation))}
	seen := make(map[string]bool)

	for i, raw := range doc.TaggingInformation {
		el, err := raw.normalize()
		if err != nil {
			return nil, fmt.Errorf("element %d (%q): %w", i, raw.ID, err)
		}
		if el.ID != "" {
			if seen[el.ID] {
				msg := fmt.Sprintf("duplicate element id %q (type %s)", el.ID, el.Kind)
				log.Warn("duplicate element id", "id", el.ID, "type", el.Kind)
				p.Warnings = append(p.Warnings, msg)
			}
			seen[el.ID] = true
		}
		log.Debug("plan element", "index", i, "id", el.ID, "type", el.Kind)
		p.Elements = append(p.Elements, el)
	}
	return p, nil
}

// Load reads a plan from r.
func Load(r io.Reader) (*Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Parse(data)
}

// LoadFile reads a plan from a file.
func LoadFile(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func (r rawElement) normalize() (Element, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(r.Type)))
	if kind == "" {
		return Element{}, fmt.Errorf("%w: missing type", ErrInvalidElement)
	}

	el := Element{
		ID:            r.ID,
		Kind:          kind,
		Name:          r.Name,
		Tag:           DefaultTag,
		Language:      r.Language,
		Font:          r.Font,
		X:             r.X,
		Y:             r.Y,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		Page:          DefaultPage,
		Alt:           r.Alt,
		Section:       r.Section,
		IsArtifact:    r.IsArtifact,
		ContainsTable: r.ContainsTable || kind == Table,
		RowCount:      r.RowCount,
		ColCount:      r.ColCount,
		RowPositions:  r.RowPositions,
		ColPositions:  r.ColPositions,
		HeaderRow:     r.HeaderRow,
		HeaderCol:     r.HeaderCol,
		WcagData:      r.WcagData,
	}
	if r.Tag != nil {
		if tag := strings.TrimSpace(*r.Tag); tag != "" {
			el.Tag = tag
		}
	}
	if r.Width != nil {
		el.Width = *r.Width
	}
	if r.Height != nil {
		el.Height = *r.Height
	}
	if r.Page != nil {
		el.Page = *r.Page
	}

	if el.Page < 1 {
		return Element{}, fmt.Errorf("%w: page %d", ErrInvalidElement, el.Page)
	}
	for _, v := range []float64{el.X, el.Y, el.Width, el.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Element{}, fmt.Errorf("%w: non-finite geometry", ErrInvalidElement)
		}
	}
	if el.Width < 0 || el.Height < 0 {
		return Element{}, fmt.Errorf("%w: negative size %gx%g", ErrInvalidElement, el.Width, el.Height)
	}
	return el, nil
}

// IsTable reports whether the element describes a table.
func (e Element) IsTable() bool {
	return e.Kind == Table
}

// Rect returns the element's rectangle in user space.
func (e Element) Rect() model.BBox {
	return model.NewBBox(e.X, e.Y, e.Width, e.Height)
}

// Region returns the element's filter rectangle in page space.
func (e Element) Region(conv model.Converter, pageHeight float64) model.BBox {
	return conv.Rect(e.X, e.Y, e.Width, e.Height, pageHeight)
}

// TableSpec returns the grid described by a table element. Header rows and
// columns come from wcagData, plus the single headerRow / headerCol fields
// when present.
func (e Element) TableSpec() model.TableSpec {
	spec := model.TableSpec{
		TableID:       e.ID,
		Page:          e.Page,
		Region:        e.Rect(),
		RowBoundaries: e.RowPositions,
		ColBoundaries: e.ColPositions,
	}
	if e.WcagData != nil {
		spec.HeaderRows = append(spec.HeaderRows, e.WcagData.HeaderRows...)
		spec.HeaderCols = append(spec.HeaderCols, e.WcagData.HeaderCols...)
	}
	if e.HeaderRow != nil {
		spec.HeaderRows = appendUnique(spec.HeaderRows, *e.HeaderRow)
	}
	if e.HeaderCol != nil {
		spec.HeaderCols = appendUnique(spec.HeaderCols, *e.HeaderCol)
	}
	return spec
}

func appendUnique(s []int, v int) []int {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

// SectionName returns the element's section, or DefaultSection.
func (e Element) SectionName() string {
	if s := strings.TrimSpace(e.Section); s != "" {
		return s
	}
	return DefaultSection
}

// Section is a named group of elements, used to build document outlines.
type Section struct {
	Name     string
	Elements []Element
}

// Sections groups the elements by section, in order of first appearance.
func (p *Plan) Sections() []Section {
	var out []Section
	index := make(map[string]int)
	for _, el := range p.Elements {
		name := el.SectionName()
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Section{Name: name})
		}
		out[i].Elements = append(out[i].Elements, el)
	}
	return out
}

// Pages returns the distinct pages referenced by the plan, in order of
// first appearance.
func (p *Plan) Pages() []int {
	var pages []int
	seen := make(map[int]bool)
	for _, el := range p.Elements {
		if !seen[el.Page] {
			seen[el.Page] = true
			pages = append(pages, el.Page)
		}
	}
	return pages
}
