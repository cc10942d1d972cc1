package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/regiontag"
	"github.com/tsawler/regiontag/model"
	"github.com/tsawler/regiontag/render"
)

type jsonFlow struct {
	Text      string       `json:"text"`
	BBox      model.BBox   `json:"bbox"`
	FontName  string       `json:"fontName,omitempty"`
	FontSize  float64      `json:"fontSize,omitempty"`
	FontColor *model.Color `json:"fontColor,omitempty"`
	Empty     bool         `json:"empty,omitempty"`
}

type jsonCell struct {
	Row       int          `json:"row"`
	Col       int          `json:"col"`
	Content   string       `json:"content"`
	IsHeader  bool         `json:"isHeader"`
	FontName  string       `json:"fontName,omitempty"`
	FontSize  float64      `json:"fontSize,omitempty"`
	FontColor *model.Color `json:"fontColor,omitempty"`
}

type jsonTable struct {
	Rows    int        `json:"rows"`
	Cols    int        `json:"cols"`
	Skipped bool       `json:"skipped,omitempty"`
	Cells   []jsonCell `json:"cells,omitempty"`
	Errors  []string   `json:"errors,omitempty"`
}

type jsonItem struct {
	ID    string     `json:"id,omitempty"`
	Type  string     `json:"type"`
	Page  int        `json:"page"`
	Tag   string     `json:"tag"`
	Flow  *jsonFlow  `json:"flow,omitempty"`
	Table *jsonTable `json:"table,omitempty"`
}

type jsonOutput struct {
	Items    []jsonItem `json:"items"`
	Warnings []string   `json:"warnings,omitempty"`
}

func toJSON(res *regiontag.Result, warnings []regiontag.Warning) jsonOutput {
	out := jsonOutput{Items: make([]jsonItem, 0, len(res.Items))}
	for _, it := range res.Items {
		item := jsonItem{
			ID:   it.Element.ID,
			Type: string(it.Element.Kind),
			Page: it.Element.Page,
			Tag:  it.Element.Tag,
		}
		if f := it.Flow; f != nil {
			item.Flow = &jsonFlow{
				Text:      f.Text,
				BBox:      f.BBox,
				FontName:  f.FontName,
				FontSize:  f.FontSize,
				FontColor: f.FontColor,
				Empty:     f.Empty(),
			}
		}
		if t := it.Table; t != nil {
			jt := &jsonTable{Rows: t.Rows, Cols: t.Cols, Skipped: t.Skipped}
			for _, c := range t.Cells {
				jt.Cells = append(jt.Cells, jsonCell{
					Row:       c.Row,
					Col:       c.Col,
					Content:   c.Content,
					IsHeader:  c.IsHeader,
					FontName:  c.FontName,
					FontSize:  c.FontSize,
					FontColor: c.FontColor,
				})
			}
			for _, e := range t.Errors {
				jt.Errors = append(jt.Errors, e.Error())
			}
			item.Table = jt
		}
		out.Items = append(out.Items, item)
	}
	for _, w := range warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	return out
}

func writeJSON(w io.Writer, res *regiontag.Result, warnings []regiontag.Warning) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toJSON(res, warnings)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeHTML(w io.Writer, title string, res *regiontag.Result) error {
	return render.Write(w, render.Document(title, "", res.Blocks()))
}

// writeText prints each item under a header line; tables as Markdown.
func writeText(w io.Writer, res *regiontag.Result) error {
	var sb strings.Builder
	for i, it := range res.Items {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "== %s (page %d, %s) ==\n", it.Element.ID, it.Element.Page, it.Element.Tag)
		switch {
		case it.Flow != nil && it.Flow.Empty():
			sb.WriteString("(no text)\n")
		case it.Flow != nil:
			sb.WriteString(it.Flow.Text)
			sb.WriteString("\n")
		case it.Table != nil && it.Table.Skipped:
			sb.WriteString("(table already processed)\n")
		case it.Table != nil:
			sb.WriteString(it.Table.Table().ToMarkdown())
			for _, e := range it.Table.Errors {
				fmt.Fprintf(&sb, "! %v\n", e)
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
