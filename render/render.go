// Package render turns extracted flows and tables into accessible HTML.
//
// Each block keeps the structural role it was given in the tagging plan:
// text becomes a paragraph or heading, tables become <table> elements with
// <th> cells for header rows and columns. Line breaks inside a flow are kept
// as <br> elements.
package render

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tsawler/regiontag/model"
)

// Block is one placed element.
type Block struct {
	ID       string
	Tag      string
	Lang     string
	Artifact bool

	// Exactly one of Flow and Table is set.
	Flow  *model.ExtractedFlow
	Table *model.Table

	Caption string
	Summary string
	// Scope is the th scope attribute ("col", "row"); empty infers it from
	// the cell position.
	Scope string
}

var structureTags = map[string]atom.Atom{
	"p":          atom.P,
	"h":          atom.H2,
	"h1":         atom.H1,
	"h2":         atom.H2,
	"h3":         atom.H3,
	"h4":         atom.H4,
	"h5":         atom.H5,
	"h6":         atom.H6,
	"span":       atom.Span,
	"blockquote": atom.Blockquote,
	"quote":      atom.Q,
	"caption":    atom.Figcaption,
	"code":       atom.Code,
	"l":          atom.Ul,
	"li":         atom.Li,
	"lbl":        atom.Span,
	"note":       atom.Aside,
	"title":      atom.H1,
}

// ElementFor maps a structure tag such as "P" or "H2" to an HTML element.
// Unknown tags render as paragraphs.
func ElementFor(tag string) atom.Atom {
	if a, ok := structureTags[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return a
	}
	return atom.P
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// appendText adds s to n, turning newlines into <br> elements.
func appendText(n *html.Node, s string) {
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			n.AppendChild(element(atom.Br))
		}
		if line != "" {
			n.AppendChild(textNode(line))
		}
	}
}

// FlowNode renders a flow with the given structure tag.
func FlowNode(f model.ExtractedFlow, tag, lang string) *html.Node {
	n := element(ElementFor(tag))
	if lang != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "lang", Val: lang})
	}
	appendText(n, f.Text)
	return n
}

// TableNode renders a table. Missing cells render as empty <td> elements.
func TableNode(t *model.Table, caption, summary, scope string) *html.Node {
	table := element(atom.Table)
	if summary != "" {
		table.Attr = append(table.Attr, html.Attribute{Key: "aria-description", Val: summary})
	}
	if caption != "" {
		c := element(atom.Caption)
		c.AppendChild(textNode(caption))
		table.AppendChild(c)
	}

	body := element(atom.Tbody)
	for r, row := range t.Rows {
		tr := element(atom.Tr)
		for c, cell := range row {
			if cell == nil || !cell.IsHeader {
				td := element(atom.Td)
				if cell != nil {
					appendText(td, cell.Content)
				}
				tr.AppendChild(td)
				continue
			}
			th := element(atom.Th, html.Attribute{Key: "scope", Val: headerScope(scope, r, c)})
			appendText(th, cell.Content)
			tr.AppendChild(th)
		}
		body.AppendChild(tr)
	}
	table.AppendChild(body)
	return table
}

func headerScope(scope string, row, col int) string {
	if scope != "" {
		return scope
	}
	if row == 0 || col != 0 {
		return "col"
	}
	return "row"
}

// Node renders a block. Artifacts are hidden from assistive technology.
func (b Block) Node() *html.Node {
	var n *html.Node
	switch {
	case b.Table != nil:
		n = TableNode(b.Table, b.Caption, b.Summary, b.Scope)
	case b.Flow != nil:
		n = FlowNode(*b.Flow, b.Tag, b.Lang)
	default:
		return nil
	}
	if b.ID != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "id", Val: b.ID})
	}
	if b.Artifact {
		n.Attr = append(n.Attr, html.Attribute{Key: "aria-hidden", Val: "true"})
	}
	return n
}

// Document builds a complete HTML document from blocks.
func Document(title, lang string, blocks []Block) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	if lang != "" {
		root.Attr = append(root.Attr, html.Attribute{Key: "lang", Val: lang})
	}
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	t := element(atom.Title)
	t.AppendChild(textNode(title))
	head.AppendChild(t)
	root.AppendChild(head)

	body := element(atom.Body)
	for _, b := range blocks {
		if n := b.Node(); n != nil {
			body.AppendChild(n)
		}
	}
	root.AppendChild(body)
	doc.AppendChild(root)
	return doc
}

// Write renders n to w.
func Write(w io.Writer, n *html.Node) error {
	if err := html.Render(w, n); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// String renders n to a string.
func String(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}
