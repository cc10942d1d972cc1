// Package pdftest builds small uncompressed PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Letter is the MediaBox every page inherits from the page tree.
var Letter = []float64{0, 0, 612, 792}

// Page is one page of a test document.
type Page struct {
	// Content is the raw content stream.
	Content string

	// MediaBox overrides the inherited Letter box when set.
	MediaBox []float64
}

// Build returns a PDF whose pages all use one Helvetica WinAnsi font as /F1.
func Build(pages ...Page) []byte {
	// 1 catalog, 2 page tree, 3 font, then a page and a content object per page.
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	kids := make([]string, len(pages))
	for i, p := range pages {
		pageObj := len(objects) + 1
		kids[i] = fmt.Sprintf("%d 0 R", pageObj)

		var box string
		if p.MediaBox != nil {
			box = " /MediaBox " + array(p.MediaBox)
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R%s /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", box, pageObj+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(p.Content)+1, p.Content),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox %s >>",
		strings.Join(kids, " "), len(pages), array(Letter))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// WriteFile builds a PDF into a temporary directory and returns its path.
func WriteFile(t testing.TB, name string, pages ...Page) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Build(pages...), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func array(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
