package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/regiontag/dedup"
	"github.com/tsawler/regiontag/internal/pdftest"
	"github.com/tsawler/regiontag/logging"
)

// Page 1 holds two lines of text, page 2 a 2x2 table. With -scale 1 the
// plan below addresses them in points from the top-left corner.
const (
	textPage  = "BT /F1 12 Tf 72 700 Td (Hello PDF) Tj 0 -14 Td (second line) Tj ET"
	tablePage = "BT /F1 10 Tf 100 500 Td (Name) Tj 100 0 Td (Qty) Tj -100 -20 Td (Tea) Tj 100 0 Td (7) Tj ET"

	testPlan = `{
  "taggingInformation": [
    {"id": "intro", "type": "text", "tag": "H1", "x": 60, "y": 70, "width": 300, "height": 40},
    {"id": "stock", "type": "table", "page": 2, "x": 90, "y": 280, "width": 200, "height": 40,
     "rowPositions": [0, 20, 40], "colPositions": [0, 100, 200],
     "wcagData": {"hasHeader": true, "headerRows": [0], "caption": "Stock"}},
    {"id": "logo", "type": "image", "alt": "Logo"}
  ]
}`
)

func fixtures(t *testing.T) (pdfPath, planPath string) {
	t.Helper()
	pdfPath = pdftest.WriteFile(t, "report.pdf", pdftest.Page{Content: textPage}, pdftest.Page{Content: tablePage})
	planPath = filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(planPath, []byte(testPlan), 0o644))
	return pdfPath, planPath
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(func() { logging.SetLogger(nil) })
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_Text(t *testing.T) {
	pdfPath, planPath := fixtures(t)

	out, logs, err := runCLI(t, "-pdf", pdfPath, "-plan", planPath, "-scale", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "== intro (page 1, H1) ==\nHello PDF\nsecond line\n")
	assert.Contains(t, out, "== stock (page 2, P) ==\n| Name | Qty |\n|---|---|\n| Tea | 7 |\n")
	assert.NotContains(t, out, "logo")
	assert.Contains(t, logs, "extraction complete")
}

func TestRun_JSON(t *testing.T) {
	pdfPath, planPath := fixtures(t)

	out, _, err := runCLI(t, "-pdf", pdfPath, "-plan", planPath, "-scale", "1", "-format", "json", "-workers", "2")
	require.NoError(t, err)

	var got jsonOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Items, 2)

	intro := got.Items[0]
	assert.Equal(t, "intro", intro.ID)
	require.NotNil(t, intro.Flow)
	assert.Equal(t, "Hello PDF\nsecond line", intro.Flow.Text)
	assert.Equal(t, "Helvetica", intro.Flow.FontName)

	stock := got.Items[1]
	require.NotNil(t, stock.Table)
	assert.Equal(t, 2, stock.Table.Rows)
	require.Len(t, stock.Table.Cells, 4)
	assert.Equal(t, "Qty", stock.Table.Cells[1].Content)
	assert.True(t, stock.Table.Cells[1].IsHeader)
	assert.False(t, stock.Table.Cells[3].IsHeader)
	assert.Empty(t, got.Warnings)
}

func TestRun_HTMLToFile(t *testing.T) {
	pdfPath, planPath := fixtures(t)
	outPath := filepath.Join(t.TempDir(), "out.html")

	stdout, _, err := runCLI(t, "-pdf", pdfPath, "-plan", planPath, "-scale", "1", "-format", "html", "-o", outPath)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "<title>report</title>")
	assert.Contains(t, html, `<h1 id="intro">Hello PDF<br/>second line</h1>`)
	assert.Contains(t, html, "<caption>Stock</caption>")
	assert.Contains(t, html, `<th scope="col">Name</th>`)
}

func TestRun_RedisDeduplicatesAcrossRuns(t *testing.T) {
	mr := miniredis.RunT(t)
	pdfPath, planPath := fixtures(t)
	args := []string{"-pdf", pdfPath, "-plan", planPath, "-scale", "1", "-redis", mr.Addr(), "-job", "job-7"}

	first, _, err := runCLI(t, args...)
	require.NoError(t, err)
	assert.Contains(t, first, "| Tea | 7 |")

	second, _, err := runCLI(t, args...)
	require.NoError(t, err)
	assert.Contains(t, second, "== stock (page 2, P) ==\n(table already processed)\n")
	assert.Contains(t, second, "Hello PDF", "text elements are not deduplicated")

	members, err := mr.Members(dedup.KeyPrefix + "job-7")
	require.NoError(t, err)
	assert.Equal(t, []string{"stock"}, members)
}

func TestRun_RedisWithoutJobIsPerInvocation(t *testing.T) {
	mr := miniredis.RunT(t)
	pdfPath, planPath := fixtures(t)
	args := []string{"-pdf", pdfPath, "-plan", planPath, "-scale", "1", "-redis", mr.Addr()}

	for i := 0; i < 2; i++ {
		out, _, err := runCLI(t, args...)
		require.NoError(t, err)
		assert.Contains(t, out, "| Tea | 7 |", "run %d", i+1)
		assert.NotContains(t, out, "already processed", "run %d", i+1)
	}
	assert.Len(t, mr.Keys(), 2, "each run uses its own key")
}

func TestRun_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	pdfPath, planPath := fixtures(t)
	_, _, err := runCLI(t, "-pdf", pdfPath, "-plan", planPath, "-redis", addr)
	assert.Error(t, err)
}

func TestRun_Errors(t *testing.T) {
	pdfPath, planPath := fixtures(t)

	_, stderr, err := runCLI(t, "-pdf", pdfPath)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, "Usage:")

	_, _, err = runCLI(t, "-pdf", pdfPath, "-plan", planPath, "-format", "xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)

	_, _, err = runCLI(t, "-pdf", pdfPath, "-plan", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "load plan")

	_, _, err = runCLI(t, "-pdf", filepath.Join(t.TempDir(), "missing.pdf"), "-plan", planPath)
	assert.ErrorContains(t, err, "failed to open PDF")
}

func TestRun_Version(t *testing.T) {
	out, _, err := runCLI(t, "-version")
	require.NoError(t, err)
	assert.Equal(t, "regiontag dev (commit: none, built: unknown)\n", out)
}
