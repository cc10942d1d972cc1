package pdfsource

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ledongthuc/pdf"

	"github.com/tsawler/regiontag/collector"
	"github.com/tsawler/regiontag/logging"
	"github.com/tsawler/regiontag/model"
	"github.com/tsawler/regiontag/text"
)

// ErrPageOutOfRange is returned for page numbers outside 1..PageCount.
var ErrPageOutOfRange = errors.New("page out of range")

// DefaultPageHeight is used when a page has no usable MediaBox (US Letter).
const DefaultPageHeight = 792.0

// Document is an open PDF. It is safe for concurrent use; access to the
// underlying parser is serialized, replays of returned sources are not.
type Document struct {
	mu          sync.Mutex
	closer      io.Closer
	reader      *pdf.Reader
	glyphRuns   bool
	descentRate float64
}

// Option configures a Document.
type Option func(*Document)

// WithGlyphRuns reports one run per glyph from the parser's text layout
// instead of replaying the content stream.
func WithGlyphRuns() Option {
	return func(d *Document) { d.glyphRuns = true }
}

// WithDescentRatio sets the descent ratio used for run boxes.
func WithDescentRatio(ratio float64) Option {
	return func(d *Document) { d.descentRate = ratio }
}

// Open opens the PDF file at path.
func Open(path string, opts ...Option) (*Document, error) {
	var (
		f *os.File
		r *pdf.Reader
	)
	err := guard(func() error {
		var err error
		f, r, err = pdf.Open(path)
		return err
	})
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return newDocument(f, r, opts), nil
}

// NewDocument reads a PDF from ra.
func NewDocument(ra io.ReaderAt, size int64, opts ...Option) (*Document, error) {
	var r *pdf.Reader
	err := guard(func() error {
		var err error
		r, err = pdf.NewReader(ra, size)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return newDocument(nil, r, opts), nil
}

func newDocument(c io.Closer, r *pdf.Reader, opts []Option) *Document {
	d := &Document{closer: c, reader: r, descentRate: text.DefaultDescentRatio}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Close releases the underlying file, if any.
func (d *Document) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pageCount()
}

func (d *Document) pageCount() int {
	n := 0
	_ = guard(func() error {
		n = d.reader.NumPage()
		return nil
	})
	return n
}

// page must be called with d.mu held.
func (d *Document) page(num int) (pdf.Page, error) {
	if n := d.pageCount(); num < 1 || num > n {
		return pdf.Page{}, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, num, n)
	}
	var p pdf.Page
	err := guard(func() error {
		p = d.reader.Page(num)
		if p.V.IsNull() {
			return fmt.Errorf("page %d has no dictionary", num)
		}
		return nil
	})
	return p, err
}

// PageHeight returns the height of the page's MediaBox in points.
func (d *Document) PageHeight(num int) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.page(num)
	if err != nil {
		return 0, err
	}

	height := DefaultPageHeight
	err = guard(func() error {
		box := inherited(p.V, "MediaBox")
		if box.Kind() != pdf.Array || box.Len() < 4 {
			logging.For("pdfsource").Debug("page has no MediaBox, using default height", "page", num)
			return nil
		}
		h := box.Index(3).Float64() - box.Index(1).Float64()
		if h > 0 {
			height = h
		}
		return nil
	})
	return height, err
}

// inherited looks key up on the page and then up the page tree.
func inherited(v pdf.Value, key string) pdf.Value {
	for i := 0; i < 32 && !v.IsNull(); i++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

// Source returns a replayable source of the page's text runs.
func (d *Document) Source(num int) (collector.Source, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.page(num)
	if err != nil {
		return nil, err
	}
	if d.glyphRuns {
		return glyphSource{mu: &d.mu, page: p, descentRatio: d.descentRate}, nil
	}

	var content []byte
	opts := []text.Option{text.WithDescentRatio(d.descentRate)}
	err = guard(func() error {
		var err error
		content, err = pageContent(p)
		if err != nil {
			return err
		}
		for _, name := range p.Fonts() {
			opts = append(opts, text.WithFont(name, pageFont(p.Font(name))))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", num, err)
	}
	return text.NewReplayer(content, opts...), nil
}

// pageContent concatenates the page's decoded content streams.
func pageContent(p pdf.Page) ([]byte, error) {
	contents := p.V.Key("Contents")
	var streams []pdf.Value
	switch contents.Kind() {
	case pdf.Stream:
		streams = append(streams, contents)
	case pdf.Array:
		for i := 0; i < contents.Len(); i++ {
			streams = append(streams, contents.Index(i))
		}
	case pdf.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected /Contents of kind %v", contents.Kind())
	}

	var out []byte
	for _, s := range streams {
		rc := s.Reader()
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read content stream: %w", err)
		}
		out = append(out, data...)
		out = append(out, '\n')
	}
	return out, nil
}

// pageFont adapts a parsed font resource.
func pageFont(f pdf.Font) *text.Font {
	enc := f.Encoder()
	return &text.Font{
		BaseFont:  f.BaseFont(),
		FirstChar: f.FirstChar(),
		Widths:    f.Widths(),
		Decode: func(raw []byte) string {
			return enc.Decode(string(raw))
		},
	}
}

// glyphSource reports the parser's per-glyph text layout.
type glyphSource struct {
	mu           *sync.Mutex
	page         pdf.Page
	descentRatio float64
}

func (g glyphSource) Replay(h collector.Handler) error {
	var glyphs []pdf.Text
	g.mu.Lock()
	err := guard(func() error {
		glyphs = g.page.Content().Text
		return nil
	})
	g.mu.Unlock()
	if err != nil {
		return err
	}
	for _, t := range glyphs {
		if t.S == "" {
			continue
		}
		h.HandleRun(collector.RunEvent{
			Text:     t.S,
			BBox:     model.NewBBox(t.X, t.Y-g.descentRatio*t.FontSize, t.W, 0),
			FontName: t.Font,
			FontSize: t.FontSize,
		})
	}
	return nil
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	return fn()
}
