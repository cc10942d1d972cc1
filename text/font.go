package text

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DefaultGlyphWidth is the width, in thousandths of an em, assumed for
// glyphs whose width is unknown.
const DefaultGlyphWidth = 500.0

// Encoding maps the bytes of a simple font's strings to text.
type Encoding int

const (
	WinAnsiEncoding Encoding = iota
	MacRomanEncoding
	Latin1Encoding
)

// EncodingByName returns the encoding for a font's /Encoding name. Unknown
// names (StandardEncoding included) use WinAnsi, which agrees with them on
// the printable ASCII range.
func EncodingByName(name string) Encoding {
	switch strings.TrimPrefix(name, "/") {
	case "MacRomanEncoding", "MacExpertEncoding":
		return MacRomanEncoding
	case "PDFDocEncoding", "Latin1":
		return Latin1Encoding
	}
	return WinAnsiEncoding
}

func (e Encoding) charmap() *charmap.Charmap {
	switch e {
	case MacRomanEncoding:
		return charmap.Macintosh
	case Latin1Encoding:
		return charmap.ISO8859_1
	default:
		return charmap.Windows1252
	}
}

var utf16BOM = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)

// Decode converts raw string bytes to text. Strings starting with a UTF-16BE
// byte order mark are decoded as UTF-16 regardless of the encoding.
func (e Encoding) Decode(raw []byte) string {
	var dec *encoding.Decoder
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		dec = utf16BOM.NewDecoder()
	} else {
		dec = e.charmap().NewDecoder()
	}
	out, err := dec.Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�")
	}
	return string(out)
}

// Font describes a font resource well enough to decode and measure its
// strings.
type Font struct {
	// BaseFont is reported as the run's font name. When empty the resource
	// name is used.
	BaseFont string

	Encoding Encoding

	// FirstChar and Widths give glyph widths in thousandths of an em for
	// codes FirstChar..FirstChar+len(Widths)-1.
	FirstChar    int
	Widths       []float64
	MissingWidth float64

	// Decode, when set, replaces Encoding. It is used for fonts whose
	// mapping comes from elsewhere (a ToUnicode CMap, for example).
	Decode func(raw []byte) string
}

// DecodeString converts raw string bytes to text.
func (f *Font) DecodeString(raw []byte) string {
	if f == nil {
		return WinAnsiEncoding.Decode(raw)
	}
	if f.Decode != nil {
		return f.Decode(raw)
	}
	return f.Encoding.Decode(raw)
}

// GlyphWidth returns the width of a single-byte code in thousandths of an em.
func (f *Font) GlyphWidth(code byte) float64 {
	if f == nil {
		return DefaultGlyphWidth
	}
	i := int(code) - f.FirstChar
	if i >= 0 && i < len(f.Widths) && f.Widths[i] > 0 {
		return f.Widths[i]
	}
	if f.MissingWidth > 0 {
		return f.MissingWidth
	}
	return DefaultGlyphWidth
}

// StringWidth returns the glyph width of raw in text space units for a font
// size. Width tables are indexed by single-byte codes; fonts without one use
// DefaultGlyphWidth per decoded character.
func (f *Font) StringWidth(raw []byte, text string, fontSize float64) float64 {
	if f == nil || len(f.Widths) == 0 {
		return float64(utf8.RuneCountInString(text)) * DefaultGlyphWidth / 1000 * fontSize
	}
	total := 0.0
	for _, c := range raw {
		total += f.GlyphWidth(c)
	}
	return total / 1000 * fontSize
}
