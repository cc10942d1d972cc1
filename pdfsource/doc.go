// Package pdfsource opens PDF files and exposes each page as a
// collector.Source.
//
// Pages are read with github.com/ledongthuc/pdf. By default a page's
// content stream is decoded and replayed by text.Replayer, using the page's
// font resources for decoding and glyph widths. WithGlyphRuns switches to
// the parser's own per-glyph text layout instead.
//
// The underlying parser panics on some malformed files; every call into it
// is guarded and panics are returned as errors.
package pdfsource
