// Package text turns a decoded page content stream into positioned text
// runs.
//
// A [Replayer] walks the stream's operators, tracks the graphics and text
// state, and reports each string shown by Tj, TJ, ' and " as a
// collector.RunEvent:
//
//	src := text.NewReplayer(content,
//		text.WithFont("F1", &text.Font{BaseFont: "Helvetica"}))
//	runs, err := collector.Collect(src, region)
//
// # Run geometry
//
// A run's bounding box is its descent line: it starts at the text origin,
// spans the advance of the shown glyphs, sits [DefaultDescentRatio] times the
// font size below the baseline and has zero height. Glyph widths come from
// the [Font] when it carries a width table; otherwise each character is
// assumed to be half an em wide.
//
// # Decoding
//
// String bytes are decoded with the font's [Encoding] (WinAnsi, MacRoman or
// Latin-1) or its Decode function. Strings that begin with a UTF-16BE byte
// order mark are decoded as UTF-16.
package text
