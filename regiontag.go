// Package regiontag provides a fluent API for reconstructing text and tables
// from rectangular regions of PDF pages.
//
// Basic usage:
//
//	flow, err := regiontag.Open("document.pdf").Region(1, model.NewBBox(72, 600, 300, 40))
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(flow.Text)
//
// Running a tagging plan:
//
//	p, err := plan.LoadFile("plan.json")
//	if err != nil {
//	    // handle error
//	}
//	res, warnings, err := regiontag.Open("document.pdf").Workers(4).Run(p)
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", regiontag.FormatWarnings(warnings))
//	}
//
// The lower-level packages (collector, flow, tables) work on any
// collector.Source and do not need a PDF.
package regiontag

import (
	"errors"

	"github.com/tsawler/regiontag/collector"
	"github.com/tsawler/regiontag/dedup"
)

// ErrNoPages is returned when the document has no pages to extract from.
var ErrNoPages = errors.New("document has no pages")

// Document is a paged source of text runs. *pdfsource.Document implements it.
type Document interface {
	PageCount() int
	PageHeight(page int) (float64, error)
	Source(page int) (collector.Source, error)
}

// Open returns an Extractor for the PDF file at path. The file is opened
// lazily by the first terminal operation and must be released with Close.
//
// Example:
//
//	ext := regiontag.Open("document.pdf")
//	defer ext.Close()
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(),
		jobGuard: dedup.NewSet(),
	}
}

// FromDocument returns an Extractor over an already-opened document.
// The caller is responsible for closing the document.
func FromDocument(doc Document) *Extractor {
	return &Extractor{
		doc:       doc,
		docOpened: true,
		options:   defaultOptions(),
		jobGuard:  dedup.NewSet(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil.
//
// Example:
//
//	count := regiontag.Must(regiontag.Open("document.pdf").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustResult is like Must for operations that also return warnings, which
// are discarded.
//
// Example:
//
//	res := regiontag.MustResult(regiontag.Open("document.pdf").Run(p))
func MustResult[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
