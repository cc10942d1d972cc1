// Package tables extracts tabular content from an explicit grid.
//
// A [model.TableSpec] names a region and its row and column boundaries. The
// [Extractor] splits the region into cells, converts each cell rectangle to
// page space and reconstructs the text inside it with the flow package, one
// replay of the page per cell:
//
//	ext := tables.New(dedup.NewSet())
//	res, err := ext.Extract(spec, pageHeight, src)
//	if err != nil {
//		// the grid itself is invalid
//	}
//	table := res.Table()
//
// Cell text is kept exactly as reconstructed; it is never trimmed.
//
// # Failures
//
// A cell whose replay fails (or panics) is logged, recorded as a [CellError]
// and left out of the result. The remaining cells are still extracted.
//
// # Deduplication
//
// The extractor consults its [dedup.Guard] before extracting any cell. A
// table id that was already processed in the current job yields an empty
// result with Skipped set. Without SharedReplay the page is not replayed;
// with it the page index is built first, so a page that cannot be replayed
// fails every cell and leaves the id free for a retry. An empty table id is
// never deduplicated.
package tables
