// Package model holds the value types shared by the extraction engine.
//
// # Geometry
//
// All output geometry is in PDF page space: points, origin at the bottom-left
// corner, Y growing upwards. [BBox] offers the half-open intersection test
// used to filter runs and the union used to merge their boxes. [Converter]
// maps the top-left-origin, unit-scaled coordinates found in tagging plans
// (centimetres by default) into page space:
//
//	conv := model.NewConverter(model.CentimetersToPoints)
//	rect := conv.Rect(2, 3, 10, 1.5, pageHeight)
//
// # Runs and flows
//
// A [TextRun] is one positioned run of text reported by a content-stream
// replay. An [ExtractedFlow] is the text reconstructed from all runs in a
// region, together with the union of their boxes.
//
// # Tables
//
// A [TableSpec] describes a table region and explicit row/column boundaries.
// Extraction produces one [TableCell] per grid position, which can be
// arranged into a [Table] for export with ToMarkdown or ToCSV.
package model
