// Package ingest turns a roster grid into students and attendance tuples. It performs no I/O.
package ingest

import (
	"goattend/domain/ingestion"
	"goattend/internal/config"
)

// Options controls where the parser looks for headers and how it pairs course columns.
type Options struct {
	HeaderRow       int
	FallbackDataRow int
	Matching        MatchMode
}

// DefaultOptions matches the institution's roster export layout.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultIngestConfig())
}

// OptionsFromConfig builds parser options from the ingest configuration.
func OptionsFromConfig(cfg config.IngestConfig) Options {
	return Options{
		HeaderRow:       cfg.HeaderRow,
		FallbackDataRow: cfg.FallbackDataRow,
		Matching:        MatchMode(cfg.ColumnMatching),
	}
}

// Parse runs header scanning, layout mapping and row extraction over one grid.
func Parse(grid ingestion.Grid, opts Options) ingestion.ParsedRoster {
	courses := ScanCourseHeaders(grid, opts.HeaderRow)
	start, found := FindDataStart(grid, opts.FallbackDataRow)
	cm := MapColumns(grid.Row(start-1), courses, opts.Matching)
	students, tuples := ExtractRows(grid, start, cm, courses)

	return ingestion.ParsedRoster{
		Students:     students,
		Attendance:   tuples,
		Courses:      courses,
		DataStartRow: start,
		MarkerFound:  found,
		Columns:      cm,
	}
}
