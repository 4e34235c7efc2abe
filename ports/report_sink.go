package ports

import "goattend/domain/roster"

// Report is a rendered export ready to be sent as a download.
type Report struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ReportSink renders filtered attendance rows into one file format.
type ReportSink interface {
	// Format is the export name used in routes, e.g. "excel" or "pdf"
	Format() string
	Render(rows []roster.ExportRow, filters []string) (*Report, error)
}
