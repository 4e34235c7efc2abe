package ports

import (
	"context"
	"io"

	"goattend/domain/ingestion"
)

// GridReader turns an uploaded spreadsheet into the cell grid the parser works on.
// Readers only decode; they never interpret the roster layout.
type GridReader interface {
	// ReadGrid decodes the first sheet of r. kind selects the decoder.
	ReadGrid(ctx context.Context, r io.Reader, kind ingestion.FileKind) (ingestion.Grid, error)
	// ReadFile opens path and decodes it according to its extension.
	ReadFile(ctx context.Context, path string) (ingestion.Grid, error)
}
