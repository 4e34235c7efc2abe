package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"goattend/domain/ingestion"
	"goattend/internal"
	"goattend/internal/errors"
	"goattend/ports"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// GridReader decodes .xlsx, .xls and .csv uploads into a cell grid
type GridReader struct {
	skipTitleRow bool
	logger       *internal.Logger
}

var _ ports.GridReader = (*GridReader)(nil)

// NewGridReader creates a reader. When skipTitleRow is set, the first physical row of every
// file is dropped, so row indexes match layouts where that row is a column-label line.
func NewGridReader(skipTitleRow bool, logger *internal.Logger) *GridReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &GridReader{skipTitleRow: skipTitleRow, logger: logger.With("GridReader")}
}

// ReadGrid decodes the first sheet of r
func (r *GridReader) ReadGrid(ctx context.Context, src io.Reader, kind ingestion.FileKind) (ingestion.Grid, error) {
	start := time.Now()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.ParseError("failed to read upload", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows [][]string
	switch kind {
	case ingestion.KindXLSX:
		rows, err = readXLSX(data)
	case ingestion.KindXLS:
		rows, err = readXLS(data)
	case ingestion.KindCSV:
		rows, err = readCSV(data)
	default:
		return nil, errors.UnsupportedFile(string(kind))
	}
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("failed to decode %s file", kind), err)
	}

	if r.skipTitleRow && len(rows) > 0 {
		rows = rows[1:]
	}

	r.logger.Debug("%s decoded in %.2fms (%d rows)", kind, float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return ingestion.Grid(rows), nil
}

// ReadFile opens path and decodes it according to its extension
func (r *GridReader) ReadFile(ctx context.Context, path string) (ingestion.Grid, error) {
	kind, err := ingestion.KindFromName(path)
	if err != nil {
		return nil, errors.UnsupportedFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ParseError("failed to open "+path, err)
	}
	defer f.Close()
	return r.ReadGrid(ctx, f, kind)
}

// readXLSX returns raw (unformatted) cell values of the first sheet
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	return f.GetRows(sheet, excelize.Options{RawCellValue: true})
}

// readXLS returns the first sheet of a legacy BIFF workbook
func readXLS(data []byte) (rows [][]string, err error) {
	// The BIFF decoder panics on some truncated files.
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("corrupt xls file: %v", p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("no worksheet found")
	}

	rows = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol()+1)
		for j := 0; j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, trimTrailingBlank(cells))
	}
	return trimTrailingRows(rows), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

func trimTrailingBlank(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}

func trimTrailingRows(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && len(rows[end-1]) == 0 {
		end--
	}
	return rows[:end]
}
