package excel

import (
	"fmt"
	"unicode/utf8"

	"goattend/domain/roster"
	"goattend/internal/errors"
	"goattend/ports"

	"github.com/xuri/excelize/v2"
)

const (
	ReportSheetName = "Low Attendance Report"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportWriter renders attendance rows as a styled workbook
type ReportWriter struct{}

var _ ports.ReportSink = (*ReportWriter)(nil)

// NewReportWriter creates an XLSX report sink
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

func (w *ReportWriter) Format() string { return "excel" }

// Render writes a header row followed by one row per record. Column widths fit the longest
// value plus two characters.
func (w *ReportWriter) Render(rows []roster.ExportRow, filters []string) (*ports.Report, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ReportSheetName); err != nil {
		return nil, errors.Wrap(err, "failed to name report sheet")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D7E4BC"}},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create header style")
	}

	widths := make([]int, len(roster.ExportColumns))
	header := make([]interface{}, len(roster.ExportColumns))
	for i, col := range roster.ExportColumns {
		header[i] = col
		widths[i] = utf8.RuneCountInString(col)
	}
	if err := f.SetSheetRow(ReportSheetName, "A1", &header); err != nil {
		return nil, errors.Wrap(err, "failed to write report header")
	}

	for i, row := range rows {
		values := row.Values()
		for j, v := range values {
			if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[j] {
				widths[j] = n
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.Wrap(err, "failed to address report row")
		}
		if err := f.SetSheetRow(ReportSheetName, cell, &values); err != nil {
			return nil, errors.Wrap(err, "failed to write report row")
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(roster.ExportColumns))
	if err != nil {
		return nil, errors.Wrap(err, "failed to address report columns")
	}
	if err := f.SetCellStyle(ReportSheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, errors.Wrap(err, "failed to style report header")
	}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(ReportSheetName, col, col, float64(width+2)); err != nil {
			return nil, errors.Wrap(err, "failed to size report column")
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to write workbook")
	}

	return &ports.Report{
		Data:        buf.Bytes(),
		ContentType: xlsxContentType,
		Filename:    roster.ExportFilename(filters, "xlsx"),
	}, nil
}
