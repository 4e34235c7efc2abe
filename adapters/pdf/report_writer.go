// Package pdf renders attendance reports as printable A4 tables.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"goattend/domain/roster"
	"goattend/internal/errors"
	"goattend/ports"

	"github.com/go-pdf/fpdf"
)

const pdfContentType = "application/pdf"

type rgb struct{ r, g, b int }

var (
	headerFill  = rgb{128, 128, 128}
	headerText  = rgb{245, 245, 245}
	criticalRow = rgb{240, 128, 128}
	lowRow      = rgb{255, 255, 224}
	okRow       = rgb{144, 238, 144}
)

var columns = []struct {
	title string
	width float64
}{
	{"S.No", 12},
	{"Registration No", 30},
	{"Course Code", 24},
	{"Course Name", 64},
	{"Attended", 18},
	{"Total", 16},
	{"Attendance %", 26},
}

const (
	margin    = 10.0
	rowHeight = 7.0
)

// ReportWriter renders attendance rows as a PDF table tinted by attendance tier
type ReportWriter struct {
	now      func() time.Time
	compress bool
}

var _ ports.ReportSink = (*ReportWriter)(nil)

// NewReportWriter creates a PDF report sink
func NewReportWriter() *ReportWriter {
	return &ReportWriter{now: time.Now, compress: true}
}

func (w *ReportWriter) Format() string { return "pdf" }

// Render lays out the title, the applied filters, the table and a generation footer.
func (w *ReportWriter) Render(rows []roster.ExportRow, filters []string) (*ports.Report, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(w.compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle("Attendance Report", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Attendance Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if len(filters) > 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr("Filters Applied: "+strings.Join(filters, " | ")), "", "L", false)
		pdf.Ln(4)
	}

	w.tableHeader(pdf)

	_, pageHeight := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "", 8)
	for i, row := range rows {
		if pdf.GetY()+rowHeight > pageHeight-margin {
			pdf.AddPage()
			w.tableHeader(pdf)
			pdf.SetFont("Helvetica", "", 8)
		}

		fill := tierColour(row.RawPercentage)
		pdf.SetFillColor(fill.r, fill.g, fill.b)
		pdf.SetTextColor(0, 0, 0)

		cells := []string{
			fmt.Sprintf("%d", i+1),
			row.RegistrationNo,
			row.CourseCode,
			row.CourseName,
			fmt.Sprintf("%d", row.Attended),
			fmt.Sprintf("%d", row.Conducted),
			fmt.Sprintf("%.0f", row.RawPercentage),
		}
		for j, text := range cells {
			text = fitText(pdf, tr(text), columns[j].width-2)
			pdf.CellFormat(columns[j].width, rowHeight, text, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(8)
	if pdf.GetY()+rowHeight > pageHeight-margin {
		pdf.AddPage()
	}
	pdf.SetFont("Helvetica", "", 10)
	footer := fmt.Sprintf("Generated on: %s | Total Records: %d", w.now().Format("02-01-2006 15:04:05"), len(rows))
	pdf.CellFormat(0, 6, footer, "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to render pdf")
	}

	return &ports.Report{
		Data:        buf.Bytes(),
		ContentType: pdfContentType,
		Filename:    roster.ExportFilename(filters, "pdf"),
	}, nil
}

func (w *ReportWriter) tableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(headerFill.r, headerFill.g, headerFill.b)
	pdf.SetTextColor(headerText.r, headerText.g, headerText.b)
	for _, col := range columns {
		pdf.CellFormat(col.width, rowHeight, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

// tierColour picks the row tint: critical below 65, low below 75, otherwise ok.
func tierColour(pct float64) rgb {
	switch {
	case pct < roster.CriticalThreshold:
		return criticalRow
	case pct < roster.LowThreshold:
		return lowRow
	default:
		return okRow
	}
}

// fitText shortens text with an ellipsis until it fits width.
func fitText(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
