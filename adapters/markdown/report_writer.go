// Package markdown renders attendance reports as a standalone HTML page via a Markdown table.
package markdown

import (
	"fmt"
	"strings"
	"time"

	"goattend/domain/roster"
	"goattend/ports"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const htmlContentType = "text/html; charset=utf-8"

// ReportWriter renders attendance rows as an HTML page
type ReportWriter struct {
	now func() time.Time
}

var _ ports.ReportSink = (*ReportWriter)(nil)

// NewReportWriter creates an HTML report sink
func NewReportWriter() *ReportWriter {
	return &ReportWriter{now: time.Now}
}

func (w *ReportWriter) Format() string { return "html" }

func (w *ReportWriter) Render(rows []roster.ExportRow, filters []string) (*ports.Report, error) {
	md := w.Markdown(rows, filters)

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Attendance Report",
	})

	return &ports.Report{
		Data:        markdown.ToHTML([]byte(md), p, renderer),
		ContentType: htmlContentType,
		Filename:    roster.ExportFilename(filters, "html"),
	}, nil
}

// Markdown builds the report source: title, filters, table and footer.
func (w *ReportWriter) Markdown(rows []roster.ExportRow, filters []string) string {
	var b strings.Builder

	b.WriteString("# Attendance Report\n\n")
	if len(filters) > 0 {
		escaped := make([]string, len(filters))
		for i, f := range filters {
			escaped[i] = escape(f)
		}
		fmt.Fprintf(&b, "Filters Applied: %s\n\n", strings.Join(escaped, ` \| `))
	}

	b.WriteString("| " + strings.Join(roster.ExportColumns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(roster.ExportColumns)) + "\n")
	for _, row := range rows {
		cells := make([]string, 0, len(roster.ExportColumns))
		for _, v := range row.Values() {
			cells = append(cells, escape(fmt.Sprint(v)))
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	fmt.Fprintf(&b, "\nGenerated on: %s \\| Total Records: %d\n", w.now().Format("02-01-2006 15:04:05"), len(rows))
	return b.String()
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", "&lt;",
	">", "&gt;",
	"#", `\#`,
)

func escape(s string) string {
	return mdEscaper.Replace(s)
}
