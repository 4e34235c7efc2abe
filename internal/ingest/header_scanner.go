package ingest

import (
	"regexp"
	"strings"

	"goattend/domain/ingestion"
)

// courseHeaderPattern matches cells such as "22IT580 - Data Structures" or "22ECGDO - Open Elective".
var courseHeaderPattern = regexp.MustCompile(`(\d{2}[A-Z0-9]{4,5})\s*-\s*(.+)`)

// ScanCourseHeaders finds course code/name pairs in the given header row of the grid.
// The result is keyed by column index and is empty, never nil, when nothing matches.
// A code that appears in two columns yields two entries.
func ScanCourseHeaders(grid ingestion.Grid, headerRow int) map[int]ingestion.CourseHeader {
	courses := make(map[int]ingestion.CourseHeader)
	for col, cell := range grid.Row(headerRow) {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		header, ok := ParseCourseHeader(cell)
		if !ok {
			continue
		}
		courses[col] = header
	}
	return courses
}

// ParseCourseHeader extracts a course code and name from a single header cell.
func ParseCourseHeader(cell string) (ingestion.CourseHeader, bool) {
	m := courseHeaderPattern.FindStringSubmatch(cell)
	if m == nil {
		return ingestion.CourseHeader{}, false
	}
	return ingestion.CourseHeader{
		Code: m[1],
		Name: strings.TrimSpace(m[2]),
	}, true
}
