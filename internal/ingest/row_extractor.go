package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"goattend/domain/ingestion"
)

// missingTokens are read as blank cells, as spreadsheet tools export them for empty values.
var missingTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"NaN":  {},
	"-nan": {},
	"-NaN": {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"<NA>": {},
	"#N/A": {},
	"#NA":  {},
	"NULL": {},
	"null": {},
	"None": {},
}

// isBlank reports whether a trimmed cell carries no value.
func isBlank(s string) bool {
	_, ok := missingTokens[s]
	return ok
}

// isPlaceholder reports whether a course cell should be treated as "no data".
func isPlaceholder(s string) bool {
	return isBlank(s) || s == "-"
}

// ExtractRows walks the data rows from start and produces students and attendance tuples.
// Row-level problems never fail the call; the affected row or course is skipped.
func ExtractRows(grid ingestion.Grid, start int, cm ingestion.ColumnMap, courses map[int]ingestion.CourseHeader) ([]ingestion.StudentDescriptor, []ingestion.AttendanceTuple) {
	var (
		students []ingestion.StudentDescriptor
		tuples   []ingestion.AttendanceTuple
	)

	// Every tuple carries the name of the first detected course, whatever its own course is.
	// Persisted course names come from the header map, not from tuples.
	firstName := ""
	if cols := ingestion.SortedColumns(courses); len(cols) > 0 {
		firstName = courses[cols[0]].Name
	}

	if start < 0 {
		start = 0
	}
	for idx := start; idx < len(grid); idx++ {
		row := grid[idx]
		if blankRow(row) {
			continue
		}

		regNo := ingestion.CellValue(row, cm.RegistrationNo)
		if isBlank(regNo) {
			continue
		}

		students = append(students, ingestion.StudentDescriptor{
			AdmissionNo:    valueOrEmpty(ingestion.CellValue(row, cm.AdmissionNo)),
			RegistrationNo: regNo,
			Name:           valueOrEmpty(ingestion.CellValue(row, cm.StudentName)),
		})

		for _, code := range cm.CourseOrder {
			cols := cm.Courses[code]
			attended, conducted, pct, ok, err := readCourse(row, cols)
			if err != nil || !ok {
				continue
			}
			tuples = append(tuples, ingestion.AttendanceTuple{
				RegistrationNo: regNo,
				CourseCode:     code,
				CourseName:     firstName,
				Attended:       attended,
				Conducted:      conducted,
				Percentage:     pct,
			})
		}
	}

	return students, tuples
}

// readCourse reads one course triple. ok is false when attended or conducted hold no data;
// err is set when a present value cannot be converted.
func readCourse(row []string, cols ingestion.CourseColumns) (attended, conducted int, pct float64, ok bool, err error) {
	attRaw := ingestion.CellValue(row, cols.Attended)
	condRaw := ingestion.CellValue(row, cols.Conducted)
	if isPlaceholder(attRaw) || isPlaceholder(condRaw) {
		return 0, 0, 0, false, nil
	}

	if attended, err = truncInt(attRaw); err != nil {
		return 0, 0, 0, false, err
	}
	if conducted, err = truncInt(condRaw); err != nil {
		return 0, 0, 0, false, err
	}

	pctRaw := ingestion.CellValue(row, cols.Percentage)
	if isPlaceholder(pctRaw) {
		if conducted > 0 {
			pct = float64(attended) / float64(conducted) * 100
		}
		return attended, conducted, pct, true, nil
	}

	if pct, err = parseFinite(pctRaw); err != nil {
		return 0, 0, 0, false, err
	}
	return attended, conducted, pct, true, nil
}

// truncInt parses s as a number and truncates it toward zero, so "7.9" reads as 7.
func truncInt(s string) (int, error) {
	f, err := parseFinite(s)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}

func valueOrEmpty(s string) string {
	if isBlank(s) {
		return ""
	}
	return s
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if !isBlank(strings.TrimSpace(cell)) {
			return false
		}
	}
	return true
}
