package ingestion

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Grid is one sheet as rows of trimmed-or-raw cell text. Rows may be ragged.
type Grid [][]string

// Row returns the row at idx, or nil when out of range.
func (g Grid) Row(idx int) []string {
	if idx < 0 || idx >= len(g) {
		return nil
	}
	return g[idx]
}

// CellValue returns the trimmed cell at idx, or "" when out of range.
func CellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// FileKind tags an intake file as spreadsheet-binary or delimited text.
type FileKind string

const (
	KindXLSX FileKind = "xlsx"
	KindXLS  FileKind = "xls"
	KindCSV  FileKind = "csv"
)

// KindFromName maps a file name's extension to a FileKind.
func KindFromName(name string) (FileKind, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "xlsx":
		return KindXLSX, nil
	case "xls":
		return KindXLS, nil
	case "csv":
		return KindCSV, nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", name)
	}
}

// CourseHeader is a course code/name pair found in the header row.
type CourseHeader struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CourseColumns holds the column indexes of one course's attendance triple.
type CourseColumns struct {
	Attended   int `json:"attended"`
	Conducted  int `json:"conducted"`
	Percentage int `json:"percentage"`
}

// ColumnMap locates student fields and course triples within a data row.
type ColumnMap struct {
	AdmissionNo    int                      `json:"admission_no"`
	RegistrationNo int                      `json:"registration_no"`
	StudentName    int                      `json:"student_name"`
	Courses        map[string]CourseColumns `json:"courses"`

	// CourseOrder lists course codes in the order their columns were assigned.
	CourseOrder []string `json:"course_order"`
	// Unmapped lists detected course codes that received no ATTENDED column.
	Unmapped []string `json:"unmapped,omitempty"`
}

// StudentDescriptor is a student as read from one data row.
type StudentDescriptor struct {
	AdmissionNo    string `json:"admission_no"`
	RegistrationNo string `json:"registration_no"`
	Name           string `json:"name"`
}

// AttendanceTuple is one student's attendance in one course, as read from a row.
type AttendanceTuple struct {
	RegistrationNo string  `json:"registration_no"`
	CourseCode     string  `json:"course_code"`
	CourseName     string  `json:"course_name"`
	Attended       int     `json:"attended_periods"`
	Conducted      int     `json:"conducted_periods"`
	Percentage     float64 `json:"attendance_percentage"`
}

// ParsedRoster is the extractor's output for one file.
type ParsedRoster struct {
	Students   []StudentDescriptor  `json:"students"`
	Attendance []AttendanceTuple    `json:"attendance"`
	Courses    map[int]CourseHeader `json:"courses"`

	DataStartRow int       `json:"data_start_row"`
	MarkerFound  bool      `json:"marker_found"`
	Columns      ColumnMap `json:"columns"`
}

// SortedColumns returns the column indexes of courses in ascending order.
func SortedColumns(courses map[int]CourseHeader) []int {
	cols := make([]int, 0, len(courses))
	for col := range courses {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	return cols
}

// MergeSummary accumulates the outcome of one reconciliation run.
type MergeSummary struct {
	Added      int `json:"added"`
	Updated    int `json:"updated"`
	Skipped    int `json:"skipped"`
	Unresolved int `json:"unresolved"`
	Batches    int `json:"batches"`

	CoursesCreated  int `json:"courses_created"`
	StudentsCreated int `json:"students_created"`
}

// Add folds other into s.
func (s *MergeSummary) Add(other MergeSummary) {
	s.Added += other.Added
	s.Updated += other.Updated
	s.Skipped += other.Skipped
	s.Unresolved += other.Unresolved
	s.Batches += other.Batches
	s.CoursesCreated += other.CoursesCreated
	s.StudentsCreated += other.StudentsCreated
}

func (s MergeSummary) String() string {
	return fmt.Sprintf("added=%d, updated=%d, skipped=%d", s.Added, s.Updated, s.Skipped)
}
