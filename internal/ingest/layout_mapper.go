package ingest

import (
	"strings"

	"goattend/domain/ingestion"
)

// MatchMode selects how detected courses are paired with ATTENDED columns.
type MatchMode string

const (
	// MatchPositional pairs the i-th course (by column) with the i-th ATTENDED column.
	MatchPositional MatchMode = "positional"
	// MatchProximity pairs courses with ATTENDED columns inside their own column triple,
	// keeping both in left-to-right order.
	MatchProximity MatchMode = "proximity"
)

// Default positions of the student columns when the header row does not name them.
const (
	defaultAdmissionCol    = 0
	defaultRegistrationCol = 1
	defaultNameCol         = 2

	// Course triples never start before this column.
	firstCourseCol = 3

	// An ATTENDED column further than this from a course header belongs to another course.
	maxCourseSpan = 2
)

var dataStartMarkers = []string{"ADMISSION NO", "REGISTRATION NO", "STUDENT NAME"}

// FindDataStart returns the index of the first data row: the row after the first row that
// mentions a student column marker. When no row does, fallback is returned with found=false.
func FindDataStart(grid ingestion.Grid, fallback int) (start int, found bool) {
	for idx, row := range grid {
		parts := make([]string, 0, len(row))
		for _, cell := range row {
			if t := strings.TrimSpace(cell); t != "" {
				parts = append(parts, t)
			}
		}
		text := strings.ToUpper(strings.Join(parts, " "))
		for _, marker := range dataStartMarkers {
			if strings.Contains(text, marker) {
				return idx + 1, true
			}
		}
	}
	return fallback, false
}

// MapColumns builds the column map from the header row that precedes the data rows.
func MapColumns(headerRow []string, courses map[int]ingestion.CourseHeader, mode MatchMode) ingestion.ColumnMap {
	cm := ingestion.ColumnMap{
		AdmissionNo:    defaultAdmissionCol,
		RegistrationNo: defaultRegistrationCol,
		StudentName:    defaultNameCol,
		Courses:        make(map[string]ingestion.CourseColumns),
	}

	for idx, cell := range headerRow {
		text := strings.ToUpper(strings.TrimSpace(cell))
		if text == "" {
			continue
		}
		switch {
		case strings.Contains(text, "ADMISSION"):
			cm.AdmissionNo = idx
		case strings.Contains(text, "REGISTRATION"):
			cm.RegistrationNo = idx
		case strings.Contains(text, "NAME"):
			cm.StudentName = idx
		}
	}

	attended := attendedColumns(headerRow)
	cols := ingestion.SortedColumns(courses)

	switch mode {
	case MatchPositional:
		for i, col := range cols {
			code := courses[col].Code
			if i >= len(attended) {
				cm.Unmapped = append(cm.Unmapped, code)
				continue
			}
			assignCourse(&cm, code, attended[i])
		}
	default:
		match := alignCourses(cols, attended)
		for i, col := range cols {
			code := courses[col].Code
			if match[i] < 0 {
				cm.Unmapped = append(cm.Unmapped, code)
				continue
			}
			assignCourse(&cm, code, attended[match[i]])
		}
	}

	return cm
}

// attendedColumns lists, left to right, the columns from firstCourseCol onward whose
// header mentions ATTENDED.
func attendedColumns(headerRow []string) []int {
	var out []int
	for idx := firstCourseCol; idx < len(headerRow); idx++ {
		if strings.Contains(strings.ToUpper(headerRow[idx]), "ATTENDED") {
			out = append(out, idx)
		}
	}
	return out
}

// alignment scores a partial pairing: more pairs win, then the smaller total distance.
type alignment struct {
	pairs, dist int
}

func (a alignment) better(b alignment) bool {
	return a.pairs > b.pairs || (a.pairs == b.pairs && a.dist < b.dist)
}

const (
	stepSkipCourse = iota
	stepSkipAttended
	stepPair
)

// alignCourses pairs course header columns with ATTENDED columns, both sorted ascending.
// Pairs never cross, and a pair is only allowed within maxCourseSpan columns. Among such
// pairings it keeps the most pairs, then the smallest total distance; ties prefer the
// right-hand ATTENDED column. The result holds, per course, an index into attended or -1.
func alignCourses(cols, attended []int) []int {
	n, m := len(cols), len(attended)
	score := make([][]alignment, n+1)
	step := make([][]int, n+1)
	for i := range score {
		score[i] = make([]alignment, m+1)
		step[i] = make([]int, m+1)
	}

	for i := 1; i <= n; i++ {
		step[i][0] = stepSkipCourse
		for j := 1; j <= m; j++ {
			best, move := score[i-1][j], stepSkipCourse
			if cand := score[i][j-1]; !best.better(cand) {
				best, move = cand, stepSkipAttended
			}
			if d := absInt(attended[j-1] - cols[i-1]); d <= maxCourseSpan {
				cand := alignment{pairs: score[i-1][j-1].pairs + 1, dist: score[i-1][j-1].dist + d}
				if !best.better(cand) {
					best, move = cand, stepPair
				}
			}
			score[i][j], step[i][j] = best, move
		}
	}

	match := make([]int, n)
	for i := range match {
		match[i] = -1
	}
	for i, j := n, m; i > 0 && j > 0; {
		switch step[i][j] {
		case stepPair:
			match[i-1] = j - 1
			i--
			j--
		case stepSkipAttended:
			j--
		default:
			i--
		}
	}
	return match
}

// assignCourse records the triple starting at attendedCol. A repeated code keeps its first
// position in CourseOrder and takes the later columns.
func assignCourse(cm *ingestion.ColumnMap, code string, attendedCol int) {
	if _, exists := cm.Courses[code]; !exists {
		cm.CourseOrder = append(cm.CourseOrder, code)
	}
	cm.Courses[code] = ingestion.CourseColumns{
		Attended:   attendedCol,
		Conducted:  attendedCol + 1,
		Percentage: attendedCol + 2,
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
