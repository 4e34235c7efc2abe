package roster

import (
	"strconv"
	"strings"
)

// NoThreshold disables the percentage cut-off when used as AttendanceFilter.Threshold.
const NoThreshold = 100.0

// AttendanceFilter narrows the attendance listing.
type AttendanceFilter struct {
	CourseCode     string
	Threshold      float64
	Search         string
	ExcludeCourses []string
}

// DefaultFilter returns the filter used when no query parameters are given.
func DefaultFilter() AttendanceFilter {
	return AttendanceFilter{Threshold: LowThreshold}
}

// HasThreshold reports whether the percentage cut-off applies.
func (f AttendanceFilter) HasThreshold() bool {
	return f.Threshold < NoThreshold
}

// WithoutThreshold returns a copy of f with the cut-off disabled.
func (f AttendanceFilter) WithoutThreshold() AttendanceFilter {
	f.Threshold = NoThreshold + 1
	return f
}

// Descriptions returns the human-readable filter lines. Excluded courses are never described.
func (f AttendanceFilter) Descriptions() []string {
	var out []string
	if f.CourseCode != "" {
		out = append(out, "Course: "+f.CourseCode)
	}
	if f.HasThreshold() {
		out = append(out, "Attendance below: "+formatThreshold(f.Threshold)+"%")
	}
	if f.Search != "" {
		out = append(out, "Search: "+f.Search)
	}
	return out
}

// ExportFilename derives a download name from filter descriptions.
func ExportFilename(descriptions []string, ext string) string {
	name := "attendance." + ext
	if len(descriptions) > 0 {
		parts := make([]string, len(descriptions))
		for i, d := range descriptions {
			d = strings.ReplaceAll(d, " ", "_")
			d = strings.NewReplacer(":", "", ",", "", "|", "").Replace(d)
			parts[i] = d
		}
		name = strings.Join(parts, "_") + "." + ext
	}
	return strings.NewReplacer(`"`, "", "'", "").Replace(name)
}

// formatThreshold renders 75 as "75.0" and 72.5 as "72.5".
func formatThreshold(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseCourseList splits a comma-separated list of course codes, dropping blanks.
func ParseCourseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
