package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttendanceFilter_Descriptions(t *testing.T) {
	tests := []struct {
		name   string
		filter AttendanceFilter
		want   []string
	}{
		{"default", DefaultFilter(), []string{"Attendance below: 75.0%"}},
		{"fractional threshold", AttendanceFilter{Threshold: 72.5}, []string{"Attendance below: 72.5%"}},
		{"no threshold", AttendanceFilter{Threshold: NoThreshold}, nil},
		{
			"all fields, exclusions never described",
			AttendanceFilter{CourseCode: "22IT580", Threshold: 65, Search: "asha", ExcludeCourses: []string{"22IT581"}},
			[]string{"Course: 22IT580", "Attendance below: 65.0%", "Search: asha"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Descriptions())
		})
	}
}

func TestWithoutThreshold(t *testing.T) {
	f := AttendanceFilter{CourseCode: "22IT580", Threshold: 60}
	assert.True(t, f.HasThreshold())

	g := f.WithoutThreshold()
	assert.False(t, g.HasThreshold())
	assert.Equal(t, "22IT580", g.CourseCode)
	assert.True(t, f.HasThreshold(), "original is unchanged")
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		filters []string
		ext     string
		want    string
	}{
		{nil, "xlsx", "attendance.xlsx"},
		{[]string{"Course: 22IT580"}, "pdf", "Course_22IT580.pdf"},
		{[]string{"Course: 22IT580", "Attendance below: 75.0%"}, "xlsx", "Course_22IT580_Attendance_below_75.0%.xlsx"},
		{[]string{`Search: o'neil, "x" | y`}, "pdf", "Search_oneil_x__y.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ExportFilename(tt.filters, tt.ext))
		})
	}
}

func TestParseCourseList(t *testing.T) {
	assert.Equal(t, []string{"22IT580", "22IT581"}, ParseCourseList(" 22IT580, ,22IT581,"))
	assert.Nil(t, ParseCourseList(""))
}
