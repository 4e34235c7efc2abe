package ingest

import (
	"testing"

	"goattend/domain/ingestion"

	"github.com/stretchr/testify/assert"
)

func TestFindDataStart(t *testing.T) {
	tests := []struct {
		name      string
		grid      ingestion.Grid
		wantStart int
		wantFound bool
	}{
		{
			name:      "registration marker",
			grid:      ingestion.Grid{{"title"}, {"S.No", "Registration No", "Name"}, {"1", "21IT001"}},
			wantStart: 2,
			wantFound: true,
		},
		{
			name:      "marker split across cells is joined",
			grid:      ingestion.Grid{{}, {}, {"", "STUDENT", "NAME"}},
			wantStart: 3,
			wantFound: true,
		},
		{
			name:      "first marker row wins",
			grid:      ingestion.Grid{{"Admission No"}, {"Registration No"}},
			wantStart: 1,
			wantFound: true,
		},
		{
			name:      "fallback",
			grid:      ingestion.Grid{{"a"}, {"b"}},
			wantStart: 7,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, found := FindDataStart(tt.grid, 7)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestMapColumns_ScalarColumns(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cm := MapColumns([]string{"S.No", "Reg", "Student"}, nil, MatchProximity)
		assert.Equal(t, 0, cm.AdmissionNo)
		assert.Equal(t, 1, cm.RegistrationNo)
		assert.Equal(t, 2, cm.StudentName)
	})

	t.Run("detected", func(t *testing.T) {
		cm := MapColumns([]string{"S.No", "Student Name", "Admission No", "Registration No"}, nil, MatchProximity)
		assert.Equal(t, 2, cm.AdmissionNo)
		assert.Equal(t, 3, cm.RegistrationNo)
		assert.Equal(t, 1, cm.StudentName)
	})

	t.Run("later match overrides", func(t *testing.T) {
		cm := MapColumns([]string{"Name", "Reg", "Father Name"}, nil, MatchProximity)
		assert.Equal(t, 2, cm.StudentName)
	})

	t.Run("admission takes precedence within a cell", func(t *testing.T) {
		cm := MapColumns([]string{"Admission / Registration"}, nil, MatchProximity)
		assert.Equal(t, 0, cm.AdmissionNo)
		assert.Equal(t, 1, cm.RegistrationNo)
	})
}

func TestMapColumns_Positional(t *testing.T) {
	header := []string{"Admission No", "Registration No", "Student Name", "Attended", "Conducted", "%", "Attended", "Conducted", "%"}
	courses := map[int]ingestion.CourseHeader{
		3: {Code: "22IT580", Name: "Data Structures"},
		6: {Code: "22IT581", Name: "Networks"},
		9: {Code: "22IT582", Name: "Compilers"},
	}

	cm := MapColumns(header, courses, MatchPositional)

	assert.Equal(t, []string{"22IT580", "22IT581"}, cm.CourseOrder)
	assert.Equal(t, ingestion.CourseColumns{Attended: 3, Conducted: 4, Percentage: 5}, cm.Courses["22IT580"])
	assert.Equal(t, ingestion.CourseColumns{Attended: 6, Conducted: 7, Percentage: 8}, cm.Courses["22IT581"])
	assert.Equal(t, []string{"22IT582"}, cm.Unmapped)
}

func TestMapColumns_ProximityDiffersFromPositional(t *testing.T) {
	// The first column group carries no recognised course header, so positional pairing
	// shifts every course one group to the left while proximity keeps each over its own group.
	header := []string{"Admission No", "Registration No", "Student Name",
		"Attended", "Conducted", "%", "Attended", "Conducted", "%", "Attended", "Conducted", "%"}
	courses := map[int]ingestion.CourseHeader{
		6: {Code: "22IT581", Name: "Networks"},
		9: {Code: "22IT582", Name: "Compilers"},
	}

	positional := MapColumns(header, courses, MatchPositional)
	proximity := MapColumns(header, courses, MatchProximity)

	assert.Equal(t, 3, positional.Courses["22IT581"].Attended)
	assert.Equal(t, 6, positional.Courses["22IT582"].Attended)

	assert.Equal(t, 6, proximity.Courses["22IT581"].Attended)
	assert.Equal(t, 9, proximity.Courses["22IT582"].Attended)
}

func TestMapColumns_ProximityTieGoesRight(t *testing.T) {
	header := []string{"", "", "", "Attended", "", "Attended"}
	courses := map[int]ingestion.CourseHeader{4: {Code: "22IT580", Name: "Data Structures"}}

	cm := MapColumns(header, courses, MatchProximity)

	assert.Equal(t, 5, cm.Courses["22IT580"].Attended)
	assert.Empty(t, cm.Unmapped)
}

func TestMapColumns_ProximityReportsSurplusCourses(t *testing.T) {
	header := []string{"", "", "", "Attended", "Conducted", "%"}
	courses := map[int]ingestion.CourseHeader{
		3: {Code: "22IT580", Name: "Data Structures"},
		6: {Code: "22IT581", Name: "Networks"},
	}

	cm := MapColumns(header, courses, MatchProximity)

	assert.Equal(t, []string{"22IT580"}, cm.CourseOrder)
	assert.Equal(t, []string{"22IT581"}, cm.Unmapped)
}

func TestMapColumns_AttendedBeforeColumnThreeIgnored(t *testing.T) {
	header := []string{"Attended", "", "", "", "Attended"}
	courses := map[int]ingestion.CourseHeader{0: {Code: "22IT580", Name: "Data Structures"}}

	cm := MapColumns(header, courses, MatchPositional)

	assert.Equal(t, 4, cm.Courses["22IT580"].Attended)
}

func TestMapColumns_DuplicateCodeLaterGroupWins(t *testing.T) {
	header := []string{"", "", "", "Attended", "Conducted", "%", "Attended", "Conducted", "%"}
	courses := map[int]ingestion.CourseHeader{
		3: {Code: "22IT580", Name: "Data Structures"},
		6: {Code: "22IT580", Name: "Data Structures Lab"},
	}

	for _, mode := range []MatchMode{MatchPositional, MatchProximity} {
		t.Run(string(mode), func(t *testing.T) {
			cm := MapColumns(header, courses, mode)
			assert.Equal(t, []string{"22IT580"}, cm.CourseOrder)
			assert.Equal(t, 6, cm.Courses["22IT580"].Attended)
		})
	}
}

func TestMapColumns_HeadersOverLastColumnOfTriple(t *testing.T) {
	header := []string{"Admission No", "Registration No", "Student Name", "Attended", "Conducted", "%", "Attended", "Conducted", "%"}
	courses := map[int]ingestion.CourseHeader{
		5: {Code: "22IT580", Name: "Data Structures"},
		8: {Code: "22IT581", Name: "Networks"},
	}

	for _, mode := range []MatchMode{MatchPositional, MatchProximity} {
		t.Run(string(mode), func(t *testing.T) {
			cm := MapColumns(header, courses, mode)
			assert.Equal(t, 3, cm.Courses["22IT580"].Attended)
			assert.Equal(t, 6, cm.Courses["22IT581"].Attended)
			assert.Empty(t, cm.Unmapped)
		})
	}
}

func TestMapColumns_ProximityIgnoresDistantColumns(t *testing.T) {
	header := []string{"", "", "", "", "", "", "", "", "", "Attended", "Conducted", "%"}
	courses := map[int]ingestion.CourseHeader{
		3: {Code: "22IT580", Name: "Data Structures"},
		9: {Code: "22IT581", Name: "Networks"},
	}

	cm := MapColumns(header, courses, MatchProximity)

	assert.Equal(t, []string{"22IT581"}, cm.CourseOrder)
	assert.Equal(t, 9, cm.Courses["22IT581"].Attended)
	assert.Equal(t, []string{"22IT580"}, cm.Unmapped)
}

func TestAlignCourses(t *testing.T) {
	tests := []struct {
		name     string
		cols     []int
		attended []int
		want     []int
	}{
		{"aligned", []int{3, 6}, []int{3, 6}, []int{0, 1}},
		{"headers on last column", []int{5, 8}, []int{3, 6}, []int{0, 1}},
		{"headers on middle column", []int{4, 7}, []int{3, 6}, []int{0, 1}},
		{"tie prefers right", []int{4}, []int{3, 5}, []int{1}},
		{"missing group", []int{3, 6, 9}, []int{3, 9}, []int{0, -1, 1}},
		{"no attended columns", []int{3}, nil, []int{-1}},
		{"no courses", nil, []int{3}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alignCourses(tt.cols, tt.attended))
		})
	}
}
