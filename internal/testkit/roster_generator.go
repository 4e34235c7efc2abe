package testkit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"strconv"

	"goattend/domain/ingestion"

	"github.com/xuri/excelize/v2"
)

// Layout of generated rosters, as seen by the parser after the title row is dropped.
const (
	CourseHeaderRow = 4
	LabelRow        = 6
	FirstDataRow    = 7
	FirstCourseCol  = 3
)

// RosterGeneratorConfig configures the roster fixture generator
type RosterGeneratorConfig struct {
	StudentCount        int                      `json:"student_count"`
	Courses             []ingestion.CourseHeader `json:"courses"`
	MinConducted        int                      `json:"min_conducted"`
	MaxConducted        int                      `json:"max_conducted"`
	PlaceholderRate     float64                  `json:"placeholder_rate"`
	BlankPercentageRate float64                  `json:"blank_percentage_rate"`
	RegistrationPrefix  string                   `json:"registration_prefix"`
	Seed                int64                    `json:"seed"`
}

// DefaultRosterConfig returns a small three-course roster.
func DefaultRosterConfig() RosterGeneratorConfig {
	return RosterGeneratorConfig{
		StudentCount: 30,
		Courses: []ingestion.CourseHeader{
			{Code: "22IT580", Name: "Data Structures"},
			{Code: "22IT581", Name: "Computer Networks"},
			{Code: "22MA301", Name: "Discrete Mathematics"},
		},
		MinConducted:        3,
		MaxConducted:        45,
		PlaceholderRate:     0.05,
		BlankPercentageRate: 0.2,
		RegistrationPrefix:  "21IT",
		Seed:                42,
	}
}

// Roster is a generated sheet together with what a correct parse must yield.
type Roster struct {
	Grid     ingestion.Grid
	Students []ingestion.StudentDescriptor
	Expected []ingestion.AttendanceTuple
}

// RosterGenerator produces deterministic attendance rosters
type RosterGenerator struct {
	config RosterGeneratorConfig
	rng    *rand.Rand
}

// NewRosterGenerator creates a generator seeded from the config.
func NewRosterGenerator(config RosterGeneratorConfig) *RosterGenerator {
	return &RosterGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds one roster.
func (g *RosterGenerator) Generate() Roster {
	width := FirstCourseCol + 3*len(g.config.Courses)
	grid := ingestion.Grid{
		{"INSTITUTE OF TECHNOLOGY"},
		{"Department of Information Technology"},
		{"Attendance Report"},
		{},
	}

	headers := make([]string, width)
	labels := make([]string, width)
	copy(labels, []string{"Admission No", "Registration No", "Student Name"})
	for i, c := range g.config.Courses {
		col := FirstCourseCol + 3*i
		headers[col] = fmt.Sprintf("%s - %s", c.Code, c.Name)
		labels[col], labels[col+1], labels[col+2] = "Attended", "Conducted", "%"
	}
	grid = append(grid, headers, []string{}, labels)

	var roster Roster
	firstName := ""
	if len(g.config.Courses) > 0 {
		firstName = g.config.Courses[0].Name
	}

	for s := 0; s < g.config.StudentCount; s++ {
		student := ingestion.StudentDescriptor{
			AdmissionNo:    fmt.Sprintf("A%05d", s+1),
			RegistrationNo: fmt.Sprintf("%s%03d", g.config.RegistrationPrefix, s+1),
			Name:           fmt.Sprintf("Student %d", s+1),
		}
		roster.Students = append(roster.Students, student)

		row := make([]string, width)
		row[0], row[1], row[2] = student.AdmissionNo, student.RegistrationNo, student.Name

		for i, c := range g.config.Courses {
			col := FirstCourseCol + 3*i
			if g.rng.Float64() < g.config.PlaceholderRate {
				row[col], row[col+1], row[col+2] = "-", "-", "-"
				continue
			}

			conducted := g.config.MinConducted + g.rng.Intn(g.config.MaxConducted-g.config.MinConducted+1)
			attended := 0
			if conducted > 0 {
				attended = g.rng.Intn(conducted + 1)
			}
			row[col] = strconv.Itoa(attended)
			row[col+1] = strconv.Itoa(conducted)

			var pct float64
			if g.rng.Float64() < g.config.BlankPercentageRate {
				if conducted > 0 {
					pct = float64(attended) / float64(conducted) * 100
				}
			} else {
				row[col+2] = strconv.FormatFloat(float64(attended)/float64(conducted)*100, 'f', 2, 64)
				pct, _ = strconv.ParseFloat(row[col+2], 64)
			}

			roster.Expected = append(roster.Expected, ingestion.AttendanceTuple{
				RegistrationNo: student.RegistrationNo,
				CourseCode:     c.Code,
				CourseName:     firstName,
				Attended:       attended,
				Conducted:      conducted,
				Percentage:     pct,
			})
		}
		grid = append(grid, row)
	}

	roster.Grid = grid
	return roster
}

// Courses returns the header map a correct scan must yield.
func (g *RosterGenerator) Courses() map[int]ingestion.CourseHeader {
	out := make(map[int]ingestion.CourseHeader, len(g.config.Courses))
	for i, c := range g.config.Courses {
		out[FirstCourseCol+3*i] = c
	}
	return out
}

// TitleRow is written above the grid in file fixtures; readers drop it.
var TitleRow = []string{"Attendance Export"}

// CSV renders the roster as delimited text with a leading title row. Rows are padded to a
// common width so that no line is empty.
func (r Roster) CSV() ([]byte, error) {
	width := len(TitleRow)
	for _, row := range r.Grid {
		if len(row) > width {
			width = len(row)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range append(ingestion.Grid{TitleRow}, r.Grid...) {
		padded := make([]string, width)
		copy(padded, row)
		if err := w.Write(padded); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// XLSX renders the roster as a workbook with a leading title row. Numeric text is stored as
// numbers, as spreadsheet exports do.
func (r Roster) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range append(ingestion.Grid{TitleRow}, r.Grid...) {
		for j, cell := range row {
			if cell == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			var value interface{} = cell
			if n, err := strconv.ParseFloat(cell, 64); err == nil {
				value = n
			}
			if err := f.SetCellValue(sheet, ref, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
