package app

import (
	"context"
	"fmt"
	"math"
	"sort"

	"goattend/domain/roster"
	"goattend/internal"
	"goattend/internal/errors"
	"goattend/internal/profiling"
	"goattend/ports"
)

// DashboardStats summarises the whole store
type DashboardStats struct {
	TotalStudents           int                              `json:"total_students"`
	TotalCourses            int                              `json:"total_courses"`
	LowAttendanceCount      int                              `json:"low_attendance_count"`
	CriticalAttendanceCount int                              `json:"critical_attendance_count"`
	Distribution            profiling.AttendanceDistribution `json:"distribution"`
}

// StudentDetails identifies the student a search narrowed down to
type StudentDetails struct {
	Name           string `json:"name"`
	RegistrationNo string `json:"registration_no"`
}

// CourseOption is a course as listed to clients
type CourseOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// FilteredStats summarises the records matching a filter. The threshold is ignored;
// low and critical counts use the fixed tiers.
type FilteredStats struct {
	TotalStudents           int             `json:"total_students"`
	TotalCourses            int             `json:"total_courses"`
	LowAttendanceCount      int             `json:"low_attendance_count"`
	CriticalAttendanceCount int             `json:"critical_attendance_count"`
	IsSingleStudent         bool            `json:"is_single_student"`
	StudentDetails          *StudentDetails `json:"student_details"`
	TotalCoursesInSystem    int             `json:"total_courses_in_system"`
	CourseDetails           *CourseOption   `json:"course_details"`
	StudentCourseInfo       *string         `json:"student_course_info"`
}

// ReportService answers attendance queries and renders exports
type ReportService struct {
	store    ports.RosterStore
	sinks    map[string]ports.ReportSink
	analyzer *profiling.DistributionAnalyzer
	logger   *internal.Logger
}

// NewReportService creates a report service. Sinks are addressed by their Format().
func NewReportService(store ports.RosterStore, sinks []ports.ReportSink, logger *internal.Logger) *ReportService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	bySink := make(map[string]ports.ReportSink, len(sinks))
	for _, sink := range sinks {
		bySink[sink.Format()] = sink
	}
	return &ReportService{
		store:    store,
		sinks:    bySink,
		analyzer: profiling.NewDistributionAnalyzer(),
		logger:   logger.With("Reports"),
	}
}

// Formats lists the export formats available, sorted
func (s *ReportService) Formats() []string {
	out := make([]string, 0, len(s.sinks))
	for f := range s.sinks {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// AttendanceRecords returns the joined records matching filter
func (s *ReportService) AttendanceRecords(ctx context.Context, filter roster.AttendanceFilter) ([]roster.AttendanceView, error) {
	views, err := s.store.ListAttendance(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list attendance")
	}
	return views, nil
}

// APIRows numbers views from 1 and keeps record ids so clients can delete them
func APIRows(views []roster.AttendanceView) []roster.ExportRow {
	rows := FileRows(views)
	for i := range rows {
		rows[i].ID = views[i].ID
	}
	return rows
}

// FileRows numbers views from 1 with percentages rounded to one decimal
func FileRows(views []roster.AttendanceView) []roster.ExportRow {
	rows := make([]roster.ExportRow, len(views))
	for i, v := range views {
		rows[i] = roster.ExportRow{
			SerialNo:       i + 1,
			RegistrationNo: v.RegistrationNo,
			StudentName:    v.StudentName,
			CourseCode:     v.CourseCode,
			CourseName:     v.CourseName,
			Attended:       v.Attended,
			Conducted:      v.Conducted,
			Percentage:     roundTenth(v.Percentage),
			RawPercentage:  v.Percentage,
		}
	}
	return rows
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// DashboardStats counts students, courses and low/critical records across the store
func (s *ReportService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	var err error

	if stats.TotalStudents, err = s.store.CountStudents(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to count students")
	}
	if stats.TotalCourses, err = s.store.CountCourses(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to count courses")
	}
	if stats.LowAttendanceCount, err = s.store.CountAttendanceBelow(ctx, roster.LowThreshold); err != nil {
		return nil, errors.Wrap(err, "failed to count low attendance")
	}
	if stats.CriticalAttendanceCount, err = s.store.CountAttendanceBelow(ctx, roster.CriticalThreshold); err != nil {
		return nil, errors.Wrap(err, "failed to count critical attendance")
	}

	views, err := s.store.ListAttendance(ctx, roster.DefaultFilter().WithoutThreshold())
	if err != nil {
		return nil, errors.Wrap(err, "failed to list attendance")
	}
	percentages := make([]float64, len(views))
	for i, v := range views {
		percentages[i] = v.Percentage
	}
	if stats.Distribution, err = s.analyzer.AnalyzeDistribution(percentages); err != nil {
		return nil, errors.Wrap(err, "failed to summarise attendance distribution")
	}

	return &stats, nil
}

// FilteredStats summarises the records matching filter, ignoring its threshold
func (s *ReportService) FilteredStats(ctx context.Context, filter roster.AttendanceFilter) (*FilteredStats, error) {
	views, err := s.store.ListAttendance(ctx, filter.WithoutThreshold())
	if err != nil {
		return nil, errors.Wrap(err, "failed to list attendance")
	}

	stats := &FilteredStats{}
	students := make(map[int64]bool)
	courses := make(map[int64]bool)
	var first *StudentDetails

	for _, v := range views {
		students[v.StudentID] = true
		courses[v.CourseID] = true
		if first == nil {
			first = &StudentDetails{Name: v.StudentName, RegistrationNo: v.RegistrationNo}
		}
		if v.Percentage < roster.LowThreshold {
			stats.LowAttendanceCount++
		}
		if v.Percentage < roster.CriticalThreshold {
			stats.CriticalAttendanceCount++
		}
	}

	stats.TotalStudents = len(students)
	stats.TotalCourses = len(courses)
	stats.IsSingleStudent = filter.Search != "" && len(students) == 1

	if stats.TotalCoursesInSystem, err = s.store.CountCourses(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to count courses")
	}

	if filter.CourseCode != "" {
		course, err := s.store.FindCourseByCode(ctx, filter.CourseCode)
		if err != nil {
			return nil, errors.Wrap(err, "failed to look up course")
		}
		if course != nil {
			stats.CourseDetails = &CourseOption{Code: course.Code, Name: course.Name}
		}
	}

	if stats.IsSingleStudent {
		stats.StudentDetails = first
		info := filter.CourseCode
		if info == "" {
			info = courseCount(len(courses))
		}
		stats.StudentCourseInfo = &info
	}

	return stats, nil
}

func courseCount(n int) string {
	if n == 1 {
		return "1 course"
	}
	return fmt.Sprintf("%d courses", n)
}

// Courses returns every course ordered by code
func (s *ReportService) Courses(ctx context.Context) ([]CourseOption, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list courses")
	}
	out := make([]CourseOption, len(courses))
	for i, c := range courses {
		out[i] = CourseOption{Code: c.Code, Name: c.Name}
	}
	return out, nil
}

// Export renders the records matching filter in the given format
func (s *ReportService) Export(ctx context.Context, format string, filter roster.AttendanceFilter) (*ports.Report, error) {
	sink, ok := s.sinks[format]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("export format %q", format))
	}
	if !filter.HasThreshold() {
		filter = filter.WithoutThreshold()
	}

	views, err := s.AttendanceRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	report, err := sink.Render(FileRows(views), filter.Descriptions())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to render %s export", format)
	}
	s.logger.Info("rendered %s export: %d rows, %d bytes", format, len(views), len(report.Data))
	return report, nil
}

// DeleteRecord reports whether the record existed
func (s *ReportService) DeleteRecord(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.store.DeleteAttendance(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete record %d: %v", id, err)
		return false, errors.Wrap(err, "failed to delete record")
	}
	return deleted, nil
}

// ClearAll removes every record, student and course
func (s *ReportService) ClearAll(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		s.logger.Error("failed to clear data: %v", err)
		return errors.Wrap(err, "failed to clear data")
	}
	s.logger.Info("all attendance data cleared")
	return nil
}

// CleanupInsufficient removes records whose conducted periods fall below minConducted
func (s *ReportService) CleanupInsufficient(ctx context.Context, minConducted int) (int64, error) {
	if minConducted < 1 {
		return 0, errors.InvalidInput("minimum conducted periods must be positive")
	}
	n, err := s.store.DeleteAttendanceBelowConducted(ctx, minConducted)
	if err != nil {
		return 0, errors.Wrap(err, "failed to remove records with insufficient data")
	}
	s.logger.Info("removed %d records with fewer than %d conducted periods", n, minConducted)
	return n, nil
}
