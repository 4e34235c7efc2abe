package ports

import (
	"context"

	"goattend/domain/roster"
)

// RosterStore is the persistent store for students, courses and attendance records.
// Writes made during ingestion go through a RosterTx; the remaining methods serve queries
// and maintenance.
type RosterStore interface {
	// Begin opens a transaction used for one reconciliation batch
	Begin(ctx context.Context) (RosterTx, error)

	// ListAttendance returns joined records matching filter, ordered by
	// percentage, registration number and course code.
	ListAttendance(ctx context.Context, filter roster.AttendanceFilter) ([]roster.AttendanceView, error)

	// ListCourses returns all courses ordered by code
	ListCourses(ctx context.Context) ([]roster.Course, error)

	// FindCourseByCode returns nil, nil when the course does not exist
	FindCourseByCode(ctx context.Context, code string) (*roster.Course, error)

	CountStudents(ctx context.Context) (int, error)
	CountCourses(ctx context.Context) (int, error)

	// CountAttendanceBelow counts records with percentage strictly below threshold
	CountAttendanceBelow(ctx context.Context, threshold float64) (int, error)

	// DeleteAttendance reports whether a record was removed
	DeleteAttendance(ctx context.Context, id int64) (bool, error)

	// DeleteAttendanceBelowConducted removes records whose conducted periods are below minConducted
	DeleteAttendanceBelowConducted(ctx context.Context, minConducted int) (int64, error)

	// ClearAll removes every attendance record, student and course
	ClearAll(ctx context.Context) error

	Ping(ctx context.Context) error
}

// RosterTx is a unit of work. Lookups return nil, nil when nothing matches.
type RosterTx interface {
	FindStudentByRegistration(ctx context.Context, registrationNo string) (*roster.Student, error)
	CreateStudent(ctx context.Context, student *roster.Student) error

	FindCourseByCode(ctx context.Context, code string) (*roster.Course, error)
	CreateCourse(ctx context.Context, course *roster.Course) error

	FindAttendance(ctx context.Context, studentID, courseID int64) (*roster.AttendanceRecord, error)
	CreateAttendance(ctx context.Context, record *roster.AttendanceRecord) error
	UpdateAttendance(ctx context.Context, record *roster.AttendanceRecord) error

	Commit() error
	Rollback() error
}
