package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"goattend/domain/roster"
	apperrors "goattend/internal/errors"
	"goattend/ports"

	"github.com/jmoiron/sqlx"
)

// RosterRepository implements ports.RosterStore over sqlx
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository creates a roster store on an open connection pool
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

var _ ports.RosterStore = (*RosterRepository)(nil)

const attendanceViewSelect = `
	SELECT a.id, a.student_id, a.course_id,
		s.registration_no, s.admission_no, s.name AS student_name,
		c.course_code, c.course_name,
		a.attended_periods, a.conducted_periods, a.attendance_percentage
	FROM attendance_records a
	JOIN students s ON s.id = a.student_id
	JOIN courses c ON c.id = a.course_id`

// Begin opens a transaction for one reconciliation batch
func (r *RosterRepository) Begin(ctx context.Context) (ports.RosterTx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to begin transaction", err)
	}
	return &rosterTx{tx: tx}, nil
}

// ListAttendance returns joined attendance rows matching the filter
func (r *RosterRepository) ListAttendance(ctx context.Context, filter roster.AttendanceFilter) ([]roster.AttendanceView, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter.CourseCode != "" {
		where = append(where, "c.course_code = ?")
		args = append(args, filter.CourseCode)
	}
	if len(filter.ExcludeCourses) > 0 {
		where = append(where, "c.course_code NOT IN (?)")
		args = append(args, filter.ExcludeCourses)
	}
	if filter.HasThreshold() {
		where = append(where, "a.attendance_percentage < ?")
		args = append(args, filter.Threshold)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		where = append(where, "(LOWER(s.name) LIKE ? OR LOWER(s.registration_no) LIKE ?)")
		args = append(args, pattern, pattern)
	}

	query := attendanceViewSelect
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\tORDER BY a.attendance_percentage ASC, s.registration_no ASC, c.course_code ASC"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to build attendance query", err)
	}

	views := []roster.AttendanceView{}
	if err := r.db.SelectContext(ctx, &views, r.db.Rebind(query), args...); err != nil {
		return nil, apperrors.DatabaseError("failed to list attendance", err)
	}
	return views, nil
}

// ListCourses returns all courses ordered by code
func (r *RosterRepository) ListCourses(ctx context.Context) ([]roster.Course, error) {
	courses := []roster.Course{}
	err := r.db.SelectContext(ctx, &courses, `
		SELECT id, course_code, course_name
		FROM courses
		ORDER BY course_code
	`)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list courses", err)
	}
	return courses, nil
}

// FindCourseByCode returns nil when the course does not exist
func (r *RosterRepository) FindCourseByCode(ctx context.Context, code string) (*roster.Course, error) {
	return findCourse(ctx, r.db, code)
}

func (r *RosterRepository) CountStudents(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM students")
}

func (r *RosterRepository) CountCourses(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM courses")
}

// CountAttendanceBelow counts records strictly below threshold
func (r *RosterRepository) CountAttendanceBelow(ctx context.Context, threshold float64) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM attendance_records WHERE attendance_percentage < ?", threshold)
}

func (r *RosterRepository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return 0, apperrors.DatabaseError("failed to count rows", err)
	}
	return n, nil
}

// DeleteAttendance removes one record and reports whether it existed
func (r *RosterRepository) DeleteAttendance(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM attendance_records WHERE id = ?"), id)
	if err != nil {
		return false, apperrors.DatabaseError("failed to delete attendance record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.DatabaseError("failed to delete attendance record", err)
	}
	return n > 0, nil
}

// DeleteAttendanceBelowConducted removes records whose conducted periods are below minConducted
func (r *RosterRepository) DeleteAttendanceBelowConducted(ctx context.Context, minConducted int) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM attendance_records WHERE conducted_periods < ?"), minConducted)
	if err != nil {
		return 0, apperrors.DatabaseError("failed to clean up attendance records", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.DatabaseError("failed to clean up attendance records", err)
	}
	return n, nil
}

// ClearAll deletes attendance, students and courses in one transaction
func (r *RosterRepository) ClearAll(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.DatabaseError("failed to begin transaction", err)
	}

	for _, table := range []string{"attendance_records", "students", "courses"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			_ = tx.Rollback()
			return apperrors.DatabaseError("failed to clear "+table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.DatabaseError("failed to commit clear", err)
	}
	return nil
}

func (r *RosterRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// findCourse works on the pool or inside a transaction
func findCourse(ctx context.Context, q sqlx.ExtContext, code string) (*roster.Course, error) {
	var course roster.Course
	err := sqlx.GetContext(ctx, q, &course, q.Rebind(`
		SELECT id, course_code, course_name
		FROM courses
		WHERE course_code = ?
	`), code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to find course", err)
	}
	return &course, nil
}
