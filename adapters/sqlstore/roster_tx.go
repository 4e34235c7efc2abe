package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"goattend/domain/roster"
	apperrors "goattend/internal/errors"

	"github.com/jmoiron/sqlx"
)

// rosterTx implements ports.RosterTx on a sqlx transaction
type rosterTx struct {
	tx *sqlx.Tx
}

func (t *rosterTx) FindStudentByRegistration(ctx context.Context, registrationNo string) (*roster.Student, error) {
	var student roster.Student
	err := t.tx.GetContext(ctx, &student, t.tx.Rebind(`
		SELECT id, admission_no, registration_no, name
		FROM students
		WHERE registration_no = ?
	`), registrationNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to find student", err)
	}
	return &student, nil
}

// CreateStudent inserts the student unless its registration number already exists, in which
// case the stored row is loaded into student instead.
func (t *rosterTx) CreateStudent(ctx context.Context, student *roster.Student) error {
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	err := t.tx.GetContext(ctx, &student.ID, t.tx.Rebind(`
		INSERT INTO students (admission_no, registration_no, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (registration_no) DO NOTHING
		RETURNING id
	`), student.AdmissionNo, student.RegistrationNo, student.Name, student.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		existing, findErr := t.FindStudentByRegistration(ctx, student.RegistrationNo)
		if findErr != nil {
			return findErr
		}
		if existing == nil {
			return apperrors.DatabaseError("student vanished after conflict", err)
		}
		*student = *existing
		return nil
	}
	if err != nil {
		return apperrors.DatabaseError("failed to create student", err)
	}
	return nil
}

func (t *rosterTx) FindCourseByCode(ctx context.Context, code string) (*roster.Course, error) {
	return findCourse(ctx, t.tx, code)
}

// CreateCourse inserts the course unless its code already exists; an existing course keeps
// its name and is loaded into course.
func (t *rosterTx) CreateCourse(ctx context.Context, course *roster.Course) error {
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	err := t.tx.GetContext(ctx, &course.ID, t.tx.Rebind(`
		INSERT INTO courses (course_code, course_name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (course_code) DO NOTHING
		RETURNING id
	`), course.Code, course.Name, course.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		existing, findErr := t.FindCourseByCode(ctx, course.Code)
		if findErr != nil {
			return findErr
		}
		if existing == nil {
			return apperrors.DatabaseError("course vanished after conflict", err)
		}
		*course = *existing
		return nil
	}
	if err != nil {
		return apperrors.DatabaseError("failed to create course", err)
	}
	return nil
}

func (t *rosterTx) FindAttendance(ctx context.Context, studentID, courseID int64) (*roster.AttendanceRecord, error) {
	var record roster.AttendanceRecord
	err := t.tx.GetContext(ctx, &record, t.tx.Rebind(`
		SELECT id, student_id, course_id, attended_periods, conducted_periods, attendance_percentage
		FROM attendance_records
		WHERE student_id = ? AND course_id = ?
	`), studentID, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to find attendance record", err)
	}
	return &record, nil
}

func (t *rosterTx) CreateAttendance(ctx context.Context, record *roster.AttendanceRecord) error {
	if record.UploadDate.IsZero() {
		record.UploadDate = time.Now().UTC()
	}
	err := t.tx.GetContext(ctx, &record.ID, t.tx.Rebind(`
		INSERT INTO attendance_records
			(student_id, course_id, attended_periods, conducted_periods, attendance_percentage, upload_date)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`), record.StudentID, record.CourseID, record.Attended, record.Conducted, record.Percentage, record.UploadDate)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("attendance record already exists", err)
		}
		return apperrors.DatabaseError("failed to create attendance record", err)
	}
	return nil
}

// UpdateAttendance overwrites the periods, percentage and upload date of an existing record
func (t *rosterTx) UpdateAttendance(ctx context.Context, record *roster.AttendanceRecord) error {
	if record.UploadDate.IsZero() {
		record.UploadDate = time.Now().UTC()
	}
	_, err := t.tx.ExecContext(ctx, t.tx.Rebind(`
		UPDATE attendance_records
		SET attended_periods = ?, conducted_periods = ?, attendance_percentage = ?, upload_date = ?
		WHERE id = ?
	`), record.Attended, record.Conducted, record.Percentage, record.UploadDate, record.ID)
	if err != nil {
		return apperrors.DatabaseError("failed to update attendance record", err)
	}
	return nil
}

func (t *rosterTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return apperrors.DatabaseError("failed to commit transaction", err)
	}
	return nil
}

// Rollback is a no-op after Commit
func (t *rosterTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return apperrors.DatabaseError("failed to roll back transaction", err)
	}
	return nil
}
