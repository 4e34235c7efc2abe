package migration

import (
	"context"
	"fmt"

	"goattend/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run creates the roster schema. Every step is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	d := dialectFor(db)

	if d.sqlite {
		// Foreign keys are off per connection by default.
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return errors.Wrap(err, "failed to enable foreign keys")
		}
	}

	if err := r.createStudentsTable(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create students table")
	}

	if err := r.createCoursesTable(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create courses table")
	}

	if err := r.createAttendanceRecordsTable(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create attendance_records table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

// dialect carries the column types that differ between Postgres and SQLite.
type dialect struct {
	sqlite     bool
	serialPK   string
	floatType  string
	timeType   string
	timeNowDef string
}

func dialectFor(db *sqlx.DB) dialect {
	if db.DriverName() == "sqlite" {
		return dialect{
			sqlite:     true,
			serialPK:   "INTEGER PRIMARY KEY AUTOINCREMENT",
			floatType:  "REAL",
			timeType:   "DATETIME",
			timeNowDef: "CURRENT_TIMESTAMP",
		}
	}
	return dialect{
		serialPK:   "SERIAL PRIMARY KEY",
		floatType:  "DOUBLE PRECISION",
		timeType:   "TIMESTAMP WITH TIME ZONE",
		timeNowDef: "NOW()",
	}
}

func (r *MigrationRunner) createStudentsTable(ctx context.Context, db *sqlx.DB, d dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS students (
			id %s,
			admission_no VARCHAR(50) NOT NULL DEFAULT '',
			registration_no VARCHAR(50) NOT NULL UNIQUE,
			name VARCHAR(100) NOT NULL DEFAULT '',
			created_at %s DEFAULT %s
		)
	`, d.serialPK, d.timeType, d.timeNowDef))
	return err
}

func (r *MigrationRunner) createCoursesTable(ctx context.Context, db *sqlx.DB, d dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS courses (
			id %s,
			course_code VARCHAR(20) NOT NULL UNIQUE,
			course_name VARCHAR(200) NOT NULL DEFAULT '',
			created_at %s DEFAULT %s
		)
	`, d.serialPK, d.timeType, d.timeNowDef))
	return err
}

func (r *MigrationRunner) createAttendanceRecordsTable(ctx context.Context, db *sqlx.DB, d dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS attendance_records (
			id %s,
			student_id INTEGER NOT NULL REFERENCES students(id) ON DELETE CASCADE,
			course_id INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
			attended_periods INTEGER NOT NULL,
			conducted_periods INTEGER NOT NULL,
			attendance_percentage %s NOT NULL,
			upload_date %s DEFAULT %s,
			UNIQUE (student_id, course_id)
		)
	`, d.serialPK, d.floatType, d.timeType, d.timeNowDef))
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_attendance_student_id ON attendance_records(student_id)",
		"CREATE INDEX IF NOT EXISTS idx_attendance_course_id ON attendance_records(course_id)",
		"CREATE INDEX IF NOT EXISTS idx_attendance_percentage ON attendance_records(attendance_percentage)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			fmt.Printf("Warning: failed to create index: %v\n", err)
		}
	}

	return nil
}
