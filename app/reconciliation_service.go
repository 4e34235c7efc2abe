package app

import (
	"context"
	"time"

	"goattend/domain/ingestion"
	"goattend/domain/roster"
	"goattend/internal"
	"goattend/internal/config"
	"goattend/internal/errors"
	"goattend/ports"
)

// ReconciliationService merges a parsed roster into the persistent store.
// Stored conducted periods per (student, course) never decrease.
type ReconciliationService struct {
	store        ports.RosterStore
	batchSize    int
	minConducted int
	logger       *internal.Logger
	now          func() time.Time
}

// NewReconciliationService creates a reconciliation service
func NewReconciliationService(store ports.RosterStore, cfg config.IngestConfig, logger *internal.Logger) *ReconciliationService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = config.DefaultIngestConfig().BatchSize
	}
	return &ReconciliationService{
		store:        store,
		batchSize:    batchSize,
		minConducted: cfg.MinConducted,
		logger:       logger.With("Reconcile"),
		now:          time.Now,
	}
}

type mergeOutcome int

const (
	outcomeAdded mergeOutcome = iota
	outcomeUpdated
	outcomeSkipped
	outcomeUnresolved
)

// Reconcile writes courses and students first, then attendance in batches of batchSize tuples.
// A store failure rolls back the in-flight batch and is returned; batches already committed stay.
func (s *ReconciliationService) Reconcile(ctx context.Context, parsed ingestion.ParsedRoster) (ingestion.MergeSummary, error) {
	var summary ingestion.MergeSummary

	if err := s.upsertReferenceData(ctx, parsed, &summary); err != nil {
		return summary, err
	}
	if err := s.mergeAttendance(ctx, parsed.Attendance, &summary); err != nil {
		return summary, err
	}

	s.logger.Info("merged %d tuples: %s, unresolved=%d, batches=%d",
		len(parsed.Attendance), summary, summary.Unresolved, summary.Batches)
	return summary, nil
}

func (s *ReconciliationService) upsertReferenceData(ctx context.Context, parsed ingestion.ParsedRoster, summary *ingestion.MergeSummary) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, col := range ingestion.SortedColumns(parsed.Courses) {
		header := parsed.Courses[col]
		existing, err := tx.FindCourseByCode(ctx, header.Code)
		if err != nil {
			return errors.Wrapf(err, "failed to look up course %s", header.Code)
		}
		if existing != nil {
			continue
		}
		if err := tx.CreateCourse(ctx, &roster.Course{Code: header.Code, Name: header.Name}); err != nil {
			return errors.Wrapf(err, "failed to create course %s", header.Code)
		}
		summary.CoursesCreated++
	}

	for _, sd := range parsed.Students {
		existing, err := tx.FindStudentByRegistration(ctx, sd.RegistrationNo)
		if err != nil {
			return errors.Wrapf(err, "failed to look up student %s", sd.RegistrationNo)
		}
		if existing != nil {
			continue
		}
		student := &roster.Student{
			AdmissionNo:    sd.AdmissionNo,
			RegistrationNo: sd.RegistrationNo,
			Name:           sd.Name,
		}
		if err := tx.CreateStudent(ctx, student); err != nil {
			return errors.Wrapf(err, "failed to create student %s", sd.RegistrationNo)
		}
		summary.StudentsCreated++
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit students and courses", err)
	}
	s.logger.Debug("reference data committed: %d courses, %d students created",
		summary.CoursesCreated, summary.StudentsCreated)
	return nil
}

// batch is one open attendance transaction and its id caches.
type batch struct {
	tx       ports.RosterTx
	pending  int
	students map[string]int64
	courses  map[string]int64
}

func (s *ReconciliationService) mergeAttendance(ctx context.Context, tuples []ingestion.AttendanceTuple, summary *ingestion.MergeSummary) error {
	var b *batch

	for _, tuple := range tuples {
		if tuple.Conducted < s.minConducted {
			summary.Skipped++
			continue
		}

		if b == nil {
			tx, err := s.store.Begin(ctx)
			if err != nil {
				return errors.DatabaseError("failed to begin attendance batch", err)
			}
			b = &batch{tx: tx, students: make(map[string]int64), courses: make(map[string]int64)}
		}

		outcome, err := s.mergeTuple(ctx, b, tuple)
		if err != nil {
			b.tx.Rollback()
			return err
		}
		switch outcome {
		case outcomeAdded:
			summary.Added++
		case outcomeUpdated:
			summary.Updated++
		case outcomeSkipped:
			summary.Skipped++
		case outcomeUnresolved:
			summary.Unresolved++
		}

		b.pending++
		if b.pending >= s.batchSize {
			if err := s.commitBatch(b, summary); err != nil {
				return err
			}
			b = nil
		}
	}

	if b != nil {
		return s.commitBatch(b, summary)
	}
	return nil
}

func (s *ReconciliationService) commitBatch(b *batch, summary *ingestion.MergeSummary) error {
	if err := b.tx.Commit(); err != nil {
		b.tx.Rollback()
		return errors.DatabaseError("failed to commit attendance batch", err)
	}
	summary.Batches++
	s.logger.Debug("batch %d committed (%d tuples)", summary.Batches, b.pending)
	return nil
}

func (s *ReconciliationService) mergeTuple(ctx context.Context, b *batch, tuple ingestion.AttendanceTuple) (mergeOutcome, error) {
	studentID, err := s.resolveStudent(ctx, b, tuple.RegistrationNo)
	if err != nil {
		return 0, err
	}
	courseID, err := s.resolveCourse(ctx, b, tuple.CourseCode)
	if err != nil {
		return 0, err
	}
	if studentID == 0 || courseID == 0 {
		s.logger.Warn("unresolved tuple %s/%s", tuple.RegistrationNo, tuple.CourseCode)
		return outcomeUnresolved, nil
	}

	existing, err := b.tx.FindAttendance(ctx, studentID, courseID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to look up attendance %s/%s", tuple.RegistrationNo, tuple.CourseCode)
	}

	if existing == nil {
		record := &roster.AttendanceRecord{
			StudentID:  studentID,
			CourseID:   courseID,
			Attended:   tuple.Attended,
			Conducted:  tuple.Conducted,
			Percentage: tuple.Percentage,
			UploadDate: s.now(),
		}
		if err := b.tx.CreateAttendance(ctx, record); err != nil {
			return 0, errors.Wrapf(err, "failed to create attendance %s/%s", tuple.RegistrationNo, tuple.CourseCode)
		}
		return outcomeAdded, nil
	}

	if tuple.Conducted <= existing.Conducted {
		return outcomeSkipped, nil
	}

	existing.Attended = tuple.Attended
	existing.Conducted = tuple.Conducted
	existing.Percentage = tuple.Percentage
	existing.UploadDate = s.now()
	if err := b.tx.UpdateAttendance(ctx, existing); err != nil {
		return 0, errors.Wrapf(err, "failed to update attendance %s/%s", tuple.RegistrationNo, tuple.CourseCode)
	}
	return outcomeUpdated, nil
}

// resolveStudent returns 0 when the student is unknown.
func (s *ReconciliationService) resolveStudent(ctx context.Context, b *batch, registrationNo string) (int64, error) {
	if id, ok := b.students[registrationNo]; ok {
		return id, nil
	}
	student, err := b.tx.FindStudentByRegistration(ctx, registrationNo)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to look up student %s", registrationNo)
	}
	if student == nil {
		return 0, nil
	}
	b.students[registrationNo] = student.ID
	return student.ID, nil
}

// resolveCourse returns 0 when the course is unknown.
func (s *ReconciliationService) resolveCourse(ctx context.Context, b *batch, code string) (int64, error) {
	if id, ok := b.courses[code]; ok {
		return id, nil
	}
	course, err := b.tx.FindCourseByCode(ctx, code)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to look up course %s", code)
	}
	if course == nil {
		return 0, nil
	}
	b.courses[code] = course.ID
	return course.ID, nil
}
