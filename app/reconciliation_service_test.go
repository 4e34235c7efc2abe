package app

import (
	"context"
	"fmt"
	"testing"

	"goattend/domain/ingestion"
	"goattend/domain/roster"
	"goattend/internal/config"
	apperrors "goattend/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	dataStructures = ingestion.CourseHeader{Code: "22IT580", Name: "Data Structures"}
	networks       = ingestion.CourseHeader{Code: "22IT581", Name: "Computer Networks"}
)

// parsedRoster builds a ParsedRoster whose students are taken from the tuples in order.
func parsedRoster(courses []ingestion.CourseHeader, tuples ...ingestion.AttendanceTuple) ingestion.ParsedRoster {
	parsed := ingestion.ParsedRoster{Courses: make(map[int]ingestion.CourseHeader), Attendance: tuples}
	for i, c := range courses {
		parsed.Courses[3+3*i] = c
	}
	seen := make(map[string]bool)
	for _, t := range tuples {
		if !seen[t.RegistrationNo] {
			seen[t.RegistrationNo] = true
			parsed.Students = append(parsed.Students, ingestion.StudentDescriptor{
				RegistrationNo: t.RegistrationNo,
				Name:           "Student " + t.RegistrationNo,
			})
		}
	}
	return parsed
}

func tuple(regNo, code string, attended, conducted int) ingestion.AttendanceTuple {
	pct := 0.0
	if conducted > 0 {
		pct = float64(attended) / float64(conducted) * 100
	}
	return ingestion.AttendanceTuple{
		RegistrationNo: regNo,
		CourseCode:     code,
		CourseName:     dataStructures.Name,
		Attended:       attended,
		Conducted:      conducted,
		Percentage:     pct,
	}
}

func allRecords(t *testing.T, store interface {
	ListAttendance(context.Context, roster.AttendanceFilter) ([]roster.AttendanceView, error)
}) []roster.AttendanceView {
	t.Helper()
	views, err := store.ListAttendance(context.Background(), roster.DefaultFilter().WithoutThreshold())
	require.NoError(t, err)
	return views
}

func TestReconcile_SecondRunIsNoOp(t *testing.T) {
	store := newTestStore(t)
	svc := NewReconciliationService(store, config.DefaultIngestConfig(), nil)
	ctx := context.Background()

	parsed := parsedRoster([]ingestion.CourseHeader{dataStructures, networks},
		tuple("21IT001", "22IT580", 8, 10),
		tuple("21IT001", "22IT581", 9, 12),
		tuple("21IT002", "22IT580", 5, 10),
	)

	first, err := svc.Reconcile(ctx, parsed)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Added)
	assert.Equal(t, 2, first.CoursesCreated)
	assert.Equal(t, 2, first.StudentsCreated)
	assert.Equal(t, 1, first.Batches)

	second, err := svc.Reconcile(ctx, parsed)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 3, second.Skipped)
	assert.Equal(t, 0, second.CoursesCreated)
	assert.Equal(t, 0, second.StudentsCreated)

	assert.Len(t, allRecords(t, store), 3)
}

func TestReconcile_MoreConductedWins(t *testing.T) {
	tests := []struct {
		name          string
		incoming      ingestion.AttendanceTuple
		wantUpdated   int
		wantSkipped   int
		wantAttended  int
		wantConducted int
	}{
		{"fewer conducted is stale", tuple("21IT001", "22IT580", 8, 8), 0, 1, 8, 10},
		{"equal conducted is stale", tuple("21IT001", "22IT580", 9, 10), 0, 1, 8, 10},
		{"more conducted overwrites", tuple("21IT001", "22IT580", 9, 12), 1, 0, 9, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			svc := NewReconciliationService(store, config.DefaultIngestConfig(), nil)
			ctx := context.Background()

			_, err := svc.Reconcile(ctx, parsedRoster([]ingestion.CourseHeader{dataStructures}, tuple("21IT001", "22IT580", 8, 10)))
			require.NoError(t, err)

			summary, err := svc.Reconcile(ctx, parsedRoster([]ingestion.CourseHeader{dataStructures}, tt.incoming))
			require.NoError(t, err)
			assert.Equal(t, tt.wantUpdated, summary.Updated)
			assert.Equal(t, tt.wantSkipped, summary.Skipped)

			records := allRecords(t, store)
			require.Len(t, records, 1)
			assert.Equal(t, tt.wantAttended, records[0].Attended)
			assert.Equal(t, tt.wantConducted, records[0].Conducted)
		})
	}
}

func TestReconcile_BelowMinConductedNeverWritten(t *testing.T) {
	store := newTestStore(t)
	svc := NewReconciliationService(store, config.DefaultIngestConfig(), nil)

	summary, err := svc.Reconcile(context.Background(), parsedRoster(
		[]ingestion.CourseHeader{dataStructures},
		tuple("21IT001", "22IT580", 4, 4),
		tuple("21IT002", "22IT580", 5, 5),
	))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Skipped)
	// the student is still created even though its only tuple was dropped
	assert.Equal(t, 2, summary.StudentsCreated)

	records := allRecords(t, store)
	require.Len(t, records, 1)
	assert.Equal(t, "21IT002", records[0].RegistrationNo)
}

func TestReconcile_CourseNameComesFromHeader(t *testing.T) {
	store := newTestStore(t)
	svc := NewReconciliationService(store, config.DefaultIngestConfig(), nil)
	ctx := context.Background()

	// tuples carry the first course's name for every course
	_, err := svc.Reconcile(ctx, parsedRoster([]ingestion.CourseHeader{dataStructures, networks},
		tuple("21IT001", "22IT580", 8, 10),
		tuple("21IT001", "22IT581", 8, 10),
	))
	require.NoError(t, err)

	course, err := store.FindCourseByCode(ctx, "22IT581")
	require.NoError(t, err)
	require.NotNil(t, course)
	assert.Equal(t, "Computer Networks", course.Name)

	// later sightings never rename
	_, err = svc.Reconcile(ctx, parsedRoster([]ingestion.CourseHeader{{Code: "22IT581", Name: "Renamed"}}))
	require.NoError(t, err)
	course, err = store.FindCourseByCode(ctx, "22IT581")
	require.NoError(t, err)
	assert.Equal(t, "Computer Networks", course.Name)
}

func TestReconcile_BatchBoundaries(t *testing.T) {
	tests := []struct {
		tuples      int
		wantBatches int
	}{
		{0, 0},
		{1, 1},
		{500, 1},
		{1000, 2},
		{1201, 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d tuples", tt.tuples), func(t *testing.T) {
			store := newTestStore(t)
			svc := NewReconciliationService(store, config.DefaultIngestConfig(), nil)

			tuples := make([]ingestion.AttendanceTuple, tt.tuples)
			for i := range tuples {
				tuples[i] = tuple(fmt.Sprintf("21IT%04d", i), "22IT580", 7, 10)
			}

			summary, err := svc.Reconcile(context.Background(), parsedRoster([]ingestion.CourseHeader{dataStructures}, tuples...))
			require.NoError(t, err)
			assert.Equal(t, tt.wantBatches, summary.Batches)
			assert.Equal(t, tt.tuples, summary.Added)
		})
	}
}

func TestReconcile_UnknownCourseIsUnresolved(t *testing.T) {
	store := newTestStore(t)
	svc := NewReconciliationService(store, config.DefaultIngestConfig(), nil)

	summary, err := svc.Reconcile(context.Background(), parsedRoster(
		[]ingestion.CourseHeader{dataStructures},
		tuple("21IT001", "99XX999", 8, 10),
	))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Unresolved)
	assert.Equal(t, 1, summary.Batches)
	assert.Empty(t, allRecords(t, store))
}

func TestReconcile_FailureRollsBackInFlightBatchOnly(t *testing.T) {
	ctx := context.Background()
	store := &MockRosterStore{}
	refTx := &MockRosterTx{}
	okBatch := &MockRosterTx{}
	failingBatch := &MockRosterTx{}

	store.On("Begin", ctx).Return(refTx, nil).Once()
	store.On("Begin", ctx).Return(okBatch, nil).Once()
	store.On("Begin", ctx).Return(failingBatch, nil).Once()

	refTx.On("FindCourseByCode", ctx, "22IT580").Return(nil, nil)
	refTx.On("CreateCourse", ctx, mock.AnythingOfType("*roster.Course")).Return(nil)
	refTx.On("FindStudentByRegistration", ctx, mock.Anything).Return(nil, nil)
	refTx.On("CreateStudent", ctx, mock.AnythingOfType("*roster.Student")).Return(nil)
	refTx.On("Commit").Return(nil)
	refTx.On("Rollback").Return(nil).Maybe()

	for _, tx := range []*MockRosterTx{okBatch, failingBatch} {
		tx.On("FindStudentByRegistration", ctx, mock.Anything).Return(&roster.Student{ID: 1}, nil)
		tx.On("FindCourseByCode", ctx, "22IT580").Return(&roster.Course{ID: 7}, nil)
		tx.On("FindAttendance", ctx, int64(1), int64(7)).Return(nil, nil)
	}
	okBatch.On("CreateAttendance", ctx, mock.Anything).Return(nil)
	okBatch.On("Commit").Return(nil)
	failingBatch.On("CreateAttendance", ctx, mock.Anything).Return(apperrors.DatabaseError("insert failed", nil))
	failingBatch.On("Rollback").Return(nil)

	cfg := config.DefaultIngestConfig()
	cfg.BatchSize = 2
	svc := NewReconciliationService(store, cfg, nil)

	summary, err := svc.Reconcile(ctx, parsedRoster([]ingestion.CourseHeader{dataStructures},
		tuple("21IT001", "22IT580", 8, 10),
		tuple("21IT002", "22IT580", 8, 10),
		tuple("21IT003", "22IT580", 8, 10),
	))

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetCode(err))
	assert.Equal(t, 2, summary.Added)
	assert.Equal(t, 1, summary.Batches)

	store.AssertExpectations(t)
	okBatch.AssertExpectations(t)
	failingBatch.AssertExpectations(t)
	failingBatch.AssertNotCalled(t, "Commit")
}

func TestReconcile_BeginFailure(t *testing.T) {
	ctx := context.Background()
	store := &MockRosterStore{}
	store.On("Begin", ctx).Return(nil, assert.AnError)

	svc := NewReconciliationService(store, config.DefaultIngestConfig(), nil)
	_, err := svc.Reconcile(ctx, parsedRoster(nil))

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetCode(err))
}
