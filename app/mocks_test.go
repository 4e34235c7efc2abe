package app

import (
	"context"
	"testing"

	"goattend/adapters/sqlstore"
	"goattend/domain/roster"
	"goattend/internal/migration"
	"goattend/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a migrated in-memory store.
func newTestStore(t *testing.T) *sqlstore.RosterRepository {
	t.Helper()
	db, err := sqlstore.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
	return sqlstore.NewRosterRepository(db)
}

// Mock implementations for testing
type MockRosterStore struct {
	mock.Mock
}

func (m *MockRosterStore) Begin(ctx context.Context) (ports.RosterTx, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(ports.RosterTx), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRosterStore) ListAttendance(ctx context.Context, filter roster.AttendanceFilter) ([]roster.AttendanceView, error) {
	args := m.Called(ctx, filter)
	views, _ := args.Get(0).([]roster.AttendanceView)
	return views, args.Error(1)
}

func (m *MockRosterStore) ListCourses(ctx context.Context) ([]roster.Course, error) {
	args := m.Called(ctx)
	courses, _ := args.Get(0).([]roster.Course)
	return courses, args.Error(1)
}

func (m *MockRosterStore) FindCourseByCode(ctx context.Context, code string) (*roster.Course, error) {
	args := m.Called(ctx, code)
	course, _ := args.Get(0).(*roster.Course)
	return course, args.Error(1)
}

func (m *MockRosterStore) CountStudents(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRosterStore) CountCourses(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRosterStore) CountAttendanceBelow(ctx context.Context, threshold float64) (int, error) {
	args := m.Called(ctx, threshold)
	return args.Int(0), args.Error(1)
}

func (m *MockRosterStore) DeleteAttendance(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRosterStore) DeleteAttendanceBelowConducted(ctx context.Context, minConducted int) (int64, error) {
	args := m.Called(ctx, minConducted)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRosterStore) ClearAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRosterStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockRosterTx struct {
	mock.Mock
}

func (m *MockRosterTx) FindStudentByRegistration(ctx context.Context, registrationNo string) (*roster.Student, error) {
	args := m.Called(ctx, registrationNo)
	student, _ := args.Get(0).(*roster.Student)
	return student, args.Error(1)
}

func (m *MockRosterTx) CreateStudent(ctx context.Context, student *roster.Student) error {
	return m.Called(ctx, student).Error(0)
}

func (m *MockRosterTx) FindCourseByCode(ctx context.Context, code string) (*roster.Course, error) {
	args := m.Called(ctx, code)
	course, _ := args.Get(0).(*roster.Course)
	return course, args.Error(1)
}

func (m *MockRosterTx) CreateCourse(ctx context.Context, course *roster.Course) error {
	return m.Called(ctx, course).Error(0)
}

func (m *MockRosterTx) FindAttendance(ctx context.Context, studentID, courseID int64) (*roster.AttendanceRecord, error) {
	args := m.Called(ctx, studentID, courseID)
	record, _ := args.Get(0).(*roster.AttendanceRecord)
	return record, args.Error(1)
}

func (m *MockRosterTx) CreateAttendance(ctx context.Context, record *roster.AttendanceRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockRosterTx) UpdateAttendance(ctx context.Context, record *roster.AttendanceRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockRosterTx) Commit() error {
	return m.Called().Error(0)
}

func (m *MockRosterTx) Rollback() error {
	return m.Called().Error(0)
}
