package sheet

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "kehadiran.xlsx"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesWorkbook(t *testing.T) {
	s := openTemp(t)

	classes, err := s.ListClasses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, classes)

	records, err := s.ScanAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRosterRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.AddStudent(ctx, "4 Amber", roster.Student{Name: "Ali"}))
	require.NoError(t, s.AddStudent(ctx, "4 Amber", roster.Student{Name: "Bee", Note: "RMT"}))
	require.NoError(t, s.AddStudent(ctx, "5 Biru", roster.Student{Name: "Chong"}))

	classes, err := s.ListClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"4 Amber", "5 Biru"}, classes)

	students, err := s.ListStudents(ctx, "4 Amber")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ali", students[0].Name)
	assert.Equal(t, "RMT", students[1].Note)
}

func TestListClassesSortedAndDeduplicated(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	// Enrolled out of order, with a spacing variant of an existing class.
	require.NoError(t, s.AddStudent(ctx, "5 Biru", roster.Student{Name: "Chong"}))
	require.NoError(t, s.AddStudent(ctx, "4 Amber", roster.Student{Name: "Ali"}))
	require.NoError(t, s.AddStudent(ctx, "4  amber", roster.Student{Name: "Bee"}))

	classes, err := s.ListClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"4 Amber", "5 Biru"}, classes)
}

func TestListStudentsMatchesNormalizedClass(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.AddStudent(ctx, "4 Amber", roster.Student{Name: "Ali"}))

	students, err := s.ListStudents(ctx, "  4  AMBER ")
	require.NoError(t, err)
	require.Len(t, students, 1)
}

func TestListStudentsUnknownClass(t *testing.T) {
	s := openTemp(t)

	_, err := s.ListStudents(context.Background(), "9 Zamrud")
	assert.ErrorIs(t, err, roster.ErrClassNotFound)
}

func TestEmptyClassRow(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	// A class declared with no student name: known class, empty roster.
	require.NoError(t, s.AddStudent(ctx, "Prasekolah", roster.Student{}))

	classes, err := s.ListClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Prasekolah"}, classes)

	students, err := s.ListStudents(ctx, "Prasekolah")
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestAttendanceRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	date := timeutil.Date(2025, 3, 1)

	rec := attendance.NewRecord("4 Amber", date, 3, []string{"Chong"})
	require.NoError(t, s.Append(ctx, rec))

	got, err := s.Find(ctx, "4 Amber", date)
	require.NoError(t, err)
	assert.Equal(t, "4 Amber", got.ClassID)
	assert.Equal(t, 2, got.Present)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, []string{"Chong"}, got.Absent)
	assert.Equal(t, "Saturday", got.Weekday)
	assert.True(t, timeutil.IsSameDay(got.Date, date))
}

func TestFindMissingRecord(t *testing.T) {
	s := openTemp(t)

	_, err := s.Find(context.Background(), "4 Amber", timeutil.Date(2025, 3, 1))
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestDeleteRemovesOnlyMatchingRow(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	day1 := timeutil.Date(2025, 3, 1)
	day2 := timeutil.Date(2025, 3, 2)

	require.NoError(t, s.Append(ctx, attendance.NewRecord("4 Amber", day1, 3, nil)))
	require.NoError(t, s.Append(ctx, attendance.NewRecord("4 Amber", day2, 3, nil)))
	require.NoError(t, s.Append(ctx, attendance.NewRecord("5 Biru", day1, 2, nil)))

	require.NoError(t, s.Delete(ctx, "4 Amber", day1))

	records, err := s.ScanAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	_, err = s.Find(ctx, "4 Amber", day1)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)

	_, err = s.Find(ctx, "4 Amber", day2)
	assert.NoError(t, err)
}

func TestDeleteMissingRowIsNoError(t *testing.T) {
	s := openTemp(t)

	err := s.Delete(context.Background(), "4 Amber", timeutil.Date(2025, 3, 1))
	assert.NoError(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kehadiran.xlsx")
	ctx := context.Background()
	date := timeutil.Date(2025, 3, 1)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.AddStudent(ctx, "4 Amber", roster.Student{Name: "Ali"}))
	require.NoError(t, s.Append(ctx, attendance.NewRecord("4 Amber", date, 1, nil)))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	students, err := reopened.ListStudents(ctx, "4 Amber")
	require.NoError(t, err)
	require.Len(t, students, 1)

	got, err := reopened.Find(ctx, "4 Amber", date)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Total)
}
