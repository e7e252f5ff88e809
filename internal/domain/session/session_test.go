package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

func newTestSession() *Session {
	students := []roster.Student{{Name: "Ali"}, {Name: "Bee"}, {Name: "Chong"}}
	return New(42, "4 Amber", students, timeutil.Date(2025, 3, 1))
}

func TestToggle_Involution(t *testing.T) {
	s := newTestSession()

	nowAbsent, ok := s.Toggle("Bee")
	require.True(t, ok)
	assert.True(t, nowAbsent)
	assert.True(t, s.IsAbsent("Bee"))

	nowAbsent, ok = s.Toggle("Bee")
	require.True(t, ok)
	assert.False(t, nowAbsent)
	assert.Empty(t, s.Absent)
}

func TestToggle_UnknownNameRejected(t *testing.T) {
	s := newTestSession()

	_, ok := s.Toggle("Zara")

	assert.False(t, ok)
	assert.Empty(t, s.Absent)
}

func TestToggle_PreservesToggleOrder(t *testing.T) {
	s := newTestSession()

	s.Toggle("Chong")
	s.Toggle("Ali")

	assert.Equal(t, []string{"Chong", "Ali"}, s.Absent)
}

func TestReset_ClearsAbsentOnly(t *testing.T) {
	s := newTestSession()
	s.Toggle("Ali")
	s.Toggle("Bee")

	s.Reset()

	assert.Empty(t, s.Absent)
	assert.Len(t, s.Roster, 3)
	assert.Equal(t, timeutil.Date(2025, 3, 1), s.Date)
}

func TestMarkAllPresent_OverridesPriorToggles(t *testing.T) {
	s := newTestSession()
	s.Toggle("Ali")
	s.Toggle("Chong")

	s.MarkAllPresent()

	assert.Empty(t, s.Absent)
}

func TestBuildRecord(t *testing.T) {
	s := newTestSession()
	s.Toggle("Bee")

	r := s.BuildRecord()

	assert.Equal(t, "4 Amber", r.ClassID)
	assert.Equal(t, 2, r.Present)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, []string{"Bee"}, r.Absent)
	assert.Equal(t, "Saturday", r.Weekday)
}

func TestNew_SnapshotsRoster(t *testing.T) {
	students := []roster.Student{{Name: "Ali"}}
	s := New(1, "4 Amber", students, timeutil.Date(2025, 3, 1))

	students[0].Name = "changed"

	assert.Equal(t, "Ali", s.Roster[0].Name)
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	s := newTestSession()
	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "4 Amber", got.ClassID)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, 42))
	_, err = store.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ctx, 42))
}

func TestMemoryStore_NewSessionReplacesOld(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := newTestSession()
	first.Toggle("Ali")
	require.NoError(t, store.Put(ctx, first))

	second := New(42, "5 Bestari", []roster.Student{{Name: "Dina"}}, timeutil.Date(2025, 3, 1))
	require.NoError(t, store.Put(ctx, second))

	got, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "5 Bestari", got.ClassID)
	assert.Empty(t, got.Absent)
}
