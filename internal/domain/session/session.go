// Package session holds the per-teacher working state of an in-progress
// attendance entry. Exactly one session exists per actor; selecting a new
// class replaces whatever was in flight.
package session

import (
	"context"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/shared"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// Session is the mutable working state for one actor's attendance entry.
type Session struct {
	// ActorID is the chat user driving this session.
	ActorID int64 `json:"actor_id"`

	// ClassID is the class being recorded.
	ClassID string `json:"class_id"`

	// Date is the school day being recorded, midnight local time.
	Date time.Time `json:"date"`

	// Roster is a snapshot of the enrollment taken at session start.
	Roster []roster.Student `json:"roster"`

	// Absent is the working absence set, in toggle order. Always a subset
	// of the roster names.
	Absent []string `json:"absent"`

	// PendingOverwrite stages a computed record awaiting explicit
	// confirmation because a stored record already exists for the key.
	PendingOverwrite *attendance.Record `json:"pending_overwrite,omitempty"`

	// CreatedAt is when the class was selected.
	CreatedAt time.Time `json:"created_at"`
}

// New starts a session for the given actor and class, dated today.
func New(actorID int64, classID string, students []roster.Student, now time.Time) *Session {
	snapshot := make([]roster.Student, len(students))
	copy(snapshot, students)
	return &Session{
		ActorID:   actorID,
		ClassID:   classID,
		Date:      timeutil.StartOfDay(now),
		Roster:    snapshot,
		CreatedAt: now,
	}
}

// InRoster reports whether name belongs to the session's roster snapshot.
func (s *Session) InRoster(name string) bool {
	for _, st := range s.Roster {
		if st.Name == name {
			return true
		}
	}
	return false
}

// IsAbsent reports whether name is currently marked absent.
func (s *Session) IsAbsent(name string) bool {
	for _, n := range s.Absent {
		if n == name {
			return true
		}
	}
	return false
}

// Toggle flips the attendance mark for name. Toggling twice restores the
// original state. Returns the new absent state, or false ok when the name is
// not on the roster.
func (s *Session) Toggle(name string) (nowAbsent, ok bool) {
	if !s.InRoster(name) {
		return false, false
	}
	for i, n := range s.Absent {
		if n == name {
			s.Absent = append(s.Absent[:i], s.Absent[i+1:]...)
			return false, true
		}
	}
	s.Absent = append(s.Absent, name)
	return true, true
}

// Reset clears the absence set without touching roster or date.
func (s *Session) Reset() {
	s.Absent = nil
}

// MarkAllPresent clears the absence set; kept separate from Reset because it
// is a distinct entry point in the chat flow that skips the toggle display.
func (s *Session) MarkAllPresent() {
	s.Absent = nil
}

// BuildRecord computes the attendance record for the current working state.
func (s *Session) BuildRecord() attendance.Record {
	return attendance.NewRecord(s.ClassID, s.Date, len(s.Roster), s.Absent)
}

// Store keeps at most one session per actor. Implementations: in-process map
// (default) and Redis (survives restarts).
type Store interface {
	// Get returns the actor's session, or ErrNoActiveSession.
	Get(ctx context.Context, actorID int64) (*Session, error)

	// Put saves or replaces the actor's session.
	Put(ctx context.Context, s *Session) error

	// Delete removes the actor's session. Deleting a missing session is
	// not an error.
	Delete(ctx context.Context, actorID int64) error
}

// Domain errors.
var (
	ErrNoActiveSession = shared.NewDomainError("session", "Get", shared.ErrNotFound, "no active session")
)
