// Package workflow implements the attendance recording state machine:
// class selection, per-student toggling, and the conflict-checked save with
// its mandatory overwrite confirmation.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/session"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/shared"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// Workflow errors.
var (
	// ErrNoActiveSession is returned when toggle/reset/commit arrive with no
	// session in flight.
	ErrNoActiveSession = session.ErrNoActiveSession

	// ErrEmptyRoster rejects a commit against a class with no enrollment,
	// so a degenerate zero-total row is never written.
	ErrEmptyRoster = shared.NewDomainError("workflow", "Commit", shared.ErrValidation, "no students found for class")

	// ErrNotInRoster rejects a toggle for a name outside the session roster.
	ErrNotInRoster = shared.NewDomainError("workflow", "Toggle", shared.ErrInvalidInput, "student not in roster")

	// ErrNoPendingOverwrite is returned when confirm/cancel arrive without a
	// staged overwrite.
	ErrNoPendingOverwrite = shared.NewDomainError("workflow", "ConfirmOverwrite", shared.ErrInvalidState, "no overwrite awaiting confirmation")
)

// CommitStatus describes the outcome of a commit attempt.
type CommitStatus int

const (
	// CommitStatusSaved means the record was appended and the session ended.
	CommitStatusSaved CommitStatus = iota

	// CommitStatusPendingOverwrite means a record already exists for the key
	// and the computed one is staged awaiting explicit confirmation.
	// Silent overwrite is a correctness bug, never an option.
	CommitStatusPendingOverwrite
)

// CommitResult is the outcome of Commit or ConfirmOverwrite.
type CommitResult struct {
	Status CommitStatus

	// Record is the committed (or staged) record.
	Record attendance.Record

	// Existing is the stored record that blocked the commit, set only for
	// CommitStatusPendingOverwrite.
	Existing *attendance.Record

	// AllRecorded is true when this commit completed today's set: every
	// known class now has a record for the session date.
	AllRecorded bool
}

// ToggleResult is the outcome of ToggleStudent.
type ToggleResult struct {
	Name      string
	NowAbsent bool
	Session   *session.Session
}

// Workflow drives attendance recording sessions. The session store is owned
// by the workflow and passed in explicitly; there is no ambient global state.
type Workflow struct {
	sessions session.Store
	store    attendance.Store
	rosters  roster.Provider
	events   shared.EventPublisher
	logger   *slog.Logger

	// now is injectable for tests.
	now func() time.Time

	// noticeMu guards the once-per-day "all classes recorded" notice.
	noticeMu      sync.Mutex
	noticeSentFor string
}

// Config contains the workflow dependencies.
type Config struct {
	Sessions session.Store
	Store    attendance.Store
	Rosters  roster.Provider
	Events   shared.EventPublisher
	Logger   *slog.Logger
	Now      func() time.Time
}

// New creates a Workflow.
func New(cfg Config) *Workflow {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = timeutil.Now
	}
	return &Workflow{
		sessions: cfg.Sessions,
		store:    cfg.Store,
		rosters:  cfg.Rosters,
		events:   cfg.Events,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
}

// ListClasses returns the known classes for the selection keyboard.
func (w *Workflow) ListClasses(ctx context.Context) ([]string, error) {
	classes, err := w.rosters.ListClasses(ctx)
	if err != nil {
		return nil, shared.WrapError("workflow", "ListClasses", shared.ErrExternalService, "roster provider failed", err)
	}
	return classes, nil
}

// SelectClass starts a new session for the actor, dated today. Any prior
// uncommitted session is silently discarded - last selection wins. That
// matches long-observed behavior, though a confirming prompt would arguably
// serve teachers better.
func (w *Workflow) SelectClass(ctx context.Context, actorID int64, classID string) (*session.Session, error) {
	students, err := w.rosters.ListStudents(ctx, classID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		return nil, shared.WrapError("workflow", "SelectClass", shared.ErrExternalService, "roster provider failed", err)
	}

	s := session.New(actorID, classID, students, w.now())
	if err := w.sessions.Put(ctx, s); err != nil {
		return nil, err
	}

	w.logger.Info("session started",
		"actor_id", actorID,
		"class", classID,
		"roster_size", len(students),
	)
	return s, nil
}

// Session returns the actor's current session, or ErrNoActiveSession.
func (w *Workflow) Session(ctx context.Context, actorID int64) (*session.Session, error) {
	return w.sessions.Get(ctx, actorID)
}

// ToggleStudent flips the attendance mark for one student. Toggling the same
// name twice restores the original state.
func (w *Workflow) ToggleStudent(ctx context.Context, actorID int64, name string) (*ToggleResult, error) {
	s, err := w.sessions.Get(ctx, actorID)
	if err != nil {
		return nil, err
	}

	nowAbsent, ok := s.Toggle(name)
	if !ok {
		return nil, ErrNotInRoster
	}
	if err := w.sessions.Put(ctx, s); err != nil {
		return nil, err
	}

	return &ToggleResult{Name: name, NowAbsent: nowAbsent, Session: s}, nil
}

// Reset clears the working absence set, keeping class, roster and date.
func (w *Workflow) Reset(ctx context.Context, actorID int64) (*session.Session, error) {
	s, err := w.sessions.Get(ctx, actorID)
	if err != nil {
		return nil, err
	}

	s.Reset()
	if err := w.sessions.Put(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// MarkAllPresent empties the absence set directly, bypassing the per-student
// toggle display.
func (w *Workflow) MarkAllPresent(ctx context.Context, actorID int64) (*session.Session, error) {
	s, err := w.sessions.Get(ctx, actorID)
	if err != nil {
		return nil, err
	}

	s.MarkAllPresent()
	if err := w.sessions.Put(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Cancel discards the actor's session without writing anything.
func (w *Workflow) Cancel(ctx context.Context, actorID int64) error {
	return w.sessions.Delete(ctx, actorID)
}

// Commit computes the record for the current session and saves it, unless a
// record already exists for (class, date) - then the computed record is
// staged and the caller must confirm or cancel the overwrite. A store failure
// leaves the session intact so the actor can retry.
func (w *Workflow) Commit(ctx context.Context, actorID int64) (*CommitResult, error) {
	s, err := w.sessions.Get(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if len(s.Roster) == 0 {
		return nil, ErrEmptyRoster
	}

	record := s.BuildRecord()
	if err := record.Validate(); err != nil {
		return nil, err
	}

	existing, err := w.store.Find(ctx, record.ClassID, record.Date)
	switch {
	case err == nil:
		// Duplicate key: stage, never overwrite silently.
		s.PendingOverwrite = &record
		if err := w.sessions.Put(ctx, s); err != nil {
			return nil, err
		}
		w.logger.Info("overwrite staged",
			"actor_id", actorID,
			"class", record.ClassID,
			"date", record.DateString(),
		)
		return &CommitResult{
			Status:   CommitStatusPendingOverwrite,
			Record:   record,
			Existing: existing,
		}, nil

	case errors.Is(err, shared.ErrNotFound):
		// No conflict, fall through to append.

	default:
		return nil, attendance.WrapStoreError("Commit", err)
	}

	if err := w.store.Append(ctx, record); err != nil {
		return nil, attendance.WrapStoreError("Commit", err)
	}

	return w.finishCommit(ctx, actorID, record, false)
}

// ConfirmOverwrite replaces the stored record with the staged one. The
// delete-then-append pair is atomic only from the caller's perspective; the
// backing store offers no transaction, so a failure between the two calls
// can leave no record for the key.
func (w *Workflow) ConfirmOverwrite(ctx context.Context, actorID int64) (*CommitResult, error) {
	s, err := w.sessions.Get(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if s.PendingOverwrite == nil {
		return nil, ErrNoPendingOverwrite
	}

	record := *s.PendingOverwrite
	if err := w.store.Delete(ctx, record.ClassID, record.Date); err != nil {
		return nil, attendance.WrapStoreError("ConfirmOverwrite", err)
	}
	if err := w.store.Append(ctx, record); err != nil {
		return nil, attendance.WrapStoreError("ConfirmOverwrite", err)
	}

	return w.finishCommit(ctx, actorID, record, true)
}

// CancelOverwrite discards the staged record and ends the session; the stored
// record stays untouched.
func (w *Workflow) CancelOverwrite(ctx context.Context, actorID int64) error {
	s, err := w.sessions.Get(ctx, actorID)
	if err != nil {
		return err
	}
	if s.PendingOverwrite == nil {
		return ErrNoPendingOverwrite
	}
	return w.sessions.Delete(ctx, actorID)
}

// finishCommit ends the session, publishes events, and runs the post-commit
// completeness check.
func (w *Workflow) finishCommit(ctx context.Context, actorID int64, record attendance.Record, overwritten bool) (*CommitResult, error) {
	if err := w.sessions.Delete(ctx, actorID); err != nil {
		w.logger.Warn("failed to clear session after commit", "actor_id", actorID, "error", err)
	}

	w.logger.Info("attendance committed",
		"actor_id", actorID,
		"class", record.ClassID,
		"date", record.DateString(),
		"present", record.Present,
		"total", record.Total,
		"overwritten", overwritten,
	)

	w.publish(ctx, shared.NewAttendanceSavedEvent(
		record.ClassID, record.DateString(), record.Present, record.Total, overwritten))

	allRecorded := w.checkAllRecorded(ctx, record.Date)

	return &CommitResult{
		Status:      CommitStatusSaved,
		Record:      record,
		AllRecorded: allRecorded,
	}, nil
}

// AllRecorded reports whether every known class has a record for the given
// day. Class names are compared case- and whitespace-insensitively.
func (w *Workflow) AllRecorded(ctx context.Context, date time.Time) (bool, error) {
	missing, err := w.MissingClasses(ctx, date)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// MissingClasses returns the known classes with no record for the given day.
func (w *Workflow) MissingClasses(ctx context.Context, date time.Time) ([]string, error) {
	classes, err := w.rosters.ListClasses(ctx)
	if err != nil {
		return nil, shared.WrapError("workflow", "MissingClasses", shared.ErrExternalService, "roster provider failed", err)
	}

	records, err := w.store.ScanAll(ctx)
	if err != nil {
		return nil, attendance.WrapStoreError("MissingClasses", err)
	}

	recorded := make(map[string]bool, len(records))
	for _, r := range records {
		if timeutil.IsSameDay(r.Date, date) {
			recorded[roster.NormalizeClass(r.ClassID)] = true
		}
	}

	var missing []string
	for _, class := range classes {
		if !recorded[roster.NormalizeClass(class)] {
			missing = append(missing, class)
		}
	}
	return missing, nil
}

// checkAllRecorded runs the post-commit hook: when today's set just became
// complete, emit the completion notice, once per day. Hook failures are
// logged, never surfaced - the commit itself already succeeded.
func (w *Workflow) checkAllRecorded(ctx context.Context, date time.Time) bool {
	classes, err := w.rosters.ListClasses(ctx)
	if err != nil {
		w.logger.Warn("completeness check skipped", "error", err)
		return false
	}

	missing, err := w.MissingClasses(ctx, date)
	if err != nil {
		w.logger.Warn("completeness check skipped", "error", err)
		return false
	}
	if len(missing) > 0 {
		return false
	}

	day := timeutil.FormatRecord(date)

	w.noticeMu.Lock()
	alreadySent := w.noticeSentFor == day
	if !alreadySent {
		w.noticeSentFor = day
	}
	w.noticeMu.Unlock()

	if !alreadySent {
		w.publish(ctx, shared.NewAllClassesRecordedEvent(day, len(classes)))
	}
	return true
}

func (w *Workflow) publish(ctx context.Context, event shared.Event) {
	if w.events == nil {
		return
	}
	if err := w.events.Publish(ctx, event); err != nil {
		w.logger.Warn("event publish failed", "event", string(event.EventType()), "error", err)
	}
}
