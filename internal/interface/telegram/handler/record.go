package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/sklabubesar/kehadiran-bot/internal/application/workflow"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/shared"
	"github.com/sklabubesar/kehadiran-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD HANDLER
// Drives the attendance recording conversation: pick a class, toggle absent
// students on the inline grid, save. Overwrites always go through an explicit
// confirmation step.
// ══════════════════════════════════════════════════════════════════════════════

// Chat copy shared across steps.
const (
	msgNoSession    = "Tiada sesi rekod aktif. Taip /rekod untuk mula."
	msgNoClasses    = "Tiada kelas dijumpai dalam senarai murid. Sila hubungi pentadbir."
	msgClassUnknown = "Kelas tidak dijumpai. Sila pilih dari senarai."
	msgStoreDown    = "⚠️ Gagal menyimpan buat masa ini. Data anda masih ada, sila cuba Simpan semula."
)

// RecordHandler handles the /rekod flow.
type RecordHandler struct {
	workflow  *workflow.Workflow
	keyboards *presenter.KeyboardBuilder
	present   *presenter.AttendancePresenter
}

// NewRecordHandler creates a RecordHandler.
func NewRecordHandler(wf *workflow.Workflow, keyboards *presenter.KeyboardBuilder, p *presenter.AttendancePresenter) *RecordHandler {
	return &RecordHandler{workflow: wf, keyboards: keyboards, present: p}
}

// Begin lists the classes available for recording.
func (h *RecordHandler) Begin(ctx context.Context) (*Response, error) {
	classes, err := h.workflow.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if len(classes) == 0 {
		return text(msgNoClasses), nil
	}

	return &Response{
		Text:     "📝 <b>Rekod Kehadiran</b>\n\nPilih kelas:",
		Keyboard: h.keyboards.ClassListKeyboard(classes),
	}, nil
}

// SelectClass starts a session for the class and shows the toggle grid.
func (h *RecordHandler) SelectClass(ctx context.Context, actorID int64, classID string) (*Response, error) {
	sess, err := h.workflow.SelectClass(ctx, actorID, classID)
	if err != nil {
		if errors.Is(err, roster.ErrClassNotFound) {
			return text(msgClassUnknown), nil
		}
		return nil, fmt.Errorf("select class: %w", err)
	}

	return edit(h.present.SessionMessage(sess), h.keyboards.RosterKeyboard(sess)), nil
}

// Toggle flips a student's mark and refreshes the grid in place.
func (h *RecordHandler) Toggle(ctx context.Context, actorID int64, name string) (*Response, error) {
	result, err := h.workflow.ToggleStudent(ctx, actorID, name)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrNoActiveSession):
			return text(msgNoSession), nil
		case errors.Is(err, workflow.ErrNotInRoster):
			// A stale keyboard from a previous roster. Refresh silently.
			return h.refresh(ctx, actorID)
		}
		return nil, fmt.Errorf("toggle student: %w", err)
	}

	return edit(h.present.SessionMessage(result.Session), h.keyboards.RosterKeyboard(result.Session)), nil
}

// AllPresent clears every mark via the shortcut button.
func (h *RecordHandler) AllPresent(ctx context.Context, actorID int64) (*Response, error) {
	sess, err := h.workflow.MarkAllPresent(ctx, actorID)
	if err != nil {
		if errors.Is(err, workflow.ErrNoActiveSession) {
			return text(msgNoSession), nil
		}
		return nil, fmt.Errorf("mark all present: %w", err)
	}

	return edit(h.present.SessionMessage(sess), h.keyboards.RosterKeyboard(sess)), nil
}

// Reset clears the working marks.
func (h *RecordHandler) Reset(ctx context.Context, actorID int64) (*Response, error) {
	sess, err := h.workflow.Reset(ctx, actorID)
	if err != nil {
		if errors.Is(err, workflow.ErrNoActiveSession) {
			return text(msgNoSession), nil
		}
		return nil, fmt.Errorf("reset session: %w", err)
	}

	return edit(h.present.SessionMessage(sess), h.keyboards.RosterKeyboard(sess)), nil
}

// Save commits the session. An existing record for the same class and day
// turns into an overwrite confirmation instead of a save.
func (h *RecordHandler) Save(ctx context.Context, actorID int64) (*Response, error) {
	result, err := h.workflow.Commit(ctx, actorID)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrNoActiveSession):
			return text(msgNoSession), nil
		case errors.Is(err, workflow.ErrEmptyRoster):
			return text("⚠️ Kelas ini tiada senarai murid. Rekod tidak disimpan."), nil
		case errors.Is(err, shared.ErrStoreUnavailable):
			return text(msgStoreDown), nil
		}
		return nil, fmt.Errorf("commit: %w", err)
	}

	if result.Status == workflow.CommitStatusPendingOverwrite {
		return edit(h.present.OverwritePrompt(*result.Existing), h.keyboards.OverwriteKeyboard()), nil
	}
	return edit(h.present.SavedMessage(result.Record, result.AllRecorded), nil), nil
}

// ConfirmOverwrite replaces the stored record with the staged one.
func (h *RecordHandler) ConfirmOverwrite(ctx context.Context, actorID int64) (*Response, error) {
	result, err := h.workflow.ConfirmOverwrite(ctx, actorID)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrNoActiveSession), errors.Is(err, workflow.ErrNoPendingOverwrite):
			return text(msgNoSession), nil
		case errors.Is(err, shared.ErrStoreUnavailable):
			return text(msgStoreDown), nil
		}
		return nil, fmt.Errorf("confirm overwrite: %w", err)
	}

	return edit(h.present.SavedMessage(result.Record, result.AllRecorded), nil), nil
}

// CancelOverwrite keeps the stored record and returns to the grid.
func (h *RecordHandler) CancelOverwrite(ctx context.Context, actorID int64) (*Response, error) {
	if err := h.workflow.CancelOverwrite(ctx, actorID); err != nil {
		if errors.Is(err, workflow.ErrNoActiveSession) || errors.Is(err, workflow.ErrNoPendingOverwrite) {
			return text(msgNoSession), nil
		}
		return nil, fmt.Errorf("cancel overwrite: %w", err)
	}
	return edit(h.present.KeptMessage(), nil), nil
}

// Cancel discards the session entirely.
func (h *RecordHandler) Cancel(ctx context.Context, actorID int64) (*Response, error) {
	if err := h.workflow.Cancel(ctx, actorID); err != nil && !errors.Is(err, workflow.ErrNoActiveSession) {
		return nil, fmt.Errorf("cancel session: %w", err)
	}
	return edit(h.present.CancelledMessage(), nil), nil
}

// refresh re-renders the current session grid.
func (h *RecordHandler) refresh(ctx context.Context, actorID int64) (*Response, error) {
	sess, err := h.workflow.Session(ctx, actorID)
	if err != nil {
		if errors.Is(err, workflow.ErrNoActiveSession) {
			return text(msgNoSession), nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return edit(h.present.SessionMessage(sess), h.keyboards.RosterKeyboard(sess)), nil
}
