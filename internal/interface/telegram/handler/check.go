package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/internal/interface/telegram/presenter"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK HANDLER
// Handles /semak: pick a day (today, yesterday, or any calendar date), pick
// a class, and show the stored record or an explicit not-recorded notice.
// ══════════════════════════════════════════════════════════════════════════════

// CheckHandler handles the /semak flow.
type CheckHandler struct {
	store     attendance.Store
	rosters   roster.Provider
	keyboards *presenter.KeyboardBuilder
	present   *presenter.AttendancePresenter
	now       func() time.Time
}

// NewCheckHandler creates a CheckHandler.
func NewCheckHandler(
	store attendance.Store,
	rosters roster.Provider,
	keyboards *presenter.KeyboardBuilder,
	p *presenter.AttendancePresenter,
	now func() time.Time,
) *CheckHandler {
	if now == nil {
		now = timeutil.Now
	}
	return &CheckHandler{
		store:     store,
		rosters:   rosters,
		keyboards: keyboards,
		present:   p,
		now:       now,
	}
}

// Menu asks which day to check.
func (h *CheckHandler) Menu(ctx context.Context) (*Response, error) {
	return &Response{
		Text:     "🔍 <b>Semak Kehadiran</b>\n\nPilih hari:",
		Keyboard: h.keyboards.CheckDateKeyboard(h.now()),
	}, nil
}

// PickDate resolves the "hari_ini"/"semalam" shortcuts to a class list.
func (h *CheckHandler) PickDate(ctx context.Context, choice string) (*Response, error) {
	date := h.now()
	if choice == "semalam" {
		date = date.AddDate(0, 0, -1)
	}
	return h.classList(ctx, date)
}

// Calendar renders the month grid for "Y|M" navigation arguments.
func (h *CheckHandler) Calendar(ctx context.Context, arg string) (*Response, error) {
	parts := strings.Split(arg, presenter.CallbackSeparator)
	if len(parts) != 2 {
		return h.Menu(ctx)
	}
	year, errY := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	if errY != nil || errM != nil || month < 1 || month > 12 {
		return h.Menu(ctx)
	}

	return &Response{
		Text:        "🗓 <b>Pilih tarikh:</b>",
		Keyboard:    h.keyboards.CalendarKeyboard(year, time.Month(month)),
		EditMessage: true,
	}, nil
}

// CalendarDay handles a "Y|M|D" day tap from the calendar grid.
func (h *CheckHandler) CalendarDay(ctx context.Context, arg string) (*Response, error) {
	parts := strings.Split(arg, presenter.CallbackSeparator)
	if len(parts) != 3 {
		return h.Menu(ctx)
	}
	year, errY := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	day, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil || month < 1 || month > 12 {
		return h.Menu(ctx)
	}

	return h.classList(ctx, timeutil.Date(year, time.Month(month), day))
}

// CheckClass shows the stored record for a "DD/MM/YYYY|class" argument.
func (h *CheckHandler) CheckClass(ctx context.Context, arg string) (*Response, error) {
	day, classID, found := strings.Cut(arg, presenter.CallbackSeparator)
	if !found {
		// Bare class name from an old keyboard; default to today.
		classID = day
		return h.show(ctx, classID, h.now())
	}

	date, err := timeutil.ParseRecord(day)
	if err != nil {
		return h.Menu(ctx)
	}
	return h.show(ctx, classID, date)
}

func (h *CheckHandler) classList(ctx context.Context, date time.Time) (*Response, error) {
	classes, err := h.rosters.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if len(classes) == 0 {
		return text(msgNoClasses), nil
	}

	return &Response{
		Text: fmt.Sprintf("🔍 <b>Semak Kehadiran</b>\n📅 %s, %s\n\nPilih kelas:",
			timeutil.WeekdayNameMs(date), timeutil.FormatRecord(date)),
		Keyboard:    h.keyboards.CheckClassKeyboard(classes, date),
		EditMessage: true,
	}, nil
}

func (h *CheckHandler) show(ctx context.Context, classID string, date time.Time) (*Response, error) {
	record, err := h.store.Find(ctx, classID, date)
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return edit(h.present.NotRecordedMessage(classID, date), nil), nil
		}
		return nil, fmt.Errorf("find record: %w", err)
	}

	return edit(h.present.CheckMessage(*record), nil), nil
}
