// Package presenter formats data for Telegram display.
// Presenters convert domain objects into Malay chat messages and inline
// keyboards; no storage or workflow logic lives here.
package presenter

import (
	"fmt"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/session"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALLBACK DATA
// Callback data is "action|argument" with a pipe delimiter, because class
// names and student names contain spaces.
// ══════════════════════════════════════════════════════════════════════════════

// Callback actions understood by the router.
const (
	CallbackRecord           = "rekod"
	CallbackSelectClass      = "rekod_kelas"
	CallbackToggleStudent    = "toggle"
	CallbackAllPresent       = "semua_hadir"
	CallbackReset            = "reset"
	CallbackSave             = "simpan"
	CallbackConfirmOverwrite = "sahkan_tulis"
	CallbackCancelOverwrite  = "batal_tulis"
	CallbackCancel           = "batal"
	CallbackCheck            = "semak"
	CallbackCheckDate        = "semak_tarikh"
	CallbackCheckClass       = "semak_kelas"
	CallbackCalendarDay      = "cal_day"
	CallbackCalendarNav      = "cal_nav"
	CallbackStats            = "statistik"
	CallbackRMTToday         = "rmt_hari"
	CallbackExport           = "eksport"
	CallbackMenu             = "menu"

	// CallbackNoop marks decorative buttons (calendar headers, blank
	// cells) that must not trigger anything.
	CallbackNoop = "abaikan"
)

// CallbackSeparator joins the action and its argument.
const CallbackSeparator = "|"

// CallbackData builds "action|arg" callback data. An empty arg yields the
// bare action.
func CallbackData(action, arg string) string {
	if arg == "" {
		return action
	}
	return action + CallbackSeparator + arg
}

// ══════════════════════════════════════════════════════════════════════════════
// INLINE KEYBOARD TYPES
// Library-agnostic keyboard shapes; the bot layer converts them to API types.
// ══════════════════════════════════════════════════════════════════════════════

// InlineKeyboard represents an inline keyboard.
type InlineKeyboard struct {
	Rows [][]InlineButton
}

// InlineButton represents a single inline button.
type InlineButton struct {
	// Text is the button label.
	Text string

	// CallbackData is the callback payload sent back on tap.
	CallbackData string
}

// NewInlineKeyboard creates a new empty inline keyboard.
func NewInlineKeyboard() *InlineKeyboard {
	return &InlineKeyboard{Rows: make([][]InlineButton, 0)}
}

// AddRow adds a row of buttons.
func (k *InlineKeyboard) AddRow(buttons ...InlineButton) *InlineKeyboard {
	k.Rows = append(k.Rows, buttons)
	return k
}

// CallbackButton creates a callback button.
func CallbackButton(text, callbackData string) InlineButton {
	return InlineButton{Text: text, CallbackData: callbackData}
}

// ══════════════════════════════════════════════════════════════════════════════
// KEYBOARD BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// KeyboardBuilder builds inline keyboards for the attendance flows.
type KeyboardBuilder struct{}

// NewKeyboardBuilder creates a new KeyboardBuilder.
func NewKeyboardBuilder() *KeyboardBuilder {
	return &KeyboardBuilder{}
}

// ─────────────────────────────────────────────────────────────────────────────
// RECORDING KEYBOARDS
// ─────────────────────────────────────────────────────────────────────────────

// ClassListKeyboard lists classes for recording, two per row.
func (b *KeyboardBuilder) ClassListKeyboard(classes []string) *InlineKeyboard {
	return b.classGrid(classes, CallbackSelectClass)
}

// RosterKeyboard renders the toggle grid for an active session: one button
// per student showing the current mark, followed by the action rows.
func (b *KeyboardBuilder) RosterKeyboard(sess *session.Session) *InlineKeyboard {
	kb := NewInlineKeyboard()

	for _, student := range sess.Roster {
		mark := "✅"
		if sess.IsAbsent(student.Name) {
			mark = "❌"
		}
		kb.AddRow(CallbackButton(
			fmt.Sprintf("%s %s", mark, student.Name),
			CallbackData(CallbackToggleStudent, student.Name),
		))
	}

	kb.AddRow(
		CallbackButton("✅ Semua Hadir", CallbackAllPresent),
		CallbackButton("🔄 Set Semula", CallbackReset),
	)
	kb.AddRow(
		CallbackButton("💾 Simpan", CallbackSave),
		CallbackButton("❎ Batal", CallbackCancel),
	)
	return kb
}

// OverwriteKeyboard asks for explicit confirmation before replacing a stored
// record. Saving silently over existing data is never an option.
func (b *KeyboardBuilder) OverwriteKeyboard() *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(
			CallbackButton("✅ Ya, Ganti", CallbackConfirmOverwrite),
			CallbackButton("❌ Tidak", CallbackCancelOverwrite),
		)
}

// ─────────────────────────────────────────────────────────────────────────────
// QUERY KEYBOARDS
// ─────────────────────────────────────────────────────────────────────────────

// CheckDateKeyboard picks the day for the /semak flow.
func (b *KeyboardBuilder) CheckDateKeyboard(today time.Time) *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(
			CallbackButton("📅 Hari Ini", CallbackData(CallbackCheckDate, "hari_ini")),
			CallbackButton("🕐 Semalam", CallbackData(CallbackCheckDate, "semalam")),
		).
		AddRow(
			CallbackButton("🗓 Pilih Tarikh Lain", CallbackData(CallbackCalendarNav,
				fmt.Sprintf("%d|%d", today.Year(), int(today.Month())))),
		).
		AddRow(CallbackButton("⬅️ Menu Utama", CallbackMenu))
}

// CheckClassKeyboard lists classes for the attendance check flow. The chosen
// date rides along in the callback data so the class tap is self-contained.
func (b *KeyboardBuilder) CheckClassKeyboard(classes []string, date time.Time) *InlineKeyboard {
	day := timeutil.FormatRecord(date)
	kb := NewInlineKeyboard()
	for i := 0; i < len(classes); i += 2 {
		row := []InlineButton{
			CallbackButton(classes[i], CallbackData(CallbackCheckClass, day+CallbackSeparator+classes[i])),
		}
		if i+1 < len(classes) {
			row = append(row, CallbackButton(classes[i+1],
				CallbackData(CallbackCheckClass, day+CallbackSeparator+classes[i+1])))
		}
		kb.AddRow(row...)
	}
	kb.AddRow(CallbackButton("⬅️ Kembali", CallbackCheck))
	return kb
}

// CalendarKeyboard renders a month grid, Sunday first like the school week.
// Day cells carry "cal_day|Y|M|D"; the arrows move one month either way.
func (b *KeyboardBuilder) CalendarKeyboard(year int, month time.Month) *InlineKeyboard {
	kb := NewInlineKeyboard()

	first := timeutil.Date(year, month, 1)
	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)

	kb.AddRow(
		CallbackButton("◀️", CallbackData(CallbackCalendarNav,
			fmt.Sprintf("%d|%d", prev.Year(), int(prev.Month())))),
		CallbackButton(fmt.Sprintf("%s %d", timeutil.MonthNameMs(month), year), CallbackNoop),
		CallbackButton("▶️", CallbackData(CallbackCalendarNav,
			fmt.Sprintf("%d|%d", next.Year(), int(next.Month())))),
	)

	header := make([]InlineButton, 0, 7)
	for _, d := range []string{"Ah", "Is", "Se", "Ra", "Kh", "Ju", "Sa"} {
		header = append(header, CallbackButton(d, CallbackNoop))
	}
	kb.AddRow(header...)

	days := timeutil.DaysInMonth(first)
	offset := int(first.Weekday())

	row := make([]InlineButton, 0, 7)
	for i := 0; i < offset; i++ {
		row = append(row, CallbackButton(" ", CallbackNoop))
	}
	for day := 1; day <= days; day++ {
		row = append(row, CallbackButton(
			fmt.Sprintf("%d", day),
			CallbackData(CallbackCalendarDay, fmt.Sprintf("%d|%d|%d", year, int(month), day)),
		))
		if len(row) == 7 {
			kb.AddRow(row...)
			row = make([]InlineButton, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, CallbackButton(" ", CallbackNoop))
		}
		kb.AddRow(row...)
	}

	kb.AddRow(CallbackButton("⬅️ Kembali", CallbackCheck))
	return kb
}

// StatsKeyboard selects the statistics window.
func (b *KeyboardBuilder) StatsKeyboard() *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(
			CallbackButton("📅 Mingguan", CallbackData(CallbackStats, "minggu")),
			CallbackButton("🗓 Bulanan", CallbackData(CallbackStats, "bulan")),
		).
		AddRow(
			CallbackButton("🏫 Ikut Tahun", CallbackData(CallbackStats, "tahun")),
			CallbackButton("📎 Laporan Mingguan", CallbackExport),
		).
		AddRow(CallbackButton("⬅️ Menu Utama", CallbackMenu))
}

// MainMenuKeyboard is the /start entry point.
func (b *KeyboardBuilder) MainMenuKeyboard() *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(
			CallbackButton("📝 Rekod Kehadiran", CallbackRecord),
			CallbackButton("🔍 Semak", CallbackCheck),
		).
		AddRow(
			CallbackButton("🍛 Semak RMT Hari Ini", CallbackRMTToday),
			CallbackButton("📊 Statistik", CallbackData(CallbackStats, "minggu")),
		).
		AddRow(
			CallbackButton("📎 Laporan Mingguan", CallbackExport),
		)
}

// classGrid lays out class buttons two per row.
func (b *KeyboardBuilder) classGrid(classes []string, action string) *InlineKeyboard {
	kb := NewInlineKeyboard()
	for i := 0; i < len(classes); i += 2 {
		row := []InlineButton{
			CallbackButton(classes[i], CallbackData(action, classes[i])),
		}
		if i+1 < len(classes) {
			row = append(row, CallbackButton(classes[i+1], CallbackData(action, classes[i+1])))
		}
		kb.AddRow(row...)
	}
	return kb
}
