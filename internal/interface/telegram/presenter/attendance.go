package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/session"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE PRESENTER
// Renders the recording flow messages. All copy is Malay; dates are shown in
// the DD/MM/YYYY form teachers know from the master sheet.
// ══════════════════════════════════════════════════════════════════════════════

// AttendancePresenter formats recording flow messages.
type AttendancePresenter struct{}

// NewAttendancePresenter creates an AttendancePresenter.
func NewAttendancePresenter() *AttendancePresenter {
	return &AttendancePresenter{}
}

// SessionMessage renders the active session header above the toggle grid.
func (p *AttendancePresenter) SessionMessage(sess *session.Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🏫 <b>%s</b>\n", sess.ClassID)
	fmt.Fprintf(&b, "📅 %s, %s\n\n", timeutil.WeekdayNameMs(sess.Date), timeutil.FormatRecord(sess.Date))

	present := len(sess.Roster) - len(sess.Absent)
	fmt.Fprintf(&b, "Hadir: <b>%d/%d</b>\n", present, len(sess.Roster))

	if len(sess.Absent) > 0 {
		fmt.Fprintf(&b, "Tidak hadir: %s\n", strings.Join(sess.Absent, ", "))
	}

	b.WriteString("\nTekan nama untuk tanda tidak hadir. Tekan sekali lagi untuk batalkan.")
	return b.String()
}

// SavedMessage confirms a committed record. When the commit completed the
// day's set, the all-recorded line is appended.
func (p *AttendancePresenter) SavedMessage(record attendance.Record, allRecorded bool) string {
	var b strings.Builder

	b.WriteString("✅ <b>Kehadiran berjaya disimpan!</b>\n\n")
	b.WriteString(p.recordBlock(record))

	if allRecorded {
		b.WriteString("\n🎉 Semua kelas telah merekod kehadiran untuk hari ini!")
	}
	return b.String()
}

// OverwritePrompt warns that a record already exists and asks before
// replacing it.
func (p *AttendancePresenter) OverwritePrompt(existing attendance.Record) string {
	var b strings.Builder

	b.WriteString("⚠️ <b>Rekod sudah wujud!</b>\n\n")
	b.WriteString("Kehadiran untuk kelas ini pada tarikh ini telah direkodkan:\n\n")
	b.WriteString(p.recordBlock(existing))
	b.WriteString("\nAdakah anda mahu menggantikan rekod ini?")
	return b.String()
}

// CheckMessage renders a stored record for the check flow.
func (p *AttendancePresenter) CheckMessage(record attendance.Record) string {
	return "🔍 <b>Semakan Kehadiran</b>\n\n" + p.recordBlock(record)
}

// NotRecordedMessage tells the teacher a class has no record for the day.
func (p *AttendancePresenter) NotRecordedMessage(classID string, date time.Time) string {
	return fmt.Sprintf("🔍 <b>Semakan Kehadiran</b>\n\n🏫 %s\n📅 %s\n\nBelum direkodkan lagi.",
		classID, timeutil.FormatRecord(date))
}

// CancelledMessage confirms a discarded session.
func (p *AttendancePresenter) CancelledMessage() string {
	return "❎ Sesi rekod dibatalkan. Tiada data disimpan."
}

// KeptMessage confirms the stored record was kept after an overwrite was
// declined.
func (p *AttendancePresenter) KeptMessage() string {
	return "👍 Baik, rekod asal dikekalkan."
}

// recordBlock renders the shared record detail block.
func (p *AttendancePresenter) recordBlock(record attendance.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🏫 %s\n", record.ClassID)
	fmt.Fprintf(&b, "📅 %s, %s\n", timeutil.WeekdayNameMs(record.Date), record.DateString())
	fmt.Fprintf(&b, "👥 Hadir: %d/%d (%.1f%%)\n", record.Present, record.Total, record.Rate())

	if record.AllPresent() {
		b.WriteString("🌟 Semua murid hadir!\n")
	} else {
		fmt.Fprintf(&b, "🚫 Tidak hadir: %s\n", record.AbsentString())
	}
	return b.String()
}
