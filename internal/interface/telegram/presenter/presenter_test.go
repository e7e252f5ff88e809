package presenter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklabubesar/kehadiran-bot/internal/application/stats"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/session"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// sunday is the reference school day for presenter tests.
var sunday = timeutil.Date(2025, time.March, 2)

func testSession() *session.Session {
	students := []roster.Student{{Name: "Ali"}, {Name: "Bee"}, {Name: "Chong"}}
	return session.New(7001, "4 Amber", students, sunday)
}

// ══════════════════════════════════════════════════════════════════════════════
// KEYBOARDS
// ══════════════════════════════════════════════════════════════════════════════

func TestClassListKeyboardTwoPerRow(t *testing.T) {
	kb := NewKeyboardBuilder().ClassListKeyboard([]string{"4 Amber", "5 Biru", "6 Cerdik"})

	require.Len(t, kb.Rows, 2)
	assert.Len(t, kb.Rows[0], 2)
	assert.Len(t, kb.Rows[1], 1)
	assert.Equal(t, "rekod_kelas|4 Amber", kb.Rows[0][0].CallbackData)
	assert.Equal(t, "rekod_kelas|5 Biru", kb.Rows[0][1].CallbackData)
}

func TestRosterKeyboardMarksAbsentStudents(t *testing.T) {
	sess := testSession()
	_, ok := sess.Toggle("Bee")
	require.True(t, ok)

	kb := NewKeyboardBuilder().RosterKeyboard(sess)

	// Three student rows plus two action rows.
	require.Len(t, kb.Rows, 5)
	assert.Equal(t, "✅ Ali", kb.Rows[0][0].Text)
	assert.Equal(t, "❌ Bee", kb.Rows[1][0].Text)
	assert.Equal(t, "toggle|Bee", kb.Rows[1][0].CallbackData)

	assert.Equal(t, "semua_hadir", kb.Rows[3][0].CallbackData)
	assert.Equal(t, "reset", kb.Rows[3][1].CallbackData)
	assert.Equal(t, "simpan", kb.Rows[4][0].CallbackData)
	assert.Equal(t, "batal", kb.Rows[4][1].CallbackData)
}

func TestOverwriteKeyboard(t *testing.T) {
	kb := NewKeyboardBuilder().OverwriteKeyboard()

	require.Len(t, kb.Rows, 1)
	assert.Equal(t, "sahkan_tulis", kb.Rows[0][0].CallbackData)
	assert.Equal(t, "batal_tulis", kb.Rows[0][1].CallbackData)
}

func TestCheckDateKeyboard(t *testing.T) {
	kb := NewKeyboardBuilder().CheckDateKeyboard(sunday)

	require.Len(t, kb.Rows, 3)
	assert.Equal(t, "semak_tarikh|hari_ini", kb.Rows[0][0].CallbackData)
	assert.Equal(t, "semak_tarikh|semalam", kb.Rows[0][1].CallbackData)
	assert.Equal(t, "cal_nav|2025|3", kb.Rows[1][0].CallbackData)
	assert.Equal(t, "menu", kb.Rows[2][0].CallbackData)
}

func TestCheckClassKeyboardCarriesDate(t *testing.T) {
	kb := NewKeyboardBuilder().CheckClassKeyboard([]string{"4 Amber", "5 Biru", "6 Cerdik"}, sunday)

	// Two class rows plus the back row.
	require.Len(t, kb.Rows, 3)
	assert.Equal(t, "semak_kelas|02/03/2025|4 Amber", kb.Rows[0][0].CallbackData)
	assert.Equal(t, "semak_kelas|02/03/2025|6 Cerdik", kb.Rows[1][0].CallbackData)
	assert.Equal(t, "semak", kb.Rows[2][0].CallbackData)
}

func TestCalendarKeyboardMarchGrid(t *testing.T) {
	kb := NewKeyboardBuilder().CalendarKeyboard(2025, time.March)

	// Nav row, weekday header, five week rows, back row.
	require.Len(t, kb.Rows, 9)

	assert.Equal(t, "cal_nav|2025|2", kb.Rows[0][0].CallbackData)
	assert.Equal(t, "Mac 2025", kb.Rows[0][1].Text)
	assert.Equal(t, "cal_nav|2025|4", kb.Rows[0][2].CallbackData)

	assert.Equal(t, "Ah", kb.Rows[1][0].Text)
	assert.Equal(t, "Sa", kb.Rows[1][6].Text)

	// 1 March 2025 is a Saturday, so the first week row is padded with
	// six blanks before day 1.
	require.Len(t, kb.Rows[2], 7)
	assert.Equal(t, "abaikan", kb.Rows[2][0].CallbackData)
	assert.Equal(t, "1", kb.Rows[2][6].Text)
	assert.Equal(t, "cal_day|2025|3|1", kb.Rows[2][6].CallbackData)

	// Second week row starts on Sunday 2 March.
	assert.Equal(t, "cal_day|2025|3|2", kb.Rows[3][0].CallbackData)

	assert.Equal(t, "semak", kb.Rows[8][0].CallbackData)
}

func TestMainMenuKeyboard(t *testing.T) {
	kb := NewKeyboardBuilder().MainMenuKeyboard()

	require.Len(t, kb.Rows, 3)
	assert.Equal(t, "rekod", kb.Rows[0][0].CallbackData)
	assert.Equal(t, "semak", kb.Rows[0][1].CallbackData)
	assert.Equal(t, "rmt_hari", kb.Rows[1][0].CallbackData)
	assert.Equal(t, "statistik|minggu", kb.Rows[1][1].CallbackData)
	assert.Equal(t, "eksport", kb.Rows[2][0].CallbackData)
}

func TestStatsKeyboard(t *testing.T) {
	kb := NewKeyboardBuilder().StatsKeyboard()

	require.Len(t, kb.Rows, 3)
	assert.Equal(t, "statistik|minggu", kb.Rows[0][0].CallbackData)
	assert.Equal(t, "statistik|bulan", kb.Rows[0][1].CallbackData)
	assert.Equal(t, "statistik|tahun", kb.Rows[1][0].CallbackData)
	assert.Equal(t, "eksport", kb.Rows[1][1].CallbackData)
	assert.Equal(t, "menu", kb.Rows[2][0].CallbackData)
}

func TestCallbackData(t *testing.T) {
	assert.Equal(t, "rekod", CallbackData(CallbackRecord, ""))
	assert.Equal(t, "toggle|Nur Aisyah binti Kamal", CallbackData(CallbackToggleStudent, "Nur Aisyah binti Kamal"))
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

func TestSessionMessageShowsCountsAndAbsent(t *testing.T) {
	sess := testSession()
	sess.Toggle("Ali")
	sess.Toggle("Chong")

	msg := NewAttendancePresenter().SessionMessage(sess)

	assert.Contains(t, msg, "<b>4 Amber</b>")
	assert.Contains(t, msg, "Ahad, 02/03/2025")
	assert.Contains(t, msg, "Hadir: <b>1/3</b>")
	assert.Contains(t, msg, "Tidak hadir: Ali, Chong")
}

func TestSavedMessageAllPresent(t *testing.T) {
	record := attendance.NewRecord("4 Amber", sunday, 3, nil)

	msg := NewAttendancePresenter().SavedMessage(record, false)

	assert.Contains(t, msg, "Kehadiran berjaya disimpan!")
	assert.Contains(t, msg, "Hadir: 3/3 (100.0%)")
	assert.Contains(t, msg, "Semua murid hadir!")
	assert.NotContains(t, msg, "Semua kelas telah merekod")
}

func TestSavedMessageAllRecordedNotice(t *testing.T) {
	record := attendance.NewRecord("4 Amber", sunday, 3, []string{"Bee"})

	msg := NewAttendancePresenter().SavedMessage(record, true)

	assert.Contains(t, msg, "Tidak hadir: Bee")
	assert.Contains(t, msg, "Semua kelas telah merekod kehadiran untuk hari ini!")
}

func TestOverwritePromptShowsExistingRecord(t *testing.T) {
	existing := attendance.NewRecord("4 Amber", sunday, 3, []string{"Ali"})

	msg := NewAttendancePresenter().OverwritePrompt(existing)

	assert.Contains(t, msg, "Rekod sudah wujud!")
	assert.Contains(t, msg, "Hadir: 2/3")
	assert.Contains(t, msg, "menggantikan rekod ini?")
}

func TestNotRecordedMessage(t *testing.T) {
	msg := NewAttendancePresenter().NotRecordedMessage("5 Biru", sunday)

	assert.Contains(t, msg, "5 Biru")
	assert.Contains(t, msg, "02/03/2025")
	assert.Contains(t, msg, "Belum direkodkan lagi")
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

func weekRanking() *stats.Ranking {
	return &stats.Ranking{
		Start: sunday,
		End:   timeutil.Date(2025, time.March, 8),
		Standings: []stats.Standing{
			{ClassID: "4 Amber", Present: 95, Total: 100, Days: 5, Rate: 95.0},
			{ClassID: "5 Biru", Present: 80, Total: 100, Days: 5, Rate: 80.0},
		},
	}
}

func TestRankingMessageMedalsAndAtRiskFlag(t *testing.T) {
	msg := NewRankingPresenter(0).RankingMessage("Ranking Mingguan", weekRanking())

	assert.Contains(t, msg, "<b>Ranking Mingguan</b>")
	assert.Contains(t, msg, "02/03/2025 hingga 08/03/2025")
	assert.Contains(t, msg, "🥇 4 Amber: 95.0% (5 hari)")
	assert.Contains(t, msg, "🥈 5 Biru: 80.0% (5 hari) ⚠️")
	assert.Contains(t, msg, "🔻 Paling rendah: <b>5 Biru</b> (80.0%)")
}

func TestRankingMessageSingleEntrySkipsLowestHighlight(t *testing.T) {
	single := &stats.Ranking{
		Start: sunday,
		End:   timeutil.Date(2025, time.March, 8),
		Standings: []stats.Standing{
			{ClassID: "4 Amber", Present: 95, Total: 100, Days: 5, Rate: 95.0},
		},
	}

	msg := NewRankingPresenter(0).RankingMessage("Ranking Mingguan", single)

	assert.NotContains(t, msg, "Paling rendah")
}

func TestRankingMessageEmpty(t *testing.T) {
	empty := &stats.Ranking{Start: sunday, End: timeutil.Date(2025, time.March, 8)}

	msg := NewRankingPresenter(0).RankingMessage("Ranking Mingguan", empty)

	assert.Contains(t, msg, "Tiada data kehadiran dalam tempoh ini.")
}

func TestYearGroupMessageLabelsYears(t *testing.T) {
	ranking := &stats.Ranking{
		Start: sunday,
		End:   timeutil.Date(2025, time.March, 8),
		Standings: []stats.Standing{
			{ClassID: "4 Amber", Present: 95, Total: 100, Rate: 95.0},
			{ClassID: "5 Biru", Present: 70, Total: 100, Rate: 70.0},
			{ClassID: "Prasekolah Mawar", Present: 60, Total: 100, Rate: 60.0},
		},
	}

	msg := NewRankingPresenter(0).YearGroupMessage(ranking)

	assert.Contains(t, msg, "Tahun 4: 95.0%")
	assert.Contains(t, msg, "Tahun 5: 70.0%")
	assert.NotContains(t, msg, "Prasekolah Mawar", "classes without a year stay out of the comparison")
}

func TestDeclineSection(t *testing.T) {
	p := NewRankingPresenter(0)

	assert.Empty(t, p.DeclineSection(nil))

	section := p.DeclineSection([]stats.Trend{
		{ClassID: "4 Amber", PreviousRate: 95.0, CurrentRate: 92.0},
	})
	assert.Contains(t, section, "Kelas menurun")
	assert.Contains(t, section, "4 Amber (95.0% ➡ 92.0%)")
}
