package jobs

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklabubesar/kehadiran-bot/internal/application/stats"
	"github.com/sklabubesar/kehadiran-bot/internal/application/workflow"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/session"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/external/telegram"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeNotifier struct {
	messages  []string
	documents []telegram.SendDocumentParams
	fail      error
}

func (n *fakeNotifier) Send(ctx context.Context, text string) error {
	if n.fail != nil {
		return n.fail
	}
	n.messages = append(n.messages, text)
	return nil
}

func (n *fakeNotifier) SendDocument(ctx context.Context, params telegram.SendDocumentParams) error {
	if n.fail != nil {
		return n.fail
	}
	n.documents = append(n.documents, params)
	return nil
}

type memStore struct {
	rows []attendance.Record
}

func (s *memStore) Find(ctx context.Context, classID string, date time.Time) (*attendance.Record, error) {
	for i := range s.rows {
		if roster.NormalizeClass(s.rows[i].ClassID) == roster.NormalizeClass(classID) &&
			timeutil.IsSameDay(s.rows[i].Date, date) {
			r := s.rows[i]
			return &r, nil
		}
	}
	return nil, attendance.ErrRecordNotFound
}

func (s *memStore) Append(ctx context.Context, record attendance.Record) error {
	s.rows = append(s.rows, record)
	return nil
}

func (s *memStore) Delete(ctx context.Context, classID string, date time.Time) error {
	return nil
}

func (s *memStore) ScanAll(ctx context.Context) ([]attendance.Record, error) {
	return append([]attendance.Record(nil), s.rows...), nil
}

type fakeRosters struct {
	classes map[string][]roster.Student
	order   []string
}

func (f *fakeRosters) ListClasses(ctx context.Context) ([]string, error) {
	return append([]string(nil), f.order...), nil
}

func (f *fakeRosters) ListStudents(ctx context.Context, classID string) ([]roster.Student, error) {
	students, ok := f.classes[classID]
	if !ok {
		return nil, roster.ErrClassNotFound
	}
	return students, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY SUMMARY
// ══════════════════════════════════════════════════════════════════════════════

// saturday is the Saturday closing the test week (02/03 - 08/03/2025).
var saturday = timeutil.Date(2025, time.March, 8)

func weeklyJob(store *memStore, notifier *fakeNotifier) *WeeklySummaryJob {
	now := func() time.Time { return saturday }
	svc := stats.New(stats.Config{Store: store, Now: now})
	return NewWeeklySummaryJob(WeeklySummaryConfig{
		Stats:    svc,
		Store:    store,
		Notifier: notifier,
		Now:      now,
	})
}

func TestWeeklySummaryBroadcastsRankingAndWorkbook(t *testing.T) {
	store := &memStore{rows: []attendance.Record{
		attendance.NewRecord("4 Amber", timeutil.Date(2025, time.March, 2), 20, []string{"Ali"}),
		attendance.NewRecord("5 Biru", timeutil.Date(2025, time.March, 2), 20, []string{"Dina", "Emir", "Faiz"}),
	}}
	notifier := &fakeNotifier{}

	require.NoError(t, weeklyJob(store, notifier).Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	msg := notifier.messages[0]
	assert.Contains(t, msg, "Ringkasan Kehadiran Mingguan")
	assert.Contains(t, msg, "02/03/2025 hingga 08/03/2025")
	assert.Contains(t, msg, "🥇 4 Amber: 95.0%")
	assert.Contains(t, msg, "🥈 5 Biru: 85.0%")
	assert.Contains(t, msg, "🎉 Tahniah <b>4 Amber</b>!")
	assert.Contains(t, msg, "🔻 Paling rendah minggu ini: <b>5 Biru</b> (85.0%)")

	require.Len(t, notifier.documents, 1)
	assert.Equal(t, "laporan_kehadiran_08-03-2025.xlsx", notifier.documents[0].FileName)
	data, err := io.ReadAll(notifier.documents[0].Data)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestWeeklySummaryFlagsAtRiskClasses(t *testing.T) {
	store := &memStore{rows: []attendance.Record{
		attendance.NewRecord("4 Amber", timeutil.Date(2025, time.March, 2), 20, nil),
		// 16/20 = 80%, under the default 85% threshold.
		attendance.NewRecord("3 Cerdik", timeutil.Date(2025, time.March, 2), 20,
			[]string{"A", "B", "C", "D"}),
	}}
	notifier := &fakeNotifier{}

	require.NoError(t, weeklyJob(store, notifier).Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Kelas di bawah 85%")
	assert.Contains(t, notifier.messages[0], "3 Cerdik (80.0%)")
}

func TestWeeklySummaryReportsDecline(t *testing.T) {
	store := &memStore{rows: []attendance.Record{
		// Previous week: 95%.
		attendance.NewRecord("4 Amber", timeutil.Date(2025, time.February, 23), 20, []string{"Ali"}),
		// Current week: 90%.
		attendance.NewRecord("4 Amber", timeutil.Date(2025, time.March, 2), 20, []string{"Ali", "Bee"}),
	}}
	notifier := &fakeNotifier{}

	require.NoError(t, weeklyJob(store, notifier).Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Kelas menurun berbanding rekod sebelum")
	assert.Contains(t, notifier.messages[0], "4 Amber (95.0% ➡ 90.0%)")
}

func TestWeeklySummaryEmptyWeekSendsNotice(t *testing.T) {
	notifier := &fakeNotifier{}

	require.NoError(t, weeklyJob(&memStore{}, notifier).Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Tiada data kehadiran direkodkan minggu ini")
	assert.Empty(t, notifier.documents, "no workbook without data")
}

func TestWeeklySummaryJobMetadata(t *testing.T) {
	job := weeklyJob(&memStore{}, &fakeNotifier{})
	assert.Equal(t, "ringkasan-mingguan", job.Name())
	assert.NotEmpty(t, job.Description())
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY REMINDER
// ══════════════════════════════════════════════════════════════════════════════

func reminderJob(t *testing.T, store *memStore, notifier *fakeNotifier, now time.Time) *DailyReminderJob {
	t.Helper()
	rosters := &fakeRosters{
		order: []string{"4 Amber", "5 Biru"},
		classes: map[string][]roster.Student{
			"4 Amber": {{Name: "Ali"}, {Name: "Bee"}},
			"5 Biru":  {{Name: "Dina"}, {Name: "Emir"}},
		},
	}
	wf := workflow.New(workflow.Config{
		Sessions: session.NewMemoryStore(),
		Store:    store,
		Rosters:  rosters,
		Now:      func() time.Time { return now },
	})
	return NewDailyReminderJob(DailyReminderConfig{
		Workflow: wf,
		Notifier: notifier,
		Now:      func() time.Time { return now },
	})
}

func TestDailyReminderListsMissingClasses(t *testing.T) {
	// Sunday 2 March 2025: a school day with only 4 Amber recorded.
	sunday := timeutil.Date(2025, time.March, 2)
	store := &memStore{rows: []attendance.Record{
		attendance.NewRecord("4 Amber", sunday, 2, nil),
	}}
	notifier := &fakeNotifier{}

	require.NoError(t, reminderJob(t, store, notifier, sunday).Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	msg := notifier.messages[0]
	assert.Contains(t, msg, "Peringatan Kehadiran")
	assert.Contains(t, msg, "Ahad, 02/03/2025")
	assert.Contains(t, msg, "• 5 Biru")
	assert.NotContains(t, msg, "• 4 Amber")
}

func TestDailyReminderSilentWhenAllRecorded(t *testing.T) {
	sunday := timeutil.Date(2025, time.March, 2)
	store := &memStore{rows: []attendance.Record{
		attendance.NewRecord("4 Amber", sunday, 2, nil),
		attendance.NewRecord("5 Biru", sunday, 2, nil),
	}}
	notifier := &fakeNotifier{}

	require.NoError(t, reminderJob(t, store, notifier, sunday).Run(context.Background()))
	assert.Empty(t, notifier.messages)
}

func TestDailyReminderSkipsWeekend(t *testing.T) {
	// Friday 7 March 2025 is a weekend day in Kedah.
	friday := timeutil.Date(2025, time.March, 7)
	notifier := &fakeNotifier{}

	require.NoError(t, reminderJob(t, &memStore{}, notifier, friday).Run(context.Background()))
	assert.Empty(t, notifier.messages)
}
