package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

func TestParseCronExpressionRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"* * * *",
		"* * * * * *",
		"60 * * * *",
		"* 24 * * *",
		"* * 0 * *",
		"* * * 13 *",
		"* * * * 7",
		"*/0 * * * *",
		"5-2 * * * *",
	}

	for _, expr := range cases {
		_, err := ParseCronExpression(expr)
		assert.ErrorIs(t, err, ErrInvalidCronExpression, "expression %q", expr)
	}
}

func TestCronNextEveryMinute(t *testing.T) {
	ce, err := ParseCronExpression("* * * * *")
	require.NoError(t, err)

	from := time.Date(2025, time.March, 3, 10, 15, 30, 0, timeutil.KualaLumpurTZ)
	next := ce.Next(from)

	assert.Equal(t, time.Date(2025, time.March, 3, 10, 16, 0, 0, timeutil.KualaLumpurTZ), next)
}

func TestCronNextDailyMorning(t *testing.T) {
	ce := MustParseCronExpression("30 7 * * *")

	// Before 07:30: fires the same day.
	from := time.Date(2025, time.March, 3, 6, 0, 0, 0, timeutil.KualaLumpurTZ)
	assert.Equal(t, time.Date(2025, time.March, 3, 7, 30, 0, 0, timeutil.KualaLumpurTZ), ce.Next(from))

	// After 07:30: fires the next day.
	from = time.Date(2025, time.March, 3, 8, 0, 0, 0, timeutil.KualaLumpurTZ)
	assert.Equal(t, time.Date(2025, time.March, 4, 7, 30, 0, 0, timeutil.KualaLumpurTZ), ce.Next(from))
}

func TestCronNextWeeklySummaryLandsOnSaturday(t *testing.T) {
	ce := MustParseCronExpression(CronWeeklySummary)

	// Monday 3 March 2025. The next Saturday is 8 March.
	from := time.Date(2025, time.March, 3, 12, 0, 0, 0, timeutil.KualaLumpurTZ)
	next := ce.Next(from)

	assert.Equal(t, time.Saturday, next.Weekday())
	assert.Equal(t, time.Date(2025, time.March, 8, 10, 0, 0, 0, timeutil.KualaLumpurTZ), next)
}

func TestCronSchoolDaysSkipWeekend(t *testing.T) {
	ce := MustParseCronExpression(CronRecordingReminder)

	// Thursday 6 March 2025 after the reminder already fired. Friday and
	// Saturday are the weekend here, so the next run is Sunday.
	from := time.Date(2025, time.March, 6, 10, 0, 0, 0, timeutil.KualaLumpurTZ)
	next := ce.Next(from)

	assert.Equal(t, time.Sunday, next.Weekday())
	assert.Equal(t, time.Date(2025, time.March, 9, 9, 30, 0, 0, timeutil.KualaLumpurTZ), next)
}

func TestCronNextFirstOfMonth(t *testing.T) {
	ce := MustParseCronExpression(CronMonthlySummary)

	from := time.Date(2025, time.March, 15, 0, 0, 0, 0, timeutil.KualaLumpurTZ)
	assert.Equal(t, time.Date(2025, time.April, 1, 8, 0, 0, 0, timeutil.KualaLumpurTZ), ce.Next(from))
}

func TestCronRestrictedDayFieldsMatchEither(t *testing.T) {
	// Both day fields restricted: standard cron fires on the 1st of the
	// month OR on any Monday.
	ce := MustParseCronExpression("0 8 1 * 1")

	// Saturday 1 March 2025 matches on day-of-month alone.
	from := time.Date(2025, time.February, 28, 12, 0, 0, 0, timeutil.KualaLumpurTZ)
	assert.Equal(t, time.Date(2025, time.March, 1, 8, 0, 0, 0, timeutil.KualaLumpurTZ), ce.Next(from))

	// Monday 3 March 2025 matches on day-of-week alone.
	from = time.Date(2025, time.March, 1, 9, 0, 0, 0, timeutil.KualaLumpurTZ)
	assert.Equal(t, time.Date(2025, time.March, 3, 8, 0, 0, 0, timeutil.KualaLumpurTZ), ce.Next(from))

	assert.True(t, ce.Matches(time.Date(2025, time.March, 1, 8, 0, 0, 0, timeutil.KualaLumpurTZ)))
	assert.True(t, ce.Matches(time.Date(2025, time.March, 10, 8, 0, 0, 0, timeutil.KualaLumpurTZ)))
	assert.False(t, ce.Matches(time.Date(2025, time.March, 4, 8, 0, 0, 0, timeutil.KualaLumpurTZ)))
}

func TestCronMatches(t *testing.T) {
	ce := MustParseCronExpression("30 9 * * 0-4")

	sundayMorning := time.Date(2025, time.March, 2, 9, 30, 0, 0, timeutil.KualaLumpurTZ)
	fridayMorning := time.Date(2025, time.March, 7, 9, 30, 0, 0, timeutil.KualaLumpurTZ)

	assert.True(t, ce.Matches(sundayMorning))
	assert.False(t, ce.Matches(fridayMorning))
}

func TestCronListAndStepFields(t *testing.T) {
	ce, err := ParseCronExpression("0,30 8-10 * * 1,3")
	require.NoError(t, err)

	assert.True(t, ce.Matches(time.Date(2025, time.March, 3, 8, 30, 0, 0, time.UTC)))  // Monday
	assert.False(t, ce.Matches(time.Date(2025, time.March, 4, 8, 30, 0, 0, time.UTC))) // Tuesday
	assert.False(t, ce.Matches(time.Date(2025, time.March, 3, 11, 0, 0, 0, time.UTC)))

	stepped, err := ParseCronExpression("*/15 * * * *")
	require.NoError(t, err)
	assert.True(t, stepped.Matches(time.Date(2025, time.March, 3, 8, 45, 0, 0, time.UTC)))
	assert.False(t, stepped.Matches(time.Date(2025, time.March, 3, 8, 50, 0, 0, time.UTC)))
}

func TestIntervalScheduleNext(t *testing.T) {
	s := NewIntervalSchedule(5 * time.Minute)

	from := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(5*time.Minute), s.Next(from))
	assert.Equal(t, "every 5m0s", s.String())
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER TESTS
// ══════════════════════════════════════════════════════════════════════════════

type testJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *testJob) Name() string        { return j.name }
func (j *testJob) Description() string { return "test job" }

func (j *testJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestSchedulerRegisterRejectsDuplicates(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Timezone: timeutil.KualaLumpurTZ})
	job := &testJob{name: "ringkasan-mingguan"}

	require.NoError(t, s.Register(job, MustParseCronExpression(CronWeeklySummary)))
	assert.ErrorIs(t, s.Register(job, MustParseCronExpression(CronWeeklySummary)), ErrJobAlreadyExists)
}

func TestSchedulerRegisterRejectsNil(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&testJob{name: "x"}, nil), ErrNilSchedule)
}

func TestSchedulerRunNow(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	job := &testJob{name: "peringatan-harian"}
	require.NoError(t, s.Register(job, MustParseCronExpression(CronRecordingReminder)))

	result, err := s.RunNow(context.Background(), "peringatan-harian")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), job.runs.Load())

	_, err = s.RunNow(context.Background(), "tiada")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSchedulerRunNowReportsFailure(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	job := &testJob{name: "gagal", err: assert.AnError}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "gagal")
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, result.Success)
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	require.NoError(t, s.Register(&testJob{name: "idle"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestSchedulerListJobs(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Timezone: timeutil.KualaLumpurTZ})
	require.NoError(t, s.Register(&testJob{name: "ringkasan-mingguan"}, MustParseCronExpression(CronWeeklySummary)))
	require.NoError(t, s.DisableJob("ringkasan-mingguan"))

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "ringkasan-mingguan", jobs[0].Name)
	assert.Equal(t, CronWeeklySummary, jobs[0].Schedule)
	assert.False(t, jobs[0].Enabled)

	assert.ErrorIs(t, s.DisableJob("tiada"), ErrJobNotFound)
	assert.ErrorIs(t, s.EnableJob("tiada"), ErrJobNotFound)
}
