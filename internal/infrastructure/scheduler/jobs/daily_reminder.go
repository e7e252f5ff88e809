package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/application/workflow"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// DailyReminderJob nudges the group chat on school days when some classes
// have not recorded attendance yet. On days where every class is already in,
// or on weekends, it stays silent.
type DailyReminderJob struct {
	workflow *workflow.Workflow
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// DailyReminderConfig contains the job dependencies.
type DailyReminderConfig struct {
	Workflow *workflow.Workflow
	Notifier Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// NewDailyReminderJob creates the daily reminder job.
func NewDailyReminderJob(cfg DailyReminderConfig) *DailyReminderJob {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = timeutil.Now
	}
	return &DailyReminderJob{
		workflow: cfg.Workflow,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
}

// Name implements the scheduler Job interface.
func (j *DailyReminderJob) Name() string { return "peringatan-harian" }

// Description implements the scheduler Job interface.
func (j *DailyReminderJob) Description() string {
	return "Ingatkan kelas yang belum merekod kehadiran hari ini"
}

// Run sends a reminder listing the classes still missing today's record.
func (j *DailyReminderJob) Run(ctx context.Context) error {
	today := j.now()

	// The schedule already skips Friday and Saturday, but a manual RunNow
	// on a weekend must not page the teachers.
	if !timeutil.IsSchoolDay(today) {
		j.logger.Debug("skipping reminder on non-school day", "date", timeutil.FormatRecord(today))
		return nil
	}

	missing, err := j.workflow.MissingClasses(ctx, today)
	if err != nil {
		return fmt.Errorf("list missing classes: %w", err)
	}
	if len(missing) == 0 {
		j.logger.Info("all classes recorded, reminder skipped", "date", timeutil.FormatRecord(today))
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>Peringatan Kehadiran</b>\n📅 %s, %s\n\nKelas yang belum merekod kehadiran:\n",
		timeutil.WeekdayNameMs(today), timeutil.FormatRecord(today))
	for _, class := range missing {
		fmt.Fprintf(&b, "• %s\n", class)
	}
	b.WriteString("\nSila rekod sebelum waktu rehat. Terima kasih, cikgu! 🙏")

	if err := j.notifier.Send(ctx, b.String()); err != nil {
		return fmt.Errorf("broadcast reminder: %w", err)
	}
	return nil
}
