// Package jobs implements the scheduled background jobs of the attendance
// bot: the weekly summary broadcast and the daily recording reminder.
package jobs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/application/stats"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/external/telegram"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/report"
	"github.com/sklabubesar/kehadiran-bot/pkg/timeutil"
)

// Notifier delivers broadcast messages and files to the teachers' group chat.
type Notifier interface {
	Send(ctx context.Context, text string) error
	SendDocument(ctx context.Context, params telegram.SendDocumentParams) error
}

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY SUMMARY JOB
// ══════════════════════════════════════════════════════════════════════════════

// WeeklySummaryJob broadcasts the week's class ranking to the group chat and
// attaches the report workbook. It runs after the week's last school day.
type WeeklySummaryJob struct {
	stats    *stats.Service
	store    attendance.Store
	notifier Notifier
	quotes   *stats.QuotePicker
	logger   *slog.Logger
	now      func() time.Time
}

// WeeklySummaryConfig contains the job dependencies.
type WeeklySummaryConfig struct {
	Stats    *stats.Service
	Store    attendance.Store
	Notifier Notifier
	Quotes   *stats.QuotePicker
	Logger   *slog.Logger
	Now      func() time.Time
}

// NewWeeklySummaryJob creates the weekly summary job.
func NewWeeklySummaryJob(cfg WeeklySummaryConfig) *WeeklySummaryJob {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = timeutil.Now
	}
	if cfg.Quotes == nil {
		cfg.Quotes = stats.NewQuotePicker(nil, nil)
	}
	return &WeeklySummaryJob{
		stats:    cfg.Stats,
		store:    cfg.Store,
		notifier: cfg.Notifier,
		quotes:   cfg.Quotes,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
}

// Name implements the scheduler Job interface.
func (j *WeeklySummaryJob) Name() string { return "ringkasan-mingguan" }

// Description implements the scheduler Job interface.
func (j *WeeklySummaryJob) Description() string {
	return "Siarkan ringkasan kehadiran mingguan ke kumpulan guru"
}

// Run builds and broadcasts the weekly summary for the current week.
func (j *WeeklySummaryJob) Run(ctx context.Context) error {
	ref := j.now()

	ranking, err := j.stats.WeeklyRanking(ctx, ref)
	if err != nil {
		return fmt.Errorf("weekly ranking: %w", err)
	}

	// A week with no data still gets a notice. Silence would read as a
	// broken bot, an explicit message reads as a quiet week.
	if ranking.Empty() {
		msg := fmt.Sprintf(
			"📊 <b>Ringkasan Kehadiran Mingguan</b>\n🗓 %s hingga %s\n\nTiada data kehadiran direkodkan minggu ini.",
			timeutil.FormatRecord(ranking.Start), timeutil.FormatRecord(ranking.End),
		)
		return j.notifier.Send(ctx, msg)
	}

	declining, err := j.stats.DecliningClasses(ctx, ref)
	if err != nil {
		// The summary is still worth sending without the trend section.
		j.logger.Warn("weekly trends unavailable", "error", err)
		declining = nil
	}

	if err := j.notifier.Send(ctx, j.formatSummary(ranking, declining)); err != nil {
		return fmt.Errorf("broadcast summary: %w", err)
	}

	return j.sendWorkbook(ctx, ranking)
}

// formatSummary renders the ranking message in the group chat's format.
func (j *WeeklySummaryJob) formatSummary(ranking *stats.Ranking, declining []stats.Trend) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 <b>Ringkasan Kehadiran Mingguan</b>\n🗓 %s hingga %s\n\n",
		timeutil.FormatRecord(ranking.Start), timeutil.FormatRecord(ranking.End))

	medals := []string{"🥇", "🥈", "🥉"}
	var atRisk []stats.Standing
	for i, st := range ranking.Standings {
		if i < len(medals) {
			fmt.Fprintf(&b, "%s %s: %.1f%%\n", medals[i], st.ClassID, st.Rate)
		} else {
			fmt.Fprintf(&b, "%d. %s: %.1f%%\n", i+1, st.ClassID, st.Rate)
		}
		if st.AtRisk(j.stats.AtRiskThreshold()) {
			atRisk = append(atRisk, st)
		}
	}

	if best, ok := ranking.Best(); ok {
		fmt.Fprintf(&b, "\n🎉 Tahniah <b>%s</b>!\n", best.ClassID)
	}
	if worst, ok := ranking.Worst(); ok && len(ranking.Standings) > 1 {
		fmt.Fprintf(&b, "🔻 Paling rendah minggu ini: <b>%s</b> (%.1f%%)\n", worst.ClassID, worst.Rate)
	}

	if len(atRisk) > 0 {
		fmt.Fprintf(&b, "\n⚠️ <b>Kelas di bawah %.0f%%:</b>\n", j.stats.AtRiskThreshold())
		for _, st := range atRisk {
			fmt.Fprintf(&b, "• %s (%.1f%%)\n", st.ClassID, st.Rate)
		}
	}

	if len(declining) > 0 {
		b.WriteString("\n📉 <b>Kelas menurun berbanding rekod sebelum:</b>\n")
		for _, t := range declining {
			fmt.Fprintf(&b, "• %s (%.1f%% ➡ %.1f%%)\n", t.ClassID, t.PreviousRate, t.CurrentRate)
		}
	}

	if quote := j.quotes.Pick(); quote != "" {
		fmt.Fprintf(&b, "\n%s", quote)
	}

	return b.String()
}

// sendWorkbook renders and uploads the weekly report file.
func (j *WeeklySummaryJob) sendWorkbook(ctx context.Context, ranking *stats.Ranking) error {
	records, err := j.store.ScanAll(ctx)
	if err != nil {
		return fmt.Errorf("load records for report: %w", err)
	}

	data, err := report.WeeklyWorkbook(ranking, records)
	if err != nil {
		return fmt.Errorf("render report workbook: %w", err)
	}

	params := telegram.SendDocumentParams{
		FileName: report.FileName(ranking.End),
		Caption:  "📎 Laporan penuh minggu ini",
		Data:     bytes.NewReader(data),
	}
	if err := j.notifier.SendDocument(ctx, params); err != nil {
		return fmt.Errorf("upload report workbook: %w", err)
	}
	return nil
}
