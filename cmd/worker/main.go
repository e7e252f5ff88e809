// Package main is the entry point for the background worker process.
//
// The worker runs the scheduled broadcasts for the staff group: a morning
// reminder listing the classes that have not recorded attendance yet, and
// the Saturday summary with the weekly ranking and the report workbook.
// The interactive bot runs separately (cmd/bot); the two share storage.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sklabubesar/kehadiran-bot/config"
	"github.com/sklabubesar/kehadiran-bot/internal/application/stats"
	"github.com/sklabubesar/kehadiran-bot/internal/application/workflow"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/session"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/external/telegram"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/persistence/postgres"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/persistence/sheet"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/scheduler"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/scheduler/jobs"
	"github.com/sklabubesar/kehadiran-bot/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg, "worker")
	log.Info("starting kehadiran worker",
		"env", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
		"reminder_cron", cfg.Scheduler.DailyReminderCron,
		"summary_cron", cfg.Scheduler.WeeklySummaryCron,
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler disabled, nothing to do")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORAGE (attendance records and roster)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		store   attendance.Store
		rosters roster.Provider
	)

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		log.Info("connecting to database...")
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Storage.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			conn.Close()
		}()

		store = postgres.NewAttendanceRepository(conn)
		rosters = postgres.NewRosterRepository(conn)

	case config.StorageDriverSheet:
		log.Info("opening workbook", "path", cfg.Storage.SheetPath)
		wb, err := sheet.Open(cfg.Storage.SheetPath)
		if err != nil {
			return fmt.Errorf("failed to open workbook: %w", err)
		}
		defer func() {
			log.Info("closing workbook...")
			_ = wb.Close()
		}()

		store = wb
		rosters = wb

	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. TELEGRAM BROADCASTER
	// ─────────────────────────────────────────────────────────────────────────
	clientConfig := telegram.DefaultClientConfig(cfg.Telegram.Token)
	clientConfig.Logger = log
	clientConfig.Debug = cfg.App.Debug
	client := telegram.NewClient(clientConfig)

	if _, err := client.GetMe(ctx); err != nil {
		return fmt.Errorf("telegram token check failed: %w", err)
	}

	broadcaster := telegram.NewBroadcaster(client, cfg.Telegram.BroadcastChatID, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. APPLICATION SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	statistics := stats.New(stats.Config{
		Store:           store,
		Logger:          log,
		AtRiskThreshold: cfg.Stats.AtRiskThreshold,
	})

	// The reminder job only reads; sessions and events stay local.
	recording := workflow.New(workflow.Config{
		Sessions: session.NewMemoryStore(),
		Store:    store,
		Rosters:  rosters,
		Logger:   log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHEDULER AND JOBS
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   log,
		Timezone: cfg.App.Location,
	})
	sched.OnJobError(func(jobName string, err error) {
		log.Error("job failed", "job", jobName, "error", err)
	})

	reminderCron, err := scheduler.ParseCronExpression(cfg.Scheduler.DailyReminderCron)
	if err != nil {
		return fmt.Errorf("reminder cron: %w", err)
	}
	summaryCron, err := scheduler.ParseCronExpression(cfg.Scheduler.WeeklySummaryCron)
	if err != nil {
		return fmt.Errorf("summary cron: %w", err)
	}

	reminder := jobs.NewDailyReminderJob(jobs.DailyReminderConfig{
		Workflow: recording,
		Notifier: broadcaster,
		Logger:   log,
	})
	summary := jobs.NewWeeklySummaryJob(jobs.WeeklySummaryConfig{
		Stats:    statistics,
		Store:    store,
		Notifier: broadcaster,
		Logger:   log,
	})

	timeout := cfg.Scheduler.JobTimeout
	if err := sched.Register(withTimeout(reminder, timeout), reminderCron); err != nil {
		return fmt.Errorf("register reminder job: %w", err)
	}
	if err := sched.Register(withTimeout(summary, timeout), summaryCron); err != nil {
		return fmt.Errorf("register summary job: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. RUN UNTIL SIGNALED
	// ─────────────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	for _, info := range sched.ListJobs() {
		log.Info("job scheduled",
			"job", info.Name,
			"schedule", info.Schedule,
			"next_run", info.NextRun.Format(time.RFC3339),
		)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler", "error", err)
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// timeoutJob bounds each run so a hung Telegram call cannot wedge the
// scheduler slot until the next firing.
type timeoutJob struct {
	scheduler.Job
	timeout time.Duration
}

func withTimeout(job scheduler.Job, timeout time.Duration) scheduler.Job {
	if timeout <= 0 {
		return job
	}
	return &timeoutJob{Job: job, timeout: timeout}
}

// Run implements scheduler.Job.
func (j *timeoutJob) Run(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	return j.Job.Run(runCtx)
}

// setupLogger configures structured logging for the process and installs
// it as the slog default.
func setupLogger(cfg *config.Config, service string) *slog.Logger {
	level := logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	log := logger.New(logger.Options{
		Level:     level,
		Format:    logger.ParseFormat(cfg.Observability.LogFormat),
		AddSource: cfg.App.Debug,
		Service:   service,
	})
	slog.SetDefault(log)
	return log
}
