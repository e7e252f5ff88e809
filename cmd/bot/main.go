// Package main is the entry point for the attendance bot process.
//
// The bot serves the teachers of SK Labu Besar over Telegram: /rekod walks
// a teacher through marking today's attendance for a class, /semak shows
// what has been recorded, /statistik ranks the classes, and /rmt lists the
// subsidized-meal students. Scheduled broadcasts run in the separate
// worker process (cmd/worker).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sklabubesar/kehadiran-bot/config"
	"github.com/sklabubesar/kehadiran-bot/internal/application/stats"
	"github.com/sklabubesar/kehadiran-bot/internal/application/workflow"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/session"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/shared"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/external/telegram"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/messaging"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/persistence/postgres"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/persistence/redis"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/persistence/sheet"
	httpserver "github.com/sklabubesar/kehadiran-bot/internal/interface/http"
	telegrambot "github.com/sklabubesar/kehadiran-bot/internal/interface/telegram"
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
	log := setupLogger(cfg, "bot")
	log.Info("starting kehadiran bot",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"version", cfg.App.Version,
		"storage", cfg.Storage.Driver,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORAGE (attendance records and roster)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		store     attendance.Store
		rosters   roster.Provider
		readiness httpserver.HealthChecker
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

		if cfg.Storage.MigrateOnStart {
			log.Info("running database migrations...")
			if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		store = postgres.NewAttendanceRepository(conn)
		rosters = postgres.NewRosterRepository(conn)
		readiness = conn

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
	// 4. REDIS AND SESSION STORE
	// ─────────────────────────────────────────────────────────────────────────
	var cache *redis.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		cache, err = redis.NewCache(redisConfig(cfg))
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer cache.Close()
	}

	var sessions session.Store
	if cfg.Session.Store == config.SessionStoreRedis {
		sessions = redis.NewSessionStore(cache)
		log.Info("using Redis session store")
	} else {
		sessions = session.NewMemoryStore()
		log.Info("using in-memory session store")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultConfig()
	busConfig.Logger = log
	eventBus := messaging.NewEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	recording := workflow.New(workflow.Config{
		Sessions: sessions,
		Store:    store,
		Rosters:  rosters,
		Events:   eventBus,
		Logger:   log,
	})

	statistics := stats.New(stats.Config{
		Store:           store,
		Logger:          log,
		AtRiskThreshold: cfg.Stats.AtRiskThreshold,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 7. TELEGRAM BOT
	// ─────────────────────────────────────────────────────────────────────────
	botConfig := telegrambot.DefaultBotConfig(cfg.Telegram.Token)
	botConfig.SchoolName = cfg.Telegram.SchoolName
	botConfig.RMTRule = cfg.Telegram.RMTRule
	botConfig.MaxConcurrentUpdates = cfg.Telegram.MaxConcurrentUpdates
	botConfig.GracefulShutdownTimeout = cfg.App.ShutdownTimeout
	botConfig.Debug = cfg.App.Debug
	botConfig.Logger = log

	bot, err := telegrambot.NewBot(botConfig, telegrambot.BotDependencies{
		Workflow: recording,
		Stats:    statistics,
		Store:    store,
		Rosters:  rosters,
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ALL-RECORDED BROADCAST
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Telegram.BroadcastChatID != 0 {
		broadcaster := telegram.NewBroadcaster(bot.Client(), cfg.Telegram.BroadcastChatID, log)
		guard := newNoticeGuard(cache)

		err := eventBus.Subscribe(shared.EventAllClassesRecorded, shared.EventHandlerFunc{
			HandlerName: "all-recorded-broadcast",
			Fn: func(ctx context.Context, event shared.Event) error {
				recorded, ok := event.(shared.AllClassesRecordedEvent)
				if !ok {
					return nil
				}

				first, err := guard.markOnce(ctx, recorded.Date)
				if err != nil {
					log.Warn("notice guard check failed", "error", err)
				}
				if !first {
					return nil
				}

				text := fmt.Sprintf(
					"🎉 <b>Semua kelas telah merekod kehadiran!</b>\n📅 %s (%d kelas)\n\nTerima kasih, semua cikgu! 👏",
					recorded.Date, recorded.ClassCount)
				return broadcaster.Send(ctx, text)
			},
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe broadcast handler: %w", err)
		}
	} else {
		log.Info("broadcast chat not configured, all-recorded notice disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP SERVER (health probes)
	// ─────────────────────────────────────────────────────────────────────────
	var httpServer *httpserver.Server
	if cfg.HTTP.Enabled {
		httpServer = httpserver.NewServer(httpserver.Config{
			Host:         cfg.HTTP.Host,
			Port:         cfg.HTTP.Port,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		}, httpserver.Dependencies{
			Store:  readiness,
			Bot:    bot,
			Logger: log,
		})
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. START SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 2)

	if httpServer != nil {
		go func() {
			if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server error: %w", err)
			}
		}()
	}

	go func() {
		log.Info("starting Telegram bot...")
		if err := bot.Start(ctx); err != nil {
			errCh <- fmt.Errorf("telegram bot error: %w", err)
		}
	}()

	log.Info("kehadiran bot is running", "school", cfg.Telegram.SchoolName)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	if err := bot.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop bot gracefully", "error", err)
		shutdownErr = err
	}

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to stop HTTP server gracefully", "error", err)
			shutdownErr = err
		}
	}

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// noticeGuard makes the all-recorded broadcast fire once per day. With Redis
// the guard survives restarts; without it a process-local set is close
// enough for a single-instance bot.
type noticeGuard struct {
	cache *redis.Cache

	mu   sync.Mutex
	seen map[string]bool
}

func newNoticeGuard(cache *redis.Cache) *noticeGuard {
	return &noticeGuard{cache: cache, seen: make(map[string]bool)}
}

func (g *noticeGuard) markOnce(ctx context.Context, date string) (bool, error) {
	if g.cache != nil {
		return g.cache.MarkOnce(ctx, redis.PrefixNotice+"all-recorded:"+date, redis.TTLNotice)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen[date] {
		return false, nil
	}
	g.seen[date] = true
	return true, nil
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

func redisConfig(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.MaxRetries = cfg.Redis.MaxRetries
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	rc.PoolTimeout = cfg.Redis.PoolTimeout
	return rc
}
