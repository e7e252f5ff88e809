package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sklabubesar/kehadiran-bot/internal/application/stats"
	"github.com/sklabubesar/kehadiran-bot/internal/application/workflow"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/attendance"
	"github.com/sklabubesar/kehadiran-bot/internal/domain/roster"
	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/external/telegram"
	"github.com/sklabubesar/kehadiran-bot/internal/interface/telegram/handler"
	"github.com/sklabubesar/kehadiran-bot/internal/interface/telegram/middleware"
	"github.com/sklabubesar/kehadiran-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// Token is the Telegram Bot API token.
	Token string

	// SchoolName appears in the greeting.
	SchoolName string

	// RMTRule selects the subsidized-meal matching rule.
	RMTRule roster.RMTRule

	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// GracefulShutdownTimeout bounds the wait for in-flight handlers on Stop.
	GracefulShutdownTimeout time.Duration

	// Debug enables debug logging.
	Debug bool

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig(token string) BotConfig {
	return BotConfig{
		Token:                   token,
		SchoolName:              "SK Labu Besar",
		RMTRule:                 roster.RMTRuleNote,
		MaxConcurrentUpdates:    32,
		GracefulShutdownTimeout: 30 * time.Second,
		Logger:                  slog.Default(),
	}
}

// BotDependencies contains the application services the handlers need.
type BotDependencies struct {
	Workflow *workflow.Workflow
	Stats    *stats.Service
	Store    attendance.Store
	Rosters  roster.Provider
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the Telegram bot controller: it receives updates, runs them through
// the middleware chain, and routes them to the conversation handlers.
type Bot struct {
	config BotConfig
	client *telegram.Client
	router *Router
	logger *slog.Logger

	rateLimiter *middleware.RateLimiter
	recovery    *middleware.RecoveryMiddleware

	running   bool
	runningMu sync.RWMutex
	updateSem chan struct{}
	wg        sync.WaitGroup

	stats *BotStats
}

// BotStats holds runtime counters.
type BotStats struct {
	mu              sync.RWMutex
	StartedAt       time.Time
	UpdatesReceived int64
	UpdatesHandled  int64
	ErrorsCount     int64
	CommandsCount   map[string]int64
}

// NewBot creates a Telegram bot wired to the attendance services.
func NewBot(config BotConfig, deps BotDependencies) (*Bot, error) {
	if config.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxConcurrentUpdates <= 0 {
		config.MaxConcurrentUpdates = DefaultBotConfig("").MaxConcurrentUpdates
	}
	if config.GracefulShutdownTimeout <= 0 {
		config.GracefulShutdownTimeout = DefaultBotConfig("").GracefulShutdownTimeout
	}

	clientConfig := telegram.DefaultClientConfig(config.Token)
	clientConfig.Logger = config.Logger
	clientConfig.Debug = config.Debug
	client := telegram.NewClient(clientConfig)

	bot := &Bot{
		config:      config,
		client:      client,
		router:      NewRouter(RouterConfig{Logger: config.Logger}),
		logger:      config.Logger,
		rateLimiter: middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()),
		recovery:    middleware.NewRecoveryMiddleware(middleware.DefaultRecoveryConfig()),
		updateSem:   make(chan struct{}, config.MaxConcurrentUpdates),
		stats:       &BotStats{CommandsCount: make(map[string]int64)},
	}

	bot.registerRoutes(deps)
	return bot, nil
}

// registerRoutes builds handlers and wires them to commands and callbacks.
func (b *Bot) registerRoutes(deps BotDependencies) {
	keyboards := presenter.NewKeyboardBuilder()
	attendanceView := presenter.NewAttendancePresenter()
	rankingView := presenter.NewRankingPresenter(deps.Stats.AtRiskThreshold())

	start := handler.NewStartHandler(keyboards, b.config.SchoolName)
	record := handler.NewRecordHandler(deps.Workflow, keyboards, attendanceView)
	check := handler.NewCheckHandler(deps.Store, deps.Rosters, keyboards, attendanceView, nil)
	statistics := handler.NewStatsHandler(deps.Stats, keyboards, rankingView, nil)
	rmt := handler.NewRMTHandler(deps.Rosters, deps.Store, b.config.RMTRule, nil)
	export := handler.NewExportHandler(deps.Stats, deps.Store, nil)

	// Commands.
	b.router.RegisterCommand("start", func(ctx context.Context, cmd CommandContext) error {
		firstName := ""
		if cmd.Message != nil && cmd.Message.From != nil {
			firstName = cmd.Message.From.FirstName
		}
		resp, err := start.Start(ctx, firstName)
		return b.reply(ctx, cmd.ChatID, 0, resp, err)
	})
	b.router.RegisterCommand("bantuan", func(ctx context.Context, cmd CommandContext) error {
		resp, err := start.Help(ctx)
		return b.reply(ctx, cmd.ChatID, 0, resp, err)
	})
	b.router.RegisterCommand("rekod", func(ctx context.Context, cmd CommandContext) error {
		resp, err := record.Begin(ctx)
		return b.reply(ctx, cmd.ChatID, 0, resp, err)
	})
	b.router.RegisterCommand("semak", func(ctx context.Context, cmd CommandContext) error {
		resp, err := check.Menu(ctx)
		return b.reply(ctx, cmd.ChatID, 0, resp, err)
	})
	b.router.RegisterCommand("statistik", func(ctx context.Context, cmd CommandContext) error {
		resp, err := statistics.Show(ctx, cmd.Args)
		return b.reply(ctx, cmd.ChatID, 0, resp, err)
	})
	b.router.RegisterCommand("rmt", func(ctx context.Context, cmd CommandContext) error {
		resp, err := rmt.List(ctx)
		return b.reply(ctx, cmd.ChatID, 0, resp, err)
	})
	b.router.SetUnknownCommand(func(ctx context.Context, cmd CommandContext) error {
		_, err := b.client.SendHTML(ctx, cmd.ChatID, "Maaf, saya tidak faham arahan itu. Taip /bantuan untuk panduan.")
		return err
	})

	// Recording flow callbacks.
	b.router.RegisterCallback(presenter.CallbackRecord, func(ctx context.Context, cb CallbackContext) error {
		resp, err := record.Begin(ctx)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackSelectClass, func(ctx context.Context, cb CallbackContext) error {
		resp, err := record.SelectClass(ctx, cb.ActorID, cb.Arg)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackToggleStudent, func(ctx context.Context, cb CallbackContext) error {
		resp, err := record.Toggle(ctx, cb.ActorID, cb.Arg)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackAllPresent, func(ctx context.Context, cb CallbackContext) error {
		resp, err := record.AllPresent(ctx, cb.ActorID)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackReset, func(ctx context.Context, cb CallbackContext) error {
		resp, err := record.Reset(ctx, cb.ActorID)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackSave, func(ctx context.Context, cb CallbackContext) error {
		resp, err := record.Save(ctx, cb.ActorID)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackConfirmOverwrite, func(ctx context.Context, cb CallbackContext) error {
		resp, err := record.ConfirmOverwrite(ctx, cb.ActorID)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackCancelOverwrite, func(ctx context.Context, cb CallbackContext) error {
		resp, err := record.CancelOverwrite(ctx, cb.ActorID)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackCancel, func(ctx context.Context, cb CallbackContext) error {
		resp, err := record.Cancel(ctx, cb.ActorID)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})

	// Query callbacks.
	b.router.RegisterCallback(presenter.CallbackCheck, func(ctx context.Context, cb CallbackContext) error {
		resp, err := check.Menu(ctx)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackCheckDate, func(ctx context.Context, cb CallbackContext) error {
		resp, err := check.PickDate(ctx, cb.Arg)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackCalendarNav, func(ctx context.Context, cb CallbackContext) error {
		resp, err := check.Calendar(ctx, cb.Arg)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackCalendarDay, func(ctx context.Context, cb CallbackContext) error {
		resp, err := check.CalendarDay(ctx, cb.Arg)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackCheckClass, func(ctx context.Context, cb CallbackContext) error {
		resp, err := check.CheckClass(ctx, cb.Arg)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackStats, func(ctx context.Context, cb CallbackContext) error {
		resp, err := statistics.Show(ctx, cb.Arg)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackRMTToday, func(ctx context.Context, cb CallbackContext) error {
		resp, err := rmt.Today(ctx)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackExport, func(ctx context.Context, cb CallbackContext) error {
		resp, err := export.Weekly(ctx)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackMenu, func(ctx context.Context, cb CallbackContext) error {
		resp, err := start.Menu(ctx)
		return b.reply(ctx, cb.ChatID, cb.MessageID, resp, err)
	})
	b.router.RegisterCallback(presenter.CallbackNoop, func(ctx context.Context, cb CallbackContext) error {
		return nil
	})
}

// reply delivers a handler response: an in-place edit when requested and a
// keyboard message exists, a fresh send otherwise.
func (b *Bot) reply(ctx context.Context, chatID, messageID int64, resp *handler.Response, err error) error {
	if err != nil {
		return err
	}
	if resp == nil {
		return nil
	}

	if resp.Document != nil {
		_, sendErr := b.client.SendDocument(ctx, telegram.SendDocumentParams{
			ChatID:   chatID,
			FileName: resp.Document.FileName,
			Caption:  resp.Document.Caption,
			Data:     bytes.NewReader(resp.Document.Data),
		})
		return sendErr
	}

	if resp.Text == "" {
		return nil
	}

	markup := toMarkup(resp.Keyboard)

	if resp.EditMessage && messageID != 0 {
		_, editErr := b.client.EditMessageText(ctx, chatID, messageID, resp.Text, "HTML", markup)
		if editErr == nil {
			return nil
		}
		// The keyboard message may be too old to edit. Fall back to send.
		b.logger.Debug("edit failed, sending new message", "error", editErr)
	}

	if markup != nil {
		_, sendErr := b.client.SendWithKeyboard(ctx, chatID, resp.Text, markup.InlineKeyboard)
		return sendErr
	}
	_, sendErr := b.client.SendHTML(ctx, chatID, resp.Text)
	return sendErr
}

// toMarkup converts a presenter keyboard to the API shape.
func toMarkup(kb *presenter.InlineKeyboard) *telegram.InlineKeyboardMarkup {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}
	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: make([][]telegram.InlineKeyboardButton, 0, len(kb.Rows)),
	}
	for _, row := range kb.Rows {
		buttons := make([]telegram.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, telegram.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.CallbackData,
			})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start verifies the token and begins long polling. It blocks until ctx is
// cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.stats.mu.Lock()
	b.stats.StartedAt = time.Now()
	b.stats.mu.Unlock()
	b.runningMu.Unlock()

	me, err := b.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("verify bot token: %w", err)
	}
	b.logger.Info("bot verified", "id", me.ID, "username", me.Username)

	return b.client.StartPolling(ctx, func(ctx context.Context, update *telegram.Update) error {
		return b.handleUpdate(ctx, update)
	})
}

// Stop waits for in-flight handlers to finish, bounded by the configured
// shutdown timeout.
func (b *Bot) Stop(ctx context.Context) error {
	b.runningMu.Lock()
	if !b.running {
		b.runningMu.Unlock()
		return nil
	}
	b.running = false
	b.runningMu.Unlock()

	b.logger.Info("stopping telegram bot")

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("all handlers completed")
	case <-time.After(b.config.GracefulShutdownTimeout):
		b.logger.Warn("graceful shutdown timeout exceeded")
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// IsRunning reports whether the bot is polling.
func (b *Bot) IsRunning() bool {
	b.runningMu.RLock()
	defer b.runningMu.RUnlock()
	return b.running
}

// Client returns the underlying API client, for wiring the broadcaster.
func (b *Bot) Client() *telegram.Client {
	return b.client
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// handleUpdate processes a single Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update *telegram.Update) error {
	select {
	case b.updateSem <- struct{}{}:
		defer func() { <-b.updateSem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	b.wg.Add(1)
	defer b.wg.Done()

	b.stats.mu.Lock()
	b.stats.UpdatesReceived++
	b.stats.mu.Unlock()

	started := time.Now()

	var err error
	switch {
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.handleCallbackQuery(ctx, update.CallbackQuery)
	default:
		return nil
	}

	b.stats.mu.Lock()
	if err != nil {
		b.stats.ErrorsCount++
	} else {
		b.stats.UpdatesHandled++
	}
	b.stats.mu.Unlock()

	if err != nil {
		b.logger.Error("failed to handle update",
			"update_id", update.UpdateID,
			"error", err,
			"duration", time.Since(started),
		)
	}
	return err
}

// handleMessage processes an incoming message.
func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return nil
	}

	command := telegram.ExtractCommand(msg)
	if command == "" {
		// Free text outside a flow is ignored; everything happens through
		// commands and keyboards.
		return nil
	}

	actorID := msg.From.ID
	chatID := msg.Chat.ID

	b.stats.mu.Lock()
	b.stats.CommandsCount[command]++
	b.stats.mu.Unlock()

	limit := b.rateLimiter.Check(ctx, actorID)
	if !limit.Allowed {
		text := fmt.Sprintf("⏳ Terlalu banyak permintaan. Sila cuba dalam %d saat.", int(limit.RetryAfter.Seconds())+1)
		_, err := b.client.SendHTML(ctx, chatID, text)
		return err
	}

	result := b.recovery.RecoverWithHandler(ctx, actorID, command, func() error {
		return b.router.HandleCommand(ctx, command, CommandContext{
			ActorID:   actorID,
			ChatID:    chatID,
			MessageID: msg.MessageID,
			Args:      telegram.ExtractCommandArgs(msg),
			Message:   msg,
		})
	})
	if result.Recovered {
		_, err := b.client.SendHTML(ctx, chatID, result.UserMessage)
		return err
	}
	return result.Err
}

// handleCallbackQuery processes an inline keyboard tap.
func (b *Bot) handleCallbackQuery(ctx context.Context, cq *telegram.CallbackQuery) error {
	if cq == nil || cq.From == nil {
		return nil
	}

	actorID := cq.From.ID
	var chatID, messageID int64
	if cq.Message != nil && cq.Message.Chat != nil {
		chatID = cq.Message.Chat.ID
		messageID = cq.Message.MessageID
	}

	// Answer first so the client stops showing the loading spinner.
	defer func() {
		_ = b.client.AnswerCallbackQuery(ctx, cq.ID, "", false)
	}()

	limit := b.rateLimiter.Check(ctx, actorID)
	if !limit.Allowed {
		return b.client.AnswerCallbackQuery(ctx, cq.ID, "⏳ Perlahan sedikit, cikgu!", true)
	}

	result := b.recovery.RecoverWithHandler(ctx, actorID, "callback:"+cq.Data, func() error {
		return b.router.HandleCallback(ctx, cq.Data, CallbackContext{
			ActorID:   actorID,
			ChatID:    chatID,
			MessageID: messageID,
			QueryID:   cq.ID,
			Query:     cq,
		})
	})
	if result.Recovered && chatID != 0 {
		_, err := b.client.SendHTML(ctx, chatID, result.UserMessage)
		return err
	}
	return result.Err
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// GetStats returns a snapshot of the runtime counters.
func (b *Bot) GetStats() map[string]interface{} {
	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()

	commands := make(map[string]int64, len(b.stats.CommandsCount))
	for k, v := range b.stats.CommandsCount {
		commands[k] = v
	}

	return map[string]interface{}{
		"started_at":       b.stats.StartedAt,
		"uptime":           time.Since(b.stats.StartedAt).String(),
		"updates_received": b.stats.UpdatesReceived,
		"updates_handled":  b.stats.UpdatesHandled,
		"errors_count":     b.stats.ErrorsCount,
		"commands_count":   commands,
		"running":          b.IsRunning(),
	}
}
