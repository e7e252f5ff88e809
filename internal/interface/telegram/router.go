// Package telegram implements the Telegram chat interface of the attendance
// bot: update routing, the middleware chain, and bot lifecycle.
package telegram

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/sklabubesar/kehadiran-bot/internal/infrastructure/external/telegram"
	"github.com/sklabubesar/kehadiran-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT TYPES
// ══════════════════════════════════════════════════════════════════════════════

// CommandContext carries one incoming command through routing.
type CommandContext struct {
	// ActorID is the Telegram user driving the conversation.
	ActorID int64

	// ChatID is where the reply goes.
	ChatID int64

	// MessageID is the triggering message.
	MessageID int64

	// Args is the text after the command.
	Args string

	// Message is the original Telegram message.
	Message *telegram.Message
}

// CallbackContext carries one incoming callback query through routing.
type CallbackContext struct {
	// ActorID is the Telegram user who tapped the button.
	ActorID int64

	// ChatID is the chat holding the keyboard message.
	ChatID int64

	// MessageID is the message carrying the keyboard, for in-place edits.
	MessageID int64

	// QueryID answers the callback query.
	QueryID string

	// Action is the part of the callback data before the separator.
	Action string

	// Arg is the part after the separator, possibly empty.
	Arg string

	// Query is the original callback query.
	Query *telegram.CallbackQuery
}

// CommandFunc handles one command.
type CommandFunc func(ctx context.Context, cmd CommandContext) error

// CallbackFunc handles one callback action.
type CallbackFunc func(ctx context.Context, cb CallbackContext) error

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger
}

// Router dispatches commands and callback actions to registered handlers.
type Router struct {
	logger *slog.Logger

	mu        sync.RWMutex
	commands  map[string]CommandFunc
	callbacks map[string]CallbackFunc

	unknownCommand  CommandFunc
	unknownCallback CallbackFunc
}

// NewRouter creates a router.
func NewRouter(config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	r := &Router{
		logger:    config.Logger,
		commands:  make(map[string]CommandFunc),
		callbacks: make(map[string]CallbackFunc),
	}
	r.unknownCommand = func(ctx context.Context, cmd CommandContext) error {
		r.logger.Debug("unknown command", "command", cmd.Args)
		return nil
	}
	r.unknownCallback = func(ctx context.Context, cb CallbackContext) error {
		r.logger.Debug("unknown callback action", "action", cb.Action)
		return nil
	}
	return r
}

// RegisterCommand registers a handler for a command without the leading "/".
func (r *Router) RegisterCommand(command string, fn CommandFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[command] = fn
}

// RegisterCallback registers a handler for a callback action. The action is
// the callback data up to the first separator.
func (r *Router) RegisterCallback(action string, fn CallbackFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[action] = fn
}

// SetUnknownCommand sets the fallback for unregistered commands.
func (r *Router) SetUnknownCommand(fn CommandFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unknownCommand = fn
}

// SetUnknownCallback sets the fallback for unregistered callback actions.
func (r *Router) SetUnknownCallback(fn CallbackFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unknownCallback = fn
}

// HandleCommand routes a command to its handler.
func (r *Router) HandleCommand(ctx context.Context, command string, cmd CommandContext) error {
	r.mu.RLock()
	fn, ok := r.commands[command]
	fallback := r.unknownCommand
	r.mu.RUnlock()

	if !ok {
		return fallback(ctx, cmd)
	}
	return fn(ctx, cmd)
}

// HandleCallback splits callback data into action and argument and routes it.
func (r *Router) HandleCallback(ctx context.Context, data string, cb CallbackContext) error {
	cb.Action, cb.Arg = SplitCallbackData(data)

	r.mu.RLock()
	fn, ok := r.callbacks[cb.Action]
	fallback := r.unknownCallback
	r.mu.RUnlock()

	if !ok {
		return fallback(ctx, cb)
	}
	return fn(ctx, cb)
}

// SplitCallbackData splits "action|arg" callback data. Data without a
// separator is all action.
func SplitCallbackData(data string) (action, arg string) {
	if idx := strings.Index(data, presenter.CallbackSeparator); idx >= 0 {
		return data[:idx], data[idx+1:]
	}
	return data, ""
}
