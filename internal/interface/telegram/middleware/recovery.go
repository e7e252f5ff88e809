// Package middleware contains Telegram bot middlewares for update processing.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Catches panics in handlers so one bad update cannot take the bot down.
// Users get a short Malay apology; the full stack trace goes to the log.
// ══════════════════════════════════════════════════════════════════════════════

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// UserErrorMessage is sent to the chat when a panic occurs.
	UserErrorMessage string

	// Logger for structured logging.
	Logger *slog.Logger

	// OnPanic is called after a panic is recovered, for alerting hooks.
	OnPanic func(ctx context.Context, info *PanicInfo)
}

// DefaultRecoveryConfig returns sensible defaults.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		UserErrorMessage: "😔 Maaf, berlaku ralat. Sila cuba sebentar lagi.",
		Logger:           slog.Default(),
	}
}

// PanicInfo describes a recovered panic.
type PanicInfo struct {
	PanicValue interface{}
	StackTrace string
	ActorID    int64
	Operation  string
	Timestamp  time.Time
}

// RecoveryMiddleware recovers from panics in update handlers.
type RecoveryMiddleware struct {
	config RecoveryConfig
	logger *slog.Logger
}

// NewRecoveryMiddleware creates a recovery middleware.
func NewRecoveryMiddleware(config RecoveryConfig) *RecoveryMiddleware {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.UserErrorMessage == "" {
		config.UserErrorMessage = DefaultRecoveryConfig().UserErrorMessage
	}
	return &RecoveryMiddleware{config: config, logger: config.Logger}
}

// RecoveryResult is the outcome of a guarded handler call.
type RecoveryResult struct {
	// Recovered indicates a panic was caught.
	Recovered bool

	// PanicInfo holds the panic details when Recovered is true.
	PanicInfo *PanicInfo

	// UserMessage is the chat message to send when Recovered is true.
	UserMessage string

	// Err is the handler's error when it returned normally.
	Err error
}

// RecoverWithHandler runs a handler, converting any panic into a
// RecoveryResult instead of crashing the update loop.
func (m *RecoveryMiddleware) RecoverWithHandler(
	ctx context.Context,
	actorID int64,
	operation string,
	handler func() error,
) *RecoveryResult {
	var result *RecoveryResult
	var handlerErr error

	func() {
		defer func() {
			if r := recover(); r != nil {
				result = m.handlePanic(ctx, r, actorID, operation)
			}
		}()
		handlerErr = handler()
	}()

	if result != nil {
		return result
	}
	return &RecoveryResult{Err: handlerErr}
}

// handlePanic logs the panic and builds the user-facing result.
func (m *RecoveryMiddleware) handlePanic(ctx context.Context, panicValue interface{}, actorID int64, operation string) *RecoveryResult {
	info := &PanicInfo{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		ActorID:    actorID,
		Operation:  operation,
		Timestamp:  time.Now(),
	}

	m.logger.Error("panic recovered in handler",
		"operation", operation,
		"actor_id", actorID,
		"panic", fmt.Sprintf("%v", panicValue),
		"stack", info.StackTrace,
	)

	if m.config.OnPanic != nil {
		m.config.OnPanic(ctx, info)
	}

	return &RecoveryResult{
		Recovered:   true,
		PanicInfo:   info,
		UserMessage: m.config.UserErrorMessage,
	}
}
