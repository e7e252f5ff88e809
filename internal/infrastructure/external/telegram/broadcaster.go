package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sklabubesar/kehadiran-bot/pkg/circuitbreaker"
	"github.com/sklabubesar/kehadiran-bot/pkg/retry"
)

// Sender is the subset of the client the broadcaster needs.
type Sender interface {
	SendHTML(ctx context.Context, chatID int64, html string) (*Message, error)
	SendDocument(ctx context.Context, params SendDocumentParams) (*Message, error)
}

// Broadcaster delivers notices to the school group chat. Group sends go
// through a retrier for transient failures and a circuit breaker so a
// Telegram outage cannot pile up blocked goroutines behind the scheduler.
type Broadcaster struct {
	client  Sender
	chatID  int64
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewBroadcaster creates a broadcaster targeting the given group chat.
func NewBroadcaster(client Sender, chatID int64, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		client: client,
		chatID: chatID,
		retrier: retry.New(
			retry.WithMaxAttempts(3),
			retry.WithInitialDelay(2*time.Second),
			retry.WithRetryIf(func(err error) bool {
				// The client already refuses to retry 4xx responses;
				// anything surfacing here is worth one more round unless
				// it is explicitly permanent.
				return !retry.IsPermanent(err)
			}),
		),
		breaker: circuitbreaker.New("telegram-broadcast",
			circuitbreaker.WithFailureThreshold(5),
			circuitbreaker.WithTimeout(2*time.Minute),
		),
		logger: logger,
	}
}

// ChatID returns the target group chat.
func (b *Broadcaster) ChatID() int64 {
	return b.chatID
}

// Send delivers an HTML-formatted notice to the group chat.
func (b *Broadcaster) Send(ctx context.Context, text string) error {
	err := b.breaker.Execute(ctx, func(ctx context.Context) error {
		return b.retrier.Do(ctx, func(ctx context.Context) error {
			_, err := b.client.SendHTML(ctx, b.chatID, text)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("broadcast to %d: %w", b.chatID, err)
	}
	return nil
}

// SendDocument delivers a file to the group chat. Document uploads are not
// retried; the breaker still tracks failures.
func (b *Broadcaster) SendDocument(ctx context.Context, params SendDocumentParams) error {
	params.ChatID = b.chatID
	err := b.breaker.Execute(ctx, func(ctx context.Context) error {
		_, err := b.client.SendDocument(ctx, params)
		return err
	})
	if err != nil {
		return fmt.Errorf("broadcast document to %d: %w", b.chatID, err)
	}
	return nil
}
