// Package logger configures structured logging for the kehadiran bot.
// All components log through *slog.Logger; this package builds the
// handler from runtime options and adds domain attribute helpers.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON emits one JSON object per line. Default in production.
	FormatJSON Format = "json"
	// FormatText emits human-readable key=value lines. Handy in development.
	FormatText Format = "text"
)

// ParseFormat parses a format string. Unknown values map to FormatJSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatText)) {
		return FormatText
	}
	return FormatJSON
}

// ParseLevel parses a level string. Unknown values map to slog.LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options configures the logger.
type Options struct {
	Output    io.Writer
	Level     slog.Level
	Format    Format
	AddSource bool
	// Service is attached to every entry so multi-process deployments
	// (bot and worker) stay distinguishable in shared log streams.
	Service string
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Output: os.Stdout,
		Level:  slog.LevelInfo,
		Format: FormatJSON,
	}
}

// New creates a *slog.Logger with the given options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	if opts.Format == FormatText {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	log := slog.New(handler)
	if opts.Service != "" {
		log = log.With(slog.String("service", opts.Service))
	}
	return log
}

// Default creates a logger with default options.
func Default() *slog.Logger {
	return New(DefaultOptions())
}

// Attendance-related attribute helpers.
func ClassName(name string) slog.Attr   { return slog.String("class", name) }
func ActorID(id int64) slog.Attr        { return slog.Int64("actor_id", id) }
func ChatID(id int64) slog.Attr         { return slog.Int64("chat_id", id) }
func RecordDate(date string) slog.Attr  { return slog.String("record_date", date) }
func Component(name string) slog.Attr   { return slog.String("component", name) }
func Err(err error) slog.Attr           { return slog.String("error", err.Error()) }
func Latency(d time.Duration) slog.Attr { return slog.String("latency", d.String()) }
