package formsync

import (
	"context"
	"log/slog"
	"time"
)

// LogEvent describes one engine step worth logging: a store call, a global
// propagation or an expression evaluation.
type LogEvent struct {
	Op       string
	FormID   string
	InputID  string
	Key      string
	Engine   string
	Expr     string
	Duration time.Duration
	Err      error
}

// Logger records engine events.
type Logger interface {
	Log(ctx context.Context, event LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(ctx context.Context, event LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(ctx context.Context, event LogEvent) {
	if f != nil {
		f(ctx, event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(context.Context, LogEvent) {}

// NewSlogLogger forwards events to logger. Failures log at warn level,
// everything else at debug.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return LoggerFunc(func(ctx context.Context, event LogEvent) {
		attrs := []slog.Attr{slog.String("op", event.Op)}
		if event.FormID != "" {
			attrs = append(attrs, slog.String("form_id", event.FormID))
		}
		if event.InputID != "" {
			attrs = append(attrs, slog.String("input_id", event.InputID))
		}
		if event.Key != "" {
			attrs = append(attrs, slog.String("global_key", event.Key))
		}
		if event.Engine != "" {
			attrs = append(attrs, slog.String("engine", event.Engine), slog.String("expr", event.Expr))
		}
		if event.Duration > 0 {
			attrs = append(attrs, slog.Duration("duration", event.Duration))
		}
		level := slog.LevelDebug
		if event.Err != nil {
			level = slog.LevelWarn
			attrs = append(attrs, slog.Any("error", event.Err))
		}
		if ctx == nil {
			ctx = context.Background()
		}
		logger.LogAttrs(ctx, level, "formsync", attrs...)
	})
}
