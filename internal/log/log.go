package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Debug enables debug logging and extra diagnostics, eg the browser version.
var Debug bool

// LevelSuccess sits between info and warn and marks completed submissions.
const LevelSuccess = slog.Level(2)

type ctxKey struct{}

// Options configure the default logger.
type Options struct {
	// Writer receives the log lines. Nil means stdout.
	Writer io.Writer
	// File additionally writes to a rotated log file if set.
	File      string
	MaxSizeMB int
	// History keeps the most recent records for display.
	History *History
}

func InitializeDefaultLogger(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	if opts.File != "" {
		w = io.MultiWriter(w, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: 3,
		})
	}
	level := slog.LevelInfo
	if Debug {
		level = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level, ReplaceAttr: replaceLevel})
	if opts.History != nil {
		handler = opts.History.Handler(handler)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if l, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(LevelName(l))
		}
	}
	return a
}

// LevelName is like slog.Level.String but knows about LevelSuccess.
func LevelName(l slog.Level) string {
	if l == LevelSuccess {
		return "SUCCESS"
	}
	return l.String()
}

// Success logs msg at LevelSuccess.
func Success(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	logger.Log(ctx, LevelSuccess, msg, args...)
}

func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
