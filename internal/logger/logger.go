package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

type implLogger struct {
	logger *log.Logger
	json   *slog.Logger
	level  string
}

// New creates a new Logger instance writing text lines to stdout
func New(level string) Logger {
	return NewWithFormat(level, "text", os.Stdout)
}

// NewWithFormat creates a Logger writing to w. Format "json" emits one slog
// JSON record per line; anything else emits "[LEVEL] message" text lines.
func NewWithFormat(level, format string, w io.Writer) Logger {
	l := &implLogger{level: strings.ToLower(level)}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		l.json = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
		return l
	}
	l.logger = log.New(w, "", log.LstdFlags)
	return l
}

func (l *implLogger) shouldLog(level string) bool {
	levels := map[string]int{
		"debug": 0,
		"info":  1,
		"warn":  2,
		"error": 3,
	}

	currentLevel, ok := levels[l.level]
	if !ok {
		currentLevel = 1 // default to info
	}

	targetLevel, ok := levels[level]
	if !ok {
		return true
	}

	return targetLevel >= currentLevel
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, "debug", slog.LevelDebug, msg, args)
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, "info", slog.LevelInfo, msg, args)
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, "warn", slog.LevelWarn, msg, args)
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, "error", slog.LevelError, msg, args)
}

func (l *implLogger) write(ctx context.Context, level string, lvl slog.Level, msg string, args []interface{}) {
	if !l.shouldLog(level) {
		return
	}
	text := msg
	if len(args) > 0 {
		text = fmt.Sprintf(msg, args...)
	}
	runID := RunID(ctx)

	if l.json != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		if runID != "" {
			l.json.Log(ctx, lvl, text, "run_id", runID)
			return
		}
		l.json.Log(ctx, lvl, text)
		return
	}

	prefix := "[" + strings.ToUpper(level) + "] "
	if runID != "" {
		prefix += "[" + shortRunID(runID) + "] "
	}
	l.logger.Print(prefix + text)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewWithFormat("error", "text", io.Discard)
}
