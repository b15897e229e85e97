package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures where and how log records are written.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	File   string // empty means stdout
}

type implLogger struct {
	logger *slog.Logger
	level  string
}

var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// New creates a text Logger writing to stdout at the given level.
func New(level string) Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions creates a Logger from Options. A non-empty File is written
// through a size-rotated lumberjack writer.
func NewWithOptions(opts Options) Logger {
	var w io.Writer = os.Stdout
	if opts.File != "" {
		w = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
	}
	return newLogger(w, opts)
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return newLogger(io.Discard, Options{Level: "error"})
}

func newLogger(w io.Writer, opts Options) Logger {
	level := strings.ToLower(opts.Level)
	handlerOpts := &slog.HandlerOptions{Level: slogLevel(level)}

	var h slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}

	return &implLogger{
		logger: slog.New(h),
		level:  level,
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *implLogger) shouldLog(level string) bool {
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

func (l *implLogger) log(ctx context.Context, level slog.Level, msg string, args []interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.logger.Log(ctx, level, msg)
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("debug") {
		l.log(ctx, slog.LevelDebug, msg, args)
	}
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("info") {
		l.log(ctx, slog.LevelInfo, msg, args)
	}
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("warn") {
		l.log(ctx, slog.LevelWarn, msg, args)
	}
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("error") {
		l.log(ctx, slog.LevelError, msg, args)
	}
}
