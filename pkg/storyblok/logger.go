package storyblok

import (
	"context"
	"log/slog"
	"slices"
)

type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger adapts a *slog.Logger to Logger. Fields become attributes in
// key order.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}

	return &slogLogger{logger: logger}
}

func (l *slogLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(slog.LevelDebug, msg, fields)
}

func (l *slogLogger) Info(msg string, fields map[string]interface{}) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l *slogLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(slog.LevelWarn, msg, fields)
}

func (l *slogLogger) Error(msg string, fields map[string]interface{}) {
	l.log(slog.LevelError, msg, fields)
}

func (l *slogLogger) log(level slog.Level, msg string, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}

	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}
