// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"log/slog"
	"os"
)

// Field is a structured logging key-value pair.
type Field struct {
	Key   string
	Value any
}

// Logger is the pluggable logging interface used by the SDK. Applications
// can implement it to route SDK logs into their native logging framework
// (zap, zerolog, logrus, ...). Credentials are never passed to a Logger.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// DefaultLogger is a simple Logger backed by Go's standard slog package.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger returns a Logger writing JSON to stdout at info level.
func NewDefaultLogger() Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &DefaultLogger{logger: slog.New(handler)}
}

// NewDebugLogger returns a Logger that includes debug-level output, which
// covers per-invocation RPC tracing.
func NewDebugLogger() Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return &DefaultLogger{logger: slog.New(handler)}
}

func (l *DefaultLogger) Debug(msg string, fields ...Field) { l.logger.Debug(msg, attrs(fields)...) }
func (l *DefaultLogger) Info(msg string, fields ...Field)  { l.logger.Info(msg, attrs(fields)...) }
func (l *DefaultLogger) Warn(msg string, fields ...Field)  { l.logger.Warn(msg, attrs(fields)...) }
func (l *DefaultLogger) Error(msg string, fields ...Field) { l.logger.Error(msg, attrs(fields)...) }

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}

// nopLogger discards everything. Used when no Logger is configured.
type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
