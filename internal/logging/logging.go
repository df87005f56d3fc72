// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides component-scoped structured loggers built on
// zap, plus an optional syslog forwarder for deployments that centralize
// logs off-box.
package logging

import (
	"go.uber.org/zap"
)

// Logger is a structured, component-scoped logger. The zero value is not
// usable; construct one with New or WithComponent.
type Logger struct {
	sugar     *zap.SugaredLogger
	component string
}

var base = mustBuild()

func mustBuild() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		// Fall back to a no-op logger rather than crash the process over
		// a logging misconfiguration.
		return zap.NewNop()
	}
	return l
}

// New returns a Logger with no component tag.
func New() *Logger {
	return &Logger{sugar: base.Sugar()}
}

// WithComponent returns a Logger that tags every entry with component.
func WithComponent(component string) *Logger {
	return &Logger{
		sugar:     base.Sugar().With("component", component),
		component: component,
	}
}

// With returns a derived Logger with additional key/value pairs attached to
// every subsequent entry.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{sugar: l.sugar.With(kv...), component: l.component}
}

// Debug logs at debug level with structured key/value pairs.
func (l *Logger) Debug(msg string, kv ...any) { l.sugar.Debugw(msg, kv...) }

// Info logs at info level with structured key/value pairs.
func (l *Logger) Info(msg string, kv ...any) { l.sugar.Infow(msg, kv...) }

// Warn logs at warn level with structured key/value pairs.
func (l *Logger) Warn(msg string, kv ...any) { l.sugar.Warnw(msg, kv...) }

// Error logs at error level with structured key/value pairs.
func (l *Logger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, kv...) }

// Sync flushes any buffered log entries. Callers should defer this in main.
func (l *Logger) Sync() error { return l.sugar.Sync() }
