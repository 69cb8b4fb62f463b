// Package alog is the structured logger of the fixture factories.
//
// It is a thin layer on top of log/slog: every record is correlated with
// the active otel span, and the factories log with their own, lower levels,
// so that fixture noise stays out of the regular test output.
package alog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Logger interface is a subset of slog.Logger, with the aim to
// encourage the use of the methods offering context.Context,
// so that tracing information can be correlated.
type Logger interface {
	Log(ctx context.Context, level slog.Level, msg string, args ...any)
	LogAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	With(args ...any) *slog.Logger
	WithGroup(name string) *slog.Logger
}

const (
	// LevelInfo is used to see which fixtures get defined and built.
	LevelInfo = slog.Level(-8)

	// LevelDebug is used to see every resolved attribute and hook call.
	LevelDebug = slog.Level(-12)
)

// MapLogLevelsToName replaces the default name of a custom log level with a speaking name.
func MapLogLevelsToName(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key == slog.LevelKey {
		level, _ := attr.Value.Any().(slog.Level)

		levelLabel, exists := levelNames()[level]
		if !exists {
			levelLabel = level.String()
		}

		attr.Value = slog.StringValue(levelLabel)
	}

	return attr
}

// ParseLevel maps the name of a level, as used in the configuration, to its slog.Level.
// Besides the names known to slog it understands "factory:info" and "factory:debug".
func ParseLevel(name string) (slog.Level, error) {
	for level, label := range levelNames() {
		if strings.EqualFold(label, name) {
			return level, nil
		}
	}

	var level slog.Level

	err := level.UnmarshalText([]byte(name))
	if err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", name, err)
	}

	return level, nil
}

func levelNames() map[slog.Level]string {
	return map[slog.Level]string{
		LevelInfo:  "FACTORY:INFO",
		LevelDebug: "FACTORY:DEBUG",
	}
}
