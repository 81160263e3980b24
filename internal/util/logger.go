// Package util provides process-level helpers shared by the commands:
// logger construction and the socat bridge used on rigs that expose virtual
// serial devices.
package util

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds the process logger. Development runs get colourized
// console output with source locations; everything else emits JSON lines for
// the log pipeline. Commands install it with slog.SetDefault.
func NewLogger(env, level, role string) *slog.Logger {
	lvl := ParseLevel(level)
	if env == "dev" || env == "development" {
		h := tint.NewHandler(os.Stdout, &tint.Options{
			Level:      lvl,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("role", role)
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(h).With(
		"role", role,
		"env", env,
	)
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
