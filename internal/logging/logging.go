// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the process-wide structured logger.
//
// Text output goes through tint (colored when the writer is a terminal),
// JSON output through slog.JSONHandler. The level and format come from the
// config file and can be overridden with ORION_LOG_LEVEL and ORION_LOG_FORMAT.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "ORION_LOG_LEVEL"
	EnvFormat = "ORION_LOG_FORMAT"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	defaultLogger *slog.Logger
	mu            sync.RWMutex
)

// Options configures a logger.
type Options struct {
	Level  string    // debug|info|warn|error, default info
	Format string    // text|json, default text
	Output io.Writer // default os.Stderr
}

// FromEnv overlays ORION_LOG_LEVEL and ORION_LOG_FORMAT on opts.
func (o Options) FromEnv() Options {
	if v := os.Getenv(EnvLevel); v != "" {
		o.Level = v
	}
	if v := os.Getenv(EnvFormat); v != "" {
		o.Format = v
	}
	return o
}

// ParseLevel maps a level name to a slog.Level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New builds a logger from opts without installing it.
func New(opts Options) *slog.Logger {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	level := ParseLevel(opts.Level)

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(w),
		})
	}
	return slog.New(handler)
}

// Setup builds a logger from opts, installs it as the process logger and as
// slog's default, and returns it.
func Setup(opts Options) *slog.Logger {
	l := New(opts)
	SetLogger(l)
	slog.SetDefault(l)
	return l
}

// Logger returns the process-wide logger. Before Setup it logs warnings and
// above to stderr.
func Logger() *slog.Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(Options{Level: "warn"}.FromEnv())
	}
	return defaultLogger
}

// SetLogger overrides the process logger; mainly useful for tests.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

// WithComponent attaches a component field to the shared logger.
func WithComponent(component string) *slog.Logger {
	return Logger().With("component", component)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// OpenFile opens path for appending, creating its directory. Used when the
// terminal is owned by the TUI.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
