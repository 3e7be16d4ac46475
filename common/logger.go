package common

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger shared by the engine and all of its packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used:
//   - slog.LevelDebug: per-frame diagnostics (culled passes, pool evictions)
//   - slog.LevelInfo: lifecycle events (device created, settings reloaded, profiler ticks)
//   - slog.LevelWarn: recovered problems (leaked temporaries, contract violations in non-strict mode)
//   - slog.LevelError: failures that drop a frame
//
// Parameters:
//   - l: the logger to use, or nil
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current engine logger. Safe for concurrent use.
//
// Returns:
//   - *slog.Logger: the active logger
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
