// Package logging is the one logging seam every LINspector binary shares:
// the core analyzer takes a *slog.Logger via analyzer.WithLogger, and
// cmd/linspector/cmd/linspectord both build one of these at startup (tagged
// "app") and install it process-wide with Set so helpers that only have
// access to L() — rather than a threaded-through logger — still log
// consistently with the run.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// logger is the process-wide default, read by L() when no logger was
// explicitly threaded through. Defaults to text-at-info before any binary
// calls Set.
var logger atomic.Pointer[slog.Logger]

func init() {
	l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Store(l)
}

// L returns the current global logger.
func L() *slog.Logger { return logger.Load() }

// Set replaces the global logger, e.g. once a binary has parsed its
// -log-format/-log-level flags.
func Set(l *slog.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// New builds a logger at level using format ("text" or "json" — any other
// value falls back to text), writing to w (stderr if nil). Both
// cmd/linspector and cmd/linspectord call this once at startup from their
// -log-format/-log-level flags.
func New(format string, level slog.Leveler, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var h slog.Handler
	switch format {
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(h)
}
