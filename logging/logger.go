// Package logging provides the *slog.Logger used by the extraction packages.
//
// Library code never writes to stderr on its own: until SetLogger is called,
// every message is discarded.
//
//	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
//
// Tests can capture output with a BufferedLogHandler:
//
//	handler := logging.NewBufferedLogHandler(nil)
//	logging.SetLogger(slog.New(handler))
//	// ... run extraction ...
//	handler.Contains("already processed")
package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
)

// DebugEnv enables debug output in NewCLILogger when set to a true value.
const DebugEnv = "REGIONTAG_DEBUG"

var logger atomic.Pointer[slog.Logger]

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// SetLogger configures the package-level logger. Pass nil to disable logging.
//
// SetLogger is safe for concurrent use.
func SetLogger(sl *slog.Logger) {
	if sl == nil {
		logger.Store(newDiscardLogger())
	} else {
		logger.Store(sl)
	}
}

// Logger returns the package-level logger, or a discard logger if none has
// been set.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	l := logger.Load()
	if l == nil {
		l = newDiscardLogger()
		logger.Store(l)
	}
	return l
}

// For returns the package-level logger tagged with a component name, for
// easier filtering.
func For(component string) *slog.Logger {
	return Logger().With("component", component)
}

// NewCLILogger builds a text logger for command-line use. Debug output is
// enabled when debug is true or when DebugEnv is set.
func NewCLILogger(w io.Writer, debug bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if !debug {
		debug, _ = strconv.ParseBool(os.Getenv(DebugEnv))
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
