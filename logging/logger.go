// Package logging holds the *slog.Logger shared by the pdfstrip packages.
// Nothing is logged until a logger is installed with SetLogger.
package logging

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

// SetLogger installs sl as the package logger. A nil logger discards all
// output. SetLogger is safe for concurrent use.
//
// To see recovery decisions on stderr:
//
//	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
func SetLogger(sl *slog.Logger) {
	if sl == nil {
		sl = slog.New(slog.DiscardHandler)
	}
	logger.Store(sl)
}

// Logger returns the package logger, or a discarding logger when none has
// been set.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	l := slog.New(slog.DiscardHandler)
	if logger.CompareAndSwap(nil, l) {
		return l
	}
	return logger.Load()
}
