package keyring

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.DiscardHandler))
}

// SetLogger routes the package's debug logging to l. A nil l silences it.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger.Store(l)
}

// Logger returns the logger installed by SetLogger. Stores use it so a
// single call configures logging for the core and every provider.
func Logger() *slog.Logger {
	return logger.Load()
}
