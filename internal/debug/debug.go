// Package debug provides the singleton file logger. The TUI owns the
// terminal, so diagnostics go to a file instead of stderr.
package debug

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// GetLogger returns the shared slog logger, writing to
// ragline-debug.log in the user cache dir (or the temp dir when no
// cache dir is available).
func GetLogger() *slog.Logger {
	once.Do(func() {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		path := filepath.Join(dir, "ragline-debug.log")
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			// No log file, no logging; never take the UI down for this.
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			return
		}
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	})
	return logger
}
