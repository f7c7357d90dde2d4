package slogutil

import (
	"io"
	"log/slog"

	"doxyscan/internal/config"
	"doxyscan/internal/paths"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the process logger. Records at cliLevel or above go to
// stderr; when cfg enables file logging, records at the configured level
// also go to <root>/.doxyscan/logs/doxyscan.log. The returned closer
// releases the log file.
func Setup(root string, cfg *config.Config, cliLevel slog.Level, stderr io.Writer) (*slog.Logger, io.Closer) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	console := NewHandler(stderr, cliLevel, cfg.Logging.Format)
	if !cfg.Logging.File || root == "" {
		return slog.New(console), nopCloser{}
	}

	if _, err := paths.EnsureLogsDir(root); err != nil {
		return slog.New(console), nopCloser{}
	}
	rf, err := OpenRotatingFile(paths.LogPath(root), ParseSize(cfg.Logging.MaxSize), cfg.Logging.MaxBackups)
	if err != nil {
		return slog.New(console), nopCloser{}
	}
	file := NewHandler(rf, LevelFromString(cfg.Logging.Level), cfg.Logging.Format)
	return slog.New(NewTeeHandler(console, file)), rf
}
