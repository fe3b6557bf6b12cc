// Package logging installs the process-wide logger. The TUI owns the
// terminal, so log output always goes to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// New builds a logger writing logfmt lines to w.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
		Prefix:          "pomolog",
		Formatter:       log.LogfmtFormatter,
	}), nil
}

// Setup opens path for appending and makes it the default log destination.
// The returned func closes the file.
func Setup(path, level string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger, err := New(f, level)
	if err != nil {
		f.Close()
		return nil, err
	}
	log.SetDefault(logger)
	return f.Close, nil
}

// Discard silences the default logger.
func Discard() {
	log.SetDefault(log.NewWithOptions(io.Discard, log.Options{}))
}
