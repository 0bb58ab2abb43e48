package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Logger is a file-backed logger. The terminal is owned by the UI, so
// diagnostics go to a log file instead of stdout.
type Logger struct {
	*log.Logger
	file *os.File
}

// DefaultPath returns the default log file location,
// ~/.config/rescuedesk/rescuedesk.log.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "rescuedesk.log")
	}
	return filepath.Join(home, ".config", "rescuedesk", "rescuedesk.log")
}

// Open creates (or appends to) the log file at path.
func Open(path string) (*Logger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	return &Logger{
		Logger: log.New(file, "", log.LstdFlags),
		file:   file,
	}, nil
}

// Nop returns a logger that discards all output. Used in tests and as a
// fallback when the log file cannot be opened.
func Nop() *Logger {
	return &Logger{Logger: log.New(io.Discard, "", 0)}
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
