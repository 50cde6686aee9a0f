// Package logging owns the process-wide file logger. A TUI owns stdout,
// so everything goes to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the global logger instance. It discards until Init succeeds.
	Logger = log.New(io.Discard)

	logFile *os.File
)

// DefaultPath returns ~/.config/groupchat/logs/groupchat-<date>.log.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	name := fmt.Sprintf("groupchat-%s.log", time.Now().Format("2006-01-02"))
	return filepath.Join(home, ".config", "groupchat", "logs", name), nil
}

// Init opens path for appending and points Logger at it. An empty path
// uses DefaultPath.
func Init(path string, level log.Level) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	Close()
	logFile = f

	Logger = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})
	return nil
}

// ParseLevel maps a level name to a log level, defaulting to info.
func ParseLevel(s string) log.Level {
	if s == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Close flushes and closes the log file.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	Logger = log.New(io.Discard)
}

// Info logs an info message
func Info(msg string, keyvals ...any) { Logger.Info(msg, keyvals...) }

// Debug logs a debug message
func Debug(msg string, keyvals ...any) { Logger.Debug(msg, keyvals...) }

// Warn logs a warning message
func Warn(msg string, keyvals ...any) { Logger.Warn(msg, keyvals...) }

// Error logs an error message
func Error(msg string, keyvals ...any) { Logger.Error(msg, keyvals...) }

// WithPrefix returns a child logger tagged with prefix.
func WithPrefix(prefix string) *log.Logger {
	return Logger.WithPrefix(prefix)
}
