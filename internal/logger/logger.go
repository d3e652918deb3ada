// Package logger provides a slog-based logger for the application. The TUI
// owns the terminal, so records go to a file under the data directory
// instead of stderr.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the log file created under the data directory.
const FileName = "codexusage.log"

// Logger is the process-wide logger. Until Setup runs it discards records
// so early startup cannot scribble on the terminal.
var Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var logFile *os.File

// Setup points the logger at the log file under dir, keeping records at or
// above the given minimum level.
func Setup(dir, level string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	Logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	return nil
}

// ParseLevel maps a config string onto a slog level. Unknown values fall
// back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Close closes the log file opened by Setup.
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
