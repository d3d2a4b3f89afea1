// Package log sets up the slog loggers used by the command line and
// terminal UI front ends.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/handiism/artic-downloader/internal/config"
)

// SetupLogger returns a logger for cfg.
//
// With an empty cfg.File, a text handler writing to fallback is used.
// Otherwise log lines are appended to the file as JSON. A nil fallback with
// no file yields a NullLogger.
func SetupLogger(cfg *config.LoggingConfig, fallback io.Writer) (*slog.Logger, error) {
	level := ParseLevel(cfg.Level)

	if cfg.File == "" {
		if fallback == nil {
			return NullLogger(), nil
		}
		return slog.New(slog.NewTextHandler(fallback, &slog.HandlerOptions{Level: level})), nil
	}

	// Expand ~ in path
	logPath := cfg.File
	if strings.HasPrefix(logPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		logPath = filepath.Join(home, logPath[1:])
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler), nil
}

// ParseLevel converts a string log level to slog.Level. Unknown values map
// to INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NullLogger returns a logger that discards all output
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
