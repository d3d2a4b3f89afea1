package main

import (
	"io"
	"log/slog"

	"github.com/handiism/artic-downloader/internal/config"
	applog "github.com/handiism/artic-downloader/internal/log"
	"github.com/handiism/artic-downloader/internal/scrape"
)

// console decides where pipeline output goes. Structured records go to the
// log file when one is configured, otherwise to stderr. Progress lines go to
// stdout unless the stderr log already carries them.
type console struct {
	verbose  bool
	toStderr bool
}

// newConsole builds the logger for a CLI run. Without a log file the stderr
// log is limited to warnings and errors, or everything down to DEBUG with
// verbose.
func newConsole(logging config.LoggingConfig, verbose bool, stderr io.Writer) (*console, *slog.Logger, error) {
	c := &console{verbose: verbose, toStderr: logging.File == ""}

	switch {
	case verbose:
		logging.Level = "DEBUG"
	case c.toStderr:
		logging.Level = "WARN"
	}

	logger, err := applog.SetupLogger(&logging, stderr)
	if err != nil {
		return nil, nil, err
	}
	return c, logger, nil
}

// echo reports whether an event should also be printed to stdout.
func (c *console) echo(level scrape.ProgressLevel) bool {
	if !c.toStderr {
		return level != scrape.LevelVerbose || c.verbose
	}
	if c.verbose {
		return false
	}
	return level == scrape.LevelInfo || level == scrape.LevelSuccess
}

// prefix returns the stdout marker for an event level.
func prefix(level scrape.ProgressLevel) string {
	switch level {
	case scrape.LevelError:
		return "❌ "
	case scrape.LevelWarning:
		return "⚠️  "
	case scrape.LevelSuccess:
		return "✅ "
	case scrape.LevelInfo:
		return "ℹ️  "
	default:
		return "   "
	}
}
