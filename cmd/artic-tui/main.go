package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/artic-downloader/internal/config"
	applog "github.com/handiism/artic-downloader/internal/log"
	"github.com/handiism/artic-downloader/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file (JSON, YAML or TOML)")
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The alternate screen owns the terminal, so only a log file is written.
	logger, err := applog.SetupLogger(&settings.Logging, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(settings, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
