package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/handiism/artic-downloader/internal/config"
	"github.com/handiism/artic-downloader/internal/scrape"
)

func main() {
	// Command line flags
	var (
		configFlag     = flag.String("config", "", "Path to config file (JSON, YAML or TOML)")
		outputFlag     = flag.String("output", "", "Output directory (overrides config)")
		pagesFlag      = flag.Int("pages", 0, "Maximum number of result pages to scrape")
		queryFlag      = flag.String("query", "", "Full-text search query")
		thumbnailsFlag = flag.Bool("thumbnails", false, "Save scaled thumbnails next to the downloads")
		skipFlag       = flag.Bool("skip-existing", false, "Do not download images that are already on disk")
		verboseFlag    = flag.Bool("verbose", false, "Write the full debug log to stderr")
		dryRunFlag     = flag.Bool("dry-run", false, "Search and resolve images without writing anything")
	)

	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Art Institute Sketch Downloader - public-domain pencil drawings from the Art Institute of Chicago")
		fmt.Fprintln(flag.CommandLine.Output())
		fmt.Fprintln(flag.CommandLine.Output(), "Usage:")
		fmt.Fprintln(flag.CommandLine.Output(), "  artic-dl [options]")
		fmt.Fprintln(flag.CommandLine.Output())
		fmt.Fprintln(flag.CommandLine.Output(), "For interactive mode, use: artic-tui")
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load config; a missing file falls back to defaults
	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Apply flags
	if *outputFlag != "" {
		settings.DownloadsPath = *outputFlag
	}
	if *pagesFlag > 0 {
		settings.MaxPages = *pagesFlag
	}
	if *queryFlag != "" {
		settings.Query = *queryFlag
	}
	if *thumbnailsFlag {
		settings.SaveThumbnails = true
	}
	if *skipFlag {
		settings.SkipExisting = true
	}

	out, logger, err := newConsole(settings.Logging, *verboseFlag, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	pipeline := scrape.NewPipeline(settings, logger, func(event scrape.ProgressEvent) {
		if out.echo(event.Level) {
			fmt.Println(prefix(event.Level) + event.Message)
		}
	})
	pipeline.SetDryRun(*dryRunFlag)

	fmt.Println("🎨 Art Institute Sketch Downloader")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Query: %q, saving to %s\n", settings.Query, settings.DownloadsPath)
	fmt.Println()

	summary, err := pipeline.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nScrape cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error during scrape: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if *dryRunFlag {
		fmt.Printf("[Dry run] %d artworks across %d pages, nothing written\n", len(summary.Artworks), summary.Pages)
		return
	}
	fmt.Printf("✨ Complete! Downloaded %d, failed %d, %d artworks in %s\n",
		summary.Succeeded, summary.Failed, len(summary.Artworks), settings.MetadataPath())
	if summary.Thumbnails > 0 {
		fmt.Printf("   %d thumbnails in %s\n", summary.Thumbnails, scrape.ThumbnailDir)
	}
}
