// Package config provides configuration management for artic-downloader.
//
// This package handles:
//   - Default configuration values matching the public Art Institute API
//   - Loading settings from JSON, YAML or TOML files
//   - ARTIC_* environment variable overrides
//   - Saving settings back to JSON
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Searches "rough pencil sketch", 100 results per page, 10 pages
//	// Downloads to ./art_institute_drawings
//	// 0.5s pause per artwork, 1s pause per page
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.yaml")
//	if err != nil {
//	    // Invalid file or values; a missing file uses defaults
//	}
//
// # Environment
//
// Every key can be overridden from the environment:
//
//	ARTIC_MAX_PAGES=2 ARTIC_LOGGING_LEVEL=debug artic-dl
package config
