package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// ARTIC_MAX_PAGES=3 or ARTIC_LOGGING_LEVEL=debug.
const EnvPrefix = "ARTIC"

// Settings holds all configuration options.
type Settings struct {
	// Endpoints
	APIBaseURL string `json:"api_base_url" mapstructure:"api_base_url"`
	CDNBaseURL string `json:"cdn_base_url" mapstructure:"cdn_base_url"`

	// Output
	DownloadsPath    string `json:"downloads_path" mapstructure:"downloads_path"`
	MetadataFileName string `json:"metadata_file_name" mapstructure:"metadata_file_name"`
	SkipExisting     bool   `json:"skip_existing" mapstructure:"skip_existing"`

	// Search
	PageSize      int      `json:"page_size" mapstructure:"page_size"`
	MaxPages      int      `json:"max_pages" mapstructure:"max_pages"`
	Query         string   `json:"query" mapstructure:"query"`
	ArtworkTypeID int      `json:"artwork_type_id" mapstructure:"artwork_type_id"`
	Medium        string   `json:"medium" mapstructure:"medium"`
	Fields        []string `json:"fields" mapstructure:"fields"`

	// Courtesy delays, in seconds
	ItemDelay float64 `json:"item_delay" mapstructure:"item_delay"`
	PageDelay float64 `json:"page_delay" mapstructure:"page_delay"`

	// HTTP
	UserAgent         string  `json:"user_agent" mapstructure:"user_agent"`
	RequestTimeout    float64 `json:"request_timeout" mapstructure:"request_timeout"`
	RequestsPerSecond float64 `json:"requests_per_second" mapstructure:"requests_per_second"`

	// Thumbnails
	SaveThumbnails   bool `json:"save_thumbnails" mapstructure:"save_thumbnails"`
	ThumbnailMaxSize int  `json:"thumbnail_max_size" mapstructure:"thumbnail_max_size"`
	ThumbnailWorkers int  `json:"thumbnail_workers" mapstructure:"thumbnail_workers"`

	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// File is the log file path. Empty means stderr for the CLI and no
	// logging for the TUI.
	File  string `json:"file" mapstructure:"file"`
	Level string `json:"level" mapstructure:"level"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		APIBaseURL: "https://api.artic.edu/api/v1",
		CDNBaseURL: "https://www.artic.edu/iiif/2",

		DownloadsPath:    "art_institute_drawings",
		MetadataFileName: "metadata.json",
		SkipExisting:     false,

		PageSize:      100,
		MaxPages:      10,
		Query:         "rough pencil sketch",
		ArtworkTypeID: 4,
		Medium:        "pencil",
		Fields: []string{
			"id", "title", "image_id", "artist_title", "date_display",
			"medium_display", "thumbnail", "api_link",
		},

		ItemDelay: 0.5,
		PageDelay: 1.0,

		UserAgent:         "",
		RequestTimeout:    60,
		RequestsPerSecond: 0,

		SaveThumbnails:   false,
		ThumbnailMaxSize: 300,
		ThumbnailWorkers: 4,

		Logging: LoggingConfig{
			File:  "",
			Level: "INFO",
		},
	}
}

// Load reads settings from a JSON, YAML or TOML file and applies ARTIC_*
// environment overrides. A missing file yields the defaults (plus any
// environment overrides). An empty path skips the file entirely.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()

	v := viper.New()
	registerDefaults(v, settings)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// registerDefaults makes every key known to viper so that AutomaticEnv
// overrides are picked up by Unmarshal even without a config file.
func registerDefaults(v *viper.Viper, s *Settings) {
	v.SetDefault("api_base_url", s.APIBaseURL)
	v.SetDefault("cdn_base_url", s.CDNBaseURL)
	v.SetDefault("downloads_path", s.DownloadsPath)
	v.SetDefault("metadata_file_name", s.MetadataFileName)
	v.SetDefault("skip_existing", s.SkipExisting)
	v.SetDefault("page_size", s.PageSize)
	v.SetDefault("max_pages", s.MaxPages)
	v.SetDefault("query", s.Query)
	v.SetDefault("artwork_type_id", s.ArtworkTypeID)
	v.SetDefault("medium", s.Medium)
	v.SetDefault("fields", s.Fields)
	v.SetDefault("item_delay", s.ItemDelay)
	v.SetDefault("page_delay", s.PageDelay)
	v.SetDefault("user_agent", s.UserAgent)
	v.SetDefault("request_timeout", s.RequestTimeout)
	v.SetDefault("requests_per_second", s.RequestsPerSecond)
	v.SetDefault("save_thumbnails", s.SaveThumbnails)
	v.SetDefault("thumbnail_max_size", s.ThumbnailMaxSize)
	v.SetDefault("thumbnail_workers", s.ThumbnailWorkers)
	v.SetDefault("logging.file", s.Logging.File)
	v.SetDefault("logging.level", s.Logging.Level)
}

// Validate checks that numeric settings are usable.
func (s *Settings) Validate() error {
	switch {
	case s.PageSize <= 0:
		return fmt.Errorf("page_size must be positive, got %d", s.PageSize)
	case s.MaxPages <= 0:
		return fmt.Errorf("max_pages must be positive, got %d", s.MaxPages)
	case s.ItemDelay < 0 || s.PageDelay < 0:
		return fmt.Errorf("delays must not be negative")
	case s.SaveThumbnails && s.ThumbnailMaxSize <= 0:
		return fmt.Errorf("thumbnail_max_size must be positive, got %d", s.ThumbnailMaxSize)
	}
	return nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ItemDelayDuration returns the pause after each artwork download attempt.
func (s *Settings) ItemDelayDuration() time.Duration {
	return seconds(s.ItemDelay)
}

// PageDelayDuration returns the pause after each completed page.
func (s *Settings) PageDelayDuration() time.Duration {
	return seconds(s.PageDelay)
}

// RequestTimeoutDuration returns the per request HTTP timeout.
func (s *Settings) RequestTimeoutDuration() time.Duration {
	return seconds(s.RequestTimeout)
}

// MetadataPath returns the metadata file name relative to DownloadsPath.
func (s *Settings) MetadataPath() string {
	if s.MetadataFileName == "" {
		return "metadata.json"
	}
	return s.MetadataFileName
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
