package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	ahttp "github.com/handiism/artic-downloader/internal/http"
)

// ErrNoImage is returned by Download when no candidate URL yielded an image.
var ErrNoImage = errors.New("no candidate returned an image")

// FileWriter is the capability to write a whole file by name.
type FileWriter interface {
	WriteFile(ctx context.Context, name string, data []byte) error
}

// Downloader fetches an image from an ordered list of candidate URLs and
// writes the first acceptable response to disk.
type Downloader struct {
	fetcher ahttp.Fetcher
	files   FileWriter
	logger  *slog.Logger
}

// NewDownloader creates a Downloader. A nil logger discards output.
func NewDownloader(fetcher ahttp.Fetcher, files FileWriter, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Downloader{fetcher: fetcher, files: files, logger: logger}
}

// Download tries urls in order and stores the first response that is
// HTTP 200, has an image content type and a non-empty body under filename.
//
// Candidates that fail are logged at debug level and the next one is tried.
// Returns the URL the image came from, or an error wrapping ErrNoImage when
// every candidate failed. A failed write is returned immediately without
// trying further candidates.
func (d *Downloader) Download(ctx context.Context, urls []string, filename string) (string, error) {
	for _, url := range urls {
		resp, err := d.fetcher.Fetch(ctx, url)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			d.logger.Debug("failed to download", "url", url, "error", err)
			continue
		}

		if resp.StatusCode != 200 || len(resp.Body) == 0 {
			d.logger.Debug("empty response or non-200 status", "url", url, "status", resp.StatusCode)
			continue
		}

		if !strings.Contains(resp.ContentType, "image") {
			d.logger.Debug("response is not an image", "url", url, "content_type", resp.ContentType)
			continue
		}

		if err := d.files.WriteFile(ctx, filename, resp.Body); err != nil {
			return "", fmt.Errorf("save %s: %w", filename, err)
		}
		return url, nil
	}

	return "", fmt.Errorf("%s: %w", filename, ErrNoImage)
}
