package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync/atomic"
	"time"

	"github.com/handiism/artic-downloader/internal/artic"
	"github.com/handiism/artic-downloader/internal/artic/dto"
	"github.com/handiism/artic-downloader/internal/catalog"
	"github.com/handiism/artic-downloader/internal/config"
	ahttp "github.com/handiism/artic-downloader/internal/http"
	ioutils "github.com/handiism/artic-downloader/internal/io"
	"github.com/handiism/artic-downloader/internal/model"
	"golang.org/x/sync/errgroup"
)

// ThumbnailDir is the sub directory thumbnails are written to.
const ThumbnailDir = "thumbnails"

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// slogLevel maps a progress level onto the logger level it is mirrored at.
func (l ProgressLevel) slogLevel() slog.Level {
	switch l {
	case LevelVerbose:
		return slog.LevelDebug
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ProgressEvent represents a scrape progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Searcher finds artworks page by page and resolves their image URLs.
// *artic.Client implements it.
type Searcher interface {
	Search(ctx context.Context, page, limit int) (*dto.SearchResponse, error)
	ImageURLs(imageID string) []string
}

// Storage is the file capability the pipeline needs.
// *ioutils.Store implements it.
type Storage interface {
	FileWriter
	ReadFile(name string) ([]byte, error)
	Exists(name string) (bool, error)
}

// Options controls a Pipeline run.
type Options struct {
	PageSize         int
	MaxPages         int
	ItemDelay        time.Duration
	PageDelay        time.Duration
	MetadataFileName string
	SkipExisting     bool
	DryRun           bool

	SaveThumbnails   bool
	ThumbnailMaxSize int
	ThumbnailWorkers int
}

// OptionsFromSettings converts settings to Options.
func OptionsFromSettings(s *config.Settings) Options {
	return Options{
		PageSize:         s.PageSize,
		MaxPages:         s.MaxPages,
		ItemDelay:        s.ItemDelayDuration(),
		PageDelay:        s.PageDelayDuration(),
		MetadataFileName: s.MetadataPath(),
		SkipExisting:     s.SkipExisting,
		SaveThumbnails:   s.SaveThumbnails,
		ThumbnailMaxSize: s.ThumbnailMaxSize,
		ThumbnailWorkers: s.ThumbnailWorkers,
	}
}

// Summary is the outcome of one run.
type Summary struct {
	// Artworks holds every record received, in API order, whether or not
	// its image was downloaded.
	Artworks []model.Artwork

	Pages      int
	Succeeded  int
	Failed     int
	Skipped    int
	Thumbnails int
}

// Progress is a point in time snapshot of a running scrape.
type Progress struct {
	Page      int
	MaxPages  int
	Found     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Pipeline runs the search, download and metadata steps.
//
// The network side is strictly sequential: one search request per page,
// then one download attempt per artwork, each followed by a fixed pause.
type Pipeline struct {
	searcher   Searcher
	downloader *Downloader
	store      Storage
	catalog    *catalog.Writer
	images     *ioutils.ImageService
	opts       Options
	logger     *slog.Logger
	onProgress func(ProgressEvent)
	sleep      func(ctx context.Context, d time.Duration) error

	page      int32
	found     int32
	succeeded int32
	failed    int32
	skipped   int32
}

// New creates a Pipeline from its capabilities. A nil logger discards
// output; a nil onProgress is allowed.
//
// onProgress may be called from several goroutines while thumbnails are
// built.
func New(searcher Searcher, fetcher ahttp.Fetcher, store Storage, opts Options, logger *slog.Logger, onProgress func(ProgressEvent)) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.MetadataFileName == "" {
		opts.MetadataFileName = "metadata.json"
	}
	if opts.ThumbnailWorkers <= 0 {
		opts.ThumbnailWorkers = 1
	}

	return &Pipeline{
		searcher:   searcher,
		downloader: NewDownloader(fetcher, store, logger),
		store:      store,
		catalog:    catalog.NewWriter(store, opts.MetadataFileName),
		images:     ioutils.NewImageService(),
		opts:       opts,
		logger:     logger,
		onProgress: onProgress,
		sleep:      sleepContext,
	}
}

// NewPipeline wires a Pipeline against the real API and file system.
func NewPipeline(settings *config.Settings, logger *slog.Logger, onProgress func(ProgressEvent)) *Pipeline {
	client := ahttp.NewClient(
		ahttp.WithTimeout(settings.RequestTimeoutDuration()),
		ahttp.WithUserAgent(settings.UserAgent),
		ahttp.WithRateLimit(settings.RequestsPerSecond),
	)

	api := artic.NewClient(client, settings.APIBaseURL, settings.CDNBaseURL, artic.SearchParams{
		Query:         settings.Query,
		ArtworkTypeID: settings.ArtworkTypeID,
		Medium:        settings.Medium,
		Fields:        settings.Fields,
	})

	store := ioutils.NewOSStore(settings.DownloadsPath)

	return New(api, client, store, OptionsFromSettings(settings), logger, onProgress)
}

// SetDryRun toggles search-only mode: no images are downloaded and no
// metadata file is written.
func (p *Pipeline) SetDryRun(dryRun bool) {
	p.opts.DryRun = dryRun
}

// Progress returns current scrape progress. Safe to call while Run is
// executing.
func (p *Pipeline) Progress() Progress {
	return Progress{
		Page:      int(atomic.LoadInt32(&p.page)),
		MaxPages:  p.opts.MaxPages,
		Found:     int(atomic.LoadInt32(&p.found)),
		Succeeded: int(atomic.LoadInt32(&p.succeeded)),
		Failed:    int(atomic.LoadInt32(&p.failed)),
		Skipped:   int(atomic.LoadInt32(&p.skipped)),
	}
}

// outcome is what happened to a single artwork.
type outcome int

const (
	outcomeNoImage outcome = iota
	outcomeDownloaded
	outcomeFailed
	outcomeExisting
	outcomeDryRun
)

// Run scrapes up to MaxPages pages, downloads every image it can, then
// writes the metadata file once.
//
// The page loop stops early when a search fails or returns no data. A
// cancelled context aborts the run without writing metadata; images
// already saved stay on disk. An error writing metadata is returned along
// with the summary.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	p.reset()

	summary := &Summary{Artworks: []model.Artwork{}}
	var saved []string

	for page := 1; page <= p.opts.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		atomic.StoreInt32(&p.page, int32(page))
		p.progress(ctx, LevelInfo, fmt.Sprintf("Scraping page %d", page))

		result, err := p.searcher.Search(ctx, page, p.opts.PageSize)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			p.logSearchError(ctx, page, err)
			break
		}
		if result.Empty() {
			p.progress(ctx, LevelInfo, fmt.Sprintf("No results on page %d, stopping", page))
			break
		}

		summary.Artworks = append(summary.Artworks, result.Data...)
		atomic.AddInt32(&p.found, int32(len(result.Data)))

		for i := range result.Data {
			artwork := &result.Data[i]

			switch p.processArtwork(ctx, artwork) {
			case outcomeNoImage:
				continue
			case outcomeExisting:
				saved = append(saved, artwork.FileName())
				continue
			case outcomeDryRun:
				continue
			case outcomeDownloaded:
				saved = append(saved, artwork.FileName())
			}

			if err := p.sleep(ctx, p.opts.ItemDelay); err != nil {
				return nil, err
			}
		}

		summary.Pages++
		if err := p.sleep(ctx, p.opts.PageDelay); err != nil {
			return nil, err
		}
	}

	summary.Succeeded = int(atomic.LoadInt32(&p.succeeded))
	summary.Failed = int(atomic.LoadInt32(&p.failed))
	summary.Skipped = int(atomic.LoadInt32(&p.skipped))

	if p.opts.DryRun {
		p.progress(ctx, LevelInfo, fmt.Sprintf("Dry run completed. Found %d artworks on %d pages", len(summary.Artworks), summary.Pages))
		return summary, nil
	}

	if err := p.catalog.Save(ctx, summary.Artworks); err != nil {
		p.progress(ctx, LevelError, fmt.Sprintf("Error saving metadata: %v", err))
		return summary, err
	}
	p.progress(ctx, LevelInfo, fmt.Sprintf("Saved metadata to %s", p.catalog.Name()),
		slog.Int("artworks", len(summary.Artworks)))

	if p.opts.SaveThumbnails && len(saved) > 0 {
		summary.Thumbnails = p.buildThumbnails(ctx, saved)
	}

	p.progress(ctx, LevelSuccess, fmt.Sprintf("Scraping completed. Successfully downloaded: %d, Failed: %d", summary.Succeeded, summary.Failed),
		slog.Int("successful", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped))

	return summary, nil
}

// processArtwork downloads the image of a single artwork, if it has one.
func (p *Pipeline) processArtwork(ctx context.Context, artwork *model.Artwork) outcome {
	if !artwork.HasImage() {
		atomic.AddInt32(&p.skipped, 1)
		p.progress(ctx, LevelWarning, fmt.Sprintf("No image ID for artwork %d", artwork.ID))
		return outcomeNoImage
	}

	filename := artwork.FileName()
	urls := p.searcher.ImageURLs(artwork.ImageIDValue())
	if len(urls) == 0 {
		return outcomeNoImage
	}

	if p.opts.DryRun {
		p.progress(ctx, LevelVerbose, fmt.Sprintf("Would download: %s", filename), slog.String("url", urls[0]))
		return outcomeDryRun
	}

	if p.opts.SkipExisting {
		if ok, err := p.store.Exists(filename); err == nil && ok {
			atomic.AddInt32(&p.succeeded, 1)
			p.progress(ctx, LevelVerbose, fmt.Sprintf("Skipping existing: %s", filename))
			return outcomeExisting
		}
	}

	from, err := p.downloader.Download(ctx, urls, filename)
	if err != nil {
		atomic.AddInt32(&p.failed, 1)
		if errors.Is(err, ErrNoImage) {
			p.progress(ctx, LevelError, fmt.Sprintf("Failed to download %s from any available size", filename))
		} else {
			p.progress(ctx, LevelError, fmt.Sprintf("Failed to download %s: %v", filename, err))
		}
		return outcomeFailed
	}

	atomic.AddInt32(&p.succeeded, 1)
	p.progress(ctx, LevelSuccess, fmt.Sprintf("Downloaded: %s", filename), slog.String("url", from))
	return outcomeDownloaded
}

func (p *Pipeline) logSearchError(ctx context.Context, page int, err error) {
	attrs := []slog.Attr{slog.Int("page", page), slog.Any("error", err)}
	message := fmt.Sprintf("Error searching artworks: %v", err)

	var statusErr *artic.StatusError
	if errors.As(err, &statusErr) && statusErr.Body != "" {
		attrs = append(attrs, slog.String("response", statusErr.Body))
		message += "\nResponse: " + statusErr.Body
	}

	p.progress(ctx, LevelError, message, attrs...)
}

// buildThumbnails resizes saved images into ThumbnailDir. Failures are
// reported as warnings. Returns the number of thumbnails written.
func (p *Pipeline) buildThumbnails(ctx context.Context, names []string) int {
	var made int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.ThumbnailWorkers)

	for _, name := range names {
		g.Go(func() error {
			data, err := p.store.ReadFile(name)
			if err != nil {
				p.progress(gctx, LevelWarning, fmt.Sprintf("Error reading %s for thumbnail: %v", name, err))
				return nil
			}

			thumb, err := p.images.ResizeImage(gctx, data, p.opts.ThumbnailMaxSize, p.opts.ThumbnailMaxSize)
			if err != nil {
				p.progress(gctx, LevelWarning, fmt.Sprintf("Error resizing %s: %v", name, err))
				return nil
			}

			if err := p.store.WriteFile(gctx, path.Join(ThumbnailDir, name), thumb); err != nil {
				p.progress(gctx, LevelWarning, fmt.Sprintf("Error saving thumbnail for %s: %v", name, err))
				return nil
			}

			atomic.AddInt32(&made, 1)
			return nil
		})
	}

	g.Wait()

	p.progress(ctx, LevelInfo, fmt.Sprintf("Created %d thumbnails", made))
	return int(made)
}

func (p *Pipeline) reset() {
	atomic.StoreInt32(&p.page, 0)
	atomic.StoreInt32(&p.found, 0)
	atomic.StoreInt32(&p.succeeded, 0)
	atomic.StoreInt32(&p.failed, 0)
	atomic.StoreInt32(&p.skipped, 0)
}

func (p *Pipeline) progress(ctx context.Context, level ProgressLevel, message string, attrs ...slog.Attr) {
	p.logger.LogAttrs(ctx, level.slogLevel(), message, attrs...)
	if p.onProgress != nil {
		p.onProgress(ProgressEvent{Message: message, Level: level})
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
