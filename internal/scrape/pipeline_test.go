package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/handiism/artic-downloader/internal/artic"
	"github.com/handiism/artic-downloader/internal/artic/dto"
	"github.com/handiism/artic-downloader/internal/catalog"
	ahttp "github.com/handiism/artic-downloader/internal/http"
	ioutils "github.com/handiism/artic-downloader/internal/io"
	"github.com/handiism/artic-downloader/internal/model"
)

const testCDN = "https://cdn.test/iiif/2"

func strPtr(s string) *string { return &s }

func artwork(id int64, title, imageID string) model.Artwork {
	a := model.Artwork{ID: id, Title: strPtr(title)}
	if imageID != "" {
		a.ImageID = strPtr(imageID)
	}
	return a
}

// fakeSearcher serves pages from memory. A nil page means "empty data";
// an entry in errs makes that page fail.
type fakeSearcher struct {
	pages     [][]model.Artwork
	errs      map[int]error
	requested []int
}

func (s *fakeSearcher) Search(ctx context.Context, page, limit int) (*dto.SearchResponse, error) {
	s.requested = append(s.requested, page)
	if err, ok := s.errs[page]; ok {
		return nil, err
	}
	if page > len(s.pages) {
		return &dto.SearchResponse{Data: []model.Artwork{}}, nil
	}
	return &dto.SearchResponse{Data: append([]model.Artwork(nil), s.pages[page-1]...)}, nil
}

func (s *fakeSearcher) ImageURLs(imageID string) []string {
	return artic.ImageURLs(testCDN, imageID)
}

// countingStore records how often each file was written.
type countingStore struct {
	*ioutils.Store
	mu     sync.Mutex
	writes map[string]int
}

func newCountingStore() *countingStore {
	return &countingStore{
		Store:  ioutils.NewStore(afero.NewMemMapFs(), "drawings"),
		writes: map[string]int{},
	}
}

func (s *countingStore) WriteFile(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	s.writes[name]++
	s.mu.Unlock()
	return s.Store.WriteFile(ctx, name, data)
}

func testOptions() Options {
	return Options{
		PageSize:         100,
		MaxPages:         10,
		MetadataFileName: "metadata.json",
		ThumbnailMaxSize: 16,
		ThumbnailWorkers: 2,
	}
}

func imageURL(id string) string {
	return artic.ImageURLs(testCDN, id)[0]
}

func readMetadata(t *testing.T, store Storage) []model.Artwork {
	t.Helper()
	data, err := store.ReadFile("metadata.json")
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	artworks, err := catalog.Decode(data)
	if err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	return artworks
}

func TestPipeline_SkipsArtworksWithoutImage(t *testing.T) {
	searcher := &fakeSearcher{pages: [][]model.Artwork{{
		artwork(1, "No Image", ""),
		artwork(2, "Also None", ""),
	}}}
	fetcher := newFakeFetcher()
	store := newCountingStore()

	var events []ProgressEvent
	p := New(searcher, fetcher, store, testOptions(), nil, func(e ProgressEvent) {
		events = append(events, e)
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(fetcher.calls) != 0 {
		t.Errorf("fetcher called %v, want no downloads", fetcher.calls)
	}
	if summary.Skipped != 2 || summary.Succeeded != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if got := readMetadata(t, store); len(got) != 2 {
		t.Errorf("metadata has %d records, want 2", len(got))
	}

	warnings := 0
	for _, e := range events {
		if e.Level == LevelWarning {
			warnings++
		}
	}
	if warnings != 2 {
		t.Errorf("got %d warnings, want 2", warnings)
	}
}

func TestPipeline_StopsOnEmptyPage(t *testing.T) {
	searcher := &fakeSearcher{pages: [][]model.Artwork{
		{artwork(1, "One", "img1"), artwork(2, "Two", "")},
		{artwork(3, "Three", "img3")},
		{},
	}}
	fetcher := newFakeFetcher()
	fetcher.image(imageURL("img1"), "1")
	fetcher.image(imageURL("img3"), "3")
	store := newCountingStore()

	p := New(searcher, fetcher, store, testOptions(), nil, nil)
	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if fmt.Sprint(searcher.requested) != "[1 2 3]" {
		t.Errorf("requested pages %v, want [1 2 3]", searcher.requested)
	}
	if summary.Pages != 2 {
		t.Errorf("Pages = %d, want 2", summary.Pages)
	}
	if store.writes["metadata.json"] != 1 {
		t.Errorf("metadata written %d times, want 1", store.writes["metadata.json"])
	}

	got := readMetadata(t, store)
	if len(got) != 3 {
		t.Fatalf("metadata has %d records, want 3", len(got))
	}
	for i, id := range []int64{1, 2, 3} {
		if got[i].ID != id {
			t.Errorf("metadata[%d].ID = %d, want %d", i, got[i].ID, id)
		}
	}
	if summary.Succeeded != 2 || summary.Failed != 0 || summary.Skipped != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestPipeline_StopsOnSearchError(t *testing.T) {
	searcher := &fakeSearcher{
		pages: [][]model.Artwork{{artwork(1, "One", "")}, {artwork(2, "Two", "")}},
		errs: map[int]error{2: &artic.StatusError{
			StatusCode: 500,
			Status:     "500 Internal Server Error",
			Body:       `{"error":"boom"}`,
		}},
	}
	store := newCountingStore()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	var events []ProgressEvent

	p := New(searcher, newFakeFetcher(), store, testOptions(), logger, func(e ProgressEvent) {
		events = append(events, e)
	})
	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The response body reaches both the log and the event stream.
	if !strings.Contains(logs.String(), "boom") || !strings.Contains(logs.String(), "level=ERROR") {
		t.Errorf("log missing response body:\n%s", logs.String())
	}
	var reported bool
	for _, e := range events {
		if e.Level == LevelError && strings.Contains(e.Message, `{"error":"boom"}`) {
			reported = true
		}
	}
	if !reported {
		t.Errorf("no error event carries the response body: %+v", events)
	}

	if fmt.Sprint(searcher.requested) != "[1 2]" {
		t.Errorf("requested pages %v, want [1 2]", searcher.requested)
	}
	if len(summary.Artworks) != 1 {
		t.Errorf("artworks = %d, want 1", len(summary.Artworks))
	}
	if got := readMetadata(t, store); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("metadata = %+v", got)
	}
}

func TestPipeline_PageCap(t *testing.T) {
	pages := make([][]model.Artwork, 5)
	for i := range pages {
		pages[i] = []model.Artwork{artwork(int64(i+1), "x", "")}
	}
	searcher := &fakeSearcher{pages: pages}

	opts := testOptions()
	opts.MaxPages = 3

	summary, err := New(searcher, newFakeFetcher(), newCountingStore(), opts, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(searcher.requested) != 3 {
		t.Errorf("requested %v, want 3 pages", searcher.requested)
	}
	if len(summary.Artworks) != 3 {
		t.Errorf("artworks = %d, want 3", len(summary.Artworks))
	}
}

func TestPipeline_FailedDownloadStillInMetadata(t *testing.T) {
	searcher := &fakeSearcher{pages: [][]model.Artwork{{
		artwork(1, "Good", "ok"),
		artwork(2, "Bad", "missing"),
	}}}
	fetcher := newFakeFetcher()
	fetcher.image(imageURL("ok"), "jpeg")
	store := newCountingStore()

	summary, err := New(searcher, fetcher, store, testOptions(), nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1 ok 1 failed", summary)
	}
	if ok, _ := store.Exists("bad_2.jpg"); ok {
		t.Error("failed download should leave no file")
	}
	if got := readMetadata(t, store); len(got) != 2 {
		t.Errorf("metadata has %d records, want 2", len(got))
	}
}

func TestPipeline_Delays(t *testing.T) {
	searcher := &fakeSearcher{pages: [][]model.Artwork{
		{artwork(1, "A", "a"), artwork(2, "B", ""), artwork(3, "C", "c")},
		{artwork(4, "D", "d")},
	}}
	fetcher := newFakeFetcher()
	fetcher.image(imageURL("a"), "a")
	fetcher.image(imageURL("c"), "c")

	opts := testOptions()
	opts.ItemDelay = 500 * time.Millisecond
	opts.PageDelay = time.Second

	p := New(searcher, fetcher, newCountingStore(), opts, nil, nil)
	var slept []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// a, c, page 1, d (failed), page 2; the artwork without an image gets
	// no pause and the empty third page ends the loop.
	want := []time.Duration{
		500 * time.Millisecond, 500 * time.Millisecond, time.Second,
		500 * time.Millisecond, time.Second,
	}
	if fmt.Sprint(slept) != fmt.Sprint(want) {
		t.Errorf("slept %v, want %v", slept, want)
	}
}

func TestPipeline_CancelledSkipsMetadata(t *testing.T) {
	searcher := &fakeSearcher{pages: [][]model.Artwork{
		{artwork(1, "A", "a")},
		{artwork(2, "B", "b")},
	}}
	fetcher := newFakeFetcher()
	fetcher.image(imageURL("a"), "a")
	store := newCountingStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := New(searcher, fetcher, store, testOptions(), nil, nil)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	summary, err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if summary != nil {
		t.Errorf("summary = %+v, want nil", summary)
	}
	if store.writes["metadata.json"] != 0 {
		t.Error("metadata must not be written for a cancelled run")
	}
	if ok, _ := store.Exists("a_1.jpg"); !ok {
		t.Error("image downloaded before cancellation should remain")
	}
}

func TestPipeline_CountersResetBetweenRuns(t *testing.T) {
	searcher := &fakeSearcher{pages: [][]model.Artwork{{artwork(1, "A", "a")}}}
	fetcher := newFakeFetcher()
	fetcher.image(imageURL("a"), "a")

	p := New(searcher, fetcher, newCountingStore(), testOptions(), nil, nil)
	for run := 0; run < 2; run++ {
		summary, err := p.Run(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if summary.Succeeded != 1 {
			t.Errorf("run %d: Succeeded = %d, want 1", run, summary.Succeeded)
		}
	}
	if got := p.Progress(); got.Succeeded != 1 || got.Found != 1 {
		t.Errorf("Progress() = %+v", got)
	}
}

func TestPipeline_SkipExisting(t *testing.T) {
	searcher := &fakeSearcher{pages: [][]model.Artwork{{artwork(1, "A", "a")}}}
	fetcher := newFakeFetcher()
	store := newCountingStore()
	store.Store.WriteFile(context.Background(), "a_1.jpg", []byte("already here"))

	opts := testOptions()
	opts.SkipExisting = true

	summary, err := New(searcher, fetcher, store, opts, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("calls = %v, want none", fetcher.calls)
	}
	if summary.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1", summary.Succeeded)
	}
}

func TestPipeline_DryRun(t *testing.T) {
	searcher := &fakeSearcher{pages: [][]model.Artwork{{artwork(1, "A", "a")}}}
	fetcher := newFakeFetcher()
	store := newCountingStore()

	p := New(searcher, fetcher, store, testOptions(), nil, nil)
	p.SetDryRun(true)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("calls = %v, want none", fetcher.calls)
	}
	if len(store.writes) != 0 {
		t.Errorf("writes = %v, want none", store.writes)
	}
	if len(summary.Artworks) != 1 {
		t.Errorf("artworks = %d, want 1", len(summary.Artworks))
	}
}

func TestPipeline_MetadataErrorReturned(t *testing.T) {
	searcher := &fakeSearcher{pages: [][]model.Artwork{{artwork(1, "A", "")}}}
	store := newCountingStore()
	store.Store = ioutils.NewStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "drawings")

	summary, err := New(searcher, newFakeFetcher(), store, testOptions(), nil, nil).Run(context.Background())
	if err == nil {
		t.Fatal("expected metadata write error")
	}
	if summary == nil || len(summary.Artworks) != 1 {
		t.Errorf("summary = %+v, want the collected artworks", summary)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for x := 0; x < 64; x++ {
		img.Set(x, x%32, color.Black)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPipeline_Thumbnails(t *testing.T) {
	searcher := &fakeSearcher{pages: [][]model.Artwork{{
		artwork(1, "A", "a"),
		artwork(2, "B", "b"),
		artwork(3, "Broken", "c"),
	}}}
	fetcher := newFakeFetcher()
	pngData := pngBytes(t)
	for _, id := range []string{"a", "b"} {
		fetcher.responses[imageURL(id)] = &ahttp.Response{StatusCode: 200, ContentType: "image/png", Body: pngData}
	}
	fetcher.image(imageURL("c"), "not really an image")
	store := newCountingStore()

	opts := testOptions()
	opts.SaveThumbnails = true

	var mu sync.Mutex
	var warnings int
	summary, err := New(searcher, fetcher, store, opts, nil, func(e ProgressEvent) {
		if e.Level == LevelWarning {
			mu.Lock()
			warnings++
			mu.Unlock()
		}
	}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Thumbnails != 2 {
		t.Errorf("Thumbnails = %d, want 2", summary.Thumbnails)
	}
	if warnings != 1 {
		t.Errorf("warnings = %d, want 1 for the undecodable image", warnings)
	}

	thumb, err := store.ReadFile("thumbnails/a_1.jpg")
	if err != nil {
		t.Fatalf("read thumbnail: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if cfg.Width != 16 || cfg.Height != 8 {
		t.Errorf("thumbnail size = %dx%d, want 16x8", cfg.Width, cfg.Height)
	}
}

// End to end against real HTTP servers: one page, one artwork.
func TestPipeline_EndToEnd(t *testing.T) {
	jpegBody := []byte("\xff\xd8\xff\xe0fake-jpeg")

	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/abc123/full/843,/0/default.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpegBody)
	}))
	defer cdn.Close()

	searches := 0
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searches++
		if r.URL.Query().Get("page") != "1" {
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"_score":3.25,"id":7,"title":"Study","image_id":"abc123","artist_title":"Unknown","date_display":"1850","medium_display":"Graphite","place_of_origin":"France"}]}`))
	}))
	defer api.Close()

	client := ahttp.NewClient()
	searcher := artic.NewClient(client, api.URL, cdn.URL, artic.SearchParams{
		Query: "rough pencil sketch", ArtworkTypeID: 4, Medium: "pencil", Fields: []string{"id"},
	})
	fsys := afero.NewMemMapFs()
	store := ioutils.NewStore(fsys, "drawings")

	opts := testOptions()
	opts.MaxPages = 1

	summary, err := New(searcher, client, store, opts, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if searches != 1 {
		t.Errorf("searches = %d, want 1", searches)
	}
	if summary.Succeeded != 1 || summary.Failed != 0 {
		t.Errorf("counters = %d/%d, want 1/0", summary.Succeeded, summary.Failed)
	}

	data, err := afero.ReadFile(fsys, "drawings/study_7.jpg")
	if err != nil {
		t.Fatalf("image not written: %v", err)
	}
	if !bytes.Equal(data, jpegBody) {
		t.Errorf("image = %q, want %q", data, jpegBody)
	}

	files, _ := afero.ReadDir(fsys, "drawings")
	if len(files) != 2 {
		t.Errorf("drawings has %d entries, want image + metadata", len(files))
	}

	got := readMetadata(t, store)
	if len(got) != 1 || got[0].ID != 7 {
		t.Errorf("metadata = %+v, want one record with id 7", got)
	}

	// The record is written with the keys the API sent and no others.
	metadata, _ := store.ReadFile("metadata.json")
	for _, want := range []string{`"_score": 3.25`, `"place_of_origin": "France"`} {
		if !strings.Contains(string(metadata), want) {
			t.Errorf("metadata missing %s:\n%s", want, metadata)
		}
	}
	for _, absent := range []string{`"thumbnail"`, `"api_link"`} {
		if strings.Contains(string(metadata), absent) {
			t.Errorf("metadata has %s the API never sent:\n%s", absent, metadata)
		}
	}
}
