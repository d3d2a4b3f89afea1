// Package scrape provides the orchestration logic for collecting pencil
// sketches from the Art Institute of Chicago.
//
// # Pipeline
//
// The Pipeline runs the whole job:
//
//  1. Search one page of artworks
//  2. Resolve each artwork's IIIF image URL
//  3. Download the image, checking status and content type
//  4. Repeat until the page cap or an empty page
//  5. Write metadata.json with every artwork seen
//  6. Build thumbnails (optional)
//
// # Basic Usage
//
//	pipeline := scrape.NewPipeline(settings, logger, func(event scrape.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	summary, err := pipeline.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("ok=%d failed=%d\n", summary.Succeeded, summary.Failed)
//
// # Testing
//
// New accepts the search, fetch and storage capabilities as interfaces, so
// the pipeline runs against httptest servers or fakes and an in-memory
// afero file system.
//
// # Rate Limiting
//
// Requests are spaced by two fixed pauses: ItemDelay after every download
// attempt and PageDelay after every page. There are no retries.
package scrape
