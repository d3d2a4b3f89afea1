// Package http provides an HTTP client configured for Art Institute API
// and IIIF image requests.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Timeout handling
//   - Optional requests-per-second limiting
//   - Fully buffered responses with status and content type
//
// # Basic Usage
//
//	client := http.NewClient(http.WithRateLimit(2))
//
//	resp, err := client.Fetch(ctx, imageURL)
//	if err == nil && resp.OK() {
//	    fmt.Println(resp.ContentType, len(resp.Body))
//	}
//
// # Fetcher
//
// Code that only needs to GET URLs should depend on the Fetcher interface,
// which *Client implements.
package http
