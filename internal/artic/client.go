package artic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/handiism/artic-downloader/internal/artic/dto"
	"github.com/handiism/artic-downloader/internal/http"
)

// ImageWidth is the IIIF rendition width requested for every image.
const ImageWidth = 843

// SearchParams are the fixed search terms sent with every page request.
type SearchParams struct {
	Query         string
	ArtworkTypeID int
	Medium        string
	Fields        []string
}

// StatusError is returned by Search when the API answers with a non-2xx
// status. Body holds the raw response text for logging.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search: HTTP %d: %s", e.StatusCode, e.Status)
}

// Client issues search requests against the Art Institute public API and
// builds IIIF image URLs.
//
// Example usage:
//
//	client := artic.NewClient(http.NewClient(), apiBase, cdnBase, params)
//
//	page, err := client.Search(ctx, 1, 100)
//	if err != nil {
//	    return err
//	}
//	for _, a := range page.Data {
//	    fmt.Println(a.ID, client.ImageURLs(a.ImageIDValue()))
//	}
type Client struct {
	fetcher http.Fetcher
	apiBase string
	cdnBase string
	params  SearchParams
}

// NewClient creates a new Client. Trailing slashes on the base URLs are
// ignored.
func NewClient(fetcher http.Fetcher, apiBase, cdnBase string, params SearchParams) *Client {
	return &Client{
		fetcher: fetcher,
		apiBase: strings.TrimRight(apiBase, "/"),
		cdnBase: strings.TrimRight(cdnBase, "/"),
		params:  params,
	}
}

// SearchURL returns the full search URL for the given page and page size.
//
// The query string carries page, limit, q, fields and the three filters:
//
//	filter[term][is_public_domain]=true
//	filter[term][artwork_type_id]=<ArtworkTypeID>
//	filter[match][medium_display]=<Medium>
func (c *Client) SearchURL(page, limit int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("q", c.params.Query)
	q.Set("fields", strings.Join(c.params.Fields, ","))
	q.Set("filter[term][is_public_domain]", "true")
	q.Set("filter[term][artwork_type_id]", strconv.Itoa(c.params.ArtworkTypeID))
	q.Set("filter[match][medium_display]", c.params.Medium)

	return c.apiBase + "/artworks/search?" + q.Encode()
}

// Search fetches one page of search results.
//
// Returns an error if:
//   - The request fails at the transport level
//   - The response status is not 2xx (a *StatusError)
//   - The body is not valid JSON
func (c *Client) Search(ctx context.Context, page, limit int) (*dto.SearchResponse, error) {
	resp, err := c.fetcher.Fetch(ctx, c.SearchURL(page, limit))
	if err != nil {
		return nil, fmt.Errorf("search page %d: %w", page, err)
	}

	if !resp.OK() {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(resp.Body),
		}
	}

	var result dto.SearchResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search JSON: %w", err)
	}

	return &result, nil
}

// ImageURLs returns the candidate download URLs for an image identifier.
func (c *Client) ImageURLs(imageID string) []string {
	return ImageURLs(c.cdnBase, imageID)
}

// ImageURLs returns the candidate download URLs for an image identifier,
// best first. An empty imageID yields no candidates. Currently a single
// 843px wide rendition is offered:
//
//	{cdnBase}/{imageID}/full/843,/0/default.jpg
func ImageURLs(cdnBase, imageID string) []string {
	if imageID == "" {
		return []string{}
	}
	base := strings.TrimRight(cdnBase, "/")
	return []string{fmt.Sprintf("%s/%s/full/%d,/0/default.jpg", base, imageID, ImageWidth)}
}
