// Package artic talks to the Art Institute of Chicago public API.
//
// The package handles two concerns:
//
//  1. Paginated artwork search with fixed public-domain filters
//  2. IIIF image URL construction from an artwork's image identifier
//
// # Search
//
//	client := artic.NewClient(http.NewClient(), "https://api.artic.edu/api/v1",
//	    "https://www.artic.edu/iiif/2", artic.SearchParams{
//	        Query:         "rough pencil sketch",
//	        ArtworkTypeID: 4,
//	        Medium:        "pencil",
//	        Fields:        []string{"id", "title", "image_id"},
//	    })
//	page, err := client.Search(ctx, 1, 100)
//
// A non-2xx response is reported as a *StatusError carrying the body, so
// callers can log what the API said before giving up on the page loop.
//
// # Image URLs
//
// ImageURLs returns a slice of candidates so that fallbacks to other sizes
// can be added later. Today there is at most one:
//
//	artic.ImageURLs(cdn, "abc123")
//	// ["https://www.artic.edu/iiif/2/abc123/full/843,/0/default.jpg"]
package artic
