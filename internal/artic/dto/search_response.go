package dto

import (
	"encoding/json"

	"github.com/handiism/artic-downloader/internal/model"
)

// SearchResponse is one page of the /artworks/search endpoint.
type SearchResponse struct {
	Preference *string         `json:"preference,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
	Data       []model.Artwork `json:"data"`
	Info       json.RawMessage `json:"info,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// Pagination is the paging block returned alongside search results.
type Pagination struct {
	Total       int `json:"total"`
	Limit       int `json:"limit"`
	Offset      int `json:"offset"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

// Empty reports whether the page carries no artworks.
func (r *SearchResponse) Empty() bool {
	return r == nil || len(r.Data) == 0
}
