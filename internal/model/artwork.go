package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// DefaultTitle is used for file naming when an artwork has no title key or a
// null title.
const DefaultTitle = "untitled"

// Artwork represents a single artwork record returned by the Art Institute
// search endpoint.
//
// Only ID is guaranteed to be present. The typed fields are a read-only view
// used for naming and downloading. A decoded record also keeps the JSON object
// it was decoded from, and MarshalJSON writes that object back out unchanged:
// keys outside the typed view survive and absent keys stay absent.
//
// Example:
//
//	var a Artwork
//	_ = json.Unmarshal([]byte(`{"id":7,"title":"Study","image_id":"abc123"}`), &a)
//	a.HasImage()   // true
//	a.FileName()   // "study_7.jpg"
type Artwork struct {
	// ID is the unique artwork identifier.
	ID int64 `json:"id"`

	// Title is the artwork title. Nil when the API returns null.
	Title *string `json:"title"`

	// ImageID is the opaque IIIF image identifier.
	// Nil or empty means the artwork has no image to download.
	ImageID *string `json:"image_id"`

	ArtistTitle   *string    `json:"artist_title"`
	DateDisplay   *string    `json:"date_display"`
	MediumDisplay *string    `json:"medium_display"`
	Thumbnail     *Thumbnail `json:"thumbnail"`
	APILink       *string    `json:"api_link"`

	raw json.RawMessage
}

// artworkFields has the typed fields of Artwork without its JSON methods.
type artworkFields Artwork

// UnmarshalJSON decodes the typed fields and keeps a copy of data.
func (a *Artwork) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var fields artworkFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*a = Artwork(fields)
	a.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the record as it was received. Records built in code
// are encoded from their typed fields, with nil fields as null.
func (a Artwork) MarshalJSON() ([]byte, error) {
	if len(a.raw) > 0 {
		return a.raw, nil
	}
	return json.Marshal(artworkFields(a))
}

// Raw returns the JSON object the artwork was decoded from, or nil for
// records built in code.
func (a *Artwork) Raw() json.RawMessage {
	return a.raw
}

// Thumbnail is the low quality image placeholder block attached to an artwork.
type Thumbnail struct {
	LQIP    *string `json:"lqip"`
	Width   *int    `json:"width"`
	Height  *int    `json:"height"`
	AltText *string `json:"alt_text"`
}

// HasImage returns true if the artwork carries an image identifier.
func (a *Artwork) HasImage() bool {
	return a.ImageID != nil && *a.ImageID != ""
}

// ImageIDValue returns the image identifier or an empty string.
func (a *Artwork) ImageIDValue() string {
	if a.ImageID == nil {
		return ""
	}
	return *a.ImageID
}

// TitleOrDefault returns the title, or DefaultTitle when it is nil. An empty
// title is returned as is.
func (a *Artwork) TitleOrDefault() string {
	if a.Title == nil {
		return DefaultTitle
	}
	return *a.Title
}

// FileName returns the local image file name for the artwork.
func (a *Artwork) FileName() string {
	return FileName(a.Title, a.ID)
}

// FileName derives the image file name from a title and an artwork ID.
//
// The title is lower-cased and every character that is not a letter or a
// digit is replaced by a single underscore. Runs are not collapsed, so the
// result has as many characters as the lower-cased title. A nil title
// becomes DefaultTitle; an empty title gives a name that starts with the
// underscore before the ID.
//
// Example:
//
//	title := "Sketch #1"
//	FileName(&title, 42) // "sketch__1_42.jpg"
//	FileName(nil, 3)     // "untitled_3.jpg"
//	FileName(&empty, 5)  // "_5.jpg"
func FileName(title *string, id int64) string {
	name := DefaultTitle
	if title != nil {
		name = *title
	}

	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	b.WriteByte('_')
	b.WriteString(strconv.FormatInt(id, 10))
	b.WriteString(".jpg")
	return b.String()
}
