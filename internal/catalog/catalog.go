// Package catalog persists the metadata of every artwork seen during a run
// as a single JSON document.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/handiism/artic-downloader/internal/model"
)

// FileWriter is the capability to write a whole file by name.
type FileWriter interface {
	WriteFile(ctx context.Context, name string, data []byte) error
}

// Writer writes the metadata file.
type Writer struct {
	files FileWriter
	name  string
}

// NewWriter creates a Writer that stores metadata under name.
func NewWriter(files FileWriter, name string) *Writer {
	return &Writer{files: files, name: name}
}

// Name returns the metadata file name.
func (w *Writer) Name() string {
	return w.name
}

// Save overwrites the metadata file with artworks, in order.
func (w *Writer) Save(ctx context.Context, artworks []model.Artwork) error {
	data, err := Encode(artworks)
	if err != nil {
		return err
	}
	if err := w.files.WriteFile(ctx, w.name, data); err != nil {
		return fmt.Errorf("write %s: %w", w.name, err)
	}
	return nil
}

// Encode renders artworks as an indented JSON array. Records decoded from the
// API are written with exactly the keys they arrived with. Non-ASCII text and
// HTML characters are written as-is, not escaped. A nil slice encodes as [].
func Encode(artworks []model.Artwork) ([]byte, error) {
	if artworks == nil {
		artworks = []model.Artwork{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(artworks); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a metadata document produced by Encode.
func Decode(data []byte) ([]model.Artwork, error) {
	var artworks []model.Artwork
	if err := json.Unmarshal(data, &artworks); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return artworks, nil
}
