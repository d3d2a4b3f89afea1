// Package model defines the core data structures used throughout
// the artic-downloader application.
//
// # Artwork
//
// Artwork is one record from the Art Institute of Chicago search API.
// A decoded record keeps its original JSON object next to the typed fields,
// so the metadata file gets every key the API sent, in the same order, and
// no key it did not send:
//
//	var page struct {
//	    Data []model.Artwork `json:"data"`
//	}
//	_ = json.Unmarshal(body, &page)
//
// # File Naming
//
// FileName derives the local image name from the title and ID:
//
//	title := "Sketch #1"
//	model.FileName(&title, 42) // "sketch__1_42.jpg"
//
// Every character that is not a letter or digit becomes an underscore,
// one for one. Missing or null titles fall back to "untitled".
package model
