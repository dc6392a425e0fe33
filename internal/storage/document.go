// Package storage scans a directory of Markdown content plus YAML sidecar
// metadata and exposes it as a set of URL-addressable documents, with
// filesystem change notification for live reload.
package storage

// Document identifies one URL-addressable page discovered during a scan.
//
// URLPath is empty for the root page, otherwise a slash-delimited path with
// no leading slash. Title is resolved by the caller's preference order
// (sidecar metadata, first H1, filename); storage only reports what it read
// from disk plus sidecar metadata fields.
type Document struct {
	URLPath     string
	Title       string
	HasContent  bool
	PageType    string
	Description string
}

// Metadata is the decoded contents of a directory's YAML sidecar file, with
// ancestor Vars already deep-merged in. Title, Description, and PageType are
// never inherited; Vars is.
type Metadata struct {
	Title       string
	Description string
	PageType    string
	Vars        map[string]any
}
