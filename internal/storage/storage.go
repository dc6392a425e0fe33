package storage

import (
	"context"
	"errors"

	"github.com/euforicio/docstage/internal/livereload"
)

// ErrNotFound is returned by Read and Mtime when no content file backs the
// requested URL path.
var ErrNotFound = errors.New("storage: document not found")

// Storage scans a source of Markdown documents plus YAML sidecar metadata
// and serves reads, existence checks, modification times, and
// inheritance-resolved metadata lookups by URL path, along with a
// change-notification stream for live reload.
//
// All path parameters are URL paths, not filesystem paths: "" is the root
// page, "guide" a standalone page, "domain/billing" a nested page.
type Storage interface {
	// Scan walks the source and returns every document it finds, both real
	// (content-backed) and virtual (metadata-only).
	Scan(ctx context.Context) ([]Document, error)

	// Read returns the full content of the document at urlPath. Returns
	// ErrNotFound if no content file exists there.
	Read(ctx context.Context, urlPath string) (string, error)

	// Exists reports whether a content file backs urlPath.
	Exists(urlPath string) bool

	// Mtime returns the content file's modification time as Unix seconds.
	// Returns ErrNotFound if no content file exists there.
	Mtime(urlPath string) (float64, error)

	// Meta returns the inheritance-resolved metadata for urlPath: its own
	// title, description, and page_type, with vars deep-merged from every
	// ancestor directory's sidecar. ok is false if no sidecar exists at
	// urlPath itself.
	Meta(urlPath string) (meta *Metadata, ok bool)

	// Watch starts watching the source for changes. The returned channel
	// delivers debounced events carrying URL paths; the returned stop
	// function releases the watch and closes the channel. The channel is
	// also closed when ctx is done.
	Watch(ctx context.Context) (events <-chan livereload.Event, stop func(), err error)
}
