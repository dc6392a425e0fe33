package diagrams

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Key content-addresses a rendered diagram so identical source, language,
// format, and DPI always produce the same cache filename.
type Key struct {
	Source   string
	Endpoint string
	Format   string
	DPI      uint32
}

// Hash returns the full hex-encoded SHA-256 digest of the key's fields:
// "endpoint:source", further parameterized by format and DPI so that the
// same diagram rendered at a different size or in a different format
// never collides with an existing cache entry.
func (k Key) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s:%s\x00%s\x00%d", k.Endpoint, k.Source, k.Format, k.DPI)
	return hex.EncodeToString(h.Sum(nil))
}

// Filename returns the on-disk diagram file name: the first 12 hex
// characters of the key's hash, plus the rendered format's extension.
func (k Key) Filename(ext string) string {
	return fmt.Sprintf("%s.%s", k.Hash()[:12], ext)
}
