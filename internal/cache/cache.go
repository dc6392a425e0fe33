// Package cache provides a persistent, version-gated on-disk cache keyed by
// string identifiers and validated with caller-supplied etags.
package cache

// Bucket is an isolated namespace within a Cache. Keys within a bucket never
// collide with keys in another bucket, even when the key strings are equal.
type Bucket interface {
	// Get returns the cached value for key if present and, when etag is
	// non-empty, only if the stored etag matches. An empty etag skips
	// validation entirely and returns whatever is stored.
	Get(key, etag string) ([]byte, bool)

	// Set stores value under key, tagged with etag. Implementations may
	// silently drop writes on I/O failure; the cache is always optional.
	Set(key, etag string, value []byte)
}

// Cache is a namespaced store of Buckets.
type Cache interface {
	Bucket(name string) Bucket

	// RawBucket returns a bucket whose values are stored verbatim, with no
	// etag frame. For content-addressed entries whose key already encodes
	// their identity (rendered diagrams named by digest), the etag passed to
	// Get/Set is ignored.
	RawBucket(name string) Bucket
}
