package cache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// versionFile names the marker file written to a FileCache's root that
// records which cache version produced its contents.
const versionFile = "VERSION"

// FileCache stores cache entries as files on disk, organized into buckets
// (subdirectories). Each entry is framed with a length-prefixed etag header
// so binary data round-trips cleanly:
//
//	{etag_len}:{etag}{data_bytes}
//
// On construction, FileCache validates a VERSION file in its root. If the
// stored version doesn't match, the entire cache root is wiped and
// recreated so a build never serves output produced by a stale cache
// format.
type FileCache struct {
	root   string
	logger *slog.Logger
}

var _ Cache = (*FileCache)(nil)

// NewFileCache creates a file-based cache rooted at root, validating (and if
// necessary wiping) it against version.
func NewFileCache(root, version string, logger *slog.Logger) *FileCache {
	if logger == nil {
		logger = slog.Default()
	}
	fc := &FileCache{root: root, logger: logger}
	fc.validateVersion(version)
	return fc
}

func (c *FileCache) Bucket(name string) Bucket {
	return &fileBucket{dir: filepath.Join(c.root, name)}
}

func (c *FileCache) RawBucket(name string) Bucket {
	return &rawFileBucket{dir: filepath.Join(c.root, name)}
}

func (c *FileCache) validateVersion(version string) {
	path := filepath.Join(c.root, versionFile)
	stored, err := os.ReadFile(path)
	if err == nil && string(stored) == version {
		c.logger.Debug("cache version matches", "version", version)
		return
	}
	if err == nil {
		c.logger.Info("cache version mismatch, wiping cache",
			"stored", string(stored), "current", version)
	} else {
		c.logger.Info("no cache VERSION file found, initializing cache")
	}

	if _, statErr := os.Stat(c.root); statErr == nil {
		if rmErr := os.RemoveAll(c.root); rmErr != nil {
			c.logger.Warn("failed to remove cache directory", "err", rmErr)
		}
	}
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		c.logger.Warn("failed to create cache directory", "err", err)
		return
	}
	if err := os.WriteFile(path, []byte(version), 0o644); err != nil {
		c.logger.Warn("failed to write cache VERSION file", "err", err)
	}
}

type fileBucket struct {
	dir string
}

var _ Bucket = (*fileBucket)(nil)

func (b *fileBucket) Get(key, etag string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(b.dir, key))
	if err != nil {
		return nil, false
	}

	colon := strings.IndexByte(string(data), ':')
	if colon < 0 {
		return nil, false
	}
	etagLen, err := strconv.Atoi(string(data[:colon]))
	if err != nil || etagLen < 0 {
		return nil, false
	}
	dataStart := colon + 1 + etagLen
	if dataStart > len(data) {
		return nil, false
	}
	if etag != "" {
		if string(data[colon+1:dataStart]) != etag {
			return nil, false
		}
	}
	return data[dataStart:], true
}

func (b *fileBucket) Set(key, etag string, value []byte) {
	path := filepath.Join(b.dir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}

	buf := make([]byte, 0, len(etag)+len(value)+16)
	buf = append(buf, fmt.Sprintf("%d:%s", len(etag), etag)...)
	buf = append(buf, value...)

	_ = os.WriteFile(path, buf, 0o644)
}

// rawFileBucket stores values as bare files with no etag frame: the key is
// expected to be content-addressed, so the etag arguments are ignored.
type rawFileBucket struct {
	dir string
}

var _ Bucket = (*rawFileBucket)(nil)

func (b *rawFileBucket) Get(key, _ string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(b.dir, key))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (b *rawFileBucket) Set(key, _ string, value []byte) {
	path := filepath.Join(b.dir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(path, value, 0o644)
}
