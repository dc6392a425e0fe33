package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const defaultMetaFilename = "meta.yaml"

// Options configures an FSStorage.
type Options struct {
	// MetaFilename is the sidecar metadata file name looked for in every
	// directory. Defaults to "meta.yaml".
	MetaFilename string
}

// FSStorage is the filesystem-backed Storage implementation: a directory
// tree of Markdown content files plus YAML sidecar metadata files.
type FSStorage struct {
	root         string
	metaFilename string
	logger       *slog.Logger
}

// NewFSStorage creates an FSStorage rooted at root.
func NewFSStorage(root string, logger *slog.Logger, opts Options) (*FSStorage, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat storage root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s is not a directory", absRoot)
	}
	metaFilename := strings.TrimSpace(opts.MetaFilename)
	if metaFilename == "" {
		metaFilename = defaultMetaFilename
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FSStorage{
		root:         absRoot,
		metaFilename: metaFilename,
		logger:       logger.With("component", "fs_storage"),
	}, nil
}

// Scan walks the source directory and returns every document: directories
// with an index file and/or sidecar metadata, and standalone content files.
func (s *FSStorage) Scan(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := s.scanDir(ctx, s.root, "", &docs); err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].URLPath < docs[j].URLPath })
	return docs, nil
}

func (s *FSStorage) scanDir(ctx context.Context, dirAbs, urlPrefix string, docs *[]Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dirAbs)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dirAbs, err)
	}

	var indexPath, metaPath string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(dirAbs, name)
		if isSymlink(full) {
			continue
		}

		if entry.IsDir() {
			if err := s.scanDir(ctx, full, joinURL(urlPrefix, name), docs); err != nil {
				return err
			}
			continue
		}

		lower := strings.ToLower(name)
		switch {
		case lower == "index.md":
			indexPath = full
		case urlPrefix == "" && lower == "readme.md":
			// handled below, as a root-index fallback, not a standalone page
		case strings.HasSuffix(lower, ".md"):
			stem := strings.TrimSuffix(name, filepath.Ext(name))
			*docs = append(*docs, Document{
				URLPath:    joinURL(urlPrefix, stem),
				Title:      titleFromStem(stem),
				HasContent: true,
			})
		case name == s.metaFilename:
			metaPath = full
		}
	}

	if urlPrefix == "" && indexPath == "" {
		if readme, ok := findReadme(dirAbs); ok {
			indexPath = readme
		}
	}

	if indexPath == "" && metaPath == "" {
		return nil
	}

	doc := Document{URLPath: urlPrefix, HasContent: indexPath != ""}
	if metaPath != "" {
		sc, err := readSidecar(metaPath)
		if err != nil {
			s.logger.Warn("failed to read metadata", "path", metaPath, "err", err)
		} else {
			doc.PageType = sc.PageType
			doc.Description = sc.Description
			if sc.Title != "" {
				doc.Title = sc.Title
			}
		}
	}
	if doc.Title == "" {
		doc.Title = titleFromURLPath(s.root, urlPrefix)
	}
	*docs = append(*docs, doc)
	return nil
}

// Read returns the content of the document at urlPath.
func (s *FSStorage) Read(ctx context.Context, urlPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, ok := s.resolveContentPath(urlPath)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, urlPath)
	}
	data, err := os.ReadFile(abs) //nolint:gosec // abs is resolved against the validated source root
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", urlPath, err)
	}
	return string(data), nil
}

// Exists reports whether a content file backs urlPath.
func (s *FSStorage) Exists(urlPath string) bool {
	_, ok := s.resolveContentPath(urlPath)
	return ok
}

// Mtime returns the content file's modification time in Unix seconds.
func (s *FSStorage) Mtime(urlPath string) (float64, error) {
	abs, ok := s.resolveContentPath(urlPath)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, urlPath)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return 0, fmt.Errorf("stat document %s: %w", urlPath, err)
	}
	return float64(info.ModTime().UnixNano()) / 1e9, nil
}

// Meta resolves the sidecar metadata for urlPath, deep-merging vars from
// every ancestor directory's own sidecar. Title, description, and page_type
// come only from urlPath's own sidecar file; ok is false if that file
// doesn't exist.
func (s *FSStorage) Meta(urlPath string) (*Metadata, bool) {
	segments := splitURLPath(urlPath)

	var vars map[string]any
	var own sidecar
	var ownExists bool

	dir := s.root
	for i := 0; i <= len(segments); i++ {
		metaPath := filepath.Join(dir, s.metaFilename)
		if sc, err := readSidecar(metaPath); err == nil {
			vars = mergeVars(vars, sc.Vars)
			if i == len(segments) {
				own = sc
				ownExists = true
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to read metadata", "path", metaPath, "err", err)
		}
		if i < len(segments) {
			dir = filepath.Join(dir, segments[i])
		}
	}

	if !ownExists {
		return nil, false
	}
	return &Metadata{
		Title:       own.Title,
		Description: own.Description,
		PageType:    own.PageType,
		Vars:        vars,
	}, true
}

// resolveContentPath maps a URL path to its backing content file, if any.
func (s *FSStorage) resolveContentPath(urlPath string) (string, bool) {
	segments := splitURLPath(urlPath)

	if len(segments) == 0 {
		if p := filepath.Join(s.root, "index.md"); fileExists(p) {
			return p, true
		}
		if readme, ok := findReadme(s.root); ok {
			return readme, true
		}
		return "", false
	}

	dir := filepath.Join(append([]string{s.root}, segments...)...)
	if p := filepath.Join(dir, "index.md"); fileExists(p) {
		return p, true
	}

	parent := filepath.Join(append([]string{s.root}, segments[:len(segments)-1]...)...)
	if p := filepath.Join(parent, segments[len(segments)-1]+".md"); fileExists(p) {
		return p, true
	}

	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func findReadme(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), "README.md") {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func splitURLPath(urlPath string) []string {
	urlPath = strings.Trim(urlPath, "/")
	if urlPath == "" {
		return nil
	}
	return strings.Split(urlPath, "/")
}

func joinURL(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func titleFromStem(stem string) string {
	stem = strings.ReplaceAll(stem, "_", " ")
	stem = strings.ReplaceAll(stem, "-", " ")
	return strings.TrimSpace(stem)
}

func titleFromURLPath(root, urlPath string) string {
	if urlPath == "" {
		return titleFromStem(filepath.Base(root))
	}
	segments := splitURLPath(urlPath)
	return titleFromStem(segments[len(segments)-1])
}
