package storage

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/euforicio/docstage/internal/livereload"
)

// debounceWindow is the coalescing window for raw filesystem events, per
// the sliding-window debouncer design.
const debounceWindow = 250 * time.Millisecond

// drainInterval is how often the debouncer is polled for entries whose
// deadline has elapsed.
const drainInterval = 50 * time.Millisecond

// Watch starts an OS filesystem watcher over the source root and returns a
// debounced, URL-path-addressed event stream. Events for files outside the
// content/metadata convention (hidden files, unrelated assets) are dropped.
func (s *FSStorage) Watch(ctx context.Context) (<-chan livereload.Event, func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addRecursive(watcher, s.root, s.logger); err != nil {
		_ = watcher.Close()
		return nil, nil, err
	}

	debouncer := livereload.NewDebouncer(debounceWindow)
	hub := livereload.NewHub(s.logger)
	subID, events := hub.Subscribe()

	runCtx, cancel := context.WithCancel(ctx)
	stopHub := make(chan struct{})

	go s.pumpFSEvents(runCtx, watcher, debouncer)
	go hub.Run(debouncer, drainInterval, stopHub)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			close(stopHub)
			_ = watcher.Close()
			hub.Unsubscribe(subID)
		})
	}

	go func() {
		<-runCtx.Done()
		stop()
	}()

	return events, stop, nil
}

func (s *FSStorage) pumpFSEvents(ctx context.Context, watcher *fsnotify.Watcher, debouncer *livereload.Debouncer) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			s.handleFSEvent(watcher, event, debouncer)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("watcher error", "err", err)
		}
	}
}

func (s *FSStorage) handleFSEvent(watcher *fsnotify.Watcher, event fsnotify.Event, debouncer *livereload.Debouncer) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = addRecursive(watcher, event.Name, s.logger)
		}
	}

	urlPath, ok := urlPathForEvent(s.root, event.Name, s.metaFilename)
	if !ok {
		return
	}

	kind, ok := eventKind(event.Op)
	if !ok {
		return
	}
	debouncer.Record(urlPath, kind)
}

func eventKind(op fsnotify.Op) (livereload.EventKind, bool) {
	switch {
	case op&fsnotify.Remove != 0, op&fsnotify.Rename != 0:
		return livereload.Removed, true
	case op&fsnotify.Create != 0:
		return livereload.Created, true
	case op&fsnotify.Write != 0:
		return livereload.Modified, true
	default:
		return 0, false
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			logger.Warn("failed to watch directory", "path", path, "err", err)
		}
		return nil
	})
}

// urlPathForEvent maps a raw filesystem change to the URL path of the
// document it affects, mirroring the classification rules used by Scan.
// ok is false for paths that don't participate in the content/metadata
// convention (hidden entries, non-.md non-sidecar files).
func urlPathForEvent(root, absPath, metaFilename string) (string, bool) {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") {
		return "", false
	}

	for _, segment := range strings.Split(rel, "/") {
		if strings.HasPrefix(segment, ".") && segment != "." {
			return "", false
		}
	}

	dir, base := splitRel(rel)

	lower := strings.ToLower(base)
	switch {
	case base == metaFilename:
		return dir, true
	case rel == "README.md" || rel == "readme.md":
		return "", true
	case lower == "index.md":
		return dir, true
	case strings.HasSuffix(lower, ".md"):
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		return joinURL(dir, stem), true
	default:
		return "", false
	}
}

func splitRel(rel string) (dir, base string) {
	idx := strings.LastIndex(rel, "/")
	if idx < 0 {
		return "", rel
	}
	return rel[:idx], rel[idx+1:]
}
