package pagerenderer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/euforicio/docstage/internal/cache"
	"github.com/euforicio/docstage/internal/site"
	"github.com/euforicio/docstage/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRenderVirtualPageShortCircuitsStorage(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewFSStorage(root, nil, storage.Options{})
	require.NoError(t, err)

	r := New(store, cache.NullCache{}, Options{}, nil)
	res, err := r.Render(context.Background(), "domain", site.Page{Title: "Domain", Path: "domain", HasContent: false}, nil)
	require.NoError(t, err)

	assert.False(t, res.HasContent)
	assert.Equal(t, "<h1>Domain</h1>\n", res.HTML)
	assert.Equal(t, "Domain", res.Title)
}

func TestRenderRealPageExtractsTitleAndCaches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "guide.md"), "# Guide Title\n\nSome body text.\n")
	store, err := storage.NewFSStorage(root, nil, storage.Options{})
	require.NoError(t, err)

	c := cache.NewFileCache(t.TempDir(), "v1", nil)
	r := New(store, c, Options{}, nil)

	res, err := r.Render(context.Background(), "guide", site.Page{Title: "guide", Path: "guide", HasContent: true}, nil)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, "Guide Title", res.Title)
	assert.Contains(t, res.HTML, "Some body text.")

	res2, err := r.Render(context.Background(), "guide", site.Page{Title: "guide", Path: "guide", HasContent: true}, nil)
	require.NoError(t, err)
	assert.True(t, res2.FromCache)
	assert.Equal(t, res.HTML, res2.HTML)
}

func TestRenderCacheInvalidatedOnMtimeChange(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "guide.md")
	writeFile(t, path, "# V1\n")
	store, err := storage.NewFSStorage(root, nil, storage.Options{})
	require.NoError(t, err)

	c := cache.NewFileCache(t.TempDir(), "v1", nil)
	r := New(store, c, Options{}, nil)

	res1, err := r.Render(context.Background(), "guide", site.Page{Path: "guide", HasContent: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "V1", res1.Title)

	writeFile(t, path, "# V2\n")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	res2, err := r.Render(context.Background(), "guide", site.Page{Path: "guide", HasContent: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "V2", res2.Title)
	assert.False(t, res2.FromCache)
}

func TestRenderCachesDiagramsByContent(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "arch.md")
	writeFile(t, path, "# Arch\n\n```plantuml\n@startuml\nA -> B\n@enduml\n```\n")

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<svg width="10" height="10"></svg>`))
	}))
	defer srv.Close()

	store, err := storage.NewFSStorage(root, nil, storage.Options{})
	require.NoError(t, err)
	c := cache.NewFileCache(t.TempDir(), "v1", nil)
	r := New(store, c, Options{KrokiURL: srv.URL}, nil)

	res, err := r.Render(context.Background(), "arch", site.Page{Path: "arch", HasContent: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, `<figure class="diagram">`)
	require.EqualValues(t, 1, hits.Load())

	// Touch the source so the page cache misses; the content-addressed
	// diagram cache still serves the rendered SVG without a second request.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	res2, err := r.Render(context.Background(), "arch", site.Page{Path: "arch", HasContent: true}, nil)
	require.NoError(t, err)
	assert.False(t, res2.FromCache)
	assert.Contains(t, res2.HTML, `<figure class="diagram">`)
	assert.EqualValues(t, 1, hits.Load())
}

func TestRenderWithoutKrokiPassesDiagramFencesToHighlighter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "arch.md"), "# Arch\n\n```mermaid\ngraph TD; A-->B;\n```\n")
	store, err := storage.NewFSStorage(root, nil, storage.Options{})
	require.NoError(t, err)

	r := New(store, cache.NullCache{}, Options{}, nil)
	res, err := r.Render(context.Background(), "arch", site.Page{Path: "arch", HasContent: true}, nil)
	require.NoError(t, err)
	assert.NotContains(t, res.HTML, "DIAGRAM")
}
