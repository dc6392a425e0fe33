package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newStorage(t *testing.T, root string) *FSStorage {
	t.Helper()
	s, err := NewFSStorage(root, nil, Options{})
	require.NoError(t, err)
	return s
}

func TestScanRootIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.md"), "# Home")

	s := newStorage(t, root)
	docs, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "", docs[0].URLPath)
	assert.True(t, docs[0].HasContent)
}

func TestScanStandaloneFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "guide.md"), "# Guide")

	s := newStorage(t, root)
	docs, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "guide", docs[0].URLPath)
	assert.Equal(t, "guide", docs[0].Title)
}

func TestScanNestedDirectoryWithIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "domain", "index.md"), "# Domain")
	writeFile(t, filepath.Join(root, "domain", "setup.md"), "# Setup")

	s := newStorage(t, root)
	docs, err := s.Scan(context.Background())
	require.NoError(t, err)

	paths := map[string]Document{}
	for _, d := range docs {
		paths[d.URLPath] = d
	}
	require.Contains(t, paths, "domain")
	require.Contains(t, paths, "domain/setup")
	assert.True(t, paths["domain"].HasContent)
	assert.True(t, paths["domain/setup"].HasContent)
}

func TestScanVirtualPage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "domain", "meta.yaml"), "title: Domain\npage_type: section\n")

	s := newStorage(t, root)
	docs, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "domain", docs[0].URLPath)
	assert.False(t, docs[0].HasContent)
	assert.Equal(t, "Domain", docs[0].Title)
	assert.Equal(t, "section", docs[0].PageType)
}

func TestScanSkipsHiddenFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden.md"), "# Hidden")
	writeFile(t, filepath.Join(root, "visible.md"), "# Visible")

	s := newStorage(t, root)
	docs, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "visible", docs[0].URLPath)
}

func TestScanReadmeAliasesRootWhenNoIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "# Readme Root")

	s := newStorage(t, root)
	docs, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "", docs[0].URLPath)
	assert.True(t, docs[0].HasContent)

	content, err := s.Read(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "# Readme Root", content)
}

func TestIndexTakesPrecedenceOverReadme(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.md"), "# Index Root")
	writeFile(t, filepath.Join(root, "README.md"), "# Readme Root")

	s := newStorage(t, root)
	content, err := s.Read(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "# Index Root", content)
}

func TestReadNotFound(t *testing.T) {
	root := t.TempDir()
	s := newStorage(t, root)
	_, err := s.Read(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExists(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "guide.md"), "# Guide")
	s := newStorage(t, root)

	assert.True(t, s.Exists("guide"))
	assert.False(t, s.Exists("missing"))
}

func TestMtimeReflectsFileModTime(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "guide.md"), "# Guide")
	s := newStorage(t, root)

	mtime, err := s.Mtime("guide")
	require.NoError(t, err)
	assert.Positive(t, mtime)
}

func TestMetaOwnFieldsNotInherited(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "meta.yaml"), "title: Root\nvars:\n  theme: dark\n")
	writeFile(t, filepath.Join(root, "domain", "index.md"), "# Domain")
	writeFile(t, filepath.Join(root, "domain", "meta.yaml"), "title: Domain\npage_type: section\n")

	s := newStorage(t, root)

	meta, ok := s.Meta("domain")
	require.True(t, ok)
	assert.Equal(t, "Domain", meta.Title)
	assert.Equal(t, "section", meta.PageType)
	assert.Equal(t, "dark", meta.Vars["theme"])
}

func TestMetaVarsDeepMergeAcrossAncestors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "meta.yaml"), "vars:\n  nav:\n    collapsed: false\n  theme: dark\n")
	writeFile(t, filepath.Join(root, "domain", "meta.yaml"), "vars:\n  nav:\n    collapsed: true\n")

	s := newStorage(t, root)
	meta, ok := s.Meta("domain")
	require.True(t, ok)

	nav, ok := meta.Vars["nav"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, nav["collapsed"])
	assert.Equal(t, "dark", meta.Vars["theme"])
}

func TestMetaAbsentWithoutOwnSidecar(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "guide.md"), "# Guide")

	s := newStorage(t, root)
	_, ok := s.Meta("guide")
	assert.False(t, ok)
}
