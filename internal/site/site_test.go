package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/euforicio/docstage/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func buildState(t *testing.T, root string, types ...string) *State {
	t.Helper()
	s, err := storage.NewFSStorage(root, nil, storage.Options{})
	require.NoError(t, err)
	st, err := Build(context.Background(), s, NewSectionTypes(types))
	require.NoError(t, err)
	return st
}

func TestBuildHierarchyFromURLPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.md"), "# Home")
	writeFile(t, filepath.Join(root, "domain", "index.md"), "# Domain")
	writeFile(t, filepath.Join(root, "domain", "setup.md"), "# Setup")

	st := buildState(t, root)

	home, ok := st.Page("")
	require.True(t, ok)
	assert.True(t, home.HasContent)

	domainIdx, ok := st.byPath["domain"]
	require.True(t, ok)
	setupIdx, ok := st.byPath["domain/setup"]
	require.True(t, ok)

	rootIdx := st.byPath[""]
	assert.Contains(t, st.Children[rootIdx], domainIdx)
	assert.Contains(t, st.Children[domainIdx], setupIdx)
	assert.Equal(t, domainIdx, st.Parents[setupIdx])
}

func TestBuildNavigationExcludesRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.md"), "# Home")
	writeFile(t, filepath.Join(root, "guide.md"), "# Guide")

	st := buildState(t, root)
	nav := st.BuildNavigation()
	require.Len(t, nav, 1)
	assert.Equal(t, "guide", nav[0].Path)
}

func TestBuildNavigationWithoutRootPage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "# A")
	writeFile(t, filepath.Join(root, "b.md"), "# B")

	st := buildState(t, root)
	nav := st.BuildNavigation()
	require.Len(t, nav, 2)
}

func TestBreadcrumbsExcludeSelf(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.md"), "# Home")
	writeFile(t, filepath.Join(root, "domain", "index.md"), "# Domain")
	writeFile(t, filepath.Join(root, "domain", "setup.md"), "# Setup")

	st := buildState(t, root)
	crumbs := st.Breadcrumbs("domain/setup")
	require.Len(t, crumbs, 2)
	assert.Equal(t, "", crumbs[0].Path)
	assert.Equal(t, "domain", crumbs[1].Path)
}

func TestSectionsRecordedByPageType(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "domain", "meta.yaml"), "title: Billing\npage_type: domain\n")

	st := buildState(t, root, "domain", "system", "service")
	info, ok := st.Sections["domain"]
	require.True(t, ok)
	assert.Equal(t, "domain", info.SectionType)
	assert.Equal(t, "Billing", info.Title)
}

func TestTypedPageRegistryLookup(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "domains", "billing", "meta.yaml"), "title: Billing\npage_type: domain\n")
	writeFile(t, filepath.Join(root, "domains", "billing", "systems", "payment-gateway", "index.md"), "# Payment Gateway")
	writeFile(t, filepath.Join(root, "domains", "billing", "systems", "payment-gateway", "meta.yaml"), "title: Payment Gateway\npage_type: system\n")

	st := buildState(t, root, "domain", "system", "service")
	reg := NewRegistry(st, nil)

	e, ok := reg.Lookup("system", "payment_gateway")
	require.True(t, ok)
	assert.Equal(t, "Payment Gateway", e.Title)
	assert.Equal(t, "domains/billing/systems/payment-gateway", e.Path)

	_, ok = reg.Lookup("system", "nonexistent")
	assert.False(t, ok)
}

func TestTypedPageRegistryServiceTitleFallsBackToDirName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "domains", "billing", "services", "invoice-api", "index.md"), "# Invoice API")
	writeFile(t, filepath.Join(root, "domains", "billing", "services", "invoice-api", "meta.yaml"), "title: Invoice API\npage_type: service\n")

	st := buildState(t, root, "service")
	reg := NewRegistry(st, nil)

	e, ok := reg.Lookup("service", "invoice_api")
	require.True(t, ok)
	assert.Equal(t, "invoice-api", e.Title)
}

func TestTypedPageRegistryIgnoresUnrecognizedEntityType(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "team", "meta.yaml"), "title: Team\npage_type: team\n")

	st := buildState(t, root, "team")
	reg := NewRegistry(st, nil)

	_, ok := reg.Lookup("team", "team")
	assert.False(t, ok)
}

func TestTypedPageRegistryIgnoresPageTypeWithoutSection(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "domains", "billing", "meta.yaml"), "title: Billing\npage_type: domain\n")

	st := buildState(t, root) // no recognized section types configured
	reg := NewRegistry(st, nil)

	_, ok := reg.Lookup("domain", "billing")
	assert.False(t, ok)
}

func TestRegistryResolveImplementsMetaIncludeResolver(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "domains", "billing", "meta.yaml"), "title: Billing\npage_type: domain\n")

	st := buildState(t, root, "domain")
	reg := NewRegistry(st, nil)

	title, ok := reg.Resolve("domain", "billing")
	require.True(t, ok)
	assert.Equal(t, "Billing", title)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.md"), "# Home")
	writeFile(t, filepath.Join(root, "guide.md"), "# Guide")
	st := buildState(t, root)

	bucket := newMemBucket()
	st.Save(bucket)

	loaded, ok := Load(bucket)
	require.True(t, ok)
	assert.Equal(t, st.Pages, loaded.Pages)
	assert.Equal(t, st.Roots, loaded.Roots)

	_, ok = loaded.Page("guide")
	assert.True(t, ok)
}

// memBucket is a minimal in-process cache.Bucket for testing Save/Load.
type memBucket struct {
	etag  string
	value []byte
}

func newMemBucket() *memBucket { return &memBucket{} }

func (b *memBucket) Get(key, etag string) ([]byte, bool) {
	if b.value == nil {
		return nil, false
	}
	if etag != "" && etag != b.etag {
		return nil, false
	}
	return b.value, true
}

func (b *memBucket) Set(key, etag string, value []byte) {
	b.etag = etag
	b.value = value
}
