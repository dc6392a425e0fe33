// Package site builds the page graph of a documentation source: hierarchy
// derivation from URL paths, navigation tree construction, breadcrumbs, and
// a typed-page registry consumed by diagram `!include` directives.
package site

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/euforicio/docstage/internal/cache"
	"github.com/euforicio/docstage/internal/storage"
)

// Page is one node in a SiteState's flat page vector.
type Page struct {
	Title      string `json:"title"`
	Path       string `json:"path"`
	HasContent bool   `json:"hasContent"`
	PageType   string `json:"pageType,omitempty"`
}

// SectionInfo describes a page declared as a section via its page_type.
type SectionInfo struct {
	SectionType string `json:"sectionType"`
	Title       string `json:"title"`
}

// State is the hierarchical page graph: a flat vector of pages plus
// parallel parent/child index structures, rebuilt atomically on every
// reload and never mutated in place.
type State struct {
	Pages    []Page                 `json:"pages"`
	Children [][]int                `json:"children"` // Children[i] = child indices of Pages[i]
	Parents  []int                  `json:"parents"`  // Parents[i] = parent index, or -1 for a root
	Roots    []int                  `json:"roots"`
	Sections map[string]SectionInfo `json:"sections"` // keyed by Page.Path

	byPath map[string]int
}

// cacheVersion gates site.json: bump it whenever the serialized shape
// changes incompatibly.
const cacheVersion = "1"

// SectionTypes is the configured set of page_type values that mark a page
// as a section, e.g. {"domain", "system", "service"}.
type SectionTypes map[string]struct{}

// NewSectionTypes builds a SectionTypes set from a list of type names.
func NewSectionTypes(types []string) SectionTypes {
	s := make(SectionTypes, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// Build discovers the page graph from storage, deriving hierarchy solely
// from URL paths: the parent of "a/b/c" is "a/b"; the parent of any
// top-level path is the root (""). Document order from Scan is preserved
// as child order.
func Build(ctx context.Context, store storage.Storage, sectionTypes SectionTypes) (*State, error) {
	docs, err := store.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan storage: %w", err)
	}

	st := &State{
		byPath:   make(map[string]int, len(docs)),
		Sections: make(map[string]SectionInfo),
	}
	st.Pages = make([]Page, len(docs))
	st.Parents = make([]int, len(docs))
	st.Children = make([][]int, len(docs))

	for i, d := range docs {
		st.Pages[i] = Page{Title: d.Title, Path: d.URLPath, HasContent: d.HasContent, PageType: d.PageType}
		st.byPath[d.URLPath] = i
		st.Parents[i] = -1
		if d.PageType != "" {
			if _, ok := sectionTypes[d.PageType]; ok {
				st.Sections[d.URLPath] = SectionInfo{SectionType: d.PageType, Title: d.Title}
			}
		}
	}

	for i, d := range docs {
		parentPath, ok := parentOf(d.URLPath)
		if !ok {
			st.Roots = append(st.Roots, i)
			continue
		}
		pi, ok := st.byPath[parentPath]
		if !ok {
			// No document exists at the parent path (e.g. a directory with
			// no index and no metadata): treat as a root.
			st.Roots = append(st.Roots, i)
			continue
		}
		st.Parents[i] = pi
		st.Children[pi] = append(st.Children[pi], i)
	}

	sort.Ints(st.Roots)
	return st, nil
}

// parentOf returns the URL path one level up from p, and whether p has a
// parent at all (false for the root page "").
func parentOf(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return "", true
	}
	return p[:idx], true
}

// Page looks up a page by URL path.
func (s *State) Page(path string) (Page, bool) {
	i, ok := s.byPath[path]
	if !ok {
		return Page{}, false
	}
	return s.Pages[i], true
}

// NavItem is one node of the navigation tree returned by BuildNavigation.
type NavItem struct {
	Title    string    `json:"title"`
	Path     string    `json:"path"`
	Children []NavItem `json:"children,omitempty"`
}

// BuildNavigation derives the navigation tree: if a root page exists,
// navigation is the list of NavItem trees rooted at the root's children;
// otherwise it is the list of all root pages. The root page itself is
// never included in navigation output.
func (s *State) BuildNavigation() []NavItem {
	if rootIdx, ok := s.byPath[""]; ok {
		return s.navChildren(rootIdx)
	}
	items := make([]NavItem, 0, len(s.Roots))
	for _, i := range s.Roots {
		items = append(items, s.navItem(i))
	}
	return items
}

func (s *State) navChildren(i int) []NavItem {
	childIdx := s.Children[i]
	items := make([]NavItem, 0, len(childIdx))
	for _, ci := range childIdx {
		items = append(items, s.navItem(ci))
	}
	return items
}

func (s *State) navItem(i int) NavItem {
	p := s.Pages[i]
	return NavItem{
		Title:    p.Title,
		Path:     p.Path,
		Children: s.navChildren(i),
	}
}

// Breadcrumb is one entry in a page's breadcrumb trail.
type Breadcrumb struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Breadcrumbs returns the ancestor chain for urlPath, root-first, excluding
// urlPath itself. Returns nil if urlPath is unknown or is the root.
func (s *State) Breadcrumbs(urlPath string) []Breadcrumb {
	i, ok := s.byPath[urlPath]
	if !ok {
		return nil
	}
	var chain []int
	for p := s.Parents[i]; p != -1; p = s.Parents[p] {
		chain = append(chain, p)
	}
	// chain is leaf-to-root; reverse to root-to-leaf.
	out := make([]Breadcrumb, len(chain))
	for j, idx := range chain {
		pg := s.Pages[idx]
		out[len(chain)-1-j] = Breadcrumb{Title: pg.Title, Path: pg.Path}
	}
	return out
}

// siteCacheKey is the fixed key site.json is stored under in the "site"
// bucket.
const siteCacheKey = "state"

// Load decodes a previously-cached State from bucket, returning ok=false on
// any miss or decode failure (the cache is always advisory).
func Load(bucket cache.Bucket) (*State, bool) {
	raw, ok := bucket.Get(siteCacheKey, cacheVersion)
	if !ok {
		return nil, false
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, false
	}
	st.byPath = make(map[string]int, len(st.Pages))
	for i, p := range st.Pages {
		st.byPath[p.Path] = i
	}
	return &st, true
}

// Save serializes st into bucket under the fixed site-state key. Errors are
// swallowed; the cache is advisory.
func (s *State) Save(bucket cache.Bucket) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	bucket.Set(siteCacheKey, cacheVersion, raw)
}

// TypedEntity is a small record registered for one (page_type, normalized
// name) pair, consumed by diagram `!include` directives that reference
// pages by type and name rather than by path.
type TypedEntity struct {
	Path  string
	Title string
}

// Registry is a lookup from (page_type, normalized_name) to a TypedEntity,
// rebuilt from the current State after every reload. normalized_name is
// the page's final URL path segment with "-" replaced by "_". On
// collision, the later insertion wins and a warning is logged.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]map[string]TypedEntity
}

// entityTypes is the closed set of page_type values the registry indexes;
// any other section type is ignored.
var entityTypes = map[string]struct{}{
	"domain":  {},
	"system":  {},
	"service": {},
}

// NewRegistry builds a Registry from st's declared sections, restricted to
// the recognized entity types.
func NewRegistry(st *State, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{entries: make(map[string]map[string]TypedEntity)}
	// Iterate pages, not the Sections map, so "later insertion wins" on a
	// name collision follows document order.
	for _, page := range st.Pages {
		path := page.Path
		section, ok := st.Sections[path]
		if !ok {
			continue
		}
		if _, ok := entityTypes[section.SectionType]; !ok {
			continue
		}
		name := normalizedName(path)
		bucket, ok := r.entries[section.SectionType]
		if !ok {
			bucket = make(map[string]TypedEntity)
			r.entries[section.SectionType] = bucket
		}
		if existing, ok := bucket[name]; ok && existing.Path != path {
			logger.Warn("typed page registry collision",
				"page_type", section.SectionType, "name", name,
				"existing", existing.Path, "new", path)
		}
		title := page.Title
		if section.SectionType == "service" {
			title = dirName(path)
		}
		bucket[name] = TypedEntity{Path: path, Title: title}
	}
	return r
}

// Lookup resolves (pageType, normalizedName) to a TypedEntity.
func (r *Registry) Lookup(pageType, normalizedName string) (TypedEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bucket, ok := r.entries[pageType]
	if !ok {
		return TypedEntity{}, false
	}
	e, ok := bucket[normalizedName]
	return e, ok
}

// Resolve implements diagrams.MetaIncludeResolver.
func (r *Registry) Resolve(pageType, name string) (string, bool) {
	e, ok := r.Lookup(pageType, name)
	if !ok {
		return "", false
	}
	return e.Title, true
}

func dirName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func normalizedName(path string) string {
	return strings.ReplaceAll(dirName(path), "-", "_")
}
