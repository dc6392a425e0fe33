// Package pagerenderer orchestrates a single page's render: storage read,
// Markdown pipeline, diagram embedding, and persistent caching, producing
// the PageRenderResult the HTTP and static-export layers consume.
package pagerenderer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/euforicio/docstage/internal/cache"
	"github.com/euforicio/docstage/internal/diagrams"
	"github.com/euforicio/docstage/internal/render"
	"github.com/euforicio/docstage/internal/site"
	"github.com/euforicio/docstage/internal/storage"
)

// Result is the full outcome of rendering one page.
type Result struct {
	HTML        string
	Title       string
	Toc         []render.TocEntry
	Warnings    []string
	FromCache   bool
	HasContent  bool
	SourceMtime float64
	Breadcrumbs []site.Breadcrumb
	Metadata    *storage.Metadata
}

// cachedPage is the JSON payload stored in the "pages" cache bucket.
type cachedPage struct {
	HTML  string            `json:"html"`
	Title string            `json:"title,omitempty"`
	Toc   []render.TocEntry `json:"toc"`
}

// Options configures a Renderer's diagram support. KrokiURL empty disables
// diagram rendering entirely (code blocks in a diagram language fall
// through to syntax highlighting).
type Options struct {
	KrokiURL          string
	KrokiParallel     int
	KrokiTimeout      int // seconds
	DiagramIncludeDir []string
	DiagramConfigFile string
	DiagramDPI        uint32
	ChromaStyle       string
}

// Renderer renders pages on demand, sharing one cache and one Kroki client
// across every call. Its TypedPageRegistry injection point is the only
// piece of state that changes after construction, swapped atomically on
// every site reload.
type Renderer struct {
	store  storage.Storage
	cache  cache.Cache
	kroki  *diagrams.Client
	opts   Options
	logger *slog.Logger

	registry atomic.Pointer[site.Registry]
}

// New constructs a Renderer. If opts.KrokiURL is empty, diagram code blocks
// fall through to ordinary syntax highlighting.
func New(store storage.Storage, c cache.Cache, opts Options, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{store: store, cache: c, opts: opts, logger: logger}
	if opts.KrokiURL != "" {
		timeout := opts.KrokiTimeout
		if timeout <= 0 {
			timeout = 30
		}
		r.kroki = diagrams.NewClient(opts.KrokiURL, opts.KrokiParallel, time.Duration(timeout)*time.Second)
		if opts.DiagramDPI != 0 {
			r.kroki.DPI = opts.DiagramDPI
		}
	}
	return r
}

// SetRegistry swaps in the TypedPageRegistry rebuilt from the latest site
// state. Safe to call concurrently with Render.
func (r *Renderer) SetRegistry(reg *site.Registry) {
	r.registry.Store(reg)
}

// Render produces the render result for urlPath: virtual-page shortcut,
// mtime-based etag, metadata lookup, cache consultation, full render, cache
// store.
func (r *Renderer) Render(ctx context.Context, urlPath string, page site.Page, breadcrumbs []site.Breadcrumb) (Result, error) {
	meta, _ := r.store.Meta(urlPath)

	if !page.HasContent {
		return Result{
			HTML:        fmt.Sprintf("<h1>%s</h1>\n", htmlEscapeTitle(page.Title)),
			Title:       page.Title,
			HasContent:  false,
			Breadcrumbs: breadcrumbs,
			Metadata:    meta,
		}, nil
	}

	mtime, err := r.store.Mtime(urlPath)
	if err != nil {
		return Result{}, fmt.Errorf("stat mtime for %q: %w", urlPath, err)
	}
	etag := strconv.FormatFloat(mtime, 'f', -1, 64)

	bucket := r.cache.Bucket("pages")
	if raw, ok := bucket.Get(urlPath, etag); ok {
		var cached cachedPage
		if err := json.Unmarshal(raw, &cached); err != nil {
			r.logger.Debug("discarding undecodable page cache entry", "path", urlPath, "err", err)
		} else {
			return Result{
				HTML:        cached.HTML,
				Title:       cached.Title,
				Toc:         cached.Toc,
				FromCache:   true,
				HasContent:  true,
				SourceMtime: mtime,
				Breadcrumbs: breadcrumbs,
				Metadata:    meta,
			}, nil
		}
	}

	source, err := r.store.Read(ctx, urlPath)
	if err != nil {
		return Result{}, fmt.Errorf("read source for %q: %w", urlPath, err)
	}

	var diagProc *diagrams.Processor
	processors := make([]render.CodeBlockProcessor, 0, 2)
	if r.kroki != nil {
		diagProc = diagrams.NewProcessor(r.opts.DiagramIncludeDir, r.opts.DiagramConfigFile, r.opts.DiagramDPI)
		if reg := r.registry.Load(); reg != nil {
			diagProc.MetaIncludes = reg.Resolve
		}
		processors = append(processors, diagProc)
	}
	processors = append(processors, render.NewChromaHighlighter(r.opts.ChromaStyle))

	pipeline := render.New(render.Config{
		Backend:        render.HTML,
		BasePath:       urlPath,
		ExtractTitle:   true,
		CodeProcessors: processors,
	})

	res, err := pipeline.Render(source)
	if err != nil {
		return Result{}, fmt.Errorf("render %q: %w", urlPath, err)
	}
	warnings := res.Warnings
	html := res.HTML

	if diagProc != nil {
		var diagWarnings []string
		html, diagWarnings = r.embedDiagrams(ctx, html, diagProc)
		warnings = append(warnings, diagWarnings...)
	}

	if payload, err := json.Marshal(cachedPage{HTML: html, Title: res.Title, Toc: res.Toc}); err == nil {
		bucket.Set(urlPath, etag, payload)
	}

	return Result{
		HTML:        html,
		Title:       res.Title,
		Toc:         res.Toc,
		Warnings:    warnings,
		FromCache:   false,
		HasContent:  true,
		SourceMtime: mtime,
		Breadcrumbs: breadcrumbs,
		Metadata:    meta,
	}, nil
}

// embedDiagrams prepares and renders every diagram the page's render pass
// extracted, substituting each `{{DIAGRAM_N}}` placeholder with its figure
// (or an error figure on failure). Rendered bytes are content-addressed in
// the "diagrams" cache bucket, so only diagrams whose prepared source
// changed go back through Kroki.
func (r *Renderer) embedDiagrams(ctx context.Context, html string, proc *diagrams.Processor) (string, []string) {
	extracted := proc.Extracted()
	if len(extracted) == 0 {
		return html, nil
	}

	reqs, warnings := proc.Prepare()
	formatByIndex := make(map[int]string, len(extracted))
	for _, d := range extracted {
		formatByIndex[d.Index] = d.Format
	}

	bucket := r.cache.RawBucket("diagrams")
	nameByIndex := make(map[int]string, len(reqs))
	figures := make(map[int]string, len(reqs))

	var svgReqs, pngReqs []diagrams.Request
	for _, req := range reqs {
		format := formatByIndex[req.Index]
		if format != "png" {
			format = "svg"
		}
		key := diagrams.Key{Source: req.Source, Endpoint: req.Language.Endpoint(), Format: format, DPI: proc.DPI}
		name := key.Filename(format)
		nameByIndex[req.Index] = name

		if raw, ok := bucket.Get(name, ""); ok {
			if format == "png" {
				figures[req.Index] = diagrams.PNGFigure(pngDataURI(raw))
			} else {
				figures[req.Index] = diagrams.SVGFigure(string(raw), proc.DPI)
			}
			continue
		}
		if format == "png" {
			pngReqs = append(pngReqs, req)
		} else {
			svgReqs = append(svgReqs, req)
		}
	}

	if len(svgReqs) > 0 {
		rendered, errs := r.kroki.RenderAllSVG(ctx, svgReqs)
		for _, rv := range rendered {
			bucket.Set(nameByIndex[rv.Index], "", []byte(rv.SVG))
			figures[rv.Index] = diagrams.SVGFigure(rv.SVG, proc.DPI)
		}
		for _, e := range errs {
			figures[e.Index] = diagrams.ErrorFigureHTML(e.Error())
			warnings = append(warnings, e.Error())
		}
	}
	if len(pngReqs) > 0 {
		rendered, errs := r.kroki.RenderAllPNGDataURI(ctx, pngReqs)
		for _, rv := range rendered {
			if raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(rv.DataURI, pngDataURIPrefix)); err == nil {
				bucket.Set(nameByIndex[rv.Index], "", raw)
			}
			figures[rv.Index] = diagrams.PNGFigure(rv.DataURI)
		}
		for _, e := range errs {
			figures[e.Index] = diagrams.ErrorFigureHTML(e.Error())
			warnings = append(warnings, e.Error())
		}
	}

	for idx, figure := range figures {
		html = strings.ReplaceAll(html, diagrams.Placeholder(idx), figure)
	}
	return html, warnings
}

const pngDataURIPrefix = "data:image/png;base64,"

func pngDataURI(raw []byte) string {
	return pngDataURIPrefix + base64.StdEncoding.EncodeToString(raw)
}

func htmlEscapeTitle(title string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")
	return r.Replace(title)
}
