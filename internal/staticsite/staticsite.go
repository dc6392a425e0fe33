// Package staticsite renders a complete site.State into a self-contained
// directory of HTML files, a nav.json index, and a copied asset bundle.
package staticsite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/euforicio/docstage/internal/pagerenderer"
	"github.com/euforicio/docstage/internal/site"
	docstatic "github.com/euforicio/docstage/static"
)

const indexHTML = "index.html"

// Options configure a static export run.
type Options struct {
	OutputDir   string
	SiteTitle   string
	AssetPrefix string
	BaseURL     string
	CleanOutput bool
}

// Exporter renders every page in a site.State to static HTML.
type Exporter struct {
	renderer  *pagerenderer.Renderer
	templates *templateRenderer
	logger    *slog.Logger
}

// New constructs an Exporter.
func New(renderer *pagerenderer.Renderer, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := newTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return &Exporter{
		renderer:  renderer,
		templates: tmpl,
		logger:    logger.With("component", "staticsite"),
	}, nil
}

// Export walks st and writes a static HTML bundle to opts.OutputDir.
func (e *Exporter) Export(ctx context.Context, st *site.State, opts Options) error {
	if strings.TrimSpace(opts.OutputDir) == "" {
		return errors.New("output directory is required")
	}
	if strings.TrimSpace(opts.SiteTitle) == "" {
		opts.SiteTitle = "docstage"
	}
	if strings.TrimSpace(opts.AssetPrefix) == "" {
		opts.AssetPrefix = "assets"
	}

	outputDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve output: %w", err)
	}
	if opts.CleanOutput {
		if err := os.RemoveAll(outputDir); err != nil {
			return fmt.Errorf("clean output: %w", err)
		}
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil { //nolint:gosec // standard directory permissions
		return err
	}

	assetDest := filepath.Join(outputDir, filepath.FromSlash(opts.AssetPrefix))
	if err := os.RemoveAll(assetDest); err != nil {
		return fmt.Errorf("reset assets dir: %w", err)
	}
	if err := docstatic.CopyAll(assetDest); err != nil {
		return fmt.Errorf("copy embedded assets: %w", err)
	}

	generatedAt := time.Now().UTC()
	nav := st.BuildNavigation()

	for _, page := range st.Pages {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !page.HasContent {
			continue
		}

		breadcrumbs := st.Breadcrumbs(page.Path)
		result, err := e.renderer.Render(ctx, page.Path, page, breadcrumbs)
		if err != nil {
			return fmt.Errorf("render %s: %w", page.Path, err)
		}

		data := pageData{
			Site: siteData{
				Title:       opts.SiteTitle,
				Nav:         nav,
				BaseURL:     strings.TrimRight(opts.BaseURL, "/"),
				GeneratedAt: generatedAt,
			},
			Page: pageViewData{
				Path:        page.Path,
				Title:       firstNonEmpty(result.Title, page.Title, titleFromPath(page.Path)),
				HTML:        template.HTML(result.HTML), //nolint:gosec // HTML from trusted renderer
				Breadcrumbs: breadcrumbs,
				Toc:         result.Toc,
			},
			AssetPrefix: opts.AssetPrefix,
		}
		if data.Site.BaseURL != "" {
			data.Page.Canonical = data.Site.BaseURL + "/" + toHTMLRel(page.Path)
		}

		if err := e.writePage(outputDir, toHTMLRel(page.Path), data); err != nil {
			return fmt.Errorf("write page %s: %w", page.Path, err)
		}
	}

	if err := e.writeLandingPage(outputDir, st, opts, nav, generatedAt); err != nil {
		return err
	}

	if err := writeNavJSON(outputDir, nav); err != nil {
		return err
	}

	e.logger.Info("export complete",
		slog.Int("pages", len(st.Pages)),
		slog.String("output", outputDir),
		slog.Duration("duration", time.Since(generatedAt)))

	return nil
}

// writeLandingPage ensures index.html exists even when no page resolves to
// the site root, so a freshly exported site always has a usable entry point.
func (e *Exporter) writeLandingPage(outputDir string, st *site.State, opts Options, nav []site.NavItem, generatedAt time.Time) error {
	dest := filepath.Join(outputDir, indexHTML)
	if _, err := os.Stat(dest); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	data := pageData{
		Site: siteData{
			Title:       opts.SiteTitle,
			Nav:         nav,
			BaseURL:     strings.TrimRight(opts.BaseURL, "/"),
			GeneratedAt: generatedAt,
		},
		Page: pageViewData{
			Title: opts.SiteTitle,
			Path:  "",
			HTML:  template.HTML(`<p>No root page was found. Add a document at the source root and re-export.</p>`), //nolint:gosec // fixed fallback content
		},
		AssetPrefix: opts.AssetPrefix,
	}
	return e.writePage(outputDir, indexHTML, data)
}

func (e *Exporter) writePage(outputDir, rel string, data pageData) error {
	dest := filepath.Join(outputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil { //nolint:gosec // standard directory permissions
		return err
	}
	buf := bytes.Buffer{}
	if err := e.templates.render(&buf, "layout", data); err != nil {
		return err
	}
	return os.WriteFile(dest, buf.Bytes(), 0o644) //nolint:gosec // standard file permissions
}

func writeNavJSON(outputDir string, nav []site.NavItem) error {
	raw, err := json.MarshalIndent(nav, "", "  ")
	if err != nil {
		return fmt.Errorf("encode nav json: %w", err)
	}
	dest := filepath.Join(outputDir, "nav.json")
	if err := os.WriteFile(dest, raw, 0o644); err != nil { //nolint:gosec // standard file permissions
		return fmt.Errorf("write nav.json: %w", err)
	}
	return nil
}

func toHTMLRel(urlPath string) string {
	clean := strings.Trim(urlPath, "/")
	if clean == "" {
		return indexHTML
	}
	return clean + ".html"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func titleFromPath(p string) string {
	base := filepath.Base(p)
	base = strings.ReplaceAll(base, "_", " ")
	parts := strings.Split(base, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return strings.Join(parts, " ")
}
