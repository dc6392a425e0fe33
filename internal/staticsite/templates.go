package staticsite

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/euforicio/docstage/internal/render"
	"github.com/euforicio/docstage/internal/site"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

type templateRenderer struct {
	tmpl *template.Template
}

func newTemplateRenderer() (*templateRenderer, error) {
	funcs := template.FuncMap{
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006 3:04 PM MST")
		},
		"isActive": func(active, candidate string) bool {
			return active == candidate
		},
	}
	tmpl, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}
	return &templateRenderer{tmpl: tmpl}, nil
}

func (r *templateRenderer) render(w io.Writer, name string, data any) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

type siteData struct {
	Title       string
	Nav         []site.NavItem
	BaseURL     string
	GeneratedAt time.Time
}

type pageViewData struct {
	Path        string
	Title       string
	HTML        template.HTML
	Canonical   string
	Breadcrumbs []site.Breadcrumb
	Toc         []render.TocEntry
}

type pageData struct {
	Site        siteData
	Page        pageViewData
	AssetPrefix string
}
