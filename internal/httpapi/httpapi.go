// Package httpapi exposes the render and navigation core as HTTP and
// WebSocket endpoints: page render, navigation tree, and live-reload
// notifications. It never touches storage or the render pipeline directly,
// only the pagerenderer/site/livereload services passed in at construction.
package httpapi

import (
	"crypto/md5" //nolint:gosec // used for an ETag fingerprint, not for security
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/euforicio/docstage/internal/livereload"
	"github.com/euforicio/docstage/internal/pagerenderer"
	"github.com/euforicio/docstage/internal/site"
	"github.com/gorilla/websocket"
)

// pageMeta is the "meta" object inside a /api/pages/{url_path} response.
type pageMeta struct {
	Title        string         `json:"title,omitempty"`
	Path         string         `json:"path"`
	SourceFile   string         `json:"source_file"`
	LastModified string         `json:"last_modified"`
	Description  string         `json:"description,omitempty"`
	Type         string         `json:"type,omitempty"`
	Vars         map[string]any `json:"vars,omitempty"`
}

type pageResponse struct {
	Meta        pageMeta          `json:"meta"`
	Breadcrumbs []site.Breadcrumb `json:"breadcrumbs"`
	Toc         []tocEntryJSON    `json:"toc"`
	Content     string            `json:"content"`
}

type tocEntryJSON struct {
	Level int    `json:"level"`
	Title string `json:"title"`
	ID    string `json:"id"`
}

// Handler serves the documentation HTTP API. Its site snapshot is swapped
// atomically by SetSite on every reload; readers never block a writer and
// vice versa.
type Handler struct {
	renderer *pagerenderer.Renderer
	hub      *livereload.Hub
	version  string
	logger   *slog.Logger
	upgrader websocket.Upgrader

	site atomic.Pointer[site.State]
}

// New constructs a Handler. version is mixed into the page ETag so a
// binary upgrade invalidates every client's cached page even if the
// underlying file didn't change.
func New(renderer *pagerenderer.Renderer, hub *livereload.Hub, version string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		renderer: renderer,
		hub:      hub,
		version:  version,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// SetSite installs the current site snapshot, consulted by every handler.
func (h *Handler) SetSite(st *site.State) {
	h.site.Store(st)
}

// Routes returns a ServeMux with every endpoint registered, ready to be
// mounted (directly, or under a prefix) by the owning server.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pages/{path...}", h.handlePage)
	mux.HandleFunc("GET /api/pages/{$}", h.handleRootPage)
	mux.HandleFunc("GET /api/nav", h.handleNav)
	mux.HandleFunc("GET /api/reload", h.handleReload)
	return mux
}

func (h *Handler) handleRootPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "")
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, strings.Trim(r.PathValue("path"), "/"))
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, urlPath string) {
	st := h.site.Load()
	if st == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "site not yet loaded"})
		return
	}

	pg, ok := st.Page(urlPath)
	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "page not found"})
		return
	}

	breadcrumbs := st.Breadcrumbs(urlPath)
	result, err := h.renderer.Render(r.Context(), urlPath, pg, breadcrumbs)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "render page failed", "path", urlPath, "err", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}

	etag := pageETag(h.version, result.HTML)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	meta := pageMeta{
		Title:        result.Title,
		Path:         urlPath,
		SourceFile:   urlPath + ".md",
		LastModified: formatMtime(result.SourceMtime),
	}
	if result.Metadata != nil {
		meta.Description = result.Metadata.Description
		meta.Type = result.Metadata.PageType
		meta.Vars = result.Metadata.Vars
	}

	toc := make([]tocEntryJSON, len(result.Toc))
	for i, e := range result.Toc {
		toc[i] = tocEntryJSON{Level: e.Level, Title: e.Title, ID: e.ID}
	}

	w.Header().Set("ETag", etag)
	respondJSON(w, http.StatusOK, pageResponse{
		Meta:        meta,
		Breadcrumbs: nonNilBreadcrumbs(breadcrumbs),
		Toc:         toc,
		Content:     result.HTML,
	})
}

func nonNilBreadcrumbs(b []site.Breadcrumb) []site.Breadcrumb {
	if b == nil {
		return []site.Breadcrumb{}
	}
	return b
}

func (h *Handler) handleNav(w http.ResponseWriter, _ *http.Request) {
	st := h.site.Load()
	if st == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "site not yet loaded"})
		return
	}
	respondJSON(w, http.StatusOK, st.BuildNavigation())
}

// reloadMessage is the JSON frame pushed to every subscribed client.
type reloadMessage struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	id, events := h.hub.Subscribe()
	defer h.hub.Unsubscribe(id)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			msg := reloadMessage{Type: "reload", Path: ev.Path}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "err", err)
	}
}

// pageETag computes a quoted 16-hex-char MD5 fingerprint of "version:html".
func pageETag(version, html string) string {
	sum := md5.Sum([]byte(version + ":" + html)) //nolint:gosec // fingerprint, not a security boundary
	return fmt.Sprintf(`"%x"`, sum[:8])
}

func formatMtime(unixSeconds float64) string {
	if unixSeconds == 0 {
		return ""
	}
	sec := int64(unixSeconds)
	nsec := int64((unixSeconds - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC().Format(time.RFC3339)
}
