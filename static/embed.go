// Package static embeds the docstage frontend asset bundle (app CSS/JS, the
// live-reload client, vendored chroma stylesheets) and exposes it both to the
// HTTP server and to the static-site exporter's copy step.
package static

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

//go:embed css/*.css js/*.js js/chunks/*.js vendor/*
var assets embed.FS

// FS exposes the embedded asset tree.
func FS() fs.FS {
	return assets
}

// HTTP returns an http.FileSystem over the embedded assets, for mounting
// under the server's asset route.
func HTTP() http.FileSystem {
	return http.FS(assets)
}

// Has reports whether name (with or without a leading slash) exists in the
// embedded bundle.
func Has(name string) bool {
	f, err := assets.Open(strings.TrimPrefix(name, "/"))
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// CopyAll materializes the whole embedded bundle under dest, preserving the
// relative layout. Used by the static-site exporter.
func CopyAll(dest string) error {
	return fs.WalkDir(assets, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(assets, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, path)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil { //nolint:gosec // standard directory permissions
			return err
		}
		return os.WriteFile(target, data, 0o644) //nolint:gosec // standard file permissions
	})
}
