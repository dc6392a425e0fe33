package confluence

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Publisher is the seam between this package's comment-preservation
// algorithm and an actual Confluence space. Authenticating against and
// pushing to that space (OAuth signing, the REST call itself) is out of
// scope: callers wanting a real Confluence backend implement Publisher
// themselves; this package only consumes it.
type Publisher interface {
	// Previous returns the XHTML last published for urlPath, and whether a
	// previous publish exists at all.
	Previous(ctx context.Context, urlPath string) (xhtml string, ok bool, err error)

	// Publish records newXHTML as the page now published for urlPath.
	Publish(ctx context.Context, urlPath string, newXHTML string) error
}

// FilePublisher is a Publisher backed by flat files under a state
// directory, one file per page. It stands in for a real Confluence space
// in contexts (tests, the local publish CLI) that have no OAuth session to
// publish against.
type FilePublisher struct {
	dir string
}

// NewFilePublisher returns a FilePublisher rooted at dir. The directory is
// created on first Publish call if it doesn't already exist.
func NewFilePublisher(dir string) *FilePublisher {
	return &FilePublisher{dir: dir}
}

func (p *FilePublisher) Previous(_ context.Context, urlPath string) (string, bool, error) {
	data, err := os.ReadFile(p.path(urlPath)) //nolint:gosec // path derived from a discovered page path, not request input
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (p *FilePublisher) Publish(_ context.Context, urlPath string, newXHTML string) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil { //nolint:gosec // operator-controlled state directory
		return err
	}
	return os.WriteFile(p.path(urlPath), []byte(newXHTML), 0o644) //nolint:gosec // standard file permissions
}

func (p *FilePublisher) path(urlPath string) string {
	return filepath.Join(p.dir, snapshotFilename(urlPath))
}

// snapshotFilename maps a URL path to a flat, filesystem-safe file name.
func snapshotFilename(urlPath string) string {
	if urlPath == "" {
		return "_root.xhtml"
	}
	return strings.ReplaceAll(urlPath, "/", "__") + ".xhtml"
}
