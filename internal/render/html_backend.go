package render

import (
	"fmt"
	"strings"
)

// backend renders the pieces of output that diverge between HTML and
// Confluence XHTML: code blocks, block quotes/alerts, images, heading
// tags, and link hrefs. Everything else — paragraphs, emphasis, lists,
// tables — is shared structure the walker emits directly.
type backend interface {
	codeBlock(language string, attrs map[string]string, source string) string
	blockquoteOpen(alert string) string
	blockquoteClose(alert string) string
	image(alt, title, dest string) string
	headingOpen(level int, id string) string
	headingClose(level int) string
	linkHref(dest, basePath string) string
}

type htmlBackend struct {
	basePath string
}

func (htmlBackend) codeBlock(language string, _ map[string]string, source string) string {
	class := ""
	if language != "" {
		class = ` class="language-` + escapeAttr(language) + `"`
	}
	return "<pre><code" + class + ">" + escapeText(source) + "</code></pre>\n"
}

var alertLabels = map[string]string{
	"note":      "Note",
	"tip":       "Tip",
	"important": "Important",
	"warning":   "Warning",
	"caution":   "Caution",
}

// alertIcons maps each GFM alert kind to a small predefined SVG icon,
// matching GitHub's own alert rendering.
var alertIcons = map[string]string{
	"note":      `<svg viewBox="0 0 16 16" width="16" height="16" aria-hidden="true"><path d="M0 8a8 8 0 1 1 16 0A8 8 0 0 1 0 8Zm8-6.5a6.5 6.5 0 1 0 0 13 6.5 6.5 0 0 0 0-13ZM6.5 7.75A.75.75 0 0 1 7.25 7h1a.75.75 0 0 1 .75.75v2.75h.25a.75.75 0 0 1 0 1.5h-2a.75.75 0 0 1 0-1.5h.25v-2h-.25a.75.75 0 0 1-.75-.75ZM8 6a1 1 0 1 1 0-2 1 1 0 0 1 0 2Z"/></svg>`,
	"tip":       `<svg viewBox="0 0 16 16" width="16" height="16" aria-hidden="true"><path d="M8 1.5c-2.363 0-4 1.69-4 3.75 0 .984.424 1.625.984 2.304l.214.253c.223.264.47.556.673.848.284.411.537.856.621 1.345a.75.75 0 0 1-1.478.25c-.04-.237-.174-.499-.4-.826a9.57 9.57 0 0 0-.59-.743l-.2-.24C3.12 7.923 2.5 7.017 2.5 5.25 2.5 2.31 4.863 0 8 0s5.5 2.31 5.5 5.25c0 1.767-.62 2.673-1.324 3.49l-.2.24c-.216.25-.416.49-.59.744-.226.326-.36.589-.4.826a.75.75 0 1 1-1.478-.25c.084-.489.337-.934.621-1.345.203-.292.45-.584.673-.848l.214-.253c.56-.679.984-1.32.984-2.304 0-2.06-1.637-3.75-4-3.75ZM5.75 12h4.5a.75.75 0 0 1 0 1.5h-4.5a.75.75 0 0 1 0-1.5ZM6 15.25a.75.75 0 0 1 .75-.75h2.5a.75.75 0 0 1 0 1.5h-2.5a.75.75 0 0 1-.75-.75Z"/></svg>`,
	"important": `<svg viewBox="0 0 16 16" width="16" height="16" aria-hidden="true"><path d="M0 1.75C0 .784.784 0 1.75 0h12.5C15.216 0 16 .784 16 1.75v9.5A1.75 1.75 0 0 1 14.25 13H8.06l-2.573 2.573A.25.25 0 0 1 5.06 15.5v-2.5H1.75A1.75 1.75 0 0 1 0 11.25Zm7 2.75v2.5a.75.75 0 0 0 1.5 0v-2.5a.75.75 0 0 0-1.5 0ZM8 10a1 1 0 1 0 0-2 1 1 0 0 0 0 2Z"/></svg>`,
	"warning":   `<svg viewBox="0 0 16 16" width="16" height="16" aria-hidden="true"><path d="M6.457 1.047c.659-1.234 2.427-1.234 3.086 0l6.082 11.378A1.75 1.75 0 0 1 14.082 15H1.918a1.75 1.75 0 0 1-1.543-2.575Zm1.763 6.453v2.5a.75.75 0 0 0 1.5 0v-2.5a.75.75 0 0 0-1.5 0ZM9 12a1 1 0 1 0-2 0 1 1 0 0 0 2 0Z"/></svg>`,
	"caution":   `<svg viewBox="0 0 16 16" width="16" height="16" aria-hidden="true"><path d="M4.47.22A.749.749 0 0 1 5 0h6c.199 0 .389.079.53.22l4.25 4.25c.141.14.22.331.22.53v6a.749.749 0 0 1-.22.53l-4.25 4.25A.749.749 0 0 1 11 16H5a.749.749 0 0 1-.53-.22L.22 11.53A.749.749 0 0 1 0 11V5c0-.199.079-.389.22-.53Zm3.28 4.28v3.5a.75.75 0 0 0 1.5 0v-3.5a.75.75 0 0 0-1.5 0ZM8 11.5a1 1 0 1 0 0-2 1 1 0 0 0 0 2Z"/></svg>`,
}

func (htmlBackend) blockquoteOpen(alert string) string {
	if alert == "" {
		return "<blockquote>\n"
	}
	label := alertLabels[alert]
	icon := alertIcons[alert]
	return fmt.Sprintf(
		`<div class="alert alert-%s"><p class="alert-title">%s<span>%s</span></p>`,
		alert, icon, label,
	)
}

func (htmlBackend) blockquoteClose(alert string) string {
	if alert == "" {
		return "</blockquote>\n"
	}
	return "</div>\n"
}

func (htmlBackend) image(alt, title, dest string) string {
	attrs := `src="` + escapeAttr(dest) + `" alt="` + escapeAttr(alt) + `"`
	if title != "" {
		attrs += ` title="` + escapeAttr(title) + `"`
	}
	return "<img " + attrs + ">"
}

func (htmlBackend) headingOpen(level int, id string) string {
	return fmt.Sprintf(`<h%d id="%s">`, level, id)
}

func (htmlBackend) headingClose(level int) string {
	return fmt.Sprintf("</h%d>\n", level)
}

// linkHref rewrites a relative ".md" link against basePath:
// external/mailto/tel/fragment/non-".md" links pass through unchanged;
// otherwise the fragment is split off, the path resolved segment-by-segment
// against basePath (".." pops, never escaping below root), ".md" and a
// trailing "/index" stripped, and the result re-prefixed with "/".
func (htmlBackend) linkHref(dest, basePath string) string {
	return TransformLink(dest, basePath)
}

// TransformLink implements the HTML backend's relative-link rewriting rule
// in isolation so it can be exercised directly. Applying it to its own
// output is a no-op.
func TransformLink(dest, basePath string) string {
	if dest == "" || isExternalLink(dest) || strings.HasPrefix(dest, "#") {
		return dest
	}

	path, fragment, _ := strings.Cut(dest, "#")
	if !strings.HasSuffix(path, ".md") {
		return dest
	}

	// basePath is itself the directory relative links resolve against —
	// every page address doubles as the directory address for its own
	// content, mirroring the source tree's index.md convention.
	var dir []string
	if strings.HasPrefix(path, "/") {
		dir = nil
	} else if basePath != "" {
		dir = strings.Split(strings.Trim(basePath, "/"), "/")
	}

	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(dir) > 0 {
				dir = dir[:len(dir)-1]
			}
		default:
			dir = append(dir, seg)
		}
	}

	resolved := strings.Join(dir, "/")
	resolved = strings.TrimSuffix(resolved, ".md")
	resolved = strings.TrimSuffix(resolved, "/index")

	out := "/" + resolved
	if fragment != "" {
		out += "#" + fragment
	}
	return out
}

func isExternalLink(dest string) bool {
	lower := strings.ToLower(dest)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "//")
}
