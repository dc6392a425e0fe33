package render

import "strings"

// escaper HTML-escapes the five reserved characters. All content text is
// escaped this way before emission, except inside Confluence's code-macro
// CDATA bodies, which are emitted verbatim.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// escapeText HTML-escapes body text.
func escapeText(s string) string {
	return escaper.Replace(s)
}

// escapeAttr HTML-escapes an attribute value.
func escapeAttr(s string) string {
	return escaper.Replace(s)
}
