package confluence

import "strings"

// namedEntities holds the common HTML named character references that are
// not also valid XML entities. The five XML predefined entities (lt, gt,
// amp, apos, quot) and numeric references are left untouched here; they are
// handled natively by the XML parser's general-reference decoding.
var namedEntities = map[string]string{
	"nbsp":    " ",
	"mdash":   "—",
	"ndash":   "–",
	"hellip":  "…",
	"lsquo":   "‘",
	"rsquo":   "’",
	"ldquo":   "“",
	"rdquo":   "”",
	"trade":   "™",
	"reg":     "®",
	"copy":    "©",
	"deg":     "°",
	"plusmn":  "±",
	"times":   "×",
	"divide":  "÷",
	"euro":    "€",
	"pound":   "£",
	"yen":     "¥",
	"cent":    "¢",
	"sect":    "§",
	"para":    "¶",
	"middot":  "·",
	"laquo":   "«",
	"raquo":   "»",
	"bull":    "•",
	"dagger":  "†",
	"Dagger":  "‡",
	"permil":  "‰",
	"larr":    "←",
	"rarr":    "→",
	"uarr":    "↑",
	"darr":    "↓",
}

// convertHTMLEntities replaces HTML named entities the XML parser doesn't
// understand on its own with their literal Unicode characters, leaving the
// five XML predefined entities alone so the parser can decode them as
// entity references.
func convertHTMLEntities(html string) string {
	var b strings.Builder
	b.Grow(len(html))

	i := 0
	for i < len(html) {
		if html[i] != '&' {
			b.WriteByte(html[i])
			i++
			continue
		}

		end := strings.IndexByte(html[i:], ';')
		if end < 0 || end > 32 {
			b.WriteByte(html[i])
			i++
			continue
		}

		name := html[i+1 : i+end]
		if repl, ok := namedEntities[name]; ok {
			b.WriteString(repl)
			i += end + 1
			continue
		}

		b.WriteByte(html[i])
		i++
	}

	return b.String()
}
