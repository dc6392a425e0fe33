package diagrams

import (
	"fmt"
	"regexp"
	"strconv"
)

// StandardDPI is the DPI at which no scaling is needed (matches typical
// non-retina display density).
const StandardDPI = 96

// DefaultDPI is used for diagram rendering when no DPI is configured,
// producing crisp output on retina displays.
const DefaultDPI = 192

var (
	googleFontsRe = regexp.MustCompile(`@import\s+url\([^)]*fonts\.googleapis\.com[^)]*\)\s*;?`)
	svgWidthRe    = regexp.MustCompile(`(<svg[^>]*\s)width="(\d+)(?:px)?"`)
	svgHeightRe   = regexp.MustCompile(`(<svg[^>]*\s)height="(\d+)(?:px)?"`)
	styleWidthRe  = regexp.MustCompile(`(width:\s*)(\d+)(px)`)
	styleHeightRe = regexp.MustCompile(`(height:\s*)(\d+)(px)`)
)

// ScaleSVGDimensions scales an SVG's width/height (both XML attributes and
// inline style properties) so a diagram rendered at dpi displays at its
// intended physical size on a StandardDPI display. At StandardDPI the SVG
// is returned unchanged.
func ScaleSVGDimensions(svg string, dpi uint32) string {
	if dpi == 0 {
		dpi = DefaultDPI
	}
	if dpi == StandardDPI {
		return svg
	}
	scale := float64(StandardDPI) / float64(dpi)

	scaleDim := func(groups []string) string {
		v, _ := strconv.ParseFloat(groups[2], 64)
		return strconv.Itoa(int(roundHalfAwayFromZero(v * scale)))
	}

	result := replaceAllGroups(svgWidthRe, svg, func(g []string) string {
		return g[1] + `width="` + scaleDim(g) + `"`
	})
	result = replaceAllGroups(svgHeightRe, result, func(g []string) string {
		return g[1] + `height="` + scaleDim(g) + `"`
	})
	result = replaceAllGroups(styleWidthRe, result, func(g []string) string {
		return g[1] + scaleDim(g) + g[3]
	})
	result = replaceAllGroups(styleHeightRe, result, func(g []string) string {
		return g[1] + scaleDim(g) + g[3]
	})
	return result
}

func roundHalfAwayFromZero(v float64) int64 {
	if v >= 0 {
		return int64(v + 0.5)
	}
	return int64(v - 0.5)
}

// replaceAllGroups applies re.ReplaceAllStringFunc but hands the callback
// the full set of submatch groups instead of just the whole match.
func replaceAllGroups(re *regexp.Regexp, s string, fn func(groups []string) string) string {
	return re.ReplaceAllStringFunc(s, func(match string) string {
		groups := re.FindStringSubmatch(match)
		return fn(groups)
	})
}

// StripGoogleFontsImport removes a PlantUML-embedded Google Fonts @import,
// since the font is bundled locally and the import would trigger an
// external request from the rendered page.
func StripGoogleFontsImport(svg string) string {
	return googleFontsRe.ReplaceAllString(svg, "")
}

// Placeholder returns the `{{DIAGRAM_N}}` marker a renderer emits in place
// of a diagram awaiting async rendering.
func Placeholder(index int) string {
	return fmt.Sprintf("{{DIAGRAM_%d}}", index)
}

// SVGFigure wraps a rendered SVG diagram for embedding into HTML, stripping
// the Google Fonts import and scaling its dimensions for dpi.
func SVGFigure(svg string, dpi uint32) string {
	clean := StripGoogleFontsImport(svg)
	scaled := ScaleSVGDimensions(clean, dpi)
	return fmt.Sprintf(`<figure class="diagram">%s</figure>`, scaled)
}

// PNGFigure wraps a rendered PNG data URI for embedding into HTML.
func PNGFigure(dataURI string) string {
	return fmt.Sprintf(`<figure class="diagram"><img src="%s" alt="diagram"></figure>`, dataURI)
}
