// Package diagrams renders fenced diagram code blocks (PlantUML, Mermaid,
// Graphviz, ...) through a Kroki HTTP service and embeds the result into
// rendered page HTML.
package diagrams

import "strings"

// Language identifies a diagram source language understood by Kroki.
type Language string

const (
	PlantUML   Language = "plantuml"
	C4PlantUML Language = "c4plantuml"
	Mermaid    Language = "mermaid"
	Graphviz   Language = "graphviz"
	Ditaa      Language = "ditaa"
	BlockDiag  Language = "blockdiag"
	SeqDiag    Language = "seqdiag"
	ActDiag    Language = "actdiag"
	NwDiag     Language = "nwdiag"
	PacketDiag Language = "packetdiag"
	RackDiag   Language = "rackdiag"
	ERD        Language = "erd"
	Nomnoml    Language = "nomnoml"
	Svgbob     Language = "svgbob"
	Vega       Language = "vega"
	VegaLite   Language = "vegalite"
	WaveDrom   Language = "wavedrom"
)

// kroki maps a Language to the path segment Kroki expects where one is
// listed; every other language uses its own name. The "dot" fence tag is
// resolved to Graphviz at detection time, so it reaches Kroki as "graphviz".
var kroki = map[Language]string{
	Graphviz: "graphviz",
}

// Endpoint returns the Kroki URL path segment for this language.
func (l Language) Endpoint() string {
	if ep, ok := kroki[l]; ok {
		return ep
	}
	return string(l)
}

// needsPlantUMLPreprocessing reports whether a language's source must go
// through !include resolution and dpi/config injection before rendering.
func (l Language) needsPlantUMLPreprocessing() bool {
	return l == PlantUML || l == C4PlantUML
}

// NeedsPlantUMLPreprocessing reports whether a language's source must go
// through !include resolution and dpi/config injection before rendering.
func NeedsPlantUMLPreprocessing(l Language) bool {
	return l.needsPlantUMLPreprocessing()
}

// languagesByTag is the closed set of recognized fence tags, mapping each
// alias to its canonical Language.
var languagesByTag = map[string]Language{
	"plantuml":   PlantUML,
	"puml":       PlantUML,
	"uml":        PlantUML,
	"c4plantuml": C4PlantUML,
	"mermaid":    Mermaid,
	"graphviz":   Graphviz,
	"dot":        Graphviz,
	"ditaa":      Ditaa,
	"blockdiag":  BlockDiag,
	"seqdiag":    SeqDiag,
	"actdiag":    ActDiag,
	"nwdiag":     NwDiag,
	"packetdiag": PacketDiag,
	"rackdiag":   RackDiag,
	"erd":        ERD,
	"nomnoml":    Nomnoml,
	"svgbob":     Svgbob,
	"vega":       Vega,
	"vegalite":   VegaLite,
	"wavedrom":   WaveDrom,
}

// DetectLanguage maps a fenced code block's info string to a diagram
// Language. An optional "kroki-" prefix is stripped before matching. ok is
// false when the fence (after stripping) isn't in the closed set, in which
// case the block should fall through to syntax-highlighted rendering.
func DetectLanguage(fence string) (Language, bool) {
	tag := strings.ToLower(strings.TrimSpace(fence))
	tag = strings.TrimPrefix(tag, "kroki-")

	lang, ok := languagesByTag[tag]
	return lang, ok
}
