package diagrams

import (
	"sync"

	"github.com/euforicio/docstage/internal/render"
)

// ExtractedDiagram is a fenced diagram code block found during rendering,
// in document order, awaiting asynchronous Kroki rendering.
type ExtractedDiagram struct {
	Index    int
	Source   string
	Language Language
	Format   string // "svg" or "png"
}

// MetaIncludeResolver looks up a typed page's title for a PlantUML
// `!include` directive referencing it by type and name. The site package's
// typed-page registry implements it, injected here so diagrams doesn't
// depend on site directly.
type MetaIncludeResolver func(pageType, normalizedName string) (title string, ok bool)

// Processor is a render.CodeBlockProcessor that detects diagram-language
// fenced code blocks, emits a `{{DIAGRAM_N}}` placeholder for each, and
// records them for the caller to render through a Client once the
// surrounding document has finished its synchronous render pass. Kroki
// rendering requires network I/O, so unlike a typical CodeBlockProcessor,
// Processor.PostProcess is a no-op — the orchestrator (internal/pagerenderer)
// performs the placeholder substitution itself after awaiting the batch.
type Processor struct {
	IncludeDirs  []string
	ConfigFile   string
	DPI          uint32
	MetaIncludes MetaIncludeResolver

	mu        sync.Mutex
	extracted []ExtractedDiagram
}

// NewProcessor constructs a Processor. dpi defaults to DefaultDPI when 0.
func NewProcessor(includeDirs []string, configFile string, dpi uint32) *Processor {
	if dpi == 0 {
		dpi = DefaultDPI
	}
	return &Processor{IncludeDirs: includeDirs, ConfigFile: configFile, DPI: dpi}
}

var _ render.CodeBlockProcessor = (*Processor)(nil)

// Process detects a diagram-language fence and defers it to the batch
// render, returning handled=false (pass-through) for any other language so
// the next processor (typically syntax highlighting) takes the block.
func (p *Processor) Process(ctx render.CodeBlockContext) (render.ProcessResult, bool) {
	lang, ok := DetectLanguage(ctx.Language)
	if !ok {
		return render.ProcessResult{}, false
	}

	format := ctx.Attrs["format"]
	if format != "svg" && format != "png" {
		format = "svg"
	}

	p.mu.Lock()
	idx := len(p.extracted)
	p.extracted = append(p.extracted, ExtractedDiagram{
		Index:    idx,
		Source:   ctx.Source,
		Language: lang,
		Format:   format,
	})
	p.mu.Unlock()

	return render.ProcessResult{Placeholder: true, Token: Placeholder(idx)}, true
}

// PostProcess is a no-op: diagram placeholders are substituted by the page
// renderer after the Kroki batch completes, not during the synchronous
// render pass.
func (p *Processor) PostProcess(html string) string { return html }

// Extracted returns every diagram recorded by Process, in document order.
func (p *Processor) Extracted() []ExtractedDiagram {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ExtractedDiagram(nil), p.extracted...)
}

// Prepare resolves PlantUML preprocessing (for languages that need it) on
// every extracted diagram and returns Kroki-ready requests plus any
// preprocessing warnings collected along the way.
func (p *Processor) Prepare() (reqs []Request, warnings []string) {
	var configContent string
	if p.ConfigFile != "" {
		if content, ok := LoadConfigFile(p.IncludeDirs, p.ConfigFile); ok {
			configContent = content
		}
	}

	for _, d := range p.Extracted() {
		source := d.Source
		if NeedsPlantUMLPreprocessing(d.Language) {
			prepared := PrepareDiagramSourceWithResolver(source, p.IncludeDirs, configContent, p.DPI, p.MetaIncludes)
			source = prepared.Source
			warnings = append(warnings, prepared.Warnings...)
		}
		reqs = append(reqs, Request{Index: d.Index, Source: source, Language: d.Language})
	}
	return reqs, warnings
}
