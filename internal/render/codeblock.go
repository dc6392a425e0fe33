package render

import (
	"bytes"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// CodeBlockContext is everything a CodeBlockProcessor needs to decide how
// to handle one fenced code block.
type CodeBlockContext struct {
	Language string
	Attrs    map[string]string
	Source   string
	Index    int
}

// ProcessResult is what a CodeBlockProcessor returns for a handled block.
// Exactly one of Placeholder/HTML is meaningful, selected by the
// Placeholder flag.
type ProcessResult struct {
	// Placeholder selects deferred rendering: Token is emitted verbatim in
	// place and the processor's PostProcess substitutes the final content
	// once it's ready (e.g. an async diagram render).
	Placeholder bool
	Token       string

	// HTML is emitted immediately when Placeholder is false.
	HTML string
}

// CodeBlockProcessor handles fenced code blocks for languages it
// recognizes. Process returns handled=false (pass-through) to let the next
// processor, or the backend's default renderer, take the block instead.
// PostProcess runs once per document after the full HTML/XHTML body has
// been assembled, substituting any placeholder tokens this processor
// emitted with their final content.
type CodeBlockProcessor interface {
	Process(ctx CodeBlockContext) (ProcessResult, bool)
	PostProcess(html string) string
}

// ChromaHighlighter is the default code-block processor: syntax
// highlighting via chroma, falling through (handled=false) for languages
// chroma can't lex so the backend's plain <pre><code> fallback applies.
type ChromaHighlighter struct {
	Style string
}

// NewChromaHighlighter constructs a ChromaHighlighter using styleName, or
// "github-dark" if styleName is empty.
func NewChromaHighlighter(styleName string) *ChromaHighlighter {
	if styleName == "" {
		styleName = "github-dark"
	}
	return &ChromaHighlighter{Style: styleName}
}

func (c *ChromaHighlighter) Process(ctx CodeBlockContext) (ProcessResult, bool) {
	if ctx.Language == "" {
		return ProcessResult{}, false
	}
	lexer := lexers.Get(ctx.Language)
	if lexer == nil {
		return ProcessResult{}, false
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(c.Style)
	if style == nil {
		style = styles.Fallback
	}
	formatter := html.New(
		html.WithClasses(true),
		html.WithLineNumbers(false),
		html.WithPreWrapper(langPreWrapper{lang: ctx.Language}),
	)

	iterator, err := lexer.Tokenise(nil, ctx.Source)
	if err != nil {
		return ProcessResult{}, false
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return ProcessResult{}, false
	}
	buf.WriteString("\n")

	return ProcessResult{HTML: buf.String()}, true
}

// langPreWrapper replaces chroma's default <pre class="chroma"> wrapper so
// highlighted blocks carry the same language-tagged <pre><code> shape as the
// backend's plain fallback.
type langPreWrapper struct {
	lang string
}

func (w langPreWrapper) Start(code bool, styleAttr string) string {
	if code {
		return `<pre` + styleAttr + `><code class="language-` + escapeAttr(w.lang) + `">`
	}
	return `<pre` + styleAttr + `>`
}

func (w langPreWrapper) End(code bool) string {
	if code {
		return "</code></pre>"
	}
	return "</pre>"
}

func (c *ChromaHighlighter) PostProcess(htmlStr string) string { return htmlStr }
