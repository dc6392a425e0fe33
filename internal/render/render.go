// Package render drives a single Markdown event stream through a
// backend-polymorphic emitter: the same Goldmark-parsed AST produces either
// browser HTML or Confluence storage-format XHTML, sharing heading/code/
// table/image state machines, a pluggable code-block processor registry,
// and a container-directive (tabs) post-processing pass.
package render

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Backend selects which output format a Pipeline emits.
type Backend int

const (
	// HTML emits browser-ready HTML5.
	HTML Backend = iota
	// Confluence emits Confluence storage-format XHTML.
	Confluence
)

// TocEntry is one heading captured into a document's table of contents.
type TocEntry struct {
	Level int
	Title string
	ID    string
}

// Result is the output of rendering one document.
type Result struct {
	HTML     string
	Title    string
	Toc      []TocEntry
	Warnings []string
}

// Config configures a Pipeline. The zero value is a usable HTML pipeline
// with title extraction disabled and no code processors.
type Config struct {
	// Backend selects HTML or Confluence emission.
	Backend Backend

	// BasePath is the URL path of the page being rendered, used by the
	// HTML backend to resolve relative ".md" links against.
	BasePath string

	// ExtractTitle, when true, captures the document's first H1 into
	// Result.Title and omits it from the table of contents.
	ExtractTitle bool

	// TitleAsMetadata, when true (always true for the Confluence backend),
	// additionally omits the extracted title from the rendered output
	// entirely and shifts every subsequent heading level up by one.
	TitleAsMetadata bool

	// CodeProcessors are consulted, in order, for every fenced code block.
	// The first one to return a non-pass-through result wins.
	CodeProcessors []CodeBlockProcessor

	// TabsStaticMode selects the radio-input CSS-only tab widget instead
	// of the default ARIA/JS-driven one.
	TabsStaticMode bool
}

// Pipeline renders Markdown source into HTML or Confluence XHTML according
// to its Config. A Pipeline is safe for reuse across documents but not for
// concurrent use by multiple goroutines (Render is not reentrant on a
// shared instance; construct one Pipeline per render call or guard it).
type Pipeline struct {
	cfg Config
	md  goldmark.Markdown
	be  backend
}

// New constructs a Pipeline for cfg.
func New(cfg Config) *Pipeline {
	if cfg.Backend == Confluence {
		cfg.TitleAsMetadata = true
	}
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var be backend
	if cfg.Backend == Confluence {
		be = confluenceBackend{}
	} else {
		be = htmlBackend{basePath: cfg.BasePath}
	}

	return &Pipeline{cfg: cfg, md: md, be: be}
}

// Render converts source into the configured backend's output. Parsing and
// rendering failures never propagate: malformed input degrades to warnings
// on the returned Result, matching the pipeline's never-abort failure
// semantics.
func (p *Pipeline) Render(source string) (Result, error) {
	processed, blocks, warnings := extractDirectives(source)

	reader := text.NewReader([]byte(processed))
	doc := p.md.Parser().Parse(reader)

	w := &walker{
		cfg:        p.cfg,
		be:         p.be,
		source:     []byte(processed),
		headingIDs: map[string]int{},
		skip:       map[ast.Node]bool{},
	}
	w.walk(doc)
	warnings = append(warnings, w.warnings...)

	html := w.buf.String()
	html, dwarn := p.expandDirectives(html, blocks)
	warnings = append(warnings, dwarn...)

	for _, proc := range p.cfg.CodeProcessors {
		html = proc.PostProcess(html)
	}

	return Result{HTML: html, Title: w.title, Toc: w.toc, Warnings: warnings}, nil
}

// walker drives a single depth-first pass over a Goldmark AST, carrying the
// heading/title, table, and code-block state shared by both backends and
// dispatching backend-specific emission through be.
type walker struct {
	cfg    Config
	be     backend
	source []byte
	buf    strings.Builder

	warnings []string

	// heading / title state
	title         string
	titleCaptured bool
	toc           []TocEntry
	headingIDs    map[string]int

	// suppression: when > 0, writes are dropped (used to consume the
	// extracted title heading in TitleAsMetadata mode).
	suppress int

	// nodes to skip entirely during the generic inline walk (GFM alert
	// marker text).
	skip map[ast.Node]bool

	// table state
	inTableHead bool

	codeIndex int
}

func (w *walker) write(s string) {
	if w.suppress > 0 {
		return
	}
	w.buf.WriteString(s)
}

func (w *walker) walk(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if w.skip[c] {
			continue
		}
		w.visit(c)
	}
}

func (w *walker) visit(n ast.Node) {
	switch node := n.(type) {
	case *ast.Heading:
		w.visitHeading(node)
	case *ast.Paragraph:
		tight := isTightListParagraph(node)
		if !tight {
			w.write("<p>")
		}
		w.walk(node)
		if !tight {
			w.write("</p>\n")
		}
	case *ast.TextBlock:
		w.walk(node)
		w.write("\n")
	case *ast.Blockquote:
		w.visitBlockquote(node)
	case *ast.List:
		tag := "ul"
		if node.IsOrdered() {
			tag = "ol"
		}
		w.write("<" + tag + ">\n")
		w.walk(node)
		w.write("</" + tag + ">\n")
	case *ast.ListItem:
		w.write("<li>")
		w.walk(node)
		w.write("</li>\n")
	case *ast.ThematicBreak:
		w.write("<hr>\n")
	case *ast.CodeBlock:
		w.visitCodeBlock("", node.Lines())
	case *ast.FencedCodeBlock:
		// The full info string, not just Language(): attrs after the
		// language word ("plantuml format=png") go to the processors.
		info := ""
		if node.Info != nil {
			info = string(node.Info.Segment.Value(w.source))
		}
		w.visitCodeBlock(info, node.Lines())
	case *ast.HTMLBlock:
		w.visitHTMLBlock(node)
	case *ast.Text:
		w.visitText(node)
	case *ast.String:
		w.write(escapeText(string(node.Value)))
	case *ast.CodeSpan:
		w.write("<code>")
		w.write(escapeText(plainText(node, w.source)))
		w.write("</code>")
	case *ast.Emphasis:
		tag := "em"
		if node.Level == 2 {
			tag = "strong"
		}
		w.write("<" + tag + ">")
		w.walk(node)
		w.write("</" + tag + ">")
	case *ast.AutoLink:
		dest := string(node.URL(w.source))
		label := escapeText(string(node.Label(w.source)))
		w.write(`<a href="` + escapeAttr(dest) + `">` + label + `</a>`)
	case *ast.Link:
		w.visitLink(node)
	case *ast.Image:
		w.visitImage(node)
	case *ast.RawHTML:
		w.visitRawHTMLInline(node)
	case *extast.Strikethrough:
		w.write("<del>")
		w.walk(node)
		w.write("</del>")
	case *extast.TaskCheckBox:
		if node.IsChecked {
			w.write(`<input type="checkbox" checked disabled> `)
		} else {
			w.write(`<input type="checkbox" disabled> `)
		}
	case *extast.Table:
		w.visitTable(node)
	case *extast.TableHeader:
		w.inTableHead = true
		w.write("<thead>\n<tr>\n")
		w.walk(node)
		w.write("</tr>\n</thead>\n")
		w.inTableHead = false
	case *extast.TableRow:
		w.write("<tr>\n")
		w.walk(node)
		w.write("</tr>\n")
	case *extast.TableCell:
		w.visitTableCell(node)
	default:
		w.walk(n)
	}
}

func isTightListParagraph(p *ast.Paragraph) bool {
	item, ok := p.Parent().(*ast.ListItem)
	if !ok {
		return false
	}
	list, ok := item.Parent().(*ast.List)
	if !ok {
		return false
	}
	return list.IsTight && p.Parent().FirstChild() == p && p.NextSibling() == nil
}

func (w *walker) visitText(n *ast.Text) {
	w.write(escapeText(string(n.Segment.Value(w.source))))
	if n.SoftLineBreak() {
		w.write("\n")
	}
	if n.HardLineBreak() {
		w.write("<br>\n")
	}
}

func (w *walker) visitHTMLBlock(n *ast.HTMLBlock) {
	for i := 0; i < n.Lines().Len(); i++ {
		seg := n.Lines().At(i)
		w.write(string(seg.Value(w.source)))
	}
	if n.HasClosure() {
		w.write(string(n.ClosureLine.Value(w.source)))
	}
}

func (w *walker) visitRawHTMLInline(n *ast.RawHTML) {
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		w.write(string(seg.Value(w.source)))
	}
}

func (w *walker) visitLink(n *ast.Link) {
	dest := w.be.linkHref(string(n.Destination), w.cfg.BasePath)
	w.write(`<a href="` + escapeAttr(dest) + `"`)
	if len(n.Title) > 0 {
		w.write(` title="` + escapeAttr(string(n.Title)) + `"`)
	}
	w.write(">")
	w.walk(n)
	w.write("</a>")
}

func (w *walker) visitImage(n *ast.Image) {
	alt := plainText(n, w.source)
	dest := string(n.Destination)
	title := string(n.Title)
	w.write(w.be.image(alt, title, dest))
}

func (w *walker) visitCodeBlock(info string, lines *text.Segments) {
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(w.source))
	}
	source := sb.String()

	words := strings.Fields(info)
	lang := ""
	attrsStr := ""
	if len(words) > 0 {
		lang = words[0]
		attrsStr = strings.Join(words[1:], " ")
	}
	attrs := parseCodeAttrs(attrsStr)

	idx := w.codeIndex
	w.codeIndex++

	for _, proc := range w.cfg.CodeProcessors {
		res, handled := proc.Process(CodeBlockContext{
			Language: lang,
			Attrs:    attrs,
			Source:   source,
			Index:    idx,
		})
		if handled {
			if res.Placeholder {
				w.write(res.Token)
			} else {
				w.write(res.HTML)
			}
			return
		}
	}

	w.write(w.be.codeBlock(lang, attrs, source))
}

// parseCodeAttrs parses a fenced code block's trailing info-string words
// ("language key=value key2=value2") into a flat attribute map.
func parseCodeAttrs(s string) map[string]string {
	attrs := map[string]string{}
	for _, field := range strings.Fields(s) {
		if eq := strings.IndexByte(field, '='); eq > 0 {
			attrs[field[:eq]] = strings.Trim(field[eq+1:], `"'`)
		}
	}
	return attrs
}

var alertKinds = map[string]string{
	"note":      "note",
	"tip":       "tip",
	"important": "important",
	"warning":   "warning",
	"caution":   "caution",
}

func (w *walker) visitBlockquote(n *ast.Blockquote) {
	if kind, markers, ok := detectAlert(n, w.source); ok {
		for _, m := range markers {
			w.skip[m] = true
		}
		w.write(w.be.blockquoteOpen(kind))
		w.walk(n)
		w.write(w.be.blockquoteClose(kind))
		return
	}
	w.write(w.be.blockquoteOpen(""))
	w.walk(n)
	w.write(w.be.blockquoteClose(""))
}

// detectAlert reports whether n is a GFM alert blockquote: its first child
// is a paragraph whose first line is exactly "[!KIND]" for a recognized
// kind. markers are the text nodes of that first line, suppressed from
// normal rendering; goldmark splits "[!KIND]" across several text nodes
// because "[" opens a potential link label.
func detectAlert(n *ast.Blockquote, source []byte) (kind string, markers []ast.Node, ok bool) {
	para, isPara := n.FirstChild().(*ast.Paragraph)
	if !isPara {
		return "", nil, false
	}
	var sb strings.Builder
	for c := para.FirstChild(); c != nil; c = c.NextSibling() {
		t, isText := c.(*ast.Text)
		if !isText {
			return "", nil, false
		}
		sb.Write(t.Segment.Value(source))
		markers = append(markers, t)
		if t.SoftLineBreak() || t.HardLineBreak() {
			break
		}
	}
	line := strings.TrimSpace(sb.String())
	if !strings.HasPrefix(line, "[!") || !strings.HasSuffix(line, "]") {
		return "", nil, false
	}
	name := strings.ToLower(line[2 : len(line)-1])
	k, known := alertKinds[name]
	if !known {
		return "", nil, false
	}
	return k, markers, true
}

func (w *walker) visitHeading(n *ast.Heading) {
	headingText := plainText(n, w.source)

	if w.cfg.ExtractTitle && !w.titleCaptured && n.Level == 1 {
		w.titleCaptured = true
		w.title = headingText
		if w.cfg.TitleAsMetadata {
			w.suppress++
			w.walk(n)
			w.suppress--
			return
		}
		id := w.assignHeadingID(headingText)
		w.write(w.be.headingOpen(n.Level, id))
		w.walk(n)
		w.write(w.be.headingClose(n.Level))
		return
	}

	level := n.Level
	if w.cfg.TitleAsMetadata && w.titleCaptured {
		level--
		if level < 1 {
			level = 1
		}
	}

	id := w.assignHeadingID(headingText)
	w.write(w.be.headingOpen(level, id))
	w.walk(n)
	w.write(w.be.headingClose(level))
	w.toc = append(w.toc, TocEntry{Level: level, Title: headingText, ID: id})
}

func (w *walker) assignHeadingID(title string) string {
	base := slugify(title)
	if base == "" {
		base = "section"
	}
	n := w.headingIDs[base]
	w.headingIDs[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n+1)
}

func (w *walker) visitTable(n *extast.Table) {
	w.write("<table>\n")
	w.walk(n)
	w.write("</table>\n")
}

func (w *walker) visitTableCell(n *extast.TableCell) {
	tag := "td"
	if w.inTableHead {
		tag = "th"
	}
	style := alignStyle(n.Alignment)
	if style != "" {
		w.write("<" + tag + ` style="` + style + `">`)
	} else {
		w.write("<" + tag + ">")
	}
	w.walk(n)
	w.write("</" + tag + ">\n")
}

func alignStyle(a extast.Alignment) string {
	switch a {
	case extast.AlignLeft:
		return "text-align: left"
	case extast.AlignRight:
		return "text-align: right"
	case extast.AlignCenter:
		return "text-align: center"
	default:
		return ""
	}
}

// plainText concatenates the literal text content of n and its inline
// descendants, ignoring markup — used for heading slugs, extracted titles,
// image alt text, and alert-marker detection.
func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		default:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				walk(c)
			}
		}
	}
	walk(n)
	return sb.String()
}
