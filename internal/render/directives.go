package render

import (
	"fmt"
	"strings"

	"github.com/euforicio/docstage/internal/render/directive"
)

// tabDef is one ":::tab[Label]{...}" container captured inside a
// ":::tabs" group, holding its raw (unrendered) nested Markdown.
type tabDef struct {
	Label string
	Body  string
}

// directiveBlock is a recognized ":::tabs" container extracted from the raw
// source before Goldmark parsing, replaced in-place by a placeholder
// paragraph token that expandDirectives substitutes after rendering.
type directiveBlock struct {
	Token string
	Tabs  []tabDef
}

// extractDirectives scans source line by line for ":::tabs" container
// directives (the only container directive this renderer recognizes; every
// other name, and any malformed container syntax, passes through as
// literal text). Each recognized group is replaced by a
// standalone placeholder paragraph and returned as a directiveBlock for
// expandDirectives to expand once the surrounding document has rendered.
func extractDirectives(source string) (processed string, blocks []directiveBlock, warnings []string) {
	lines := strings.Split(source, "\n")
	var out []string
	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		d, ok := directive.ParseContainerLine(trimmed)
		if !ok {
			out = append(out, lines[i])
			i++
			continue
		}
		switch d.Kind {
		case directive.ContainerStart:
			if !strings.EqualFold(d.Name, "tabs") {
				// unrecognized container name: pass through literally.
				out = append(out, lines[i])
				i++
				continue
			}
			tabs, end, warn := parseTabsGroup(lines, i+1)
			warnings = append(warnings, warn...)
			if end < 0 {
				warnings = append(warnings, "unclosed tabs container")
				out = append(out, lines[i])
				i++
				continue
			}
			if len(tabs) == 0 {
				warnings = append(warnings, "empty tab group")
				i = end + 1
				continue
			}
			token := fmt.Sprintf("{{DIRECTIVE_%d}}", len(blocks))
			blocks = append(blocks, directiveBlock{Token: token, Tabs: tabs})
			out = append(out, "", token, "")
			i = end + 1
		case directive.ContainerEnd:
			warnings = append(warnings, "stray container closing")
			i++
		default:
			out = append(out, lines[i])
			i++
		}
	}
	return strings.Join(out, "\n"), blocks, warnings
}

// parseTabsGroup parses the body of a ":::tabs" container starting at
// lines[start], collecting each nested ":::tab[Label]{...}" ... ":::"
// child. end is the index of the tabs container's own closing line, or -1
// if it's never closed.
func parseTabsGroup(lines []string, start int) (tabs []tabDef, end int, warnings []string) {
	depth := 0 // nested container depth *inside* the current tab, if any
	var cur *tabDef
	var body []string

	flush := func() {
		if cur != nil {
			cur.Body = strings.Join(body, "\n")
			tabs = append(tabs, *cur)
			cur = nil
			body = nil
		}
	}

	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if d, ok := directive.ParseContainerLine(trimmed); ok {
			switch d.Kind {
			case directive.ContainerStart:
				if depth == 0 && cur == nil && strings.EqualFold(d.Name, "tab") {
					cur = &tabDef{Label: d.Args.Content}
					body = nil
					continue
				}
				depth++
				if cur != nil {
					body = append(body, lines[i])
				}
			case directive.ContainerEnd:
				if depth > 0 {
					depth--
					if cur != nil {
						body = append(body, lines[i])
					}
					continue
				}
				if cur != nil {
					flush()
					continue
				}
				// closes the tabs container itself
				return tabs, i, warnings
			}
			continue
		}
		if cur != nil {
			body = append(body, lines[i])
		}
	}
	flush()
	return tabs, -1, warnings
}

// expandDirectives substitutes each directive token's placeholder paragraph
// with its final tab-widget HTML, rendering each tab's body through a
// fresh Pipeline sharing this one's configuration (minus title extraction,
// which only applies to the document's own leading H1).
func (p *Pipeline) expandDirectives(html string, blocks []directiveBlock) (string, []string) {
	if len(blocks) == 0 {
		return html, nil
	}

	var warnings []string
	nested := *p
	nestedCfg := p.cfg
	nestedCfg.ExtractTitle = false
	nested.cfg = nestedCfg

	for gi, block := range blocks {
		var panels []string
		for ti, tab := range block.Tabs {
			res, err := nested.Render(tab.Body)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("tab %q failed to render: %v", tab.Label, err))
				continue
			}
			warnings = append(warnings, res.Warnings...)
			panels = append(panels, renderedTabPanel{
				groupIndex: gi,
				tabIndex:   ti,
				label:      tab.Label,
				html:       res.HTML,
			}.render(p.cfg.TabsStaticMode))
		}
		widget := wrapTabWidget(gi, block.Tabs, panels, p.cfg.TabsStaticMode)
		marker := "<p>" + block.Token + "</p>"
		if strings.Contains(html, marker) {
			html = strings.Replace(html, marker, widget, 1)
		} else {
			html = strings.Replace(html, block.Token, widget, 1)
		}
	}
	return html, warnings
}

type renderedTabPanel struct {
	groupIndex, tabIndex int
	label, html          string
}

func (r renderedTabPanel) render(static bool) string {
	panelID := fmt.Sprintf("tab-%d-%d", r.groupIndex, r.tabIndex)
	btnID := fmt.Sprintf("tabbtn-%d-%d", r.groupIndex, r.tabIndex)
	if static {
		return fmt.Sprintf(`<div class="tabpanel" id=%q>%s</div>`, panelID, r.html)
	}
	hidden := ""
	if r.tabIndex != 0 {
		hidden = " hidden"
	}
	return fmt.Sprintf(
		`<div role="tabpanel" id=%q aria-labelledby=%q%s>%s</div>`,
		panelID, btnID, hidden, r.html,
	)
}

// wrapTabWidget assembles the tab button/radio row plus the rendered
// panels into the final widget markup: ARIA/JS tabs by default, or a
// radio-input CSS-only fallback when static is true.
func wrapTabWidget(groupIndex int, tabs []tabDef, panels []string, static bool) string {
	var sb strings.Builder
	if static {
		name := fmt.Sprintf("tabs-group-%d", groupIndex)
		sb.WriteString(`<div class="tabs tabs-static">`)
		for i, t := range tabs {
			id := fmt.Sprintf("%s-%d", name, i)
			checked := ""
			if i == 0 {
				checked = " checked"
			}
			sb.WriteString(fmt.Sprintf(`<input type="radio" class="tab-input" name=%q id=%q%s>`, name, id, checked))
			sb.WriteString(fmt.Sprintf(`<label class="tab-label" for=%q>%s</label>`, id, escapeText(t.Label)))
		}
		sb.WriteString(`<div class="tab-panels">`)
		for _, p := range panels {
			sb.WriteString(p)
		}
		sb.WriteString(`</div></div>`)
		return sb.String()
	}

	sb.WriteString(`<div class="tabs">`)
	sb.WriteString(`<div class="tab-list" role="tablist">`)
	for i, t := range tabs {
		btnID := fmt.Sprintf("tabbtn-%d-%d", groupIndex, i)
		panelID := fmt.Sprintf("tab-%d-%d", groupIndex, i)
		selected := "false"
		if i == 0 {
			selected = "true"
		}
		sb.WriteString(fmt.Sprintf(
			`<button role="tab" id=%q aria-controls=%q aria-selected=%q>%s</button>`,
			btnID, panelID, selected, escapeText(t.Label),
		))
	}
	sb.WriteString(`</div>`)
	for _, p := range panels {
		sb.WriteString(p)
	}
	sb.WriteString(`</div>`)
	return sb.String()
}
