package directive

import "strings"

// Kind distinguishes the four directive forms recognized by colon count.
type Kind int

const (
	Inline Kind = iota // :name[content]{attrs}
	Leaf               // ::name[content]{attrs}
	ContainerStart     // :::name[content]{attrs}
	ContainerEnd       // ::: (3+ colons, nothing else on the line)
)

// Directive is one parsed directive occurrence.
type Directive struct {
	Kind       Kind
	Name       string
	Args       Args
	ColonCount int
}

// isValidName reports whether name contains only letters, digits, hyphens,
// and underscores.
func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func parseBrackets(s string) (content string, consumed int) {
	if !strings.HasPrefix(s, "[") {
		return "", 0
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[1:i], i + 1
			}
		}
	}
	return "", 0
}

func parseBraces(s string) (attrs string, consumed int) {
	if !strings.HasPrefix(s, "{") {
		return "", 0
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[1:i], i + 1
			}
		}
	}
	return "", 0
}

// ParseLine scans line for the first directive occurrence. It returns the
// parsed directive plus the byte offsets of the match within line, or ok ==
// false if no directive starts anywhere on the line.
func ParseLine(line string) (d Directive, start, end int, ok bool) {
	start = strings.IndexByte(line, ':')
	if start < 0 {
		return Directive{}, 0, 0, false
	}

	colonCount := 0
	for _, r := range line[start:] {
		if r != ':' {
			break
		}
		colonCount++
	}
	if colonCount < 1 {
		return Directive{}, 0, 0, false
	}

	pos := start + colonCount
	afterColons := line[pos:]

	if colonCount >= 3 && strings.TrimSpace(afterColons) == "" {
		return Directive{Kind: ContainerEnd, ColonCount: colonCount}, start, len(line), true
	}

	nameEnd := strings.IndexFunc(afterColons, func(r rune) bool {
		return r == '[' || r == '{' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if nameEnd < 0 {
		nameEnd = len(afterColons)
	}
	name := afterColons[:nameEnd]
	if name == "" || !isValidName(name) {
		// This colon run starts no directive; keep scanning after it.
		if nd, ns, ne, found := ParseLine(line[pos:]); found {
			return nd, pos + ns, pos + ne, true
		}
		return Directive{}, 0, 0, false
	}
	pos += nameEnd

	content, consumed := parseBrackets(line[pos:])
	pos += consumed
	attrsStr, consumed := parseBraces(line[pos:])
	pos += consumed

	args := ParseArgs(content, attrsStr)

	var kind Kind
	switch colonCount {
	case 1:
		kind = Inline
	case 2:
		kind = Leaf
	default:
		kind = ContainerStart
	}

	return Directive{Kind: kind, Name: name, Args: args, ColonCount: colonCount}, start, pos, true
}

// ParseContainerLine parses an entire trimmed line as a container directive
// (":::name[...]{...}" or ":::"). ok is false when the line isn't one.
func ParseContainerLine(line string) (d Directive, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ":::") {
		return Directive{}, false
	}

	colonCount := 0
	for _, r := range trimmed {
		if r != ':' {
			break
		}
		colonCount++
	}
	afterColons := strings.TrimSpace(trimmed[colonCount:])

	if afterColons == "" {
		return Directive{Kind: ContainerEnd, ColonCount: colonCount}, true
	}

	nameEnd := strings.IndexFunc(afterColons, func(r rune) bool {
		return r == '[' || r == '{' || r == ' ' || r == '\t'
	})
	if nameEnd < 0 {
		nameEnd = len(afterColons)
	}
	name := afterColons[:nameEnd]
	if name == "" || !isValidName(name) {
		return Directive{}, false
	}

	afterName := afterColons[nameEnd:]
	content, consumed := parseBrackets(afterName)
	afterContent := afterName[consumed:]
	attrsStr, _ := parseBraces(afterContent)

	args := ParseArgs(content, attrsStr)
	return Directive{Kind: ContainerStart, Name: name, Args: args, ColonCount: colonCount}, true
}
