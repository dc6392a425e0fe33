// Package directive parses the container-directive syntax
// (":name[content]{attrs}", "::name[...]{...}", ":::name[...]{...}", ":::")
// used for tabs and other block-level extensions.
package directive

import (
	"sort"
	"strings"
)

// Args holds the parsed content and attributes of a directive:
// `:name[content]{#id .class key="value"}`.
type Args struct {
	Content string
	ID      string
	Classes []string
	Attrs   map[string]string
}

// Get returns an attribute value by key.
func (a Args) Get(key string) (string, bool) {
	v, ok := a.Attrs[key]
	return v, ok
}

// ParseArgs parses content and an attrs string (the text inside `{...}`,
// braces already stripped) into structured Args.
func ParseArgs(content, attrsStr string) Args {
	args := Args{Content: content, Attrs: map[string]string{}}

	remaining := strings.TrimSpace(attrsStr)
	for remaining != "" {
		remaining = strings.TrimLeft(remaining, " \t\n\r")
		if remaining == "" {
			break
		}
		switch {
		case strings.HasPrefix(remaining, "#"):
			end := indexOfAny(remaining[1:], " \t\n\r.#") + 1
			if end == 0 {
				end = len(remaining)
			}
			args.ID = remaining[1:end]
			remaining = remaining[end:]
		case strings.HasPrefix(remaining, "."):
			end := indexOfAny(remaining[1:], " \t\n\r.#") + 1
			if end == 0 {
				end = len(remaining)
			}
			args.Classes = append(args.Classes, remaining[1:end])
			remaining = remaining[end:]
		default:
			if key, value, rest, ok := parseKeyValue(remaining); ok {
				args.Attrs[key] = value
				remaining = rest
			} else {
				remaining = remaining[1:]
			}
		}
	}

	return args
}

// indexOfAny returns the index of the first rune in s that is present in
// chars, or -1 (mirroring the "end of string" sentinel used by the callers
// above, which add 1 to convert it back to an absolute offset).
func indexOfAny(s, chars string) int {
	return strings.IndexAny(s, chars)
}

func parseKeyValue(s string) (key, value, rest string, ok bool) {
	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return "", "", "", false
	}
	key = strings.TrimSpace(s[:eq])
	if key == "" || strings.HasPrefix(key, "#") || strings.HasPrefix(key, ".") {
		return "", "", "", false
	}

	afterEq := s[eq+1:]
	switch {
	case strings.HasPrefix(afterEq, `"`):
		stripped := afterEq[1:]
		end := strings.IndexByte(stripped, '"')
		if end < 0 {
			return "", "", "", false
		}
		return key, stripped[:end], stripped[end+1:], true
	case strings.HasPrefix(afterEq, `'`):
		stripped := afterEq[1:]
		end := strings.IndexByte(stripped, '\'')
		if end < 0 {
			return "", "", "", false
		}
		return key, stripped[:end], stripped[end+1:], true
	default:
		end := strings.IndexAny(afterEq, " \t\n\r")
		if end < 0 {
			end = len(afterEq)
		}
		return key, afterEq[:end], afterEq[end:], true
	}
}

// ToSyntax reconstructs the original directive syntax string
// `[content]{attrs}`, used when a directive is unrecognized and must pass
// through as literal text. Attribute keys are sorted for determinism.
func (a Args) ToSyntax() string {
	var b strings.Builder
	if a.Content != "" {
		b.WriteByte('[')
		b.WriteString(a.Content)
		b.WriteByte(']')
	}

	var parts []string
	if a.ID != "" {
		parts = append(parts, "#"+a.ID)
	}
	for _, c := range a.Classes {
		parts = append(parts, "."+c)
	}
	keys := make([]string, 0, len(a.Attrs))
	for k := range a.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		escaped := strings.ReplaceAll(a.Attrs[k], `"`, `\"`)
		parts = append(parts, k+`="`+escaped+`"`)
	}

	if len(parts) > 0 {
		b.WriteByte('{')
		b.WriteString(strings.Join(parts, " "))
		b.WriteByte('}')
	}
	return b.String()
}
