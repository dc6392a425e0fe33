package diagrams

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// includePattern matches a PlantUML `!include` directive, capturing the
// leading indentation (to re-apply to included content) and the path.
var includePattern = regexp.MustCompile(`(?m)^(\s*)!include\s+(.+)$`)

// metaIncludePattern matches the "!include <type>:<name>" form, which
// resolves through a MetaIncludeResolver (a TypedPageRegistry) instead of
// the filesystem, letting a PlantUML diagram reference another page by
// entity type and name, e.g. "!include system:payment_gateway".
var metaIncludePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*):([A-Za-z][A-Za-z0-9_]*)$`)

// maxIncludeDepth bounds recursive !include resolution against cycles.
const maxIncludeDepth = 10

// PreparedDiagram is PlantUML source ready to hand to Kroki, along with any
// non-fatal warnings produced while preparing it.
type PreparedDiagram struct {
	Source   string
	Warnings []string
}

func indentContent(content, indent string) string {
	if indent == "" {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

func resolveIncludes(source string, includeDirs []string, resolver MetaIncludeResolver, depth int, warnings *[]string) string {
	if depth > maxIncludeDepth {
		*warnings = append(*warnings, "Include depth exceeded maximum of 10")
		return source
	}

	result := source
	matches := includePattern.FindAllStringSubmatchIndex(source, -1)
	for _, m := range matches {
		fullMatch := source[m[0]:m[1]]
		leadingWS := source[m[2]:m[3]]
		includePath := strings.TrimSpace(source[m[4]:m[5]])

		if strings.HasPrefix(includePath, "<") && strings.HasSuffix(includePath, ">") {
			continue
		}

		if resolver != nil {
			if mm := metaIncludePattern.FindStringSubmatch(includePath); mm != nil {
				if title, ok := resolver(mm[1], mm[2]); ok {
					note := indentContent("note right: "+title, leadingWS)
					result = strings.Replace(result, fullMatch, note, 1)
					continue
				}
				*warnings = append(*warnings, fmt.Sprintf(
					"Meta include not found: type=%q name=%q", mm[1], mm[2]))
				continue
			}
		}

		resolved := false
		var searched []string
		for _, dir := range includeDirs {
			full := filepath.Join(dir, includePath)
			content, err := os.ReadFile(full)
			if err != nil {
				searched = append(searched, full)
				continue
			}
			resolvedContent := resolveIncludes(string(content), includeDirs, resolver, depth+1, warnings)
			indented := indentContent(resolvedContent, leadingWS)
			result = strings.Replace(result, fullMatch, indented, 1)
			resolved = true
			break
		}

		if !resolved {
			if len(includeDirs) == 0 {
				*warnings = append(*warnings, fmt.Sprintf(
					"Include file not found: '%s' (no include directories configured)", includePath))
			} else {
				*warnings = append(*warnings, fmt.Sprintf(
					"Include file not found: '%s' (searched: %s)", includePath, strings.Join(searched, ", ")))
			}
		}
	}

	return result
}

// PrepareDiagramSource resolves !include directives and injects a
// `skinparam dpi` line (plus optional config content) immediately after the
// first `@startuml` line. If no `@startuml` line is found, the config block
// is prepended instead.
func PrepareDiagramSource(source string, includeDirs []string, configContent string, dpi uint32) PreparedDiagram {
	return PrepareDiagramSourceWithResolver(source, includeDirs, configContent, dpi, nil)
}

// PrepareDiagramSourceWithResolver is PrepareDiagramSource with a
// MetaIncludeResolver (typically a *site.Registry) for "!include
// type:name" entity references.
func PrepareDiagramSourceWithResolver(source string, includeDirs []string, configContent string, dpi uint32, resolver MetaIncludeResolver) PreparedDiagram {
	var warnings []string
	resolved := resolveIncludes(source, includeDirs, resolver, 0, &warnings)

	configBlock := fmt.Sprintf("skinparam dpi %d\n", dpi)
	if configContent != "" {
		configBlock += configContent + "\n"
	}

	var final string
	if pos := strings.Index(resolved, "@startuml"); pos >= 0 {
		after := resolved[pos:]
		if nl := strings.IndexByte(after, '\n'); nl >= 0 {
			insertPos := pos + nl + 1
			final = resolved[:insertPos] + configBlock + resolved[insertPos:]
		} else {
			final = configBlock + resolved
		}
	} else {
		final = configBlock + resolved
	}

	return PreparedDiagram{Source: final, Warnings: warnings}
}

// LoadConfigFile searches includeDirs in order for configFile and returns
// its content. ok is false when the file isn't found anywhere.
func LoadConfigFile(includeDirs []string, configFile string) (content string, ok bool) {
	for _, dir := range includeDirs {
		data, err := os.ReadFile(filepath.Join(dir, configFile))
		if err == nil {
			return string(data), true
		}
	}
	return "", false
}
