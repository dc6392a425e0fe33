package diagrams

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultDPI = 192

func TestPrepareDiagramSource(t *testing.T) {
	source := "@startuml\nAlice -> Bob\n@enduml"
	result := PrepareDiagramSource(source, nil, "", defaultDPI)
	assert.Equal(t, "@startuml\nskinparam dpi 192\nAlice -> Bob\n@enduml", result.Source)
	assert.Empty(t, result.Warnings)
}

func TestPrepareDiagramSourceWithConfig(t *testing.T) {
	source := "@startuml\nAlice -> Bob\n@enduml"
	result := PrepareDiagramSource(source, nil, "skinparam backgroundColor white", defaultDPI)
	assert.Equal(t,
		"@startuml\nskinparam dpi 192\nskinparam backgroundColor white\nAlice -> Bob\n@enduml",
		result.Source)
	assert.Empty(t, result.Warnings)
}

func TestPrepareDiagramSourceCustomDPI(t *testing.T) {
	source := "@startuml\nAlice -> Bob\n@enduml"
	result := PrepareDiagramSource(source, nil, "", 300)
	assert.Equal(t, "@startuml\nskinparam dpi 300\nAlice -> Bob\n@enduml", result.Source)
}

func TestPrepareDiagramSourcePreservesContentBeforeStartuml(t *testing.T) {
	source := "' comment\n@startuml\nAlice -> Bob\n@enduml"
	result := PrepareDiagramSource(source, nil, "", defaultDPI)
	assert.Equal(t, "' comment\n@startuml\nskinparam dpi 192\nAlice -> Bob\n@enduml", result.Source)
	assert.Empty(t, result.Warnings)
}

func TestUnresolvedIncludeGeneratesWarning(t *testing.T) {
	source := "@startuml\n!include missing.iuml\nAlice -> Bob\n@enduml"
	result := PrepareDiagramSource(source, nil, "", defaultDPI)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "missing.iuml")
	assert.Contains(t, result.Warnings[0], "not found")
}

func TestUnresolvedIncludeWithDirsShowsSearchedPaths(t *testing.T) {
	source := "@startuml\n!include missing.iuml\nAlice -> Bob\n@enduml"
	result := PrepareDiagramSource(source, []string{"/tmp/includes"}, "", defaultDPI)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "missing.iuml")
	assert.Contains(t, result.Warnings[0], "/tmp/includes")
}

func TestStdlibIncludeNoWarning(t *testing.T) {
	source := "@startuml\n!include <tupadr3/common>\nAlice -> Bob\n@enduml"
	result := PrepareDiagramSource(source, nil, "", defaultDPI)
	assert.Empty(t, result.Warnings)
	assert.Contains(t, result.Source, "!include <tupadr3/common>")
}

func TestResolvedIncludeIsIndentedAndRecursive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inner.iuml"), []byte("actor Bob"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "outer.iuml"), []byte("!include inner.iuml"), 0o644))

	source := "@startuml\n  !include outer.iuml\n@enduml"
	result := PrepareDiagramSource(source, []string{dir}, "", defaultDPI)
	assert.Empty(t, result.Warnings)
	assert.Contains(t, result.Source, "  actor Bob")
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, ok := LoadConfigFile([]string{t.TempDir()}, "config.iuml")
	assert.False(t, ok)
}
