package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestLoadParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docstage.toml")
	content := `
[server]
host = "0.0.0.0"
port = 9090

[docs]
source_dir = "content"
cache_enabled = false

[diagrams]
kroki_url = "http://localhost:8000"
dpi = 96
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "content", cfg.Docs.SourceDir)
	assert.False(t, cfg.Docs.CacheEnabled)
	assert.Equal(t, "http://localhost:8000", cfg.Diagrams.KrokiURL)
	assert.Equal(t, uint32(96), cfg.Diagrams.DPI)
}

func TestFinalizeResolvesPathsRelativeToConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docstage.toml")
	content := "[docs]\nsource_dir = \"docs\"\ncache_dir = \"cache\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Finalize(&cfg))

	assert.Equal(t, filepath.Join(dir, "docs"), cfg.Docs.SourceDir)
	assert.Equal(t, filepath.Join(dir, "cache"), cfg.Docs.CacheDir)
}

func TestFinalizeRejectsInvalidPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	err := Finalize(&cfg)
	assert.Error(t, err)
}

func TestFinalizeDefaultsZeroDPI(t *testing.T) {
	cfg := Default()
	cfg.Diagrams.DPI = 0
	require.NoError(t, Finalize(&cfg))
	assert.Equal(t, uint32(192), cfg.Diagrams.DPI)
}

func TestEnvOverridesApplyOverFileDefaults(t *testing.T) {
	t.Setenv("DOCSTAGE_SERVER_HOST", "10.0.0.1")
	t.Setenv("DOCSTAGE_DOCS_CACHE_ENABLED", "false")

	cfg := Default()
	ApplyEnvOverrides(&cfg)

	assert.Equal(t, "10.0.0.1", cfg.Server.Host)
	assert.False(t, cfg.Docs.CacheEnabled)
}
