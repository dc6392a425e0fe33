package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLPathForEventIndexFile(t *testing.T) {
	path, ok := urlPathForEvent("/root", "/root/domain/index.md", "meta.yaml")
	assert.True(t, ok)
	assert.Equal(t, "domain", path)
}

func TestURLPathForEventStandaloneFile(t *testing.T) {
	path, ok := urlPathForEvent("/root", "/root/domain/setup.md", "meta.yaml")
	assert.True(t, ok)
	assert.Equal(t, "domain/setup", path)
}

func TestURLPathForEventRootIndex(t *testing.T) {
	path, ok := urlPathForEvent("/root", "/root/index.md", "meta.yaml")
	assert.True(t, ok)
	assert.Equal(t, "", path)
}

func TestURLPathForEventMetaFile(t *testing.T) {
	path, ok := urlPathForEvent("/root", "/root/domain/meta.yaml", "meta.yaml")
	assert.True(t, ok)
	assert.Equal(t, "domain", path)
}

func TestURLPathForEventHiddenFileIgnored(t *testing.T) {
	_, ok := urlPathForEvent("/root", "/root/.git/HEAD", "meta.yaml")
	assert.False(t, ok)
}

func TestURLPathForEventUnrelatedFileIgnored(t *testing.T) {
	_, ok := urlPathForEvent("/root", "/root/assets/logo.png", "meta.yaml")
	assert.False(t, ok)
}

func TestURLPathForEventRootReadme(t *testing.T) {
	path, ok := urlPathForEvent("/root", "/root/README.md", "meta.yaml")
	assert.True(t, ok)
	assert.Equal(t, "", path)
}
