package diagrams

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyHashStable(t *testing.T) {
	k := Key{Source: "Bob->Alice", Endpoint: "plantuml", Format: "png", DPI: 192}
	assert.Equal(t, k.Hash(), k.Hash())
}

func TestKeyHashUniqueness(t *testing.T) {
	base := Key{Source: "Bob->Alice", Endpoint: "plantuml", Format: "png", DPI: 192}
	variants := []Key{
		{Source: "Bob->Carol", Endpoint: "plantuml", Format: "png", DPI: 192},
		{Source: "Bob->Alice", Endpoint: "mermaid", Format: "png", DPI: 192},
		{Source: "Bob->Alice", Endpoint: "plantuml", Format: "svg", DPI: 192},
		{Source: "Bob->Alice", Endpoint: "plantuml", Format: "png", DPI: 96},
	}
	for _, v := range variants {
		assert.NotEqual(t, base.Hash(), v.Hash())
	}
}

func TestKeyFilenameLength(t *testing.T) {
	k := Key{Source: "x", Endpoint: "plantuml", Format: "png", DPI: 192}
	name := k.Filename("png")
	assert.Equal(t, k.Hash()[:12]+".png", name)
}
