package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeVarsChildOverridesScalar(t *testing.T) {
	base := map[string]any{"theme": "light", "kept": "x"}
	override := map[string]any{"theme": "dark"}

	merged := mergeVars(base, override)
	assert.Equal(t, "dark", merged["theme"])
	assert.Equal(t, "x", merged["kept"])
}

func TestMergeVarsNestedMapsMergeRecursively(t *testing.T) {
	base := map[string]any{"nav": map[string]any{"collapsed": false, "depth": 2}}
	override := map[string]any{"nav": map[string]any{"collapsed": true}}

	merged := mergeVars(base, override)
	nav := merged["nav"].(map[string]any)
	assert.Equal(t, true, nav["collapsed"])
	assert.Equal(t, 2, nav["depth"])
}

func TestMergeVarsOverrideReplacesNonMapValue(t *testing.T) {
	base := map[string]any{"tags": []any{"a", "b"}}
	override := map[string]any{"tags": []any{"c"}}

	merged := mergeVars(base, override)
	assert.Equal(t, []any{"c"}, merged["tags"])
}

func TestMergeVarsBothNilReturnsNil(t *testing.T) {
	assert.Nil(t, mergeVars(nil, nil))
}

func TestMergeVarsDoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"a": 1}
	override := map[string]any{"b": 2}

	mergeVars(base, override)
	assert.Len(t, base, 1)
	assert.Len(t, override, 1)
}
