package storage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// sidecar is the decoded shape of one directory's metadata file, before
// ancestor vars are merged in.
type sidecar struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	PageType    string         `yaml:"page_type"`
	Vars        map[string]any `yaml:"vars"`
}

func readSidecar(path string) (sidecar, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is built from a validated source root
	if err != nil {
		return sidecar{}, fmt.Errorf("read metadata file: %w", err)
	}
	var s sidecar
	if err := yaml.Unmarshal(data, &s); err != nil {
		return sidecar{}, fmt.Errorf("parse metadata file %s: %w", path, err)
	}
	return s, nil
}

// mergeVars deep-merges override on top of base: nested maps are merged
// key-by-key, any other value (including a slice or scalar) in override
// replaces the corresponding base value outright. Neither input is mutated.
func mergeVars(base, override map[string]any) map[string]any {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if childOverride, ok := v.(map[string]any); ok {
			if childBase, ok := out[k].(map[string]any); ok {
				out[k] = mergeVars(childBase, childOverride)
				continue
			}
		}
		out[k] = v
	}
	return out
}
