package featureflags

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk layout of FEATURE_FLAGS_FILE:
//
//	flags:
//	  feed_cache: on
//	  new_search: 25%
type fileFormat struct {
	Flags map[string]yaml.Node `yaml:"flags"`
}

// LoadFile reads flags from a YAML file and overlays the inline raw list on top.
// An empty path yields a manager built from raw alone.
func LoadFile(path, raw string) (*Manager, error) {
	m := NewManager(raw)
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature flags file: %w", err)
	}

	var doc fileFormat
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse feature flags file: %w", err)
	}

	for name, node := range doc.Flags {
		key := normalize(name)
		if key == "" {
			continue
		}
		if _, inline := m.flags[key]; inline {
			continue
		}
		value, err := scalarValue(node)
		if err != nil {
			return nil, fmt.Errorf("flag %q: %w", name, err)
		}
		if value != "" {
			m.flags[key] = value
		}
	}
	return m, nil
}

func scalarValue(node yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("expected a scalar value")
	}
	// YAML 1.1 booleans (on/off/yes/no) arrive as plain strings; true/false as !!bool.
	if node.Tag == "!!bool" {
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			return "", err
		}
		if b {
			return "on", nil
		}
		return "off", nil
	}
	return normalize(node.Value), nil
}
