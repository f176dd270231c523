package rules

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pable/dota-coach/internal/apperr"
)

// Thresholds is the flattened table of named constants that operands refer
// to with {$ref: path}. Paths are dotted, e.g. "thresholds.carryGpmLow" or
// "bands.great".
type Thresholds struct {
	values map[string]float64
}

// defaultSection is assumed when a reference has no known prefix.
const defaultSection = "thresholds"

// ParseThresholds decodes a YAML tree whose leaves are all numbers.
func ParseThresholds(data []byte) (*Thresholds, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, apperr.ConfigParse(err, "parse thresholds")
	}
	if len(root.Content) == 0 {
		return nil, apperr.ConfigParse(nil, "thresholds document is empty")
	}
	t := &Thresholds{values: map[string]float64{}}
	if err := t.flatten("", root.Content[0]); err != nil {
		return nil, apperr.ConfigParse(err, "parse thresholds")
	}
	if len(t.values) == 0 {
		return nil, apperr.ConfigParse(nil, "thresholds document has no values")
	}
	return t, nil
}

// NewThresholds builds a table from already-dotted paths.
func NewThresholds(values map[string]float64) *Thresholds {
	t := &Thresholds{values: make(map[string]float64, len(values))}
	for k, v := range values {
		t.values[k] = v
	}
	return t
}

func (t *Thresholds) flatten(prefix string, n *yaml.Node) error {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if prefix != "" {
				key = prefix + "." + key
			}
			if _, dup := t.values[key]; dup {
				return fmt.Errorf("line %d: duplicate key %q", n.Content[i].Line, key)
			}
			if err := t.flatten(key, n.Content[i+1]); err != nil {
				return err
			}
		}
		return nil
	case yaml.ScalarNode:
		if prefix == "" {
			return fmt.Errorf("line %d: top level must be a mapping", n.Line)
		}
		var v float64
		if err := n.Decode(&v); err != nil {
			return fmt.Errorf("line %d: %q is not a number", n.Line, prefix)
		}
		t.values[prefix] = v
		return nil
	}
	return fmt.Errorf("line %d: unsupported value at %q", n.Line, prefix)
}

// Lookup resolves a dotted path. A bare name is looked up under the
// thresholds section.
func (t *Thresholds) Lookup(path string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	if v, ok := t.values[path]; ok {
		return v, true
	}
	if !strings.Contains(path, ".") {
		v, ok := t.values[defaultSection+"."+path]
		return v, ok
	}
	return 0, false
}

// Paths lists every known path in order.
func (t *Thresholds) Paths() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.values))
	for k := range t.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
