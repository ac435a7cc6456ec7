package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// parseYAML reads top-level scalars as globals and the "blocks" sequence as
// the block list, each entry a mapping of properties.
func (l *loader) parseYAML(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil // empty document
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Value == "blocks" {
			if err := l.yamlBlocks(v); err != nil {
				return err
			}
			continue
		}
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: global %s must be a scalar", k.Line, k.Value)
		}
		l.global(k.Value, v.Value)
	}
	return nil
}

func (l *loader) yamlBlocks(seq *yaml.Node) error {
	if seq.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: blocks must be a sequence", seq.Line)
	}
	for _, m := range seq.Content {
		if m.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: block must be a mapping", m.Line)
		}
		set := l.section("")
		for i := 0; i+1 < len(m.Content); i += 2 {
			k, v := m.Content[i], m.Content[i+1]
			value, err := yamlValue(v)
			if err != nil {
				return fmt.Errorf("line %d: %s: %w", k.Line, k.Value, err)
			}
			set.Set(k.Value, value)
		}
	}
	return nil
}

// yamlValue returns a scalar as written and anything nested as JSON text.
func yamlValue(n *yaml.Node) (string, error) {
	if n.Kind == yaml.ScalarNode {
		return n.Value, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return "", err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
