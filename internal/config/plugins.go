package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plugin enable/disable edits the plugins sequence of the config file in
// place, operating on the yaml document tree so comments and unrelated
// sections survive the round trip.

// EnabledPlugins reads the plugins list from the config file. A missing
// file means no plugins are enabled.
func EnabledPlugins(file string) ([]string, error) {
	doc, err := readDocument(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	seq := findMappingValue(doc, "plugins")
	if seq == nil {
		return nil, nil
	}
	var names []string
	for _, item := range seq.Content {
		names = append(names, item.Value)
	}
	return names, nil
}

// EnablePlugin appends a plugin to the enabled list. Enabling an already
// enabled plugin is a no-op. The file is created when missing.
func EnablePlugin(file, name string) error {
	doc, err := readDocument(file)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		doc = &yaml.Node{
			Kind:    yaml.MappingNode,
			Content: nil,
		}
	}

	seq := findMappingValue(doc, "plugins")
	if seq == nil {
		seq = &yaml.Node{Kind: yaml.SequenceNode}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "plugins"},
			seq,
		)
	}
	for _, item := range seq.Content {
		if item.Value == name {
			return nil
		}
	}
	seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name})
	return writeDocument(file, doc)
}

// DisablePlugin removes a plugin from the enabled list. Disabling a plugin
// that is not enabled is a no-op.
func DisablePlugin(file, name string) error {
	doc, err := readDocument(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	seq := findMappingValue(doc, "plugins")
	if seq == nil {
		return nil
	}
	kept := seq.Content[:0]
	removed := false
	for _, item := range seq.Content {
		if item.Value == name {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return nil
	}
	seq.Content = kept
	return writeDocument(file, doc)
}

// readDocument parses the file and returns its root mapping node.
func readDocument(file string) (*yaml.Node, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%s: top level is not a mapping", file)
		}
		return root, nil
	}
	// Empty file: start a fresh mapping.
	return &yaml.Node{Kind: yaml.MappingNode}, nil
}

func writeDocument(file string, root *yaml.Node) error {
	data, err := yaml.Marshal(root)
	if err != nil {
		return err
	}
	return os.WriteFile(file, data, 0o644)
}

// findMappingValue returns the value node for a top-level key.
func findMappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
