package tagweaver

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is the on-disk encoding of a tag registry.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	}
	return "unknown"
}

// profileKey is the key under which character profiles keep their tags.
const profileKey = "custom_tags"

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return 0, fmt.Errorf("unsupported tag file extension %q", filepath.Ext(path))
}

// LoadRegistryFile reads a registry from a JSON, YAML or TOML file.
func LoadRegistryFile(path string) (*Registry, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag file: %w", err)
	}
	defer f.Close()

	reg, err := DecodeRegistry(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return reg, nil
}

// DecodeRegistry reads a registry document. The document is either a map of
// tag name to entry list, or a profile holding that map under "custom_tags".
//
// An entry is a scalar (plain value), a [label, value, ...] list (extra
// elements ignored) or a {label|name, value|prompt} map.
func DecodeRegistry(r io.Reader, format Format) (*Registry, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(r)
	case FormatJSON:
		var doc map[string]any
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return registryFromMap(doc)
	case FormatTOML:
		var doc map[string]any
		if err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid toml: %w", err)
		}
		return registryFromMap(doc)
	}
	return nil, fmt.Errorf("unsupported format %s", format)
}

// registryFromMap builds a registry from an unordered document; tag names are
// defined alphabetically so the result does not depend on map iteration.
func registryFromMap(doc map[string]any) (*Registry, error) {
	if v, ok := doc[profileKey]; ok {
		switch inner := v.(type) {
		case nil:
			return NewRegistry(), nil
		case map[string]any:
			doc = inner
		}
	}
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	reg := NewRegistry()
	for _, name := range names {
		entries, err := entriesFromAny(doc[name])
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", name, err)
		}
		reg.Define(name, entries...)
	}
	return reg, nil
}

func entriesFromAny(v any) ([]Entry, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]Entry, 0, len(t))
		for i, item := range t {
			e, err := entryFromAny(item)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			out = append(out, e)
		}
		return out, nil
	case map[string]any:
		labels := make([]string, 0, len(t))
		for label := range t {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		out := make([]Entry, 0, len(t))
		for _, label := range labels {
			out = append(out, Labeled(label, scalarString(t[label])))
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of values, got %T", v)
}

func entryFromAny(v any) (Entry, error) {
	switch t := v.(type) {
	case []any:
		switch len(t) {
		case 0:
			return Plain(""), nil
		case 1:
			return Plain(scalarString(t[0])), nil
		}
		return Labeled(scalarString(t[0]), scalarString(t[1])), nil
	case map[string]any:
		value, ok := lookupFirst(t, "value", "prompt")
		if !ok {
			return Entry{}, fmt.Errorf("entry map has no value or prompt key")
		}
		label, ok := lookupFirst(t, "label", "name")
		if !ok {
			return Plain(value), nil
		}
		return Labeled(label, value), nil
	case string, bool, int, int64, uint64, float64, nil:
		return Plain(scalarString(t)), nil
	}
	return Entry{}, fmt.Errorf("unsupported entry type %T", v)
}

func lookupFirst(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return scalarString(v), true
		}
	}
	return "", false
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	return fmt.Sprint(v)
}

// ===== YAML =====

// decodeYAML walks the node tree so tag definition order follows the file.
func decodeYAML(r io.Reader) (*Registry, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping at line %d", root.Line)
	}
	if inner := mappingValue(root, profileKey); inner != nil {
		switch {
		case inner.Kind == yaml.ScalarNode && inner.Tag == "!!null":
			return NewRegistry(), nil
		case inner.Kind == yaml.MappingNode:
			root = inner
		}
	}

	reg := NewRegistry()
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		entries, err := entriesFromYAML(root.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", name, err)
		}
		reg.Define(name, entries...)
	}
	return reg, nil
}

func entriesFromYAML(n *yaml.Node) ([]Entry, error) {
	switch n.Kind {
	case yaml.MappingNode:
		// label: value pairs, in file order
		out := make([]Entry, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			var value any
			if err := n.Content[i+1].Decode(&value); err != nil {
				return nil, err
			}
			out = append(out, Labeled(n.Content[i].Value, scalarString(value)))
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]Entry, 0, len(n.Content))
		for i, item := range n.Content {
			var v any
			if err := item.Decode(&v); err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			e, err := entryFromAny(v)
			if err != nil {
				return nil, fmt.Errorf("entry %d at line %d: %w", i, item.Line, err)
			}
			out = append(out, e)
		}
		return out, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected a list of values at line %d", n.Line)
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
