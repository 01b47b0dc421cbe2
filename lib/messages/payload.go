package messages

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

var ErrUnknownPayloadFormat = xerrors.New("unknown payload format")

// LoadPayload reads a translation payload from a .json, .yaml or .yml file.
// Object key order is kept for both formats.
func LoadPayload(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.Errorf("%s: %w", path, ErrMissingFile)
		}
		return nil, xerrors.Errorf("reading payload %s: %w", path, err)
	}

	v, err := ParsePayload(filepath.Ext(path), data)
	if err != nil {
		return nil, xerrors.Errorf("payload %s: %w", path, err)
	}
	return v, nil
}

// ParsePayload decodes data according to the file extension ext.
func ParsePayload(ext string, data []byte) (any, error) {
	switch strings.ToLower(ext) {
	case ".json":
		return ParseValue(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return nil, xerrors.Errorf("%q: %w", ext, ErrUnknownPayloadFormat)
	}
}

func parseYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, xerrors.Errorf("decoding YAML: %w", err)
	}
	if doc.Kind == 0 {
		// empty document
		return NewObject(), nil
	}
	return fromYAML(&doc)
}

func fromYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, xerrors.Errorf("line %d: only scalar mapping keys are supported", k.Line)
			}
			val, err := fromYAML(v)
			if err != nil {
				return nil, err
			}
			obj.Set(k.Value, val)
		}
		return *obj, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!str", "!!binary", "!!timestamp":
			// timestamps stay as written; messages never want a reformatted date
			return n.Value, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, xerrors.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, xerrors.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}
