package ir

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DecodeYAML reads a single YAML document holding one node, a list of nodes,
// or null. It applies the same rules as DecodeJSON; mapping order follows the
// document and duplicate keys are rejected.
func DecodeYAML(r io.Reader) ([]*Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty IR document")
		}
		return nil, fmt.Errorf("reading IR document: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty IR document")
	}
	return decodeYAMLTrees(doc.Content[0])
}

// UnmarshalYAML implements yaml.Unmarshaler for Node.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	decoded, err := decodeYAMLNode(value, Path{})
	if err != nil {
		return err
	}
	if decoded != nil {
		*n = *decoded
	}
	return nil
}

// Trees is a list of top-level nodes that decodes from either a single YAML
// node or a sequence of nodes.
type Trees []*Node

// UnmarshalYAML implements yaml.Unmarshaler for Trees.
func (t *Trees) UnmarshalYAML(value *yaml.Node) error {
	trees, err := decodeYAMLTrees(value)
	if err != nil {
		return err
	}
	*t = trees
	return nil
}

func decodeYAMLTrees(root *yaml.Node) ([]*Node, error) {
	root = resolveAlias(root)
	if root.Kind == yaml.SequenceNode {
		trees := make([]*Node, 0, len(root.Content))
		for i, elem := range root.Content {
			n, err := decodeYAMLNode(elem, RootPath(fmt.Sprintf("[%d]", i)))
			if err != nil {
				return nil, err
			}
			trees = append(trees, n)
		}
		return trees, nil
	}

	n, err := decodeYAMLNode(root, Path{})
	if err != nil {
		return nil, err
	}
	return []*Node{n}, nil
}

func decodeYAMLNode(y *yaml.Node, path Path) (*Node, error) {
	y = resolveAlias(y)
	if isYAMLNull(y) {
		return nil, nil
	}
	if y.Kind != yaml.MappingNode {
		return nil, NewInvalidNodeError(path, fmt.Sprintf("expected mapping, got %s", describeYAML(y)))
	}

	n := &Node{}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(y.Content); i += 2 {
		key := y.Content[i].Value
		val := resolveAlias(y.Content[i+1])
		if seen[key] {
			return nil, NewInvalidNodeError(path, fmt.Sprintf("duplicate key %q", key))
		}
		seen[key] = true

		switch key {
		case keyType:
			if val.Kind == yaml.ScalarNode && val.ShortTag() == "!!str" {
				n.Type = val.Value
			}
		case keyFields:
			fields, err := decodeYAMLFields(val, path.Child(keyFields))
			if err != nil {
				return nil, err
			}
			n.Fields = fields
		case keyValueInputs, keyStatementInputs:
			inputs, err := decodeYAMLInputs(val, path.Child(key))
			if err != nil {
				return nil, err
			}
			if key == keyValueInputs {
				n.ValueInputs = inputs
			} else {
				n.StatementInputs = inputs
			}
		case keyNext:
			next, err := decodeYAMLNode(val, path.Child(keyNext))
			if err != nil {
				return nil, err
			}
			n.Next = next
		}
	}
	return n, nil
}

func decodeYAMLFields(y *yaml.Node, path Path) (Fields, error) {
	if isYAMLNull(y) {
		return nil, nil
	}
	if y.Kind != yaml.MappingNode {
		return nil, NewInvalidNodeError(path, fmt.Sprintf("fields must be a mapping, got %s", describeYAML(y)))
	}

	var fields Fields
	for i := 0; i+1 < len(y.Content); i += 2 {
		name := y.Content[i].Value
		val := resolveAlias(y.Content[i+1])
		if fields.Has(name) {
			return nil, NewInvalidNodeError(path, fmt.Sprintf("duplicate field %q", name))
		}

		var v Scalar
		if val.Kind == yaml.ScalarNode {
			switch val.ShortTag() {
			case "!!str":
				v = String(val.Value)
			case "!!int", "!!float":
				v = Number(val.Value)
			case "!!bool":
				var b bool
				if err := val.Decode(&b); err != nil {
					return nil, NewInvalidNodeError(path, fmt.Sprintf("field %q: %v", name, err))
				}
				v = Bool(b)
			}
		}
		if v == nil {
			return nil, NewInvalidNodeError(path, fmt.Sprintf("field %q must be a string, number, or boolean, got %s", name, describeYAML(val)))
		}
		fields = append(fields, Field{Name: name, Value: v})
	}
	return fields, nil
}

func decodeYAMLInputs(y *yaml.Node, path Path) (Inputs, error) {
	if isYAMLNull(y) {
		return nil, nil
	}
	if y.Kind != yaml.MappingNode {
		return nil, NewInvalidNodeError(path, fmt.Sprintf("inputs must be a mapping, got %s", describeYAML(y)))
	}

	var inputs Inputs
	for i := 0; i+1 < len(y.Content); i += 2 {
		name := y.Content[i].Value
		if _, exists := inputs.Get(name); exists {
			return nil, NewInvalidNodeError(path, fmt.Sprintf("duplicate slot %q", name))
		}
		child, err := decodeYAMLNode(y.Content[i+1], path.Child(name))
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, Input{Name: name, Node: child})
	}
	return inputs, nil
}

func resolveAlias(y *yaml.Node) *yaml.Node {
	for y.Kind == yaml.AliasNode && y.Alias != nil {
		y = y.Alias
	}
	return y
}

func isYAMLNull(y *yaml.Node) bool {
	return y.Kind == yaml.ScalarNode && y.ShortTag() == "!!null"
}

func describeYAML(y *yaml.Node) string {
	switch y.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		switch y.ShortTag() {
		case "!!null":
			return "null"
		case "!!str":
			return "string"
		case "!!int", "!!float":
			return "number"
		case "!!bool":
			return "boolean"
		}
		return y.ShortTag()
	default:
		return "node"
	}
}
