package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// IR document JSON keys.
const (
	keyType            = "type"
	keyFields          = "fields"
	keyValueInputs     = "value_inputs"
	keyStatementInputs = "statement_inputs"
	keyNext            = "next"
)

// DecodeJSON reads a single JSON document holding one node, a list of nodes,
// or null, and returns the top-level trees in document order.
//
// The decoder walks the token stream so mapping order is preserved and
// duplicate keys are detected. Unknown node keys are ignored. A null node
// (top-level, list element or slot child) decodes to nil and is left for the
// serializer to reject. Non-object nodes, non-scalar fields, and duplicate
// keys fail with an INVALID_NODE NodeError. A non-string type decodes as an
// empty type.
func DecodeJSON(r io.Reader) ([]*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty IR document")
		}
		return nil, fmt.Errorf("reading IR document: %w", err)
	}

	var trees []*Node
	if d, ok := tok.(json.Delim); ok && d == '[' {
		for i := 0; dec.More(); i++ {
			elem, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("reading IR document: %w", err)
			}
			n, err := decodeNode(dec, elem, RootPath(fmt.Sprintf("[%d]", i)))
			if err != nil {
				return nil, err
			}
			trees = append(trees, n)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("reading IR document: %w", err)
		}
	} else {
		n, err := decodeNode(dec, tok, Path{})
		if err != nil {
			return nil, err
		}
		trees = []*Node{n}
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after IR document")
	}
	return trees, nil
}

// UnmarshalJSON implements json.Unmarshaler for Node.
// A JSON null leaves the node unchanged.
func (n *Node) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	decoded, err := decodeNode(dec, tok, Path{})
	if err != nil {
		return err
	}
	if decoded != nil {
		*n = *decoded
	}
	return nil
}

// decodeFrame is one open JSON object on the decode stack: either a node or
// the value_inputs/statement_inputs object of a node.
type decodeFrame struct {
	node   *Node   // nil for an inputs object
	inputs *Inputs // nil for a node
	seen   map[string]bool
	path   Path
	attach func(*Node) // stores the finished node in its parent
}

// decodeNode decodes the node starting at tok. Returns nil for JSON null.
// Nesting is tracked on an explicit stack, so depth is bounded only by memory.
func decodeNode(dec *json.Decoder, tok json.Token, path Path) (*Node, error) {
	var root *Node
	var stack []decodeFrame

	open := func(tok json.Token, path Path, attach func(*Node)) error {
		if tok == nil {
			attach(nil)
			return nil
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return NewInvalidNodeError(path, fmt.Sprintf("expected object, got %s", describeToken(tok)))
		}
		stack = append(stack, decodeFrame{node: &Node{}, seen: make(map[string]bool), path: path, attach: attach})
		return nil
	}

	if err := open(tok, path, func(n *Node) { root = n }); err != nil {
		return nil, err
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if !dec.More() {
			// Closing '}'
			if _, err := readToken(dec); err != nil {
				return nil, err
			}
			stack = stack[:len(stack)-1]
			if top.node != nil {
				top.attach(top.node)
			}
			continue
		}

		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		if top.inputs != nil {
			inputs := top.inputs
			if _, exists := inputs.Get(key); exists {
				return nil, NewInvalidNodeError(top.path, fmt.Sprintf("duplicate slot %q", key))
			}
			tok, err := readToken(dec)
			if err != nil {
				return nil, err
			}
			*inputs = append(*inputs, Input{Name: key})
			i := len(*inputs) - 1
			if err := open(tok, top.path.Child(key), func(c *Node) { (*inputs)[i].Node = c }); err != nil {
				return nil, err
			}
			continue
		}

		n := top.node
		if top.seen[key] {
			return nil, NewInvalidNodeError(top.path, fmt.Sprintf("duplicate key %q", key))
		}
		top.seen[key] = true

		switch key {
		case keyType:
			tok, err := readToken(dec)
			if err != nil {
				return nil, err
			}
			if s, ok := tok.(string); ok {
				n.Type = s
			} else if err := skipRest(dec, tok); err != nil {
				return nil, err
			}
		case keyFields:
			fields, err := decodeFields(dec, top.path.Child(keyFields))
			if err != nil {
				return nil, err
			}
			n.Fields = fields
		case keyValueInputs, keyStatementInputs:
			inputsPath := top.path.Child(key)
			tok, err := readToken(dec)
			if err != nil {
				return nil, err
			}
			if tok == nil {
				continue
			}
			if d, ok := tok.(json.Delim); !ok || d != '{' {
				return nil, NewInvalidNodeError(inputsPath, fmt.Sprintf("inputs must be an object, got %s", describeToken(tok)))
			}
			target := &n.ValueInputs
			if key == keyStatementInputs {
				target = &n.StatementInputs
			}
			stack = append(stack, decodeFrame{inputs: target, path: inputsPath})
		case keyNext:
			tok, err := readToken(dec)
			if err != nil {
				return nil, err
			}
			if err := open(tok, top.path.Child(keyNext), func(c *Node) { n.Next = c }); err != nil {
				return nil, err
			}
		default:
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
	}

	return root, nil
}

func decodeFields(dec *json.Decoder, path Path) (Fields, error) {
	tok, err := readToken(dec)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, NewInvalidNodeError(path, fmt.Sprintf("fields must be an object, got %s", describeToken(tok)))
	}

	var fields Fields
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if fields.Has(name) {
			return nil, NewInvalidNodeError(path, fmt.Sprintf("duplicate field %q", name))
		}
		tok, err := readToken(dec)
		if err != nil {
			return nil, err
		}

		var v Scalar
		switch val := tok.(type) {
		case string:
			v = String(val)
		case json.Number:
			v = Number(val.String())
		case bool:
			v = Bool(val)
		default:
			return nil, NewInvalidNodeError(path, fmt.Sprintf("field %q must be a string, number, or boolean, got %s", name, describeToken(tok)))
		}
		fields = append(fields, Field{Name: name, Value: v})
	}

	if _, err := readToken(dec); err != nil {
		return nil, err
	}
	return fields, nil
}

func readToken(dec *json.Decoder) (json.Token, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading IR document: %w", err)
	}
	return tok, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := readToken(dec)
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("reading IR document: expected object key, got %s", describeToken(tok))
	}
	return key, nil
}

// skipValue consumes one complete JSON value.
func skipValue(dec *json.Decoder) error {
	tok, err := readToken(dec)
	if err != nil {
		return err
	}
	return skipRest(dec, tok)
}

// skipRest consumes the remainder of a value whose first token is tok.
func skipRest(dec *json.Decoder, tok json.Token) error {
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := readToken(dec)
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func describeToken(tok json.Token) string {
	switch v := tok.(type) {
	case nil:
		return "null"
	case json.Delim:
		if v == '[' {
			return "array"
		}
		return "object"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", tok)
	}
}
