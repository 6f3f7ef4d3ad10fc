package ir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// DomainTree is the domain prefix for tree digests.
// Version suffix enables future algorithm migration.
const DomainTree = "blockxml/tree/v1"

// MarshalCanonical produces RFC 8785 style canonical JSON for a list of trees.
// It is used only for content digests; markup output never depends on it.
//
// Differences from the decoded document:
//  1. Object keys sorted by UTF-16 code units (field and slot order is not
//     part of the identity)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Number literals are emitted verbatim
//  5. Empty collections and absent next are omitted
//
// A nil node anywhere in the trees fails with an INVALID_NODE NodeError.
// The encoder uses an explicit stack, so tree depth is bounded only by memory.
func MarshalCanonical(trees ...*Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	type op struct {
		lit  string
		node *Node
		path Path
	}

	stack := make([]op, 0, 2*len(trees)+1)
	stack = append(stack, op{lit: "]"})
	for i := len(trees) - 1; i >= 0; i-- {
		stack = append(stack, op{node: trees[i], path: RootPath(fmt.Sprintf("[%d]", i))})
		if i > 0 {
			stack = append(stack, op{lit: ","})
		}
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.node == nil {
			if top.lit == "" {
				return nil, NewInvalidNodeError(top.path, "")
			}
			buf.WriteString(top.lit)
			continue
		}

		n := top.node
		var ops []op
		first := true
		member := func(key string) {
			prefix := ","
			if first {
				prefix = "{"
				first = false
			}
			ops = append(ops, op{lit: prefix + canonicalString(key) + ":"})
		}

		if len(n.Fields) > 0 {
			for _, f := range n.Fields {
				if f.Value == nil {
					return nil, NewInvalidNodeError(top.path.Child(keyFields, f.Name), "field has no value")
				}
			}
			member(keyFields)
			fields := slices.Clone(n.Fields)
			slices.SortFunc(fields, func(a, b Field) int { return compareKeysRFC8785(a.Name, b.Name) })
			var sb strings.Builder
			sb.WriteByte('{')
			for i, f := range fields {
				if i > 0 {
					sb.WriteByte(',')
				}
				sb.WriteString(canonicalString(f.Name))
				sb.WriteByte(':')
				sb.WriteString(canonicalScalar(f.Value))
			}
			sb.WriteByte('}')
			ops = append(ops, op{lit: sb.String()})
		}
		if n.Next != nil {
			member(keyNext)
			ops = append(ops, op{node: n.Next, path: top.path.Child(keyNext)})
		}
		appendInputs := func(key string, in Inputs) {
			if len(in) == 0 {
				return
			}
			member(key)
			sorted := slices.Clone(in)
			slices.SortFunc(sorted, func(a, b Input) int { return compareKeysRFC8785(a.Name, b.Name) })
			for i, slot := range sorted {
				prefix := ","
				if i == 0 {
					prefix = "{"
				}
				ops = append(ops, op{lit: prefix + canonicalString(slot.Name) + ":"})
				ops = append(ops, op{node: slot.Node, path: top.path.Child(key, slot.Name)})
			}
			ops = append(ops, op{lit: "}"})
		}
		appendInputs(keyStatementInputs, n.StatementInputs)
		member(keyType)
		ops = append(ops, op{lit: canonicalString(n.Type)})
		appendInputs(keyValueInputs, n.ValueInputs)
		ops = append(ops, op{lit: "}"})

		for i := len(ops) - 1; i >= 0; i-- {
			stack = append(stack, ops[i])
		}
	}

	return buf.Bytes(), nil
}

// Digest computes the content-addressed identity of a list of trees.
// Format: hex(SHA256(DomainTree + 0x00 + MarshalCanonical(trees...)))
func Digest(trees ...*Node) (string, error) {
	canonical, err := MarshalCanonical(trees...)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainTree))
	h.Write([]byte{0x00}) // Null separator prevents domain/data boundary ambiguity
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func canonicalScalar(v Scalar) string {
	switch val := v.(type) {
	case String:
		return canonicalString(string(val))
	case Number:
		return string(val)
	case Bool:
		return val.Text()
	default:
		return "null"
	}
}

// canonicalString encodes s as a JSON string after NFC normalization.
// Only control characters, backslash, and quote are escaped.
func canonicalString(s string) string {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(normalized) // encoding a string cannot fail

	out := strings.TrimSuffix(buf.String(), "\n")

	// json.Encoder escapes U+2028/U+2029 for JavaScript; RFC 8785 keeps them
	// literal. Input was a valid string, so every backslash in out starts an
	// escape sequence and a sequence scan is unambiguous.
	if !strings.Contains(out, `\u202`) {
		return out
	}
	var sb strings.Builder
	for i := 0; i < len(out); i++ {
		if out[i] == '\\' && i+1 < len(out) {
			if strings.HasPrefix(out[i:], `\u2028`) {
				sb.WriteString("\u2028")
				i += 5
				continue
			}
			if strings.HasPrefix(out[i:], `\u2029`) {
				sb.WriteString("\u2029")
				i += 5
				continue
			}
			sb.WriteByte(out[i])
			sb.WriteByte(out[i+1])
			i++
			continue
		}
		sb.WriteByte(out[i])
	}
	return sb.String()
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785. Go's default string comparison uses UTF-8 bytes,
// which orders supplementary-plane characters differently.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
