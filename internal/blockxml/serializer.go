package blockxml

import (
	"encoding/xml"
	"fmt"
	"maps"
	"strings"

	"github.com/roach88/blockxml/internal/ir"
)

// Serializer converts IR trees to block markup.
type Serializer struct {
	types    map[string]string
	maxDepth int
	maxNodes int
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithTypeMap layers extra IR type to tag translations over the built-in
// table. Extra entries override built-in ones; built-in entries cannot be
// removed.
func WithTypeMap(extra map[string]string) Option {
	return func(s *Serializer) {
		merged := maps.Clone(s.types)
		maps.Copy(merged, extra)
		s.types = merged
	}
}

// WithMaxDepth fails serialization with ir.ErrLimitExceeded when a node lies
// more than n value, statement or next edges below the root.
// Zero means unlimited.
func WithMaxDepth(n int) Option {
	return func(s *Serializer) {
		s.maxDepth = n
	}
}

// WithMaxNodes fails serialization with ir.ErrLimitExceeded when the tree
// holds more than n nodes. Zero means unlimited.
func WithMaxNodes(n int) Option {
	return func(s *Serializer) {
		s.maxNodes = n
	}
}

// New creates a Serializer. Without options it applies only the built-in
// tables and has no limits.
func New(opts ...Option) *Serializer {
	s := &Serializer{types: typeTags}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSerializer = New()

// Serialize converts the tree rooted at node with the default Serializer.
func Serialize(node *ir.Node) (string, error) {
	return defaultSerializer.Serialize(node)
}

// Tag returns the tag emitted for irType.
func (s *Serializer) Tag(irType string) string {
	if tag, ok := s.types[irType]; ok {
		return tag
	}
	return irType
}

// step is one unit of pending work: either literal markup to emit or a node
// to open.
type step struct {
	lit   string
	node  *ir.Node
	path  ir.Path
	depth int
	open  bool
}

// Serialize converts the tree rooted at root into one <block> element.
// On error it returns "" and an *ir.NodeError.
func (s *Serializer) Serialize(root *ir.Node) (string, error) {
	var sb strings.Builder
	stack := []step{{node: root, open: true}}
	var pending []step
	visited := 0

	for len(stack) > 0 {
		st := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !st.open {
			sb.WriteString(st.lit)
			continue
		}

		n := st.node
		if n == nil {
			return "", ir.NewInvalidNodeError(st.path, "")
		}
		if n.Type == "" {
			return "", ir.NewMissingTypeError(st.path)
		}
		visited++
		if s.maxNodes > 0 && visited > s.maxNodes {
			return "", ir.NewLimitError(st.path, fmt.Sprintf("more than %d nodes", s.maxNodes))
		}
		if s.maxDepth > 0 && st.depth > s.maxDepth {
			return "", ir.NewLimitError(st.path, fmt.Sprintf("depth %d exceeds %d", st.depth, s.maxDepth))
		}

		for _, f := range n.Fields {
			if f.Value == nil {
				return "", ir.NewInvalidNodeError(st.path.Child("fields", f.Name), "field has no value")
			}
		}

		sb.WriteString(`<block type="`)
		escape(&sb, s.Tag(n.Type))
		sb.WriteString(`">`)
		for _, f := range n.Fields {
			sb.WriteString(`<field name="`)
			escape(&sb, f.Name)
			sb.WriteString(`">`)
			escape(&sb, fieldText(n.Type, f))
			sb.WriteString(`</field>`)
		}

		pending = pending[:0]
		child := func(open, close string, c *ir.Node, path ir.Path) {
			pending = append(pending,
				step{lit: open},
				step{node: c, path: path, depth: st.depth + 1, open: true},
				step{lit: close},
			)
		}
		for _, slot := range n.ValueInputs {
			child(`<value name="`+escapeString(slot.Name)+`">`, `</value>`,
				slot.Node, st.path.Child("value_inputs", slot.Name))
		}
		for _, slot := range n.StatementInputs {
			child(`<statement name="`+escapeString(statementName(slot.Name))+`">`, `</statement>`,
				slot.Node, st.path.Child("statement_inputs", slot.Name))
		}
		if n.Next != nil {
			child(`<next>`, `</next>`, n.Next, st.path.Child("next"))
		}
		pending = append(pending, step{lit: `</block>`})

		// Reverse so the first pending step pops first.
		for i := len(pending) - 1; i >= 0; i-- {
			stack = append(stack, pending[i])
		}
	}

	return sb.String(), nil
}

// escape writes s to sb with XML special characters escaped.
func escape(sb *strings.Builder, s string) {
	if !needsEscape(s) {
		sb.WriteString(s)
		return
	}
	_ = xml.EscapeText(sb, []byte(s)) // strings.Builder never fails
}

func escapeString(s string) string {
	if !needsEscape(s) {
		return s
	}
	var sb strings.Builder
	escape(&sb, s)
	return sb.String()
}

// needsEscape reports whether s holds a byte that xml.EscapeText rewrites.
// Non-ASCII bytes are included so invalid UTF-8 is replaced consistently.
func needsEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '<', c == '>', c == '&', c == '\'', c == '"',
			c == '\t', c == '\n', c == '\r', c < 0x20, c >= 0x80:
			return true
		}
	}
	return false
}
