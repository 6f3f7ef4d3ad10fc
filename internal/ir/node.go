package ir

// Node is one construct of an IR tree.
//
// Type is required and non-empty. Fields, ValueInputs and StatementInputs are
// ordered; Next continues a sequential chain rather than nesting.
type Node struct {
	Type            string
	Fields          Fields
	ValueInputs     Inputs
	StatementInputs Inputs
	Next            *Node
}

// Field is a named scalar attached directly to a node.
type Field struct {
	Name  string
	Value Scalar
}

// Fields is an ordered field-name to scalar mapping.
// Names are unique; order is the order of insertion.
type Fields []Field

// Get returns the value stored under name.
func (fs Fields) Get(name string) (Scalar, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether a field named name exists.
func (fs Fields) Has(name string) bool {
	_, ok := fs.Get(name)
	return ok
}

// Names returns field names in order.
func (fs Fields) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Input is a named slot holding one child node.
type Input struct {
	Name string
	Node *Node
}

// Inputs is an ordered slot-name to child mapping.
// Names are unique; order is the order of insertion.
type Inputs []Input

// Get returns the child plugged into slot name.
func (in Inputs) Get(name string) (*Node, bool) {
	for _, i := range in {
		if i.Name == name {
			return i.Node, true
		}
	}
	return nil, false
}

// Names returns slot names in order.
func (in Inputs) Names() []string {
	names := make([]string, len(in))
	for i, slot := range in {
		names[i] = slot.Name
	}
	return names
}

// NewNode creates a node of the given type with no attachments.
func NewNode(typ string) *Node {
	return &Node{Type: typ}
}

// SetField sets a field, replacing any existing value under the same name
// without changing its position.
func (n *Node) SetField(name string, v Scalar) *Node {
	for i := range n.Fields {
		if n.Fields[i].Name == name {
			n.Fields[i].Value = v
			return n
		}
	}
	n.Fields = append(n.Fields, Field{Name: name, Value: v})
	return n
}

// SetValue plugs child into the value slot name, replacing an existing child.
func (n *Node) SetValue(name string, child *Node) *Node {
	n.ValueInputs = setInput(n.ValueInputs, name, child)
	return n
}

// SetStatement plugs child into the statement slot name, replacing an
// existing child.
func (n *Node) SetStatement(name string, child *Node) *Node {
	n.StatementInputs = setInput(n.StatementInputs, name, child)
	return n
}

// SetNext sets the next node in sequence.
func (n *Node) SetNext(next *Node) *Node {
	n.Next = next
	return n
}

func setInput(in Inputs, name string, child *Node) Inputs {
	for i := range in {
		if in[i].Name == name {
			in[i].Node = child
			return in
		}
	}
	return append(in, Input{Name: name, Node: child})
}

// Chain links nodes through Next in the given order and returns the head.
// Nil entries are skipped. Returns nil when no node is given.
func Chain(nodes ...*Node) *Node {
	var head, tail *Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if head == nil {
			head = n
		} else {
			tail.Next = n
		}
		tail = n
	}
	return head
}
