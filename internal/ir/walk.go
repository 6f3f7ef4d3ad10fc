package ir

import "errors"

// SkipChildren can be returned by a WalkFunc to skip the node's attachments.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node visited by Walk.
// path locates n (the zero Path for the root); depth is 0 for the root
// and grows by one per value, statement or next edge.
type WalkFunc func(path Path, depth int, n *Node) error

// Walk visits the tree rooted at root in pre-order: a node, then its value
// inputs, statement inputs and next node, each in order. Nil nodes are
// passed to fn as-is and have no children.
//
// Walk uses an explicit stack, so arbitrarily deep trees (long next chains)
// do not grow the goroutine stack. Returning a non-nil error other than
// SkipChildren stops the walk and returns that error.
func Walk(root *Node, fn WalkFunc) error {
	type frame struct {
		node  *Node
		path  Path
		depth int
	}

	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		err := fn(f.path, f.depth, f.node)
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		if f.node == nil {
			continue
		}

		n := f.node
		// Push in reverse so children pop in serialization order.
		if n.Next != nil {
			stack = append(stack, frame{node: n.Next, path: f.path.Child(keyNext), depth: f.depth + 1})
		}
		for i := len(n.StatementInputs) - 1; i >= 0; i-- {
			slot := n.StatementInputs[i]
			stack = append(stack, frame{node: slot.Node, path: f.path.Child(keyStatementInputs, slot.Name), depth: f.depth + 1})
		}
		for i := len(n.ValueInputs) - 1; i >= 0; i-- {
			slot := n.ValueInputs[i]
			stack = append(stack, frame{node: slot.Node, path: f.path.Child(keyValueInputs, slot.Name), depth: f.depth + 1})
		}
	}
	return nil
}

// Count returns the number of non-nil nodes in the tree.
func Count(root *Node) int {
	count := 0
	_ = Walk(root, func(_ Path, _ int, n *Node) error {
		if n != nil {
			count++
		}
		return nil
	})
	return count
}
