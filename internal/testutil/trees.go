// Package testutil provides IR tree builders and generators shared by tests.
package testutil

import "github.com/roach88/blockxml/internal/ir"

// Num returns a numeric literal node.
func Num(v int64) *ir.Node {
	return ir.NewNode("essentials_num_literal").SetField("NUM", ir.NewInt(v))
}

// Text returns a text literal node.
func Text(s string) *ir.Node {
	return ir.NewNode("text_literal").SetField("TEXT", ir.NewString(s))
}

// Var returns a variable read.
func Var(name string) *ir.Node {
	return ir.NewNode("essentials_var_get").SetField("VAR", ir.NewString(name))
}

// Set returns a variable assignment.
func Set(name string, value *ir.Node) *ir.Node {
	return ir.NewNode("essentials_var_set").
		SetField("VAR", ir.NewString(name)).
		SetValue("VALUE", value)
}

// Arith returns an arithmetic expression a op b.
func Arith(op string, a, b *ir.Node) *ir.Node {
	return binary("essentials_num_arithmetic", op, a, b)
}

// Compare returns a comparison a op b.
func Compare(op string, a, b *ir.Node) *ir.Node {
	return binary("essentials_compare", op, a, b)
}

// And returns a logical conjunction. The OP field carries a placeholder the
// serializer discards.
func And(a, b *ir.Node) *ir.Node {
	return binary("essentials_logic_and", "&&", a, b)
}

// Or returns a logical disjunction.
func Or(a, b *ir.Node) *ir.Node {
	return binary("essentials_logic_or", "||", a, b)
}

func binary(typ, op string, a, b *ir.Node) *ir.Node {
	return ir.NewNode(typ).
		SetField("OP", ir.NewString(op)).
		SetValue("A", a).
		SetValue("B", b)
}

// Print returns a print statement.
func Print(value *ir.Node) *ir.Node {
	return ir.NewNode("text_print").SetValue("TEXT", value)
}

// If returns a conditional whose THEN body is the chain of body nodes.
func If(cond *ir.Node, body ...*ir.Node) *ir.Node {
	n := ir.NewNode("control_if_truthy").SetValue("IF0", cond)
	if head := ir.Chain(body...); head != nil {
		n.SetStatement("THEN", head)
	}
	return n
}

// Program returns a small program touching every built-in type:
//
//	x = 2 + 3
//	if x >= 5 and x != 7 or x < 0 { print "big"; print x }
//	print "done"
func Program() *ir.Node {
	x := func() *ir.Node { return Var("x") }
	cond := Or(
		And(Compare(">=", x(), Num(5)), Compare("!=", x(), Num(7))),
		Compare("<", x(), Num(0)),
	)
	return ir.Chain(
		Set("x", Arith("+", Num(2), Num(3))),
		If(cond, Print(Text("big")), Print(x())),
		Print(Text("done")),
	)
}

// LinearChain returns n text_print nodes linked through next.
func LinearChain(n int) *ir.Node {
	nodes := make([]*ir.Node, n)
	for i := range nodes {
		nodes[i] = ir.NewNode("text_print")
	}
	return ir.Chain(nodes...)
}
