package testutil

import (
	"fmt"
	"math/rand"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"

	"github.com/roach88/blockxml/internal/ir"
)

// GenTree generates valid IR trees of 1 to maxSize nodes.
//
// Trees mix built-in and unknown types, operator fields with known and unknown
// symbols, THEN and other statement slots, and next chains. Each generated
// tree is derived from a seed, so a failing case can be rebuilt with
// RandomTree.
func GenTree(maxSize int) gopter.Gen {
	return gopter.CombineGens(
		gen.Int64(),
		gen.IntRange(1, maxSize),
	).Map(func(vals []any) *ir.Node {
		r := rand.New(rand.NewSource(vals[0].(int64)))
		return RandomTree(r, vals[1].(int))
	})
}

var randomTypes = []string{
	"essentials_var_set",
	"essentials_var_get",
	"essentials_num_literal",
	"essentials_num_arithmetic",
	"essentials_compare",
	"essentials_logic_and",
	"essentials_logic_or",
	"control_if_truthy",
	"text_literal",
	"text_print",
	"math_single",
	"custom_block",
}

var randomOps = []string{"+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=", "<>", "AND", "xor"}

var randomTexts = []string{"", "x", "hello world", "a < b", "Tom & Jerry", `say "hi"`, "é", "42"}

// RandomTree builds a tree of exactly size nodes using r.
//
// Node i > 0 is attached to a random earlier node as a value input, a
// statement input, or (when free) its next node.
func RandomTree(r *rand.Rand, size int) *ir.Node {
	if size < 1 {
		size = 1
	}
	nodes := make([]*ir.Node, size)
	for i := range nodes {
		nodes[i] = randomNode(r)
	}
	for i := 1; i < size; i++ {
		parent := nodes[r.Intn(i)]
		switch r.Intn(3) {
		case 0:
			parent.SetValue(fmt.Sprintf("V%d", i), nodes[i])
		case 1:
			slot := fmt.Sprintf("S%d", i)
			if _, taken := parent.StatementInputs.Get("THEN"); !taken && r.Intn(2) == 0 {
				slot = "THEN"
			}
			parent.SetStatement(slot, nodes[i])
		default:
			if parent.Next == nil {
				parent.SetNext(nodes[i])
			} else {
				parent.SetValue(fmt.Sprintf("V%d", i), nodes[i])
			}
		}
	}
	return nodes[0]
}

func randomNode(r *rand.Rand) *ir.Node {
	n := ir.NewNode(randomTypes[r.Intn(len(randomTypes))])
	if r.Intn(3) > 0 {
		n.SetField("OP", ir.NewString(randomOps[r.Intn(len(randomOps))]))
	}
	for i, k := 0, r.Intn(3); i < k; i++ {
		name := fmt.Sprintf("F%d", i)
		switch r.Intn(3) {
		case 0:
			n.SetField(name, ir.NewString(randomTexts[r.Intn(len(randomTexts))]))
		case 1:
			n.SetField(name, ir.NewInt(r.Int63n(2000)-1000))
		default:
			n.SetField(name, ir.NewBool(r.Intn(2) == 0))
		}
	}
	return n
}
