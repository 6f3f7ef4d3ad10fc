package blockxml

import (
	"maps"
	"slices"

	"github.com/roach88/blockxml/internal/ir"
)

// IR types with a dedicated translation.
const (
	TypeVarSet        = "essentials_var_set"
	TypeVarGet        = "essentials_var_get"
	TypeNumLiteral    = "essentials_num_literal"
	TypeNumArithmetic = "essentials_num_arithmetic"
	TypeCompare       = "essentials_compare"
	TypeLogicAnd      = "essentials_logic_and"
	TypeLogicOr       = "essentials_logic_or"
	TypeIfTruthy      = "control_if_truthy"
	TypeTextLiteral   = "text_literal"
	TypeTextPrint     = "text_print"
)

// FieldOp is the field carrying an operator symbol.
const FieldOp = "OP"

// Statement slot renamed on output.
const (
	SlotThen = "THEN"
	SlotDo   = "DO"
)

var typeTags = map[string]string{
	TypeVarSet:        "variables_set",
	TypeVarGet:        "variables_get",
	TypeNumLiteral:    "math_number",
	TypeNumArithmetic: "math_arithmetic",
	TypeCompare:       "logic_compare",
	TypeLogicAnd:      "logic_operation",
	TypeLogicOr:       "logic_operation",
	TypeIfTruthy:      "controls_if",
	TypeTextLiteral:   "text",
	TypeTextPrint:     "text_print",
}

var arithmeticOps = map[string]string{
	"+": "ADD",
	"-": "MINUS",
	"*": "MULTIPLY",
	"/": "DIVIDE",
}

var compareOps = map[string]string{
	"==": "EQ",
	"!=": "NEQ",
	"<":  "LT",
	"<=": "LTE",
	">":  "GT",
	">=": "GTE",
}

// logicConstants maps the logic types to the operator they always emit.
var logicConstants = map[string]string{
	TypeLogicAnd: "AND",
	TypeLogicOr:  "OR",
}

// fieldText returns the text emitted for field f of a node of type irType.
func fieldText(irType string, f ir.Field) string {
	text := f.Value.Text()
	if f.Name != FieldOp {
		return text
	}
	switch irType {
	case TypeNumArithmetic:
		if op, ok := arithmeticOps[text]; ok {
			return op
		}
	case TypeCompare:
		if op, ok := compareOps[text]; ok {
			return op
		}
	case TypeLogicAnd, TypeLogicOr:
		return logicConstants[irType]
	}
	return text
}

// statementName returns the emitted name of a statement slot.
func statementName(slot string) string {
	if slot == SlotThen {
		return SlotDo
	}
	return slot
}

// Mapping is one translation table entry.
type Mapping struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// OperatorRule describes how the OP field of one IR type is translated.
// Either Symbols or Constant is set.
type OperatorRule struct {
	Type     string    `json:"type" yaml:"type"`
	Field    string    `json:"field" yaml:"field"`
	Symbols  []Mapping `json:"symbols,omitempty" yaml:"symbols,omitempty"`
	Constant string    `json:"constant,omitempty" yaml:"constant,omitempty"`
}

// Vocab is a snapshot of the translation tables.
type Vocab struct {
	Types     []Mapping      `json:"types" yaml:"types"`
	Operators []OperatorRule `json:"operators" yaml:"operators"`
	Renames   []Mapping      `json:"statement_renames" yaml:"statement_renames"`
}

// Vocabulary returns the built-in translation tables.
func Vocabulary() Vocab {
	return defaultSerializer.Vocabulary()
}

// Vocabulary returns the translation tables in effect for s, including
// types added with WithTypeMap. Every list is sorted by IR name.
func (s *Serializer) Vocabulary() Vocab {
	return Vocab{
		Types: sortedMappings(s.types),
		Operators: []OperatorRule{
			{Type: TypeCompare, Field: FieldOp, Symbols: sortedMappings(compareOps)},
			{Type: TypeLogicAnd, Field: FieldOp, Constant: logicConstants[TypeLogicAnd]},
			{Type: TypeLogicOr, Field: FieldOp, Constant: logicConstants[TypeLogicOr]},
			{Type: TypeNumArithmetic, Field: FieldOp, Symbols: sortedMappings(arithmeticOps)},
		},
		Renames: []Mapping{{From: SlotThen, To: SlotDo}},
	}
}

func sortedMappings(m map[string]string) []Mapping {
	out := make([]Mapping, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, Mapping{From: k, To: m[k]})
	}
	return out
}

// UnknownTypes returns the sorted, de-duplicated IR types in the tree that
// are missing from the built-in type table.
func UnknownTypes(root *ir.Node) []string {
	return defaultSerializer.UnknownTypes(root)
}

// UnknownTypes returns the sorted, de-duplicated IR types in the tree that s
// would emit unchanged. Nil nodes and empty types are skipped; they are
// serialization errors rather than drift.
func (s *Serializer) UnknownTypes(root *ir.Node) []string {
	seen := make(map[string]bool)
	_ = ir.Walk(root, func(_ ir.Path, _ int, n *ir.Node) error {
		if n == nil || n.Type == "" {
			return nil
		}
		if _, ok := s.types[n.Type]; !ok {
			seen[n.Type] = true
		}
		return nil
	})
	if len(seen) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(seen))
}
