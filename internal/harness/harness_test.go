package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockxml/internal/ir"
	"github.com/roach88/blockxml/internal/testutil"
)

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "One print block",
		Tree:        ir.Trees{testutil.Print(testutil.Text("hi"))},
		Expect: Expectation{
			XML: `<block type="text_print"><value name="TEXT"><block type="text"><field name="TEXT">hi</field></block></value></block>`,
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.ErrorCode)
	assert.Equal(t, "<xml xmlns=\"https://developers.google.com/blockly/xml\">\n"+scenario.Expect.XML+"\n</xml>", result.Document)
}

func TestRun_XMLMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:   "mismatch",
		Tree:   ir.Trees{ir.NewNode("text_print")},
		Expect: Expectation{XML: `<block type="print"></block>`},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "xml mismatch")
	assert.Contains(t, result.Errors[0], `<block type="text_print"></block>`)
}

func TestRun_XMLJoinsTopLevelBlocks(t *testing.T) {
	scenario := &Scenario{
		Tree: ir.Trees{ir.NewNode("a"), ir.NewNode("b")},
		Expect: Expectation{XML: `
<block type="a"></block>
<block type="b"></block>
`},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Blocks, 2)
}

func TestRun_ContainsAndNotContains(t *testing.T) {
	tree := testutil.If(testutil.Var("ok"), testutil.Print(testutil.Text("yes")))

	result, err := Run(&Scenario{
		Tree: ir.Trees{tree},
		Expect: Expectation{
			Contains:    []string{`<statement name="DO">`, `<block type="controls_if">`},
			NotContains: []string{`THEN`},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	result, err = Run(&Scenario{
		Tree: ir.Trees{tree},
		Expect: Expectation{
			Contains:    []string{`<statement name="THEN">`},
			NotContains: []string{`DO`},
		},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 2)
}

func TestRun_ExpectedError(t *testing.T) {
	tree := testutil.Print(&ir.Node{})

	result, err := Run(&Scenario{
		Tree:   ir.Trees{tree},
		Expect: Expectation{Error: string(ir.CodeMissingType)},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "MISSING_TYPE", result.ErrorCode)
	assert.Contains(t, result.Error, "[0].value_inputs.TEXT")
	assert.Empty(t, result.Document)
	assert.Empty(t, result.Blocks)
}

func TestRun_WrongError(t *testing.T) {
	result, err := Run(&Scenario{
		Tree:   ir.Trees{nil},
		Expect: Expectation{Error: string(ir.CodeMissingType)},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "INVALID_NODE", result.ErrorCode)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error MISSING_TYPE")
}

func TestRun_MissingExpectedError(t *testing.T) {
	result, err := Run(&Scenario{
		Tree:   ir.Trees{ir.NewNode("a")},
		Expect: Expectation{Error: string(ir.CodeInvalidNode)},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "got none")
}

func TestRun_UnexpectedError(t *testing.T) {
	result, err := Run(&Scenario{
		Tree:   ir.Trees{ir.NewNode("a").SetNext(&ir.Node{})},
		Expect: Expectation{Contains: []string{"a"}},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "unexpected error")
	assert.Contains(t, result.Errors[0], "[0].next")
}

func TestRun_UnknownTypes(t *testing.T) {
	trees := ir.Trees{
		ir.NewNode("robot_move").SetNext(ir.NewNode("robot_turn")),
		testutil.Print(ir.NewNode("robot_move")),
	}

	result, err := Run(&Scenario{
		Tree:   trees,
		Expect: Expectation{UnknownTypes: []string{"robot_move", "robot_turn"}},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"robot_move", "robot_turn"}, result.UnknownTypes)

	result, err = Run(&Scenario{
		Tree:   trees,
		Expect: Expectation{UnknownTypes: []string{}},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "unknown types")
}

func TestRun_Vocab(t *testing.T) {
	result, err := Run(&Scenario{
		Tree:  ir.Trees{ir.NewNode("robot_move")},
		Vocab: map[string]string{"robot_move": "robot_forward"},
		Expect: Expectation{
			XML:          `<block type="robot_forward"></block>`,
			UnknownTypes: []string{},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Limits(t *testing.T) {
	tree := testutil.LinearChain(5)

	result, err := Run(&Scenario{
		Tree:     ir.Trees{tree},
		MaxNodes: 4,
		Expect:   Expectation{Error: string(ir.CodeLimitExceeded)},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	result, err = Run(&Scenario{
		Tree:     ir.Trees{tree},
		MaxDepth: 4,
		MaxNodes: 5,
		Expect:   Expectation{Contains: []string{"<next>"}},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_InputFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "tree.yaml")
	require.NoError(t, os.WriteFile(input, []byte("type: essentials_compare\nfields: {OP: \"<=\"}\n"), 0644))

	result, err := Run(&Scenario{
		Input:  input,
		Expect: Expectation{XML: `<block type="logic_compare"><field name="OP">LTE</field></block>`},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_InputDecodeErrorIsOutcome(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "tree.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"type": "a", "type": "b"}`), 0644))

	result, err := Run(&Scenario{
		Input:  input,
		Expect: Expectation{Error: string(ir.CodeInvalidNode)},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Error, "duplicate key")
}

func TestRun_InputUnreadable(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "tree.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"type": `), 0644))

	_, err := Run(&Scenario{
		Input:  input,
		Expect: Expectation{Error: string(ir.CodeInvalidNode)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load input")
}

func TestRun_Assertions(t *testing.T) {
	scenario := &Scenario{
		Tree: ir.Trees{testutil.Program()},
		Assertions: []Assertion{
			{Type: AssertXPathCount, Path: `//block[@type="math_number"]`, Count: 5},
			{Type: AssertXPathExists, Path: `//statement[@name="DO"]`},
			{Type: AssertXPathText, Path: `//block[@type="variables_set"]/field[@name="VAR"]`, Text: "x"},
			{Type: AssertXPathCount, Path: `//statement[@name="THEN"]`, Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_AssertionFailures(t *testing.T) {
	scenario := &Scenario{
		Tree: ir.Trees{testutil.Program()},
		Assertions: []Assertion{
			{Type: AssertXPathCount, Path: `//block[@type="math_number"]`, Count: 1},
			{Type: AssertXPathExists, Path: `//statement[@name="THEN"]`},
			{Type: AssertXPathText, Path: `//block[@type="variables_set"]/field[@name="VAR"]`, Text: "y"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Assertion failed: xpath_count")
	assert.Contains(t, result.Errors[1], "Assertion failed: xpath_exists")
	assert.Contains(t, result.Errors[2], `Actual: text "x"`)
}

func TestRun_InvalidXPath(t *testing.T) {
	_, err := Run(&Scenario{
		Tree:       ir.Trees{ir.NewNode("a")},
		Assertions: []Assertion{{Type: AssertXPathExists, Path: `//block[`}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to evaluate")
}

func TestRun_Deterministic(t *testing.T) {
	scenario := &Scenario{Tree: ir.Trees{testutil.Program()}, Expect: Expectation{UnknownTypes: []string{}}}

	first, err := Run(scenario)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Run(scenario)
		require.NoError(t, err)
		assert.Equal(t, first.Document, again.Document)
	}
}

func TestResult_AddError(t *testing.T) {
	result := NewResult()
	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	result.AddError("first")
	result.AddError("second")
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"first", "second"}, result.Errors)
}

func TestRun_ExampleScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
