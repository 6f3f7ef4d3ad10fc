package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockxml/internal/document"
)

func parseDoc(t *testing.T, bodies ...string) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(document.Wrap(bodies...)))
	require.NoError(t, err)
	return doc
}

const sampleBlocks = `<block type="math_arithmetic"><field name="OP">ADD</field><value name="A"><block type="math_number"><field name="NUM">2</field></block></value><value name="B"><block type="math_number"><field name="NUM">3</field></block></value></block>`

func TestAssertXPathCount_Match(t *testing.T) {
	doc := parseDoc(t, sampleBlocks)

	err := evaluateAssertion(doc, Assertion{Type: AssertXPathCount, Path: "//block", Count: 3})
	assert.NoError(t, err)

	err = evaluateAssertion(doc, Assertion{Type: AssertXPathCount, Path: "//next", Count: 0})
	assert.NoError(t, err)
}

func TestAssertXPathCount_Mismatch(t *testing.T) {
	doc := parseDoc(t, sampleBlocks)

	err := evaluateAssertion(doc, Assertion{Type: AssertXPathCount, Path: `//block[@type="math_number"]`, Count: 3})
	require.Error(t, err)

	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Equal(t, "xpath_count", assertErr.Type)
	assert.Equal(t, "3 matches", assertErr.Expected)
	assert.Equal(t, "2 matches", assertErr.Actual)
}

func TestAssertXPathExists(t *testing.T) {
	doc := parseDoc(t, sampleBlocks)

	assert.NoError(t, evaluateAssertion(doc, Assertion{Type: AssertXPathExists, Path: `//value[@name="B"]`}))

	err := evaluateAssertion(doc, Assertion{Type: AssertXPathExists, Path: `//value[@name="C"]`})
	require.Error(t, err)
	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Equal(t, "no matches", assertErr.Actual)
}

func TestAssertXPathText(t *testing.T) {
	doc := parseDoc(t, sampleBlocks)

	assert.NoError(t, evaluateAssertion(doc, Assertion{Type: AssertXPathText, Path: `//field[@name="OP"]`, Text: "ADD"}))
	// First match in document order
	assert.NoError(t, evaluateAssertion(doc, Assertion{Type: AssertXPathText, Path: `//field[@name="NUM"]`, Text: "2"}))

	err := evaluateAssertion(doc, Assertion{Type: AssertXPathText, Path: `//field[@name="OP"]`, Text: "+"})
	require.Error(t, err)
	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Equal(t, `text "+"`, assertErr.Expected)
	assert.Equal(t, `text "ADD"`, assertErr.Actual)

	err = evaluateAssertion(doc, Assertion{Type: AssertXPathText, Path: `//field[@name="VAR"]`, Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matches")
}

func TestEvaluateAssertion_InvalidQuery(t *testing.T) {
	doc := parseDoc(t, sampleBlocks)

	err := evaluateAssertion(doc, Assertion{Type: AssertXPathCount, Path: "//block[", Count: 1})
	require.Error(t, err)
	_, isAssertion := err.(*AssertionError)
	assert.False(t, isAssertion)
}

func TestEvaluateAssertion_UnknownType(t *testing.T) {
	doc := parseDoc(t)
	err := evaluateAssertion(doc, Assertion{Type: "trace_order", Path: "//block"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown assertion type")
}

func TestAssertionError_Error(t *testing.T) {
	err := &AssertionError{Type: "xpath_count", Path: "//block", Expected: "1 matches", Actual: "2 matches"}
	assert.Equal(t, "Assertion failed: xpath_count\n  Path: //block\n  Expected: 1 matches\n  Actual: 2 matches", err.Error())
}
