package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockxml/internal/blockxml"
	"github.com/roach88/blockxml/internal/ir"
	"github.com/roach88/blockxml/internal/testutil"
)

func TestWrap(t *testing.T) {
	assert.Equal(t,
		"<xml xmlns=\"https://developers.google.com/blockly/xml\">\n</xml>",
		Wrap())
	assert.Equal(t,
		"<xml xmlns=\"https://developers.google.com/blockly/xml\">\n<block type=\"a\"></block>\n</xml>",
		Wrap(`<block type="a"></block>`))
	assert.Equal(t,
		"<xml xmlns=\"https://developers.google.com/blockly/xml\">\n<a/>\n<b/>\n</xml>",
		Wrap("<a/>", "<b/>"))
}

func TestBuild(t *testing.T) {
	out, err := Build(nil, []*ir.Node{testutil.Print(testutil.Text("hi")), ir.NewNode("math_single")})
	require.NoError(t, err)
	assert.Equal(t,
		"<xml xmlns=\"https://developers.google.com/blockly/xml\">\n"+
			`<block type="text_print"><value name="TEXT"><block type="text"><field name="TEXT">hi</field></block></value></block>`+"\n"+
			`<block type="math_single"></block>`+"\n"+
			"</xml>",
		string(out))
}

func TestBuild_UsesSerializerOptions(t *testing.T) {
	s := blockxml.New(blockxml.WithTypeMap(map[string]string{"math_single": "math_single_v2"}))
	out, err := Build(s, []*ir.Node{ir.NewNode("math_single")})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<block type="math_single_v2">`)
}

func TestBuild_FailsClosed(t *testing.T) {
	trees := []*ir.Node{
		testutil.Print(testutil.Text("ok")),
		ir.NewNode("a").SetValue("A", &ir.Node{}),
	}

	out, err := Build(nil, trees)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ir.ErrMissingType))

	var ne *ir.NodeError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "[1].value_inputs.A", ne.Path)
}

func TestBuild_NilTree(t *testing.T) {
	_, err := Build(nil, []*ir.Node{nil})
	require.Error(t, err)

	var ne *ir.NodeError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, ir.CodeInvalidNode, ne.Code)
	assert.Equal(t, "[0]", ne.Path)
}

func TestBodies(t *testing.T) {
	bodies, err := Bodies(nil, []*ir.Node{ir.NewNode("a"), ir.NewNode("text_literal")})
	require.NoError(t, err)
	assert.Equal(t, []string{`<block type="a"></block>`, `<block type="text"></block>`}, bodies)

	bodies, err = Bodies(nil, []*ir.Node{ir.NewNode("a"), {}})
	require.Error(t, err)
	assert.Nil(t, bodies)
	assert.True(t, errors.Is(err, ir.ErrMissingType))
}

func TestBuild_NoTrees(t *testing.T) {
	out, err := Build(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Wrap(), string(out))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate([]byte(Wrap(`<block type="a"></block>`))))

	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"text only", "hello"},
		{"unclosed", `<xml><block type="a"></xml>`},
		{"bad attribute", `<xml><block type=a></block></xml>`},
		{"unknown entity", `<xml>&nbsp;</xml>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate([]byte(tt.data)))
		})
	}
}

func TestParse_Root(t *testing.T) {
	doc, err := Parse([]byte(Wrap()))
	require.NoError(t, err)
	assert.Equal(t, "xml", doc.RootName())
	assert.Equal(t, Namespace, doc.Namespace())
	assert.True(t, doc.IsBlockly())

	doc, err = Parse([]byte(`<xml><block type="a"/></xml>`))
	require.NoError(t, err)
	assert.False(t, doc.IsBlockly())

	_, err = Parse([]byte(`<xml>`))
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	out, err := Build(nil, []*ir.Node{testutil.Program()})
	require.NoError(t, err)
	doc, err := Parse(out)
	require.NoError(t, err)

	ops, err := doc.Query(`//block[@type="logic_operation"]/field[@name="OP"]`)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "OR", ops[0].Text())
	assert.Equal(t, "AND", ops[1].Text())
	assert.Equal(t, "field", ops[0].Name())
	assert.Equal(t, "OP", ops[0].Attr("name"))

	n, err := doc.Count(`//statement[@name="DO"]`)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = doc.Query(`//block[`)
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	out, err := Build(nil, []*ir.Node{testutil.Program(), testutil.Print(testutil.Text("second"))})
	require.NoError(t, err)
	doc, err := Parse(out)
	require.NoError(t, err)

	stats := doc.Stats()
	assert.Equal(t, 2, stats.TopLevel)
	assert.Equal(t, ir.Count(testutil.Program())+2, stats.Blocks)
	assert.Equal(t, 3, stats.Nexts)
	assert.Equal(t, 1, stats.Statements)
	assert.Equal(t, 3, stats.Tags["logic_compare"])
	assert.Equal(t, 2, stats.Tags["logic_operation"])
	assert.Equal(t, 4, stats.Tags["text_print"])
}

func TestStats_MatchesIRShape(t *testing.T) {
	tree := testutil.Program()
	out, err := Build(nil, []*ir.Node{tree})
	require.NoError(t, err)
	doc, err := Parse(out)
	require.NoError(t, err)

	var fields, values, statements, nexts, maxDepth int
	require.NoError(t, ir.Walk(tree, func(_ ir.Path, depth int, n *ir.Node) error {
		fields += len(n.Fields)
		values += len(n.ValueInputs)
		statements += len(n.StatementInputs)
		if n.Next != nil {
			nexts++
		}
		maxDepth = max(maxDepth, depth)
		return nil
	}))

	stats := doc.Stats()
	assert.Equal(t, ir.Count(tree), stats.Blocks)
	assert.Equal(t, fields, stats.Fields)
	assert.Equal(t, values, stats.Values)
	assert.Equal(t, statements, stats.Statements)
	assert.Equal(t, nexts, stats.Nexts)
	assert.Equal(t, maxDepth, stats.MaxDepth)
}

func TestStats_Empty(t *testing.T) {
	doc, err := Parse([]byte(Wrap()))
	require.NoError(t, err)
	stats := doc.Stats()
	assert.Zero(t, stats.Blocks)
	assert.Zero(t, stats.TopLevel)
	assert.NotNil(t, stats.Tags)
}

func TestBuild_ParsesAsWellFormed(t *testing.T) {
	tree := ir.NewNode("custom").
		SetField("F", ir.NewString(`<&>"'`)).
		SetValue("A<B", testutil.Text("x\ny"))
	out, err := Build(nil, []*ir.Node{tree})
	require.NoError(t, err)
	require.NoError(t, Validate(out))

	doc, err := Parse(out)
	require.NoError(t, err)
	fields, err := doc.Query(`//field`)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, `<&>"'`, fields[0].Text())
	assert.Equal(t, "x\ny", fields[1].Text())

	values, err := doc.Query(`//value`)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "A<B", values[0].Attr("name"))
	assert.True(t, strings.HasPrefix(string(out), "<xml "))
}
