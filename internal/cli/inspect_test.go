package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockxml/internal/loader"
)

func writeXML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestInspect_GeneratedDocument(t *testing.T) {
	xmlFile := filepath.Join(t.TempDir(), "add.xml")
	_, err := execute(NewGenerateCommand(&RootOptions{Format: "text"}), treePath("add.json"), "-o", xmlFile)
	require.NoError(t, err)

	out, err := execute(NewInspectCommand(&RootOptions{Format: "text"}), xmlFile)
	require.NoError(t, err)
	assert.Contains(t, out, "is a well-formed Blockly document")
	assert.Contains(t, out, "Blocks: 3 (1 top-level, max depth 1)")
	assert.Contains(t, out, "Fields: 3, Values: 2, Statements: 0, Nexts: 0")
	assert.Contains(t, out, "Block types:\n  math_arithmetic: 1\n  math_number: 2\n")
}

func TestInspect_JSON(t *testing.T) {
	xmlFile := writeXML(t, `<xml xmlns="https://developers.google.com/blockly/xml"><block type="a"><next><block type="b"></block></next></block><block type="c"></block></xml>`)

	out, err := execute(NewInspectCommand(&RootOptions{Format: "json"}), xmlFile)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   InspectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "xml", resp.Data.Root)
	assert.Equal(t, "https://developers.google.com/blockly/xml", resp.Data.Namespace)
	assert.True(t, resp.Data.Blockly)
	require.NotNil(t, resp.Data.Stats)
	assert.Equal(t, 3, resp.Data.Stats.Blocks)
	assert.Equal(t, 2, resp.Data.Stats.TopLevel)
	assert.Equal(t, 1, resp.Data.Stats.Nexts)
}

func TestInspect_NotBlockly(t *testing.T) {
	xmlFile := writeXML(t, `<catalog><item/></catalog>`)

	out, err := execute(NewInspectCommand(&RootOptions{Format: "text"}), xmlFile)
	require.NoError(t, err)
	assert.Contains(t, out, "is well-formed (root <catalog>, not a Blockly document)")
	assert.Contains(t, out, "Blocks: 0")
}

func TestInspect_Malformed(t *testing.T) {
	xmlFile := writeXML(t, `<xml><block type="a"></xml>`)

	out, err := execute(NewInspectCommand(&RootOptions{Format: "text"}), xmlFile)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+loader.ErrCodeLoadFailed+"]")
	assert.Contains(t, out, "malformed XML")
}

func TestInspect_NotFound(t *testing.T) {
	_, err := execute(NewInspectCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "none.xml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), loader.ErrCodeNotFound)
}
