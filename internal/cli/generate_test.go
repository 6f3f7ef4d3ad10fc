package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockxml/internal/ir"
	"github.com/roach88/blockxml/internal/loader"
)

func goldenDocument(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "scenarios", "golden", name+".golden"))
	require.NoError(t, err)
	return string(data)
}

func TestGenerate_Stdout(t *testing.T) {
	out, err := execute(NewGenerateCommand(&RootOptions{Format: "text"}), treePath("add.json"))
	require.NoError(t, err)
	assert.Equal(t, goldenDocument(t, "arithmetic_add")+"\n", out)
}

func TestGenerate_OutputFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "add.xml")

	out, err := execute(NewGenerateCommand(&RootOptions{Format: "text"}), treePath("add.json"), "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote 3 block(s) in 1 tree(s) to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, goldenDocument(t, "arithmetic_add"), string(data))
}

func TestGenerate_Pretty(t *testing.T) {
	out, err := execute(NewGenerateCommand(&RootOptions{Format: "text"}), treePath("add.json"), "--pretty")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  <block type=\"math_arithmetic\">\n    <field name=\"OP\">ADD</field>\n")
}

func TestGenerate_JSON(t *testing.T) {
	out, err := execute(NewGenerateCommand(&RootOptions{Format: "json"}), treePath("add.json"))
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   GenerateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Trees)
	assert.Equal(t, 3, resp.Data.Blocks)
	assert.Empty(t, resp.Data.UnknownTypes)
	assert.Equal(t, goldenDocument(t, "arithmetic_add"), resp.Data.XML)

	res, err := loader.LoadFile(treePath("add.json"))
	require.NoError(t, err)
	digest, err := ir.Digest(res.Trees...)
	require.NoError(t, err)
	assert.Equal(t, digest, resp.Data.Digest)
}

func TestGenerate_JSONWithOutputOmitsXML(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "add.xml")

	out, err := execute(NewGenerateCommand(&RootOptions{Format: "json"}), treePath("add.json"), "-o", outFile)
	require.NoError(t, err)
	assert.NotContains(t, out, `"xml"`)
	assert.Contains(t, out, `"output"`)
}

func TestGenerate_MultipleTrees(t *testing.T) {
	out, err := execute(NewGenerateCommand(&RootOptions{Format: "json"}), treePath("countdown.cue"))
	require.NoError(t, err)

	var resp struct {
		Data GenerateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 4, resp.Data.Trees)
	assert.Equal(t, 4, strings.Count(resp.Data.XML, `<block type="text_print">`))
}

func TestGenerate_UnknownTypesWarn(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "robot.json")
	require.NoError(t, os.WriteFile(tree, []byte(`{"type": "robot_move", "fields": {"STEPS": 3}}`), 0644))

	cmd := NewGenerateCommand(&RootOptions{Format: "text"})
	stderr := &strings.Builder{}
	stdout := &strings.Builder{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs([]string{tree})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), `<block type="robot_move"><field name="STEPS">3</field></block>`)
	assert.Contains(t, stderr.String(), "unmapped block types emitted unchanged")
	assert.Contains(t, stderr.String(), "robot_move")
}

func TestGenerate_Vocab(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "robot.json")
	vocab := filepath.Join(dir, "robots.yaml")
	require.NoError(t, os.WriteFile(tree, []byte(`{"type": "robot_move"}`), 0644))
	require.NoError(t, os.WriteFile(vocab, []byte("types:\n  robot_move: robot_move_forward\n"), 0644))

	out, err := execute(NewGenerateCommand(&RootOptions{Format: "text"}), tree, "--vocab", vocab)
	require.NoError(t, err)
	assert.Contains(t, out, `<block type="robot_move_forward"></block>`)
}

func TestGenerate_Errors(t *testing.T) {
	dir := t.TempDir()
	badVocab := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badVocab, []byte("typos:\n  a: b\n"), 0644))
	chain := filepath.Join(dir, "chain.json")
	require.NoError(t, os.WriteFile(chain, []byte(`{"type": "a", "next": {"type": "b", "next": {"type": "c"}}}`), 0644))

	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantExit int
	}{
		{"not_found", []string{filepath.Join(dir, "missing.json")}, loader.ErrCodeNotFound, ExitCommandError},
		{"missing_type", []string{treePath("broken.json")}, loader.ErrCodeMissingType, ExitFailure},
		{"depth_limit", []string{chain, "--max-depth", "1"}, loader.ErrCodeLimitExceeded, ExitFailure},
		{"node_limit", []string{treePath("add.json"), "--max-nodes", "2"}, loader.ErrCodeLimitExceeded, ExitFailure},
		{"negative_limit", []string{treePath("add.json"), "--max-depth=-1"}, loader.ErrCodeGeneric, ExitCommandError},
		{"vocab_not_found", []string{treePath("add.json"), "--vocab", filepath.Join(dir, "none.yaml")}, loader.ErrCodeNotFound, ExitCommandError},
		{"vocab_unknown_field", []string{treePath("add.json"), "--vocab", badVocab}, loader.ErrCodeLoadFailed, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewGenerateCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantCode)
			assert.Contains(t, out, "Error ["+tt.wantCode+"]")
		})
	}
}

func TestGenerate_FailureWritesNothing(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "broken.xml")

	_, err := execute(NewGenerateCommand(&RootOptions{Format: "text"}), treePath("broken.json"), "-o", outFile)
	require.Error(t, err)
	assert.NoFileExists(t, outFile)
}

func TestGenerate_ErrorJSONDetails(t *testing.T) {
	out, err := execute(NewGenerateCommand(&RootOptions{Format: "json"}), treePath("broken.json"))
	require.Error(t, err)

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string       `json:"code"`
			Details ErrorDetails `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, loader.ErrCodeMissingType, resp.Error.Code)
	assert.Equal(t, "[0].value_inputs.TEXT", resp.Error.Details.NodePath)
}

func TestGenerate_WriteFailure(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "missing-dir", "add.xml")

	_, err := execute(NewGenerateCommand(&RootOptions{Format: "text"}), treePath("add.json"), "-o", outFile)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), loader.ErrCodeWriteFailed)
}
