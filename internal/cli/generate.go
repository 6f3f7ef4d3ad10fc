package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/blockxml/internal/blockxml"
	"github.com/roach88/blockxml/internal/document"
	"github.com/roach88/blockxml/internal/ir"
	"github.com/roach88/blockxml/internal/loader"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	SerializerOptions
	Output string // output file path (stdout when empty)
	Pretty bool   // indent the document
}

// GenerateResult describes a generated document.
type GenerateResult struct {
	Input        string   `json:"input"`
	Output       string   `json:"output,omitempty"`
	Trees        int      `json:"trees"`
	Blocks       int      `json:"blocks"`
	UnknownTypes []string `json:"unknown_types,omitempty"`
	Digest       string   `json:"digest"`
	XML          string   `json:"xml,omitempty"` // set when no output file is given
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <tree-file>",
		Short: "Generate Blockly XML from a tree file",
		Long: `Generate a Blockly XML document from an IR tree file.

The tree file (.json, .yaml, .yml or .cue) holds one node or a list of
nodes. Every top-level node becomes one <block> under the <xml> root.
Nothing is written when any tree fails to serialize.

Exit codes:
  0 - Document generated
  1 - Invalid tree (INVALID_NODE, MISSING_TYPE, LIMIT_EXCEEDED)
  2 - Command error (file not found, decode failure, write failure)

Examples:
  blockxml generate program.json
  blockxml generate program.yaml -o program.xml --pretty
  blockxml generate program.cue --vocab robots.yaml --max-depth 500`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "indent the generated document")
	opts.addFlags(cmd)

	return cmd
}

func runGenerate(opts *GenerateOptions, treeFile string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	logger := opts.newLogger(cmd.ErrOrStderr())

	s, err := opts.newSerializer()
	if err != nil {
		return outputFailure(formatter, err, opts.VocabFile)
	}

	res, err := loader.LoadFile(treeFile)
	if err != nil {
		return outputFailure(formatter, err, treeFile)
	}
	formatter.VerboseLog("Loaded %d tree(s) from %s (%s)", len(res.Trees), treeFile, res.Format)

	out, err := document.Build(s, res.Trees)
	if err != nil {
		return outputFailure(formatter, err, treeFile)
	}
	if opts.Pretty {
		out, err = document.Format(out, document.DefaultIndent)
		if err != nil {
			return outputFailure(formatter, fmt.Errorf("formatting document: %w", err), treeFile)
		}
	}

	result, err := summarize(s, res, logger)
	if err != nil {
		return outputFailure(formatter, err, treeFile)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, out, 0644); err != nil {
			return outputFailure(formatter, &loader.LoadError{
				Code:    loader.ErrCodeWriteFailed,
				Message: fmt.Sprintf("writing output file: %v", err),
				Path:    opts.Output,
				Err:     err,
			}, opts.Output)
		}
		result.Output = opts.Output
		formatter.VerboseLog("Wrote %d byte(s) to %s", len(out), opts.Output)
	}

	if formatter.Format == "json" {
		if opts.Output == "" {
			result.XML = string(out)
		}
		return formatter.Success(result)
	}

	if opts.Output == "" {
		fmt.Fprintln(formatter.Writer, string(out))
		return nil
	}
	fmt.Fprintf(formatter.Writer, "✓ Wrote %d block(s) in %d tree(s) to %s\n", result.Blocks, result.Trees, opts.Output)
	return nil
}

// summarize counts the blocks of a serialized file, computes its digest and
// logs any unmapped types.
func summarize(s *blockxml.Serializer, res *loader.Result, logger *slog.Logger) (*GenerateResult, error) {
	result := &GenerateResult{
		Input: res.Path,
		Trees: len(res.Trees),
	}
	for _, tree := range res.Trees {
		result.Blocks += ir.Count(tree)
		result.UnknownTypes = append(result.UnknownTypes, s.UnknownTypes(tree)...)
	}
	if len(result.UnknownTypes) > 0 {
		slices.Sort(result.UnknownTypes)
		result.UnknownTypes = slices.Compact(result.UnknownTypes)
		logger.Warn("unmapped block types emitted unchanged", "file", res.Path, "types", result.UnknownTypes)
	}

	digest, err := ir.Digest(res.Trees...)
	if err != nil {
		return nil, err
	}
	result.Digest = digest
	return result, nil
}
