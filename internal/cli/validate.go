package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/blockxml/internal/document"
	"github.com/roach88/blockxml/internal/ir"
	"github.com/roach88/blockxml/internal/loader"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	SerializerOptions
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool `json:"valid"`
	*GenerateResult
	Error *CLIError `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <tree-file>",
		Short: "Check that a tree file serializes",
		Long: `Load and serialize a tree file without writing any output.

Reports the number of trees and blocks, the block types that have no
mapping and are emitted unchanged, and the content digest of the trees.

Exit codes:
  0 - Tree file is valid
  1 - Invalid tree (INVALID_NODE, MISSING_TYPE, LIMIT_EXCEEDED)
  2 - Command error (file not found, decode failure)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runValidate(opts *ValidateOptions, treeFile string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	logger := opts.newLogger(cmd.ErrOrStderr())

	s, err := opts.newSerializer()
	if err != nil {
		return outputFailure(formatter, err, opts.VocabFile)
	}

	res, err := loader.LoadFile(treeFile)
	if err != nil {
		if ir.CodeOf(err) != "" {
			return outputValidationFailure(formatter, err, treeFile)
		}
		return outputFailure(formatter, err, treeFile)
	}
	formatter.VerboseLog("Loaded %d tree(s) from %s (%s)", len(res.Trees), treeFile, res.Format)

	if _, err := document.Bodies(s, res.Trees); err != nil {
		return outputValidationFailure(formatter, err, treeFile)
	}

	result, err := summarize(s, res, logger)
	if err != nil {
		return outputFailure(formatter, err, treeFile)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, GenerateResult: result})
	}

	fmt.Fprintf(formatter.Writer, "✓ %s is valid: %d tree(s), %d block(s)\n", treeFile, result.Trees, result.Blocks)
	fmt.Fprintf(formatter.Writer, "  digest: %s\n", result.Digest)
	if len(result.UnknownTypes) > 0 {
		fmt.Fprintf(formatter.Writer, "  unknown types: %s\n", strings.Join(result.UnknownTypes, ", "))
	}
	return nil
}

// outputValidationFailure reports a structural tree error.
func outputValidationFailure(formatter *OutputFormatter, err error, treeFile string) error {
	code, _, details := classifyError(err, treeFile)

	if formatter.Format == "json" {
		if encErr := formatter.Response(CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid: false,
				Error: &CLIError{Code: code, Message: err.Error(), Details: details},
			},
			Error: &CLIError{Code: code, Message: err.Error(), Details: details},
		}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		fmt.Fprintln(formatter.Writer)
		var nodeErr *ir.NodeError
		if errors.As(err, &nodeErr) && nodeErr.Path != "" {
			fmt.Fprintf(formatter.Writer, "at %s\n", nodeErr.Path)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, err.Error())
	}

	// Validation failures = exit code 1 (test/validation failure)
	return newReportedError(ExitFailure, fmt.Sprintf("validation failed: %s", code))
}
