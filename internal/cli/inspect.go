package cli

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/blockxml/internal/document"
	"github.com/roach88/blockxml/internal/loader"
)

// InspectResult summarizes an XML document.
type InspectResult struct {
	File      string          `json:"file"`
	Root      string          `json:"root"`
	Namespace string          `json:"namespace,omitempty"`
	Blockly   bool            `json:"blockly"`
	Stats     *document.Stats `json:"stats"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <xml-file>",
		Short: "Check and summarize a Blockly XML document",
		Long: `Check that an XML document is well-formed and summarize its blocks.

Reports the root element and namespace, the number of top-level and
nested blocks, the field, value, statement and next elements, the
deepest block nesting, and block counts per type.

Exit codes:
  0 - Document is well-formed
  1 - Document is malformed
  2 - Command error (file not found)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runInspect(opts *RootOptions, xmlFile string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	data, err := os.ReadFile(xmlFile)
	if os.IsNotExist(err) {
		return outputFailure(formatter, &loader.LoadError{Code: loader.ErrCodeNotFound, Message: "xml file not found", Path: xmlFile, Err: err}, xmlFile)
	}
	if err != nil {
		return outputFailure(formatter, &loader.LoadError{Code: loader.ErrCodeGeneric, Message: fmt.Sprintf("reading xml file: %v", err), Path: xmlFile, Err: err}, xmlFile)
	}

	doc, err := document.Parse(data)
	if err != nil {
		_ = formatter.Error(loader.ErrCodeLoadFailed, fmt.Sprintf("%s: malformed XML: %v", xmlFile, err), nil)
		// Malformed documents are validation failures (exit code 1)
		return newReportedError(ExitFailure, fmt.Sprintf("%s: malformed XML", loader.ErrCodeLoadFailed))
	}

	stats := doc.Stats()
	result := InspectResult{
		File:      xmlFile,
		Root:      doc.RootName(),
		Namespace: doc.Namespace(),
		Blockly:   doc.IsBlockly(),
		Stats:     &stats,
	}
	formatter.VerboseLog("Parsed %d byte(s) from %s", len(data), xmlFile)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Blockly {
		fmt.Fprintf(w, "✓ %s is a well-formed Blockly document\n\n", xmlFile)
	} else {
		fmt.Fprintf(w, "✓ %s is well-formed (root <%s>, not a Blockly document)\n\n", xmlFile, result.Root)
	}
	fmt.Fprintf(w, "Blocks: %d (%d top-level, max depth %d)\n", stats.Blocks, stats.TopLevel, stats.MaxDepth)
	fmt.Fprintf(w, "Fields: %d, Values: %d, Statements: %d, Nexts: %d\n", stats.Fields, stats.Values, stats.Statements, stats.Nexts)
	if len(stats.Tags) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Block types:")
		for _, tag := range slices.Sorted(maps.Keys(stats.Tags)) {
			fmt.Fprintf(w, "  %s: %d\n", tag, stats.Tags[tag])
		}
	}
	return nil
}
