package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// VocabOptions holds flags for the vocab command.
type VocabOptions struct {
	*RootOptions
	SerializerOptions
}

// NewVocabCommand creates the vocab command.
func NewVocabCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VocabOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Print the translation tables",
		Long: `Print the IR type to block tag table, the operator symbol tables and
the statement slot renames.

With --vocab, the extra type mappings are merged into the table shown.
Types missing from the table are emitted unchanged.

Examples:
  blockxml vocab
  blockxml vocab --vocab robots.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVocab(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.VocabFile, "vocab", "", "YAML file with extra type mappings")

	return cmd
}

func runVocab(opts *VocabOptions, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	s, err := opts.newSerializer()
	if err != nil {
		return outputFailure(formatter, err, opts.VocabFile)
	}
	vocab := s.Vocabulary()

	if formatter.Format == "json" {
		return formatter.Success(vocab)
	}

	w := formatter.Writer
	fmt.Fprintln(w, "Types:")
	for _, m := range vocab.Types {
		fmt.Fprintf(w, "  %s → %s\n", m.From, m.To)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Operators:")
	for _, rule := range vocab.Operators {
		if rule.Constant != "" {
			fmt.Fprintf(w, "  %s.%s: always %s\n", rule.Type, rule.Field, rule.Constant)
			continue
		}
		symbols := make([]string, len(rule.Symbols))
		for i, m := range rule.Symbols {
			symbols[i] = m.From + " → " + m.To
		}
		fmt.Fprintf(w, "  %s.%s: %s\n", rule.Type, rule.Field, strings.Join(symbols, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Statement renames:")
	for _, m := range vocab.Renames {
		fmt.Fprintf(w, "  %s → %s\n", m.From, m.To)
	}
	return nil
}
