package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/blockxml/internal/blockxml"
	"github.com/roach88/blockxml/internal/document"
	"github.com/roach88/blockxml/internal/loader"
)

// ManifestFile is the name of the manifest written to the output directory.
const ManifestFile = "manifest.json"

// IDGenerator generates batch run identifiers.
type IDGenerator interface {
	Generate() string
}

// uuidGenerator produces time-sortable UUIDv7 run IDs, so manifests from
// successive runs order by creation time.
type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	SerializerOptions
	OutDir string      // output directory (required)
	Filter string      // file name filter (glob pattern)
	IDGen  IDGenerator // run ID source
}

// Manifest records the outcome of one batch run.
type Manifest struct {
	RunID  string          `json:"run_id"`
	Input  string          `json:"input"`
	Output string          `json:"output"`
	Files  []ManifestEntry `json:"files"`
	Passed int             `json:"passed"`
	Failed int             `json:"failed"`
	Total  int             `json:"total"`
}

// ManifestEntry records one converted (or failed) tree file.
// Paths are slash-separated and relative to the input and output directories.
type ManifestEntry struct {
	Input        string    `json:"input"`
	Output       string    `json:"output,omitempty"`
	Status       string    `json:"status"` // "ok" | "error"
	Trees        int       `json:"trees,omitempty"`
	Blocks       int       `json:"blocks,omitempty"`
	Digest       string    `json:"digest,omitempty"`
	UnknownTypes []string  `json:"unknown_types,omitempty"`
	Error        *CLIError `json:"error,omitempty"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	return newBatchCommand(rootOpts, uuidGenerator{})
}

func newBatchCommand(rootOpts *RootOptions, idGen IDGenerator) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts, IDGen: idGen}

	cmd := &cobra.Command{
		Use:   "batch <trees-dir>",
		Short: "Convert every tree file in a directory",
		Long: `Convert every tree file under a directory to Blockly XML.

Each <name>.json, .yaml, .yml or .cue file is written to the output
directory as <name>.xml, keeping its relative path. Files are processed
in lexical order. A manifest.json in the output directory records the
run ID, the digest of each input and the outcome per file. Files that
fail to convert are recorded and produce no output.

Exit codes:
  0 - All files converted
  1 - One or more files failed
  2 - Command error (directory not found, no files, write failure)

Examples:
  blockxml batch ./trees -o ./out
  blockxml batch ./trees -o ./out --filter "lesson-*"
  blockxml batch ./trees -o ./out --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.OutDir, "output", "o", "", "output directory (required)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter tree files by glob pattern")
	opts.addFlags(cmd)
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runBatch(opts *BatchOptions, treesDir string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	logger := opts.newLogger(cmd.ErrOrStderr())

	s, err := opts.newSerializer()
	if err != nil {
		return outputFailure(formatter, err, opts.VocabFile)
	}

	// A previous run's output may sit inside the trees directory.
	files, err := loader.FindTreeFiles(treesDir, opts.Filter, opts.OutDir, filepath.Join(opts.OutDir, ManifestFile))
	if err != nil {
		return outputFailure(formatter, err, treesDir)
	}
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return outputFailure(formatter, writeError(opts.OutDir, err), opts.OutDir)
	}

	manifest := Manifest{
		RunID:  opts.IDGen.Generate(),
		Input:  filepath.ToSlash(treesDir),
		Output: filepath.ToSlash(opts.OutDir),
		Files:  make([]ManifestEntry, 0, len(files)),
		Total:  len(files),
	}
	logger = logger.With("run_id", manifest.RunID)
	logger.Info("batch started", "input", treesDir, "files", len(files))

	for _, file := range files {
		rel, err := filepath.Rel(treesDir, file)
		if err != nil {
			rel = filepath.Base(file)
		}
		outRel := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".xml"
		entry := ManifestEntry{Input: filepath.ToSlash(rel), Status: "ok"}

		outPath := filepath.Join(opts.OutDir, outRel)
		if err := convertFile(s, file, outPath, &entry, logger); err != nil {
			if isWriteFailure(err) {
				logger.Error("batch aborted", "file", entry.Input, "error", err)
				return outputFailure(formatter, err, outPath)
			}
			code, _, details := classifyError(err, entry.Input)
			entry.Status = "error"
			entry.Error = &CLIError{Code: code, Message: err.Error()}
			if details != nil && details.NodePath != "" {
				entry.Error.Details = details
			}
			manifest.Failed++
			logger.Warn("conversion failed", "file", entry.Input, "code", code, "error", err)
		} else {
			entry.Output = filepath.ToSlash(outRel)
			manifest.Passed++
			logger.Info("converted", "file", entry.Input, "output", entry.Output)
		}
		manifest.Files = append(manifest.Files, entry)
	}

	manifestPath := filepath.Join(opts.OutDir, ManifestFile)
	if err := writeManifest(manifestPath, manifest); err != nil {
		return outputFailure(formatter, writeError(manifestPath, err), manifestPath)
	}
	logger.Info("batch finished", "passed", manifest.Passed, "failed", manifest.Failed)

	if formatter.Format == "json" {
		return outputBatchJSON(formatter, manifest)
	}
	return outputBatchText(formatter, manifest)
}

// convertFile loads, serializes and writes one tree file, filling entry.
func convertFile(s *blockxml.Serializer, file, outPath string, entry *ManifestEntry, logger *slog.Logger) error {
	res, err := loader.LoadFile(file)
	if err != nil {
		return err
	}
	out, err := document.Build(s, res.Trees)
	if err != nil {
		return err
	}

	summary, err := summarize(s, res, logger)
	if err != nil {
		return err
	}
	entry.Trees = summary.Trees
	entry.Blocks = summary.Blocks
	entry.Digest = summary.Digest
	entry.UnknownTypes = summary.UnknownTypes

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return writeError(outPath, err)
	}
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return writeError(outPath, err)
	}
	return nil
}

func writeError(path string, err error) *loader.LoadError {
	return &loader.LoadError{
		Code:    loader.ErrCodeWriteFailed,
		Message: fmt.Sprintf("writing %s: %v", path, err),
		Path:    path,
		Err:     err,
	}
}

func isWriteFailure(err error) bool {
	var loadErr *loader.LoadError
	return errors.As(err, &loadErr) && loadErr.Code == loader.ErrCodeWriteFailed
}

func writeManifest(path string, manifest Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// outputBatchJSON outputs the manifest as JSON, with the run ID as trace ID.
func outputBatchJSON(formatter *OutputFormatter, manifest Manifest) error {
	response := CLIResponse{
		Status:  "ok",
		Data:    manifest,
		TraceID: manifest.RunID,
	}
	if manifest.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_BATCH_FAILED",
			Message: fmt.Sprintf("%d file(s) failed", manifest.Failed),
		}
	}

	if err := formatter.Response(response); err != nil {
		return err
	}
	if manifest.Failed > 0 {
		return newReportedError(ExitFailure, fmt.Sprintf("%d file(s) failed", manifest.Failed))
	}
	return nil
}

// outputBatchText outputs one line per file and a summary.
func outputBatchText(formatter *OutputFormatter, manifest Manifest) error {
	w := formatter.Writer

	for _, entry := range manifest.Files {
		if entry.Status == "ok" {
			fmt.Fprintf(w, "✓ %s → %s\n", entry.Input, entry.Output)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", entry.Input)
		fmt.Fprintf(w, "  %s: %s\n", entry.Error.Code, entry.Error.Message)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Batch Summary: %d converted, %d failed, %d total\n", manifest.Passed, manifest.Failed, manifest.Total)
	fmt.Fprintf(w, "Run ID: %s\n", manifest.RunID)

	if manifest.Failed > 0 {
		return newReportedError(ExitFailure, fmt.Sprintf("%d file(s) failed", manifest.Failed))
	}
	return nil
}
