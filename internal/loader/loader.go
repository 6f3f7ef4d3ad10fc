// Package loader reads IR tree files in JSON, YAML or CUE.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/blockxml/internal/ir"
)

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No tree files found
	ErrCodeLoadFailed  = "E004" // Tree file could not be decoded
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	// Tree structure errors
	ErrCodeInvalidNode   = "E101" // Missing or malformed node
	ErrCodeMissingType   = "E102" // Node without a type
	ErrCodeLimitExceeded = "E103" // Depth or node limit exceeded
)

// MapNodeErrorCode maps an IR node error code to a CLI error code.
func MapNodeErrorCode(code ir.ErrorCode) string {
	switch code {
	case ir.CodeInvalidNode:
		return ErrCodeInvalidNode
	case ir.CodeMissingType:
		return ErrCodeMissingType
	case ir.CodeLimitExceeded:
		return ErrCodeLimitExceeded
	default:
		return ErrCodeGeneric
	}
}

// LoadError represents an error that occurred while loading a tree file.
type LoadError struct {
	Code    string
	Message string
	Path    string    // File path if known
	Pos     token.Pos // CUE position if available
	Err     error     // Underlying error, if any
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error so ir sentinels match with errors.Is.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Format identifies an IR document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatForPath returns the format implied by the file extension.
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".cue":
		return FormatCUE, true
	default:
		return "", false
	}
}

// Result holds the trees read from one file.
type Result struct {
	Path   string
	Format Format
	Trees  []*ir.Node
}

// LoadFile reads and decodes the tree file at path.
// The top-level value may be one node, a list of nodes, or null.
func LoadFile(path string) (*Result, error) {
	format, ok := FormatForPath(path)
	if !ok {
		return nil, &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("unsupported file extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path)),
			Path:    path,
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "tree file not found", Path: path, Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading tree file: %v", err), Path: path, Err: err}
	}

	trees, err := load(data, format, path)
	if err != nil {
		return nil, err
	}
	return &Result{Path: path, Format: format, Trees: trees}, nil
}

// Load decodes an IR document held in memory.
func Load(data []byte, format Format) ([]*ir.Node, error) {
	return load(data, format, "")
}

func load(data []byte, format Format, path string) ([]*ir.Node, error) {
	var (
		trees []*ir.Node
		err   error
	)
	switch format {
	case FormatJSON:
		trees, err = ir.DecodeJSON(bytes.NewReader(data))
	case FormatYAML:
		trees, err = ir.DecodeYAML(bytes.NewReader(data))
	case FormatCUE:
		return loadCUE(data, path)
	default:
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("unknown format %q", format), Path: path}
	}
	if err != nil {
		return nil, decodeError(err, path)
	}
	return trees, nil
}

// loadCUE evaluates a CUE file and decodes its concrete value as JSON.
// Definitions and hidden fields can be used to share node templates; they
// are not part of the exported tree.
func loadCUE(data []byte, path string) ([]*ir.Node, error) {
	ctx := cuecontext.New()
	filename := path
	if filename == "" {
		filename = "input.cue"
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, cueError("building CUE value", err, path)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError("CUE value is not concrete", err, path)
	}

	exported, err := value.MarshalJSON()
	if err != nil {
		return nil, cueError("exporting CUE value", err, path)
	}
	trees, err := ir.DecodeJSON(bytes.NewReader(exported))
	if err != nil {
		return nil, decodeError(err, path)
	}
	return trees, nil
}

// cueError converts a CUE error to a LoadError with position info.
func cueError(context string, err error, path string) *LoadError {
	loadErr := &LoadError{
		Code:    ErrCodeBuildFailed,
		Message: fmt.Sprintf("%s: %v", context, err),
		Path:    path,
		Err:     err,
	}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		if positions := cueerrors.Positions(errs[0]); len(positions) > 0 {
			loadErr.Pos = positions[0]
		}
	}
	return loadErr
}

// decodeError converts a decode failure to a LoadError. Structural IR
// errors keep their node error code.
func decodeError(err error, path string) *LoadError {
	code := ErrCodeLoadFailed
	if nodeCode := ir.CodeOf(err); nodeCode != "" {
		code = MapNodeErrorCode(nodeCode)
	}
	return &LoadError{Code: code, Message: err.Error(), Path: path, Err: err}
}

// FindTreeFiles walks dir and returns every tree file whose base name matches
// filter (a filepath.Match pattern; empty matches all), in lexical order.
// Files and directories named in exclude are skipped; dir itself never is.
func FindTreeFiles(dir, filter string, exclude ...string) ([]string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("trees directory not found: %s", dir), Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing trees directory: %v", err), Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("invalid filter %q: %v", filter, err), Err: err}
		}
	}

	root := absPath(dir)
	skip := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		skip[absPath(p)] = true
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		abs := absPath(path)
		if d.IsDir() {
			if abs != root && skip[abs] {
				return filepath.SkipDir
			}
			return nil
		}
		if skip[abs] {
			return nil
		}
		if _, ok := FormatForPath(path); !ok {
			return nil
		}
		if filter != "" {
			if ok, _ := filepath.Match(filter, d.Name()); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Err: err}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no tree files found in %s", dir)}
	}
	return files, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
