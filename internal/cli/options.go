package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/blockxml/internal/blockxml"
	"github.com/roach88/blockxml/internal/loader"
)

// SerializerOptions holds the flags that configure serialization.
type SerializerOptions struct {
	VocabFile string // extra type mappings (YAML)
	MaxDepth  int    // 0 is unlimited
	MaxNodes  int    // 0 is unlimited
}

// VocabFile is the --vocab file format:
//
//	types:
//	  robot_move: robot_move_forward
type VocabFile struct {
	Types map[string]string `yaml:"types"`
}

func (o *SerializerOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.VocabFile, "vocab", "", "YAML file with extra type mappings")
	cmd.Flags().IntVar(&o.MaxDepth, "max-depth", 0, "maximum tree depth (0 = unlimited)")
	cmd.Flags().IntVar(&o.MaxNodes, "max-nodes", 0, "maximum nodes per tree (0 = unlimited)")
}

// newSerializer builds a serializer from the flags.
// Invalid flags and vocabulary files are returned as *loader.LoadError.
func (o *SerializerOptions) newSerializer() (*blockxml.Serializer, error) {
	if o.MaxDepth < 0 || o.MaxNodes < 0 {
		return nil, &loader.LoadError{Code: loader.ErrCodeGeneric, Message: "--max-depth and --max-nodes must be non-negative"}
	}

	var opts []blockxml.Option
	if o.VocabFile != "" {
		types, err := loadVocabFile(o.VocabFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, blockxml.WithTypeMap(types))
	}
	if o.MaxDepth > 0 {
		opts = append(opts, blockxml.WithMaxDepth(o.MaxDepth))
	}
	if o.MaxNodes > 0 {
		opts = append(opts, blockxml.WithMaxNodes(o.MaxNodes))
	}
	return blockxml.New(opts...), nil
}

// loadVocabFile reads a vocabulary extension file.
func loadVocabFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &loader.LoadError{Code: loader.ErrCodeNotFound, Message: "vocab file not found", Path: path, Err: err}
	}
	if err != nil {
		return nil, &loader.LoadError{Code: loader.ErrCodeGeneric, Message: fmt.Sprintf("reading vocab file: %v", err), Path: path, Err: err}
	}

	var vocab VocabFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&vocab); err != nil {
		return nil, &loader.LoadError{Code: loader.ErrCodeLoadFailed, Message: fmt.Sprintf("parsing vocab file: %v", err), Path: path, Err: err}
	}
	for from, to := range vocab.Types {
		if from == "" || to == "" {
			return nil, &loader.LoadError{Code: loader.ErrCodeLoadFailed, Message: fmt.Sprintf("vocab mapping %q: %q must name both types", from, to), Path: path}
		}
	}
	return vocab.Types, nil
}
