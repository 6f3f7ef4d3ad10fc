package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/blockxml/internal/ir"
)

// Scenario defines a conformance test scenario.
// A scenario serializes one IR document and checks the generated markup,
// the reported error, or the unknown-type report.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Input is a tree file (.json, .yaml, .yml or .cue).
	// Relative paths are resolved against the scenario file location.
	Input string `yaml:"input,omitempty"`

	// Tree holds the trees inline, as a single node or a list.
	// Exactly one of Input and Tree must be set.
	Tree ir.Trees `yaml:"tree,omitempty"`

	// Vocab adds or overrides IR type to block tag mappings.
	Vocab map[string]string `yaml:"vocab,omitempty"`

	// MaxDepth and MaxNodes bound the serializer. Zero means unlimited.
	MaxDepth int `yaml:"max_depth,omitempty"`
	MaxNodes int `yaml:"max_nodes,omitempty"`

	// Expect lists the checks on the outcome.
	Expect Expectation `yaml:"expect"`

	// Assertions run XPath queries against the generated document.
	// Supported types: xpath_count, xpath_exists, xpath_text
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expectation specifies the expected serialization outcome.
type Expectation struct {
	// XML is the exact expected markup of all top-level blocks, joined by
	// newlines, without the document root.
	XML string `yaml:"xml,omitempty"`

	// Contains lists substrings the document must contain.
	Contains []string `yaml:"contains,omitempty"`

	// NotContains lists substrings the document must not contain.
	NotContains []string `yaml:"not_contains,omitempty"`

	// Error is the expected node error code (INVALID_NODE, MISSING_TYPE,
	// LIMIT_EXCEEDED). When set, no document is expected.
	Error string `yaml:"error,omitempty"`

	// UnknownTypes is the expected sorted list of IR types without a
	// mapping. An empty list expects none; omit it to skip the check.
	UnknownTypes []string `yaml:"unknown_types,omitempty"`
}

func (e *Expectation) empty() bool {
	return e.XML == "" && len(e.Contains) == 0 && len(e.NotContains) == 0 &&
		e.Error == "" && e.UnknownTypes == nil
}

// Assertion queries the generated document.
type Assertion struct {
	// Type specifies the assertion type:
	// - "xpath_count": the query matches exactly Count elements
	// - "xpath_exists": the query matches at least one element
	// - "xpath_text": the first match has text Text
	Type string `yaml:"type"`

	// Path is the XPath expression, e.g. //block[@type="math_number"].
	Path string `yaml:"path"`

	// Count is the expected number of matches (used by xpath_count).
	Count int `yaml:"count,omitempty"`

	// Text is the expected text of the first match (used by xpath_text).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertXPathCount  = "xpath_count"
	AssertXPathExists = "xpath_exists"
	AssertXPathText   = "xpath_text"
)

var errorCodes = []string{
	string(ir.CodeInvalidNode),
	string(ir.CodeMissingType),
	string(ir.CodeLimitExceeded),
}

// LoadScenario reads and parses a scenario YAML file.
// The input path is resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the input path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "expects:" vs "expect:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the input path BEFORE validation
	if scenario.Input != "" && !filepath.IsAbs(scenario.Input) && basePath != "" {
		scenario.Input = filepath.Join(basePath, scenario.Input)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Input == "" && s.Tree == nil {
		return fmt.Errorf("input or tree is required")
	}
	if s.Input != "" && s.Tree != nil {
		return fmt.Errorf("input and tree are mutually exclusive")
	}
	if s.Input != "" {
		if _, err := os.Stat(s.Input); os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", s.Input)
		}
	}

	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}
	if s.MaxNodes < 0 {
		return fmt.Errorf("max_nodes must be non-negative")
	}

	if s.Expect.empty() && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}
	if s.Expect.Error != "" {
		if !slices.Contains(errorCodes, s.Expect.Error) {
			return fmt.Errorf("expect.error: unknown error code %q", s.Expect.Error)
		}
		if s.Expect.XML != "" || len(s.Expect.Contains) > 0 || len(s.Assertions) > 0 {
			return fmt.Errorf("expect.error cannot be combined with document checks")
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Path == "" {
		return fmt.Errorf("assertions[%d]: path is required", index)
	}

	switch a.Type {
	case AssertXPathCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for xpath_count", index)
		}
	case AssertXPathExists:
	case AssertXPathText:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
