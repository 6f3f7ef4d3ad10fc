package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/blockxml/internal/blockxml"
	"github.com/roach88/blockxml/internal/document"
	"github.com/roach88/blockxml/internal/ir"
	"github.com/roach88/blockxml/internal/loader"
)

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Load the trees from the input file or the inline tree
//  2. Build a serializer from the scenario's vocab and limits
//  3. Serialize every tree and wrap the document
//  4. Check expectations and assertions
//
// Node errors from decoding or serialization are outcomes, recorded in the
// result and checked against expect.error. Any other failure (unreadable
// input, invalid XPath) is returned as an error.
func Run(scenario *Scenario) (*Result, error) {
	result := NewResult()

	trees, err := scenarioTrees(scenario)
	if err != nil {
		if ir.CodeOf(err) == "" {
			return nil, fmt.Errorf("failed to load input: %w", err)
		}
		result.setError(err)
	} else {
		s := newSerializer(scenario)
		result.UnknownTypes = unknownTypes(s, trees)

		blocks, err := document.Bodies(s, trees)
		if err != nil {
			result.setError(err)
		} else {
			result.Blocks = blocks
			result.Document = document.Wrap(blocks...)
		}
	}

	checkExpectations(scenario, result)

	if len(scenario.Assertions) > 0 && result.Document != "" {
		doc, err := document.Parse([]byte(result.Document))
		if err != nil {
			return nil, fmt.Errorf("generated document does not parse: %w", err)
		}
		for _, assertion := range scenario.Assertions {
			err := evaluateAssertion(doc, assertion)
			if err == nil {
				continue
			}
			if _, ok := err.(*AssertionError); !ok {
				return nil, fmt.Errorf("assertion %s failed to evaluate: %w", assertion.Type, err)
			}
			result.AddError(err.Error())
		}
	}

	return result, nil
}

func scenarioTrees(scenario *Scenario) ([]*ir.Node, error) {
	if scenario.Input == "" {
		return scenario.Tree, nil
	}
	res, err := loader.LoadFile(scenario.Input)
	if err != nil {
		return nil, err
	}
	return res.Trees, nil
}

func newSerializer(scenario *Scenario) *blockxml.Serializer {
	var opts []blockxml.Option
	if len(scenario.Vocab) > 0 {
		opts = append(opts, blockxml.WithTypeMap(scenario.Vocab))
	}
	if scenario.MaxDepth > 0 {
		opts = append(opts, blockxml.WithMaxDepth(scenario.MaxDepth))
	}
	if scenario.MaxNodes > 0 {
		opts = append(opts, blockxml.WithMaxNodes(scenario.MaxNodes))
	}
	return blockxml.New(opts...)
}

// unknownTypes merges the unknown-type reports of all trees.
func unknownTypes(s *blockxml.Serializer, trees []*ir.Node) []string {
	var all []string
	for _, tree := range trees {
		all = append(all, s.UnknownTypes(tree)...)
	}
	if len(all) == 0 {
		return nil
	}
	slices.Sort(all)
	return slices.Compact(all)
}

func (r *Result) setError(err error) {
	r.ErrorCode = string(ir.CodeOf(err))
	r.Error = err.Error()
}

// checkExpectations compares the result against the scenario's expect clause.
func checkExpectations(scenario *Scenario, result *Result) {
	expect := scenario.Expect

	switch {
	case expect.Error != "" && result.ErrorCode == "":
		result.AddError(fmt.Sprintf("expected error %s, got none", expect.Error))
	case expect.Error != "" && result.ErrorCode != expect.Error:
		result.AddError(fmt.Sprintf("expected error %s, got %s", expect.Error, result.Error))
	case expect.Error == "" && result.ErrorCode != "":
		result.AddError(fmt.Sprintf("unexpected error: %s", result.Error))
	}

	if expect.XML != "" && result.ErrorCode == "" {
		got := strings.Join(result.Blocks, "\n")
		if got != strings.TrimSpace(expect.XML) {
			result.AddError(fmt.Sprintf("xml mismatch:\n  Expected: %s\n  Actual: %s", strings.TrimSpace(expect.XML), got))
		}
	}

	for _, want := range expect.Contains {
		if !strings.Contains(result.Document, want) {
			result.AddError(fmt.Sprintf("document does not contain %q", want))
		}
	}
	for _, unwanted := range expect.NotContains {
		if strings.Contains(result.Document, unwanted) {
			result.AddError(fmt.Sprintf("document contains %q", unwanted))
		}
	}

	if expect.UnknownTypes != nil && !slices.Equal(expect.UnknownTypes, result.UnknownTypes) {
		result.AddError(fmt.Sprintf("unknown types: expected %v, got %v", expect.UnknownTypes, result.UnknownTypes))
	}
}
