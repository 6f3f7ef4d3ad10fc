package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/blockxml/internal/document"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Path     string // XPath expression that was evaluated
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Path: %s\n", e.Path)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// evaluateAssertion runs a single assertion against doc.
// Returns nil if it holds, *AssertionError if not, or another error if the
// query itself is invalid.
func evaluateAssertion(doc *document.Document, a Assertion) error {
	switch a.Type {
	case AssertXPathCount:
		return assertXPathCount(doc, a)
	case AssertXPathExists:
		return assertXPathExists(doc, a)
	case AssertXPathText:
		return assertXPathText(doc, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertXPathCount(doc *document.Document, a Assertion) error {
	n, err := doc.Count(a.Path)
	if err != nil {
		return err
	}
	if n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Path:     a.Path,
			Expected: fmt.Sprintf("%d matches", a.Count),
			Actual:   fmt.Sprintf("%d matches", n),
		}
	}
	return nil
}

func assertXPathExists(doc *document.Document, a Assertion) error {
	n, err := doc.Count(a.Path)
	if err != nil {
		return err
	}
	if n == 0 {
		return &AssertionError{
			Type:     a.Type,
			Path:     a.Path,
			Expected: "at least one match",
			Actual:   "no matches",
		}
	}
	return nil
}

func assertXPathText(doc *document.Document, a Assertion) error {
	elems, err := doc.Query(a.Path)
	if err != nil {
		return err
	}
	if len(elems) == 0 {
		return &AssertionError{
			Type:     a.Type,
			Path:     a.Path,
			Expected: fmt.Sprintf("text %q", a.Text),
			Actual:   "no matches",
		}
	}
	if got := elems[0].Text(); got != a.Text {
		return &AssertionError{
			Type:     a.Type,
			Path:     a.Path,
			Expected: fmt.Sprintf("text %q", a.Text),
			Actual:   fmt.Sprintf("text %q", got),
		}
	}
	return nil
}
