// Package document wraps serialized blocks into Blockly XML documents and
// reads such documents back for inspection.
//
// Parsing and XPath queries use xmlquery, which decodes through encoding/xml
// and never fetches external entities.
package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/roach88/blockxml/internal/blockxml"
	"github.com/roach88/blockxml/internal/ir"
)

// Namespace is the XML namespace of Blockly documents.
const Namespace = "https://developers.google.com/blockly/xml"

// RootElement is the local name of the document root.
const RootElement = "xml"

const header = `<xml xmlns="` + Namespace + `">`
const footer = `</xml>`

// Wrap places serialized blocks inside the document root, one per line:
//
//	<xml xmlns="https://developers.google.com/blockly/xml">
//	<block .../>
//	</xml>
//
// With no bodies the root is empty.
func Wrap(bodies ...string) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteByte('\n')
	for i, body := range bodies {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(body)
	}
	if len(bodies) > 0 {
		sb.WriteByte('\n')
	}
	sb.WriteString(footer)
	return sb.String()
}

// Build serializes every top-level tree with s and wraps the results.
// A nil s uses the default serializer.
//
// Build fails on the first tree that does not serialize and returns no
// document. The NodeError path is prefixed with the tree index, e.g.
// "[1].value_inputs.A".
func Build(s *blockxml.Serializer, trees []*ir.Node) ([]byte, error) {
	bodies, err := Bodies(s, trees)
	if err != nil {
		return nil, err
	}
	return []byte(Wrap(bodies...)), nil
}

// Bodies serializes every top-level tree with s, failing like Build.
func Bodies(s *blockxml.Serializer, trees []*ir.Node) ([]string, error) {
	if s == nil {
		s = blockxml.New()
	}
	bodies := make([]string, len(trees))
	for i, tree := range trees {
		body, err := s.Serialize(tree)
		if err != nil {
			return nil, prefixPath(err, i)
		}
		bodies[i] = body
	}
	return bodies, nil
}

func prefixPath(err error, index int) error {
	var ne *ir.NodeError
	if !errors.As(err, &ne) {
		return fmt.Errorf("tree %d: %w", index, err)
	}
	path := fmt.Sprintf("[%d]", index)
	if ne.Path != "" {
		path += "." + ne.Path
	}
	return &ir.NodeError{Code: ne.Code, Path: path, Message: ne.Message}
}

// Validate reports whether data is well-formed XML.
// Entity expansion is disabled.
func Validate(data []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Entity = map[string]string{}

	sawElement := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, _ := decoder.InputPos()
			return fmt.Errorf("line %d: %w", line, err)
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawElement = true
		}
	}
	if !sawElement {
		return errors.New("no root element")
	}
	return nil
}

// Document is a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Parse parses XML data.
func Parse(data []byte) (*Document, error) {
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// rootElement returns the first element child of the document node.
func (d *Document) rootElement() *xmlquery.Node {
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child
		}
	}
	return nil
}

// RootName returns the local name of the root element.
func (d *Document) RootName() string {
	if el := d.rootElement(); el != nil {
		return el.Data
	}
	return ""
}

// Namespace returns the namespace URI of the root element.
func (d *Document) Namespace() string {
	if el := d.rootElement(); el != nil {
		return el.NamespaceURI
	}
	return ""
}

// IsBlockly reports whether the root is an <xml> element in the Blockly
// namespace.
func (d *Document) IsBlockly() bool {
	return d.RootName() == RootElement && d.Namespace() == Namespace
}

// Element is an element matched by Query.
type Element struct {
	node *xmlquery.Node
}

// Name returns the element's local name.
func (e Element) Name() string { return e.node.Data }

// Attr returns the value of the named attribute, or "" if absent.
func (e Element) Attr(name string) string { return e.node.SelectAttr(name) }

// Text returns the concatenated text content of the element.
func (e Element) Text() string { return e.node.InnerText() }

// Query evaluates an XPath expression against the document and returns the
// matching elements in document order. Non-element matches are skipped.
func (d *Document) Query(expr string) ([]Element, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == xmlquery.ElementNode {
			out = append(out, Element{node: n})
		}
	}
	return out, nil
}

// Count evaluates an XPath expression and returns the number of matches.
func (d *Document) Count(expr string) (int, error) {
	els, err := d.Query(expr)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}
