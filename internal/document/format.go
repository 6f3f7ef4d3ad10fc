package document

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/antchfx/xmlquery"
)

// DefaultIndent is used by Format when indent is empty.
const DefaultIndent = "  "

// Format pretty-prints XML data, one element per line.
//
// Text of elements without element children is kept verbatim, so field values
// survive formatting unchanged. Whitespace-only text between elements is
// dropped.
func Format(data []byte, indent string) ([]byte, error) {
	if indent == "" {
		indent = DefaultIndent
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	formatTree(&buf, doc.root, indent)
	return buf.Bytes(), nil
}

type formatStep struct {
	node  *xmlquery.Node
	depth int
	close bool
}

// formatTree writes root and its descendants. It uses an explicit stack so
// deeply chained documents format without recursion.
func formatTree(w *bytes.Buffer, root *xmlquery.Node, indent string) {
	stack := []formatStep{{node: root}}
	for len(stack) > 0 {
		st := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := st.node

		if st.close {
			writeIndent(w, st.depth, indent)
			writeEndTag(w, n)
			continue
		}

		switch n.Type {
		case xmlquery.DocumentNode:
			stack = pushChildren(stack, n, st.depth)

		case xmlquery.DeclarationNode:
			w.WriteString("<?xml")
			writeAttrs(w, n)
			w.WriteString("?>\n")

		case xmlquery.ElementNode:
			writeIndent(w, st.depth, indent)
			w.WriteString("<")
			w.WriteString(qualifiedName(n.Prefix, n.Data))
			writeAttrs(w, n)

			switch {
			case n.FirstChild == nil:
				w.WriteString("/>\n")
			case !hasElementChildren(n):
				w.WriteString(">")
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					writeText(w, c)
				}
				writeEndTag(w, n)
			default:
				w.WriteString(">\n")
				stack = append(stack, formatStep{node: n, depth: st.depth, close: true})
				stack = pushChildren(stack, n, st.depth+1)
			}

		case xmlquery.TextNode, xmlquery.CharDataNode:
			if strings.TrimSpace(n.Data) != "" {
				writeIndent(w, st.depth, indent)
				writeText(w, n)
				w.WriteString("\n")
			}

		case xmlquery.CommentNode:
			writeIndent(w, st.depth, indent)
			w.WriteString("<!--")
			w.WriteString(n.Data)
			w.WriteString("-->\n")
		}
	}
}

// pushChildren pushes the children of n in reverse so they pop in order.
func pushChildren(stack []formatStep, n *xmlquery.Node, depth int) []formatStep {
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		stack = append(stack, formatStep{node: c, depth: depth})
	}
	return stack
}

func hasElementChildren(n *xmlquery.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return true
		}
	}
	return false
}

func writeText(w *bytes.Buffer, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.TextNode:
		_ = xml.EscapeText(w, []byte(n.Data))
	case xmlquery.CharDataNode:
		w.WriteString("<![CDATA[")
		w.WriteString(n.Data)
		w.WriteString("]]>")
	}
}

func writeAttrs(w *bytes.Buffer, n *xmlquery.Node) {
	for _, attr := range n.Attr {
		w.WriteString(" ")
		w.WriteString(qualifiedName(attr.Name.Space, attr.Name.Local))
		w.WriteString(`="`)
		_ = xml.EscapeText(w, []byte(attr.Value))
		w.WriteString(`"`)
	}
}

func writeEndTag(w *bytes.Buffer, n *xmlquery.Node) {
	w.WriteString("</")
	w.WriteString(qualifiedName(n.Prefix, n.Data))
	w.WriteString(">\n")
}

func qualifiedName(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func writeIndent(w *bytes.Buffer, depth int, indent string) {
	for i := 0; i < depth; i++ {
		w.WriteString(indent)
	}
}
