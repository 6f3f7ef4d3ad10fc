package document

import "github.com/antchfx/xmlquery"

// Stats summarizes the blocks of a document.
type Stats struct {
	// TopLevel counts blocks placed directly under the root.
	TopLevel int `json:"top_level"`

	// Blocks counts every block element.
	Blocks int `json:"blocks"`

	Fields     int `json:"fields"`
	Values     int `json:"values"`
	Statements int `json:"statements"`
	Nexts      int `json:"nexts"`

	// MaxDepth is the largest number of block ancestors of any block;
	// 0 for a document of top-level blocks only.
	MaxDepth int `json:"max_depth"`

	// Tags counts blocks per type attribute.
	Tags map[string]int `json:"tags"`
}

// Stats walks the document and counts its block elements and wrappers.
func (d *Document) Stats() Stats {
	stats := Stats{Tags: make(map[string]int)}
	root := d.rootElement()
	if root == nil {
		return stats
	}

	type frame struct {
		node  *xmlquery.Node
		depth int // block ancestors of node
	}
	var stack []frame
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == "block" {
			stats.TopLevel++
		}
		stack = append(stack, frame{node: c})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node
		if n.Type != xmlquery.ElementNode {
			continue
		}

		childDepth := f.depth
		switch n.Data {
		case "block":
			stats.Blocks++
			stats.Tags[n.SelectAttr("type")]++
			if f.depth > stats.MaxDepth {
				stats.MaxDepth = f.depth
			}
			childDepth++
		case "field":
			stats.Fields++
		case "value":
			stats.Values++
		case "statement":
			stats.Statements++
		case "next":
			stats.Nexts++
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			stack = append(stack, frame{node: c, depth: childDepth})
		}
	}
	return stats
}
