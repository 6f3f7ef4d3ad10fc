package ir

import "strings"

// Path locates a node within a tree, e.g. "value_inputs.A.next".
// The zero value is the root.
//
// Paths share their prefix with the parent path, so extending a path costs
// one allocation regardless of depth; the string form is built only on demand.
type Path struct {
	last *pathElem
}

type pathElem struct {
	parent *pathElem
	seg    string
}

// RootPath returns a root path labelled with seg (e.g. "[2]" for the third
// top-level tree). RootPath("") is the unlabelled root.
func RootPath(seg string) Path {
	if seg == "" {
		return Path{}
	}
	return Path{last: &pathElem{seg: seg}}
}

// Child extends p by the given segments.
func (p Path) Child(segs ...string) Path {
	last := p.last
	for _, s := range segs {
		last = &pathElem{parent: last, seg: s}
	}
	return Path{last: last}
}

// String returns the dotted form of p ("" for the unlabelled root).
// Index segments such as "[0]" attach without a dot.
func (p Path) String() string {
	var segs []string
	for e := p.last; e != nil; e = e.parent {
		segs = append(segs, e.seg)
	}
	var sb strings.Builder
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		if sb.Len() > 0 && !strings.HasPrefix(s, "[") {
			sb.WriteByte('.')
		}
		sb.WriteString(s)
	}
	return sb.String()
}
