// Package collection implements the collection builder: named flat views
// over the resolved parameter tree, built from path-glob patterns after
// the main tree has been resolved.
package collection

import (
	"strings"

	"github.com/fvsolutions-common/odin/internal/tree"
)

// Decl is a named collection's raw declaration (the document's
// `collections:` map).
type Decl struct {
	Name        string
	Description string
	Patterns    []string
}

// Built is a resolved collection: a flat, named group of borrowed
// references. Members keep their original global ids; the collection
// itself never owns them.
type Built struct {
	Name           string
	Description    string
	LocalID        int
	IDSpaceShift   int
	GlobalID       uint32
	Members        []*tree.Node
}

// fixedIDSpaceShift is the constant id_space_shift every collection
// carries: local_id = 0 and this shift, giving every collection the same
// degenerate global id.
const fixedIDSpaceShift = 8

// Build resolves every declared collection's path patterns against root,
// in declaration order, keeping first-seen duplicates across patterns.
func Build(root *tree.Node, decls []Decl) []*Built {
	out := make([]*Built, 0, len(decls))
	for _, d := range decls {
		out = append(out, buildOne(root, d))
	}
	return out
}

func buildOne(root *tree.Node, d Decl) *Built {
	seen := make(map[*tree.Node]bool)
	var members []*tree.Node
	for _, pattern := range d.Patterns {
		for _, n := range FindByPattern(root, pattern) {
			if seen[n] {
				continue
			}
			seen[n] = true
			members = append(members, n)
		}
	}
	return &Built{
		Name:         d.Name,
		Description:  d.Description,
		LocalID:      0,
		IDSpaceShift: fixedIDSpaceShift,
		// Collections live in a namespace separate from the parameter id
		// tree: their fixed local_id of 0 and lack of an ancestor chain
		// give them the degenerate global id 0. Members keep their
		// own, already-computed global ids (they are borrowed, not owned).
		GlobalID: 0,
		Members:  members,
	}
}

// FindByPattern resolves a dotted path-glob pattern against the tree: "*"
// at any segment matches all children of the current group, a plain
// segment matches a single child by name, and descending into a non-group
// node with remaining segments yields no match.
func FindByPattern(root *tree.Node, path string) []*tree.Node {
	segments := strings.Split(path, ".")
	return matchSegments(root, segments)
}

func matchSegments(n *tree.Node, segments []string) []*tree.Node {
	if len(segments) == 0 {
		return []*tree.Node{n}
	}
	if n.Kind != tree.KindGroup {
		return nil
	}
	seg, rest := segments[0], segments[1:]
	var out []*tree.Node
	if seg == "*" {
		for _, c := range n.Children {
			out = append(out, matchSegments(c, rest)...)
		}
		return out
	}
	c := n.ChildByName(seg)
	if c == nil {
		return nil
	}
	return matchSegments(c, rest)
}
