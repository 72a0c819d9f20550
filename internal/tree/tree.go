// Package tree implements the parameter IR: the hierarchical,
// globally-indexed tree of groups, scalars, fixed arrays, vectors, void
// parameters and collections that the resolver binds and freezes.
package tree

import (
	"github.com/fvsolutions-common/odin/internal/access"
	"github.com/fvsolutions-common/odin/internal/ext"
	"github.com/fvsolutions-common/odin/internal/types"
)

// Kind discriminates the parameter node variants.
type Kind string

const (
	KindGroup     Kind = "group"
	KindParameter Kind = "parameter"
	KindVoid      Kind = "void"
	KindArray     Kind = "array"
	KindVector    Kind = "vector"
	KindCollection Kind = "collection"
)

// Node is a single entry in the parameter tree. Both raw (as-declared) and
// resolved (computed by the resolver) state live on the same struct: once
// resolved, a Node is frozen in place rather than copied into a second
// "resolved" representation, so declared fields and resolver-filled fields
// sit side by side throughout its lifetime.
type Node struct {
	// ---- as declared ----
	Kind           Kind
	Name           string // key under the parent; "" for the root
	LocalID        int
	IDSpaceShift   int // meaningful for Kind == KindGroup (including root)
	Description    string
	AccessControl  access.Collection
	GroupOrder     []string // declared order of AccessControl's group names
	Children       []*Node  // Kind == KindGroup
	PrimitiveType  string   // Kind in {Parameter, Array, Vector}
	Default        any
	Reference      string // optional external backing-variable name
	Elements       int    // Kind == KindArray
	MaxElements    int    // Kind == KindVector
	DeclaredExts   []ext.Extension

	// ---- resolved by the DFS in package resolve ----
	Parent          *Node
	AbsolutePath    string
	GlobalID        uint32
	ResolvedType    types.Type
	EffectiveAccess access.Collection
	Extensions      *ext.Extension // declared + implicit, chained
	VarRef          string
	ObjRef          string
	GroupRef        string
}

// ChildByName looks up a direct child of a group node by declared name.
func (n *Node) ChildByName(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// IsStorageBacked reports whether this node occupies backing storage. Void
// parameters and groups/collections do not.
func (n *Node) IsStorageBacked() bool {
	switch n.Kind {
	case KindParameter, KindArray, KindVector:
		return true
	default:
		return false
	}
}

// Walk visits n and every descendant reachable through Children, depth
// first, in declaration order.
func Walk(n *Node, visit func(*Node)) {
	visit(n)
	for _, c := range n.Children {
		Walk(c, visit)
	}
}
