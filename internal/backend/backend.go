// Package backend is the read-only view over the frozen IR that every
// emitter consumes. Its zero value is
// deliberately unusable: a Context can only be constructed by Freeze, after
// resolve and collection building have both completed, so a backend
// invoked on a non-frozen IR is a compile-time impossibility rather than a
// pipeline-misuse error discovered at runtime — except for the one case Go
// cannot rule out statically, a nil *Context, which Validate catches.
package backend

import (
	"github.com/fvsolutions-common/odin/internal/access"
	"github.com/fvsolutions-common/odin/internal/collection"
	"github.com/fvsolutions-common/odin/internal/oderr"
	"github.com/fvsolutions-common/odin/internal/resolve"
	"github.com/fvsolutions-common/odin/internal/tree"
	"github.com/fvsolutions-common/odin/internal/types"
)

// Context is the frozen model every emitter is handed. It has no methods
// that modify the model; its accessors return the resolved *tree.Node values
// themselves, not copies.
type Context struct {
	name        string
	description string
	resolved    *resolve.Resolved
	collections []*collection.Built
}

// Freeze completes the build pipeline's final transition, from a resolved
// tree with bound collections to an immutable Context, and returns the
// read-only view backends use.
func Freeze(name, description string, resolved *resolve.Resolved, collections []*collection.Built) *Context {
	return &Context{name: name, description: description, resolved: resolved, collections: collections}
}

// Validate reports pipeline-misuse if called on a nil Context, the one
// invalid state the type system can't prevent by construction.
func (c *Context) Validate() error {
	if c == nil || c.resolved == nil {
		return oderr.New(oderr.PipelineMisuse, "", "emitter invoked on a non-frozen model context")
	}
	return nil
}

// Name is the OD's configured name (config.name, default "OD").
func (c *Context) Name() string { return c.name }

// Description is the OD's top-level description, if any.
func (c *Context) Description() string { return c.description }

// Root is the resolved parameter tree's root group.
func (c *Context) Root() *tree.Node { return c.resolved.Root }

// Types is the frozen type registry.
func (c *Context) Types() *types.Registry { return c.resolved.Types }

// GroupIndex is the access-control group name -> numeric id assignment.
func (c *Context) GroupIndex() *access.GroupIndex { return c.resolved.GroupIndex }

// Collections returns every built named collection, in declaration order.
func (c *Context) Collections() []*collection.Built { return c.collections }

// ByPath resolves an absolute dot-separated path to a node.
func (c *Context) ByPath(path string) (*tree.Node, error) { return c.resolved.ByPath(path) }

// ByGlobalID resolves a node by its computed global id.
func (c *Context) ByGlobalID(id uint32) (*tree.Node, bool) { return c.resolved.ByGlobalID(id) }

// Walk visits every node in the parameter tree, root first, depth first, in
// declaration order — the order every backend must preserve end to end.
func (c *Context) Walk(visit func(*tree.Node)) { tree.Walk(c.resolved.Root, visit) }

// Parameters returns every storage-backed leaf (parameter, array, vector)
// in declaration order, skipping groups and void parameters.
func (c *Context) Parameters() []*tree.Node {
	var out []*tree.Node
	c.Walk(func(n *tree.Node) {
		if n.IsStorageBacked() {
			out = append(out, n)
		}
	})
	return out
}

// Groups returns every group node, including the root, in declaration
// order.
func (c *Context) Groups() []*tree.Node {
	var out []*tree.Node
	c.Walk(func(n *tree.Node) {
		if n.Kind == tree.KindGroup {
			out = append(out, n)
		}
	})
	return out
}

// VoidParameters returns every void parameter, in declaration order.
func (c *Context) VoidParameters() []*tree.Node {
	var out []*tree.Node
	c.Walk(func(n *tree.Node) {
		if n.Kind == tree.KindVoid {
			out = append(out, n)
		}
	})
	return out
}
