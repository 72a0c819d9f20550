// Package resolve implements the resolver: the single DFS pass that binds
// every parameter to its type, assigns absolute reference paths, computes
// global ids, merges access control, chains extensions and resolves their
// cross-references, and checks every structural invariant of the tree.
package resolve

import (
	"github.com/fvsolutions-common/odin/internal/access"
	"github.com/fvsolutions-common/odin/internal/ext"
	"github.com/fvsolutions-common/odin/internal/oderr"
	"github.com/fvsolutions-common/odin/internal/tree"
	"github.com/fvsolutions-common/odin/internal/types"
)

const bitWidth = 32

// Names carries the emitter-supplied identifiers concatenated down the
// tree during reference assignment: the backing-storage struct name, the
// descriptor-table struct name, and the group-namespace name.
type Names struct {
	VariablesStruct string
	ObjectsStruct   string
	GroupNamespace  string
}

// Resolved is the frozen, fully-bound parameter tree plus the indices built
// alongside it. It is the input to the collection builder and, once
// collections are bound, to every backend.
type Resolved struct {
	Root       *tree.Node
	Types      *types.Registry
	GroupIndex *access.GroupIndex

	byPath     map[string]*tree.Node
	byGlobalID map[uint32]*tree.Node
}

// ByPath resolves a dot-separated absolute path to a node, or reports
// unresolved-reference. Used to resolve extension references; the
// collection builder matches its patterns with collection.FindByPattern.
func (r *Resolved) ByPath(path string) (*tree.Node, error) {
	n, ok := r.byPath[path]
	if !ok {
		return nil, oderr.New(oderr.UnresolvedReference, path, "no parameter at path %q", path)
	}
	return n, nil
}

// ByGlobalID resolves a node by its computed 32-bit global id.
func (r *Resolved) ByGlobalID(id uint32) (*tree.Node, bool) {
	n, ok := r.byGlobalID[id]
	return n, ok
}

// Resolve runs the resolver's single DFS pass over root and returns the
// frozen, bound tree. rootAccess is the root group's own access-control
// collection; rootGroupOrder is its group names in declaration order (used
// to assign the numeric group ids and enforce the six-group cap).
func Resolve(root *tree.Node, reg *types.Registry, rootAccess access.Collection, rootGroupOrder []string, names Names) (*Resolved, error) {
	groupIdx, err := access.NewGroupIndex(rootGroupOrder)
	if err != nil {
		return nil, err
	}

	root.AccessControl = rootAccess

	r := &Resolved{
		Root:       root,
		Types:      reg,
		GroupIndex: groupIdx,
		byPath:     make(map[string]*tree.Node),
		byGlobalID: make(map[uint32]*tree.Node),
	}

	var refs []refSite
	if err := walk(root, nil, 0, access.Collection{}, "", reg, r, &refs); err != nil {
		return nil, err
	}

	assignRefs(root, names)

	for _, site := range refs {
		target, err := r.ByPath(site.path)
		if err != nil {
			return nil, oderr.New(oderr.UnresolvedReference, site.owner, "extension reference %q does not resolve", site.path)
		}
		site.ext.Target = target
	}

	return r, nil
}

type refSite struct {
	owner string
	path  string
	ext   *ext.Extension
}

// walk performs the tree-wide DFS. shift is n's own global_shift value: 0
// for the root (whose global id is its fixed local id, 0)
// and, for every other node, computed by the parent's call before
// recursing into n.
func walk(n *tree.Node, parent *tree.Node, shift int, inherited access.Collection, pathPrefix string, reg *types.Registry, r *Resolved, refs *[]refSite) error {
	n.Parent = parent

	if parent == nil {
		n.AbsolutePath = ""
		n.GlobalID = uint32(n.LocalID)
	} else {
		if pathPrefix == "" {
			n.AbsolutePath = n.Name
		} else {
			n.AbsolutePath = pathPrefix + "." + n.Name
		}
		id, err := globalID(n.LocalID, shift, parent)
		if err != nil {
			return oderr.New(oderr.IDSpaceViolation, n.AbsolutePath, "%s", err.Error())
		}
		n.GlobalID = id
	}

	n.EffectiveAccess = access.Merge(inherited, n.AccessControl)

	if existing, ok := r.byGlobalID[n.GlobalID]; ok && existing != n {
		return oderr.New(oderr.IDCollision, n.AbsolutePath, "global id 0x%08x collides with %q", n.GlobalID, existing.AbsolutePath)
	}
	r.byGlobalID[n.GlobalID] = n
	r.byPath[n.AbsolutePath] = n

	switch n.Kind {
	case tree.KindParameter, tree.KindArray, tree.KindVector:
		t, err := reg.Lookup(n.PrimitiveType)
		if err != nil {
			return oderr.New(oderr.UnknownType, n.AbsolutePath, "unknown primitive type %q", n.PrimitiveType)
		}
		n.ResolvedType = t

		declared := append([]ext.Extension(nil), n.DeclaredExts...)
		if ut, ok := t.(*types.UserType); ok && ut.StringSerialiser != "" {
			declared = append(declared, ext.Extension{Kind: ext.KindStringCodecReference, Reference: ut.StringSerialiser})
		}
		n.Extensions = ext.Chain(declared)
		collectRefs(n, refs)

	case tree.KindVoid:
		n.ResolvedType = nil

	case tree.KindGroup:
		childShift := 0
		if parent != nil {
			childShift = shift + n.IDSpaceShift
		}
		for _, c := range n.Children {
			if err := walk(c, n, childShift, n.EffectiveAccess, n.AbsolutePath, reg, r, refs); err != nil {
				return err
			}
		}
	}

	return nil
}

// collectRefs walks n's live extension chain (not a copy) and records every
// unresolved Reference as a deferred lookup, so the second pass in Resolve
// can mutate the exact chain node's Target in place. string_codec_reference
// is excluded: its Reference names a registered string codec, not another
// parameter's path, so it is never looked up through the tree.
func collectRefs(n *tree.Node, refs *[]refSite) {
	for e := n.Extensions; e != nil; e = e.Next {
		if e.Reference == "" || e.Kind == ext.KindStringCodecReference {
			continue
		}
		*refs = append(*refs, refSite{owner: n.AbsolutePath, path: e.Reference, ext: e})
	}
}

func globalID(localID, shift int, parent *tree.Node) (uint32, error) {
	if localID < 0 {
		return 0, localIDError(localID, parent)
	}
	if parent.IDSpaceShift < 0 || parent.IDSpaceShift > bitWidth {
		return 0, oderr.New(oderr.IDSpaceViolation, "", "parent id_space_shift %d out of range", parent.IDSpaceShift)
	}
	if parent.IDSpaceShift < bitWidth && localID >= (1<<uint(parent.IDSpaceShift)) {
		return 0, localIDError(localID, parent)
	}
	e := bitWidth - (shift + parent.IDSpaceShift)
	if e < 0 {
		return 0, oderr.New(oderr.IDSpaceViolation, "", "cumulative shift exceeds %d bits", bitWidth)
	}
	var shifted uint32
	if e < bitWidth {
		shifted = uint32(localID) << uint(e)
	}
	return parent.GlobalID | shifted, nil
}

func localIDError(localID int, parent *tree.Node) error {
	return oderr.New(oderr.IDSpaceViolation, "", "local id %d out of range for id_space_shift %d", localID, parent.IDSpaceShift)
}

// assignRefs sets every node's absolute variable/object/group reference by
// concatenation with the parent's, once the full tree is resolved.
func assignRefs(root *tree.Node, names Names) {
	root.VarRef = names.VariablesStruct
	root.ObjRef = names.ObjectsStruct
	root.GroupRef = names.GroupNamespace
	for _, c := range root.Children {
		assignRefsChild(c, root)
	}
}

func assignRefsChild(n *tree.Node, parent *tree.Node) {
	n.VarRef = parent.VarRef + "." + n.Name
	n.ObjRef = parent.ObjRef + "_" + n.Name
	n.GroupRef = parent.GroupRef + "_" + n.Name
	for _, c := range n.Children {
		assignRefsChild(c, n)
	}
}
