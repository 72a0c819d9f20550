// Package host is the host-side client backend: it lowers the frozen model
// context into a nested Python class tree mirroring the parameter groups,
// each leaf an entry object carrying its global id, value class and element
// size, with an async read_all that gathers every descendant concurrently
// through an injected transport.
package host

import (
	"fmt"

	"github.com/fvsolutions-common/odin/internal/backend"
	"github.com/fvsolutions-common/odin/internal/casegen"
	"github.com/fvsolutions-common/odin/internal/tree"
)

type fileData struct {
	ModuleName string
	RootClass  string
	Root       *nodeData
}

// nodeData is either a group (with children) or a leaf entry.
type nodeData struct {
	FieldName   string // attribute name on the parent instance
	ClassName   string // class emitted for this group; empty for a leaf
	IsGroup     bool
	Children    []*nodeData
	GlobalIDHex string
	ValueClass  string
	ElementSize int
	Elements    int
	MaxElements int // vectors only: the runtime length cap enforced on write
	IsVector    bool
}

func buildFileData(ctx *backend.Context, rootClassName string) *fileData {
	return &fileData{
		ModuleName: ctx.Name(),
		RootClass:  casegen.PyClass(rootClassName),
		Root:       buildNode(ctx.Root(), rootClassName),
	}
}

// buildNode builds a group's class body. className disambiguates sibling
// groups that share a leaf name: the root uses the configured root class
// name, every other group uses its dot-joined absolute path so two groups
// named e.g. "status" at different depths never emit colliding class names.
func buildNode(n *tree.Node, className string) *nodeData {
	nd := &nodeData{FieldName: n.Name, IsGroup: true, ClassName: casegen.PyClass(className)}
	for _, c := range n.Children {
		nd.Children = append(nd.Children, buildChild(c))
	}
	return nd
}

func buildChild(n *tree.Node) *nodeData {
	if n.Kind == tree.KindGroup {
		return buildNode(n, n.AbsolutePath)
	}
	nd := &nodeData{
		FieldName:   n.Name,
		GlobalIDHex: fmt.Sprintf("0x%08X", n.GlobalID),
		Elements:    n.Elements,
		MaxElements: n.MaxElements,
		IsVector:    n.Kind == tree.KindVector,
	}
	if n.Kind == tree.KindVoid {
		nd.ValueClass = "None"
		nd.ElementSize = 0
		return nd
	}
	nd.ValueClass = n.ResolvedType.HostName()
	nd.ElementSize = n.ResolvedType.Size()
	return nd
}
