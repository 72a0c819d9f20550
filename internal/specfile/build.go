package specfile

import (
	"github.com/fvsolutions-common/odin/internal/access"
	"github.com/fvsolutions-common/odin/internal/collection"
	"github.com/fvsolutions-common/odin/internal/ext"
	"github.com/fvsolutions-common/odin/internal/oderr"
	"github.com/fvsolutions-common/odin/internal/resolve"
	"github.com/fvsolutions-common/odin/internal/tree"
	"github.com/fvsolutions-common/odin/internal/types"
)

const defaultIDSpaceShift = 8

// Built is everything Resolve and the collection builder need, bridged from
// a decoded Document.
type Built struct {
	Root           *tree.Node
	Types          *types.Registry
	RootAccess     access.Collection
	RootGroupOrder []string
	Collections    []collection.Decl
	Names          resolve.Names
	Config         Config
	Description    string
}

// Build turns a decoded Document into the unresolved tree, type registry and
// access-control inputs the resolver and collection builder consume.
func Build(doc *Document) (*Built, error) {
	reg := types.NewRegistry()
	if err := reg.RegisterBuiltins(); err != nil {
		return nil, err
	}
	if err := buildUserTypes(reg, doc.Types); err != nil {
		return nil, err
	}

	rootAccess, rootOrder, err := buildAccessCollection(doc.AccessControl)
	if err != nil {
		return nil, err
	}

	idSpaceShift := doc.IDSpaceShift
	if idSpaceShift == 0 {
		idSpaceShift = defaultIDSpaceShift
	}

	root := &tree.Node{
		Kind:          tree.KindGroup,
		Name:          "",
		LocalID:       0,
		IDSpaceShift:  idSpaceShift,
		AccessControl: rootAccess,
		GroupOrder:    rootOrder,
	}
	children, err := buildNodes(doc.Parameters)
	if err != nil {
		return nil, err
	}
	root.Children = children

	return &Built{
		Root:           root,
		Types:          reg,
		RootAccess:     rootAccess,
		RootGroupOrder: rootOrder,
		Collections:    buildCollections(doc.Collections),
		Names: resolve.Names{
			VariablesStruct: orDefault(doc.Config.C.VarsStruct, "od_vars"),
			ObjectsStruct:   orDefault(doc.Config.C.ObjsStruct, "od_objs"),
			GroupNamespace:  orDefault(doc.Config.C.GroupNS, "od_group"),
		},
		Config:      doc.Config,
		Description: doc.Description,
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func buildUserTypes(reg *types.Registry, decls []TypeDecl) error {
	for _, td := range decls {
		model := make(map[string]types.FieldTypeUse, len(td.Model))
		order := make([]string, 0, len(td.Model))
		for _, fd := range td.Model {
			model[fd.Name] = types.FieldTypeUse{Type: fd.Type, Elements: fd.Elements, Default: fd.Default}
			order = append(order, fd.Name)
		}
		decl := types.UserTypeDecl{
			Description:      td.Description,
			CTypeName:        td.CTypeName,
			PyTypeName:       td.PyTypeName,
			StringSerialiser: td.StringSerialiser,
			Model:            model,
			FieldOrder:       order,
		}
		if _, err := reg.RegisterUserType(td.Name, decl); err != nil {
			return err
		}
	}
	return nil
}

func buildAccessCollection(decls []AccessGroupDecl) (access.Collection, []string, error) {
	out := make(access.Collection, len(decls))
	order := make([]string, 0, len(decls))
	for _, d := range decls {
		def, err := access.ParsePermission(d.Default...)
		if err != nil {
			return nil, nil, oderr.New(oderr.SchemaValidation, d.Name, "%v", err)
		}
		gd := access.GroupDef{Default: def}
		if d.HasOverride {
			ov, err := access.ParsePermission(d.Override...)
			if err != nil {
				return nil, nil, oderr.New(oderr.SchemaValidation, d.Name, "%v", err)
			}
			gd.Override = ov
			gd.HasOverride = true
		}
		out[d.Name] = gd
		order = append(order, d.Name)
	}
	return out, order, nil
}

func buildCollections(decls []CollectionDecl) []collection.Decl {
	out := make([]collection.Decl, 0, len(decls))
	for _, cd := range decls {
		out = append(out, collection.Decl{Name: cd.Name, Description: cd.Description, Patterns: cd.Children})
	}
	return out
}

func buildNodes(decls []ParameterDecl) ([]*tree.Node, error) {
	out := make([]*tree.Node, 0, len(decls))
	for _, pd := range decls {
		n, err := buildNode(pd)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func buildNode(pd ParameterDecl) (*tree.Node, error) {
	nodeAccess, order, err := buildAccessCollection(pd.AccessControl)
	if err != nil {
		return nil, err
	}

	n := &tree.Node{
		Name:          pd.Name,
		LocalID:       pd.LocalID,
		Description:   pd.Description,
		AccessControl: nodeAccess,
		GroupOrder:    order,
		Reference:     pd.Reference,
	}

	switch pd.Type {
	case "group":
		n.Kind = tree.KindGroup
		n.IDSpaceShift = pd.IDSpaceShift
		children, err := buildNodes(pd.Children)
		if err != nil {
			return nil, err
		}
		n.Children = children

	case "void":
		n.Kind = tree.KindVoid

	case "parameter":
		n.Kind = tree.KindParameter
		n.PrimitiveType = pd.Primitive
		n.Default = pd.Default
		exts, err := buildExtensions(pd.Extensions)
		if err != nil {
			return nil, err
		}
		n.DeclaredExts = exts

	case "array":
		n.Kind = tree.KindArray
		n.PrimitiveType = pd.Primitive
		n.Elements = pd.Elements
		n.Default = pd.Default
		exts, err := buildExtensions(pd.Extensions)
		if err != nil {
			return nil, err
		}
		n.DeclaredExts = exts

	case "vector":
		n.Kind = tree.KindVector
		n.PrimitiveType = pd.Primitive
		n.MaxElements = pd.MaxElements
		n.Default = pd.Default
		exts, err := buildExtensions(pd.Extensions)
		if err != nil {
			return nil, err
		}
		n.DeclaredExts = exts

	default:
		return nil, oderr.New(oderr.SchemaValidation, pd.Name, "unknown parameter type %q", pd.Type)
	}

	return n, nil
}

func buildExtensions(decls []ExtensionDecl) ([]ext.Extension, error) {
	out := make([]ext.Extension, 0, len(decls))
	for _, ed := range decls {
		e := ext.Extension{Reference: ed.Reference}
		switch ed.Type {
		case "io_mapped_number":
			e.Kind = ext.KindIOMappedNumber
			e.Scale = ed.Scale
			if e.Scale == 0 {
				e.Scale = 1
			}
			e.Offset = ed.Offset
		case "custom_io":
			e.Kind = ext.KindCustomIO
		case "validation_limit_value":
			e.Kind = ext.KindValidationLimitValue
			e.Min = ed.Min
			e.Max = ed.Max
		case "string_codec_reference":
			e.Kind = ext.KindStringCodecReference
		default:
			return nil, oderr.New(oderr.SchemaValidation, "", "unknown extension type %q", ed.Type)
		}
		out = append(out, e)
	}
	return out, nil
}
