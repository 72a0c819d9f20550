// Package c is the C header/source backend: it lowers the frozen model
// context into a statically initialized ODIN_parameter_t descriptor table, a
// packed variables_t backing struct, group descriptors and extension-chain
// compound literals.
package c

import (
	"fmt"
	"strings"

	"github.com/fvsolutions-common/odin/internal/access"
	"github.com/fvsolutions-common/odin/internal/backend"
	"github.com/fvsolutions-common/odin/internal/casegen"
	"github.com/fvsolutions-common/odin/internal/ext"
	"github.com/fvsolutions-common/odin/internal/tree"
	"github.com/fvsolutions-common/odin/internal/types"
)

// fileData is the template-ready shape for both the header and source file.
type fileData struct {
	Name         string
	GuardName    string
	VarsStruct   string
	ObjsStruct   string
	GroupNS      string
	AccessGroups []*accessGroupData
	UserTypes    []*userTypeData
	Groups       []*groupData
	Parameters   []*paramData
	VoidParams   []*paramData
}

type userTypeData struct {
	CName  string
	Fields []*userFieldData
}

type userFieldData struct {
	CTypeName string
	Name      string
	Elements  int
}

// accessGroupData is one named access group's C macro: its bit-shift
// position within the packed 32-bit access field. Each group occupies a
// 4-bit nibble (read/write/log_read/log_write), at position index*4, where
// index is the group's position in GroupIndex's declaration order.
type accessGroupData struct {
	Token string
	Shift int
}

// groupData is one group descriptor: either a real node of the parameter
// tree (a group or the root) or a collection, a flat borrowed-reference
// view built by internal/collection. Both shapes emit the same
// ODIN_parameter_group_t literal; collections get global_id 0 and
// id_space_shift 8 per the collection builder's fixed, separate namespace.
type groupData struct {
	CRef         string
	Name         string
	Description  string
	GlobalIDHex  string
	IDSpaceShift int
	Members      []string
}

type paramData struct {
	CRef        string
	Name        string
	Description string
	GlobalIDHex string
	ElementType string
	TypeCName   string
	Elements    int
	MaxElements int
	IsVector    bool
	IsVoid      bool
	VarExpr     string // "" when the parameter has no backing storage slot
	DefaultExpr string
	AccessExpr  string
	GroupCRef   string

	// ExtChain holds the parameter's extension nodes in declaration order,
	// each carrying the variable name of the compound literal emitted for
	// it and the variable name of the previously-declared one it points to
	// (empty for the first). ExtHeadExpr is what the descriptor's own
	// extensions field initializes to: NULL, or the address of the last
	// declared (= head-of-chain) literal.
	ExtChain    []*extData
	ExtHeadExpr string
}

type extData struct {
	VarName   string
	Kind      string
	NextExpr  string
	Reference string
	TargetRef string
	Scale     string
	Offset    string
	Min       string
	Max       string
}

// buildFileData walks every node of the frozen context and produces the
// template-ready aggregate both the header and source templates render from.
func buildFileData(ctx *backend.Context, name string) *fileData {
	fd := &fileData{
		Name:         name,
		GuardName:    strings.ToUpper(casegen.CToken(name)) + "_H",
		VarsStruct:   ctx.Root().VarRef,
		ObjsStruct:   ctx.Root().ObjRef,
		GroupNS:      ctx.Root().GroupRef,
	}
	for i, name := range ctx.GroupIndex().Names() {
		fd.AccessGroups = append(fd.AccessGroups, &accessGroupData{
			Token: casegen.CToken(name),
			Shift: i * permNibbleBits,
		})
	}

	for _, t := range sortedUserTypes(ctx.Types()) {
		fd.UserTypes = append(fd.UserTypes, buildUserTypeData(t))
	}

	groups := ctx.Groups()
	params := ctx.Parameters()
	voidParams := ctx.VoidParameters()

	groupIdx := make(map[*tree.Node]int, len(groups))
	for i, g := range groups {
		groupIdx[g] = i
	}
	paramIdx := make(map[*tree.Node]int, len(params))
	for i, p := range params {
		paramIdx[p] = i
	}
	voidIdx := make(map[*tree.Node]int, len(voidParams))
	for i, v := range voidParams {
		voidIdx[v] = len(params) + i
	}
	memberExpr := func(n *tree.Node) string {
		switch {
		case n.Kind == tree.KindGroup:
			if j, ok := groupIdx[n]; ok {
				return fmt.Sprintf("(void *)&%s_groups[%d]", fd.ObjsStruct, j)
			}
		case n.IsStorageBacked():
			if i, ok := paramIdx[n]; ok {
				return fmt.Sprintf("(void *)&%s_table[%d]", fd.ObjsStruct, i)
			}
		case n.Kind == tree.KindVoid:
			if i, ok := voidIdx[n]; ok {
				return fmt.Sprintf("(void *)&%s_table[%d]", fd.ObjsStruct, i)
			}
		}
		return ""
	}

	for _, g := range groups {
		name := g.Name
		if g.Parent == nil {
			name = ctx.Name()
		}
		var members []string
		for _, c := range g.Children {
			if e := memberExpr(c); e != "" {
				members = append(members, e)
			}
		}
		fd.Groups = append(fd.Groups, &groupData{
			CRef:         g.GroupRef,
			Name:         name,
			Description:  g.Description,
			GlobalIDHex:  fmt.Sprintf("0x%08Xu", g.GlobalID),
			IDSpaceShift: g.IDSpaceShift,
			Members:      members,
		})
	}

	for _, col := range ctx.Collections() {
		var members []string
		for _, m := range col.Members {
			if e := memberExpr(m); e != "" {
				members = append(members, e)
			}
		}
		fd.Groups = append(fd.Groups, &groupData{
			CRef:         fd.GroupNS + "_collection_" + casegen.CToken(col.Name),
			Name:         col.Name,
			Description:  col.Description,
			GlobalIDHex:  fmt.Sprintf("0x%08Xu", col.GlobalID),
			IDSpaceShift: col.IDSpaceShift,
			Members:      members,
		})
	}

	for _, p := range params {
		fd.Parameters = append(fd.Parameters, buildParamData(ctx, p))
	}

	for _, v := range voidParams {
		fd.VoidParams = append(fd.VoidParams, buildParamData(ctx, v))
	}

	return fd
}

// sortedUserTypes returns every registered user type in registration order,
// filtering the twelve scalar built-ins out.
func sortedUserTypes(reg *types.Registry) []*types.UserType {
	var out []*types.UserType
	for _, name := range types.UserTypeNames(reg) {
		t, err := reg.Lookup(name)
		if err != nil {
			continue
		}
		if ut, ok := t.(*types.UserType); ok {
			out = append(out, ut)
		}
	}
	return out
}

func buildUserTypeData(t *types.UserType) *userTypeData {
	ut := &userTypeData{CName: t.CName()}
	for _, f := range t.Fields {
		ut.Fields = append(ut.Fields, &userFieldData{
			CTypeName: f.Resolved.CName(),
			Name:      f.Name,
			Elements:  f.Use.Elements,
		})
	}
	return ut
}

func buildParamData(ctx *backend.Context, n *tree.Node) *paramData {
	pd := &paramData{
		CRef:        n.ObjRef,
		Name:        n.Name,
		Description: n.Description,
		GlobalIDHex: fmt.Sprintf("0x%08Xu", n.GlobalID),
		IsVoid:      n.Kind == tree.KindVoid,
		IsVector:    n.Kind == tree.KindVector,
		Elements:    n.Elements,
		MaxElements: n.MaxElements,
		GroupCRef:   ctx.Root().GroupRef,
	}
	if n.Kind != tree.KindVoid {
		pd.TypeCName = n.ResolvedType.CName()
		pd.ElementType = elementTypeName(n.PrimitiveType, n.ResolvedType)
		if n.Kind == tree.KindVector {
			// The backing struct wraps a vector's data in a nested
			// { num_elements; data[max_elements]; } struct (see the
			// header template), so the descriptor's data pointer must
			// point at the data field, not the wrapper struct itself.
			pd.VarExpr = "&" + n.VarRef + ".data"
		} else {
			pd.VarExpr = "&" + n.VarRef
		}
		pd.DefaultExpr = cLiteral(effectiveDefault(n))
	} else {
		pd.ElementType = "ODIN_ELEMENT_TYPE_VOID"
	}
	if n.Elements == 0 && n.Kind == tree.KindParameter {
		pd.Elements = 1
	}
	pd.AccessExpr = accessExpr(ctx, n.EffectiveAccess)
	pd.ExtChain, pd.ExtHeadExpr = buildExtChain(pd.CRef, n.Extensions)
	return pd
}

// buildExtChain lowers a node's extension chain into the declaration-order
// list of named compound literals the source template emits, each carrying
// a .next expression that names the previously-declared literal — the C
// lowering convention for extension chains.
func buildExtChain(cref string, head *ext.Extension) ([]*extData, string) {
	ordered := ext.Slice(head) // declaration order
	if len(ordered) == 0 {
		return nil, "NULL"
	}
	out := make([]*extData, 0, len(ordered))
	prevVar := ""
	for i, e := range ordered {
		varName := fmt.Sprintf("ext_%s_%d", cref, i)
		ed := &extData{VarName: varName, Reference: e.Reference}
		if prevVar == "" {
			ed.NextExpr = "NULL"
		} else {
			ed.NextExpr = prevVar
		}
		if target, ok := e.Target.(*tree.Node); ok && target != nil {
			ed.TargetRef = "&" + target.VarRef
		}
		switch e.Kind {
		case ext.KindIOMappedNumber:
			ed.Kind = "ODIN_EXT_IO_MAPPED_NUMBER"
			ed.Scale = fmt.Sprintf("%g", e.Scale)
			ed.Offset = fmt.Sprintf("%g", e.Offset)
		case ext.KindCustomIO:
			ed.Kind = "ODIN_EXT_CUSTOM_IO"
		case ext.KindValidationLimitValue:
			ed.Kind = "ODIN_EXT_VALIDATION_LIMIT_VALUE"
			ed.Min = boundExpr(e.Min, "-INFINITY")
			ed.Max = boundExpr(e.Max, "INFINITY")
		case ext.KindStringCodecReference:
			ed.Kind = "ODIN_EXT_STRING_CODEC_REFERENCE"
		}
		out = append(out, ed)
		prevVar = varName
	}
	return out, out[len(out)-1].VarName
}

func boundExpr(v *float64, unbounded string) string {
	if v == nil {
		return unbounded
	}
	return fmt.Sprintf("%g", *v)
}

// elementTypeName maps a primitive type name to its ODIN_ELEMENT_TYPE_*
// macro, falling back to ODIN_ELEMENT_TYPE_CUSTOM for anything not one of
// the twelve scalar built-ins — user types included.
func elementTypeName(primitive string, t types.Type) string {
	if t.IsUser() {
		return "ODIN_ELEMENT_TYPE_CUSTOM"
	}
	switch primitive {
	case "u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64", "f32", "f64", "bool", "char":
		return "ODIN_ELEMENT_TYPE_" + strings.ToUpper(primitive)
	default:
		return "ODIN_ELEMENT_TYPE_CUSTOM"
	}
}

// permNibbleBits is the width, in bits, of one access group's permission
// nibble within the packed access field (read, write, log_read, log_write).
const permNibbleBits = 4

// accessExpr builds the bitwise-OR'd expression for a node's effective
// access, or the literal 0 when every group is empty — per the "all groups
// empty" rule, a bare 0 keeps the expression syntactically valid rather than
// emitting an empty disjunction. Each group's permission nibble is shifted
// into its own 4-bit position via its ODIN_ACCESS_GROUP_<name> macro so
// distinct groups never collide in the packed field.
func accessExpr(ctx *backend.Context, eff access.Collection) string {
	idx := ctx.GroupIndex()
	var terms []string
	for _, name := range idx.Names() {
		def, ok := eff[name]
		if !ok || def.Default == 0 {
			continue
		}
		terms = append(terms, fmt.Sprintf("(%d << ODIN_ACCESS_GROUP_%s)", permBits(def.Default), casegen.CToken(name)))
	}
	if len(terms) == 0 {
		return "0"
	}
	return strings.Join(terms, " | ")
}

func permBits(p access.Permission) int {
	// Each group contributes a 4-bit permission nibble; bit order mirrors
	// the declared constant sequence read write log_read log_write.
	bits := 0
	if p&access.Read != 0 {
		bits |= 1
	}
	if p&access.Write != 0 {
		bits |= 2
	}
	if p&access.LogRead != 0 {
		bits |= 4
	}
	if p&access.LogWrite != 0 {
		bits |= 8
	}
	return bits
}

// effectiveDefault falls back to the resolved type's own default, broadcast
// across the node's element count, when no default was declared.
func effectiveDefault(n *tree.Node) any {
	if n.Default != nil {
		return n.Default
	}
	count := n.Elements
	if n.Kind == tree.KindVector {
		count = n.MaxElements
	}
	if count <= 1 {
		return n.ResolvedType.Default()
	}
	list := make([]any, count)
	for i := range list {
		list[i] = n.ResolvedType.Default()
	}
	return list
}

func cLiteral(v any) string {
	if v == nil {
		return "{0}"
	}
	switch val := v.(type) {
	case int64:
		return fmt.Sprintf("%d", val)
	case uint64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return fmt.Sprintf("%q", val)
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = cLiteral(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}
