package c

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvsolutions-common/odin/internal/access"
	"github.com/fvsolutions-common/odin/internal/backend"
	"github.com/fvsolutions-common/odin/internal/collection"
	"github.com/fvsolutions-common/odin/internal/ext"
	"github.com/fvsolutions-common/odin/internal/resolve"
	"github.com/fvsolutions-common/odin/internal/tree"
	"github.com/fvsolutions-common/odin/internal/types"
)

func buildFixtureContext(t *testing.T) *backend.Context {
	t.Helper()
	reg := types.NewRegistry()
	require.NoError(t, reg.RegisterBuiltins())

	raw := &tree.Node{Kind: tree.KindParameter, Name: "raw", LocalID: 1, PrimitiveType: "u16"}
	scaled := &tree.Node{
		Kind: tree.KindParameter, Name: "scaled", LocalID: 2, PrimitiveType: "f32",
		DeclaredExts: []ext.Extension{{Kind: ext.KindIOMappedNumber, Reference: "telemetry.raw", Scale: 2, Offset: 1}},
		AccessControl: access.Collection{"admin": {Default: access.Read | access.Write}, "operator": {Default: access.Read}},
	}
	telemetry := &tree.Node{Kind: tree.KindGroup, Name: "telemetry", LocalID: 1, IDSpaceShift: 8, Children: []*tree.Node{raw, scaled}}
	root := &tree.Node{
		Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 8, Children: []*tree.Node{telemetry},
		GroupOrder: []string{"admin", "operator"},
	}

	names := resolve.Names{VariablesStruct: "od_vars", ObjectsStruct: "od_objs", GroupNamespace: "od_group"}
	resolved, err := resolve.Resolve(root, reg, access.Collection{}, root.GroupOrder, names)
	require.NoError(t, err)

	built := collection.Build(root, nil)
	return backend.Freeze("OD", "fixture", resolved, built)
}

func buildFixtureContextWithCollection(t *testing.T) *backend.Context {
	t.Helper()
	reg := types.NewRegistry()
	require.NoError(t, reg.RegisterBuiltins())

	raw := &tree.Node{Kind: tree.KindParameter, Name: "raw", LocalID: 1, PrimitiveType: "u16"}
	scaled := &tree.Node{Kind: tree.KindParameter, Name: "scaled", LocalID: 2, PrimitiveType: "f32"}
	telemetry := &tree.Node{Kind: tree.KindGroup, Name: "telemetry", LocalID: 1, IDSpaceShift: 8, Children: []*tree.Node{raw, scaled}}
	root := &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 8, Children: []*tree.Node{telemetry}}

	names := resolve.Names{VariablesStruct: "od_vars", ObjectsStruct: "od_objs", GroupNamespace: "od_group"}
	resolved, err := resolve.Resolve(root, reg, access.Collection{}, nil, names)
	require.NoError(t, err)

	built := collection.Build(root, []collection.Decl{
		{Name: "dashboard", Description: "dashboard readout", Patterns: []string{"telemetry.*"}},
	})
	return backend.Freeze("OD", "fixture", resolved, built)
}

func TestBuildFileDataAccessGroupsOccupyDistinctNibbles(t *testing.T) {
	ctx := buildFixtureContext(t)
	fd := buildFileData(ctx, "od")
	require.Len(t, fd.AccessGroups, 2)
	require.Equal(t, 0, fd.AccessGroups[0].Shift)
	require.Equal(t, 4, fd.AccessGroups[1].Shift)
	require.NotEqual(t, fd.AccessGroups[0].Shift, fd.AccessGroups[1].Shift)
}

func TestAccessExprShiftsEachGroupIntoItsOwnNibble(t *testing.T) {
	ctx := buildFixtureContext(t)
	scaled, err := ctx.ByPath("telemetry.scaled")
	require.NoError(t, err)

	expr := accessExpr(ctx, scaled.EffectiveAccess)
	require.Contains(t, expr, "ODIN_ACCESS_GROUP_admin")
	require.Contains(t, expr, "ODIN_ACCESS_GROUP_operator")
	require.Contains(t, expr, "(3 << ODIN_ACCESS_GROUP_admin)")
	require.Contains(t, expr, "(1 << ODIN_ACCESS_GROUP_operator)")
}

func TestAccessExprIsZeroLiteralWhenNoGroupGrantsAnything(t *testing.T) {
	ctx := buildFixtureContext(t)
	raw, err := ctx.ByPath("telemetry.raw")
	require.NoError(t, err)
	require.Equal(t, "0", accessExpr(ctx, raw.EffectiveAccess))
}

func TestBuildExtChainOrdersCompoundLiteralsByDeclarationAndChainsNext(t *testing.T) {
	ctx := buildFixtureContext(t)
	scaled, err := ctx.ByPath("telemetry.scaled")
	require.NoError(t, err)

	pd := buildParamData(ctx, scaled)
	require.Len(t, pd.ExtChain, 1)
	require.Equal(t, "NULL", pd.ExtChain[0].NextExpr)
	require.Equal(t, pd.ExtChain[0].VarName, pd.ExtHeadExpr)
	require.Equal(t, "ODIN_EXT_IO_MAPPED_NUMBER", pd.ExtChain[0].Kind)
	require.Equal(t, "2", pd.ExtChain[0].Scale)
	require.Equal(t, "1", pd.ExtChain[0].Offset)
	require.NotEmpty(t, pd.ExtChain[0].TargetRef)
}

func TestBuildParamDataVoidUsesVoidElementType(t *testing.T) {
	ctx := buildFixtureContext(t)
	fd := buildFileData(ctx, "od")
	require.Empty(t, fd.VoidParams)

	v := &tree.Node{Kind: tree.KindVoid, Name: "reset", ObjRef: "od_objs_reset"}
	pd := buildParamData(ctx, v)
	require.Equal(t, "ODIN_ELEMENT_TYPE_VOID", pd.ElementType)
	require.Empty(t, pd.VarExpr)
	require.True(t, pd.IsVoid)
}

func TestBuildParamDataVectorPointsAtNestedDataFieldAndCarriesMaxElements(t *testing.T) {
	ctx := buildFixtureContext(t)
	v := &tree.Node{
		Kind: tree.KindVector, Name: "log", PrimitiveType: "char",
		MaxElements: 16, VarRef: "od_vars.telemetry.log",
	}
	reg := ctx.Types()
	resolved, err := reg.Lookup("char")
	require.NoError(t, err)
	v.ResolvedType = resolved

	pd := buildParamData(ctx, v)
	require.True(t, pd.IsVector)
	require.Equal(t, 16, pd.MaxElements)
	require.Equal(t, "&od_vars.telemetry.log.data", pd.VarExpr)
}

func TestBuildFileDataEmitsGroupDescriptorForEachCollection(t *testing.T) {
	ctx := buildFixtureContextWithCollection(t)
	fd := buildFileData(ctx, "od")

	var col *groupData
	for _, g := range fd.Groups {
		if g.Name == "dashboard" {
			col = g
		}
	}
	require.NotNil(t, col, "expected a group descriptor for the dashboard collection")
	require.Equal(t, "od_group_collection_dashboard", col.CRef)
	require.Equal(t, "dashboard readout", col.Description)
	require.Equal(t, "0x00000000u", col.GlobalIDHex)
	require.Equal(t, 8, col.IDSpaceShift)
	require.Len(t, col.Members, 2)
	require.Contains(t, col.Members[0], "od_objs_table[")
	require.Contains(t, col.Members[1], "od_objs_table[")
}

func TestElementTypeNameMapsScalarsAndFallsBackToCustom(t *testing.T) {
	reg := types.NewRegistry()
	require.NoError(t, reg.RegisterBuiltins())
	u16, err := reg.Lookup("u16")
	require.NoError(t, err)
	require.Equal(t, "ODIN_ELEMENT_TYPE_U16", elementTypeName("u16", u16))

	ut, err := reg.RegisterUserType("vec3", types.UserTypeDecl{
		Model:      map[string]types.FieldTypeUse{"x": {Type: "f32"}},
		FieldOrder: []string{"x"},
	})
	require.NoError(t, err)
	require.Equal(t, "ODIN_ELEMENT_TYPE_CUSTOM", elementTypeName("vec3", ut))
}

func TestCLiteralRendersScalarsAndLists(t *testing.T) {
	require.Equal(t, "{0}", cLiteral(nil))
	require.Equal(t, "true", cLiteral(true))
	require.Equal(t, `"abc"`, cLiteral("abc"))
	require.Equal(t, "{1, 2, 3}", cLiteral([]any{int64(1), int64(2), int64(3)}))
}
