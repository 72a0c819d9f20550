package resolve

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/fvsolutions-common/odin/internal/access"
	"github.com/fvsolutions-common/odin/internal/ext"
	"github.com/fvsolutions-common/odin/internal/oderr"
	"github.com/fvsolutions-common/odin/internal/tree"
	"github.com/fvsolutions-common/odin/internal/types"
)

func newBuiltinRegistry(t *testing.T) *types.Registry {
	t.Helper()
	r := types.NewRegistry()
	require.NoError(t, r.RegisterBuiltins())
	return r
}

func testNames() Names {
	return Names{VariablesStruct: "od_vars", ObjectsStruct: "od_objs", GroupNamespace: "od_group"}
}

// TestGlobalIDScenario checks a root with id_space_shift 8, a "telemetry"
// group (id_space_shift 8, local_id 1) containing a scalar "voltage"
// (primitive u16, local_id 2). Expected: telemetry.global_id = 0x01000000;
// voltage.global_id = 0x01020000.
func TestGlobalIDScenario(t *testing.T) {
	reg := newBuiltinRegistry(t)
	voltage := &tree.Node{Kind: tree.KindParameter, Name: "voltage", LocalID: 2, PrimitiveType: "u16"}
	telemetry := &tree.Node{
		Kind: tree.KindGroup, Name: "telemetry", LocalID: 1, IDSpaceShift: 8,
		Children: []*tree.Node{voltage},
	}
	root := &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 8, Children: []*tree.Node{telemetry}}

	resolved, err := Resolve(root, reg, access.Collection{}, nil, testNames())
	require.NoError(t, err)

	require.Equal(t, uint32(0x01000000), telemetry.GlobalID)
	require.Equal(t, uint32(0x01020000), voltage.GlobalID)
	require.Equal(t, "telemetry", telemetry.AbsolutePath)
	require.Equal(t, "telemetry.voltage", voltage.AbsolutePath)

	got, ok := resolved.ByGlobalID(0x01020000)
	require.True(t, ok)
	require.Same(t, voltage, got)
}

// TestIDCollisionScenario checks that two parameters at root sharing
// local_id 3 fails with id-collision.
func TestIDCollisionScenario(t *testing.T) {
	reg := newBuiltinRegistry(t)
	a := &tree.Node{Kind: tree.KindParameter, Name: "a", LocalID: 3, PrimitiveType: "u8"}
	b := &tree.Node{Kind: tree.KindParameter, Name: "b", LocalID: 3, PrimitiveType: "u8"}
	root := &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 8, Children: []*tree.Node{a, b}}

	_, err := Resolve(root, reg, access.Collection{}, nil, testNames())
	require.Error(t, err)
	oerr, ok := err.(*oderr.Error)
	require.True(t, ok)
	require.Equal(t, oderr.IDCollision, oerr.Kind)
}

// TestUnresolvedExtensionReferenceScenario checks that a parameter
// referencing another via an io_mapped_number extension whose reference
// points to a nonexistent path fails to resolve.
func TestUnresolvedExtensionReferenceScenario(t *testing.T) {
	reg := newBuiltinRegistry(t)
	p := &tree.Node{
		Kind: tree.KindParameter, Name: "p", LocalID: 1, PrimitiveType: "u16",
		DeclaredExts: []ext.Extension{{Kind: ext.KindIOMappedNumber, Reference: "does.not.exist", Scale: 1}},
	}
	root := &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 8, Children: []*tree.Node{p}}

	_, err := Resolve(root, reg, access.Collection{}, nil, testNames())
	require.Error(t, err)
	oerr, ok := err.(*oderr.Error)
	require.True(t, ok)
	require.Equal(t, oderr.UnresolvedReference, oerr.Kind)
}

func TestExtensionReferenceResolvesToTargetNode(t *testing.T) {
	reg := newBuiltinRegistry(t)
	source := &tree.Node{Kind: tree.KindParameter, Name: "raw", LocalID: 1, PrimitiveType: "u16"}
	scaled := &tree.Node{
		Kind: tree.KindParameter, Name: "scaled", LocalID: 2, PrimitiveType: "f32",
		DeclaredExts: []ext.Extension{{Kind: ext.KindIOMappedNumber, Reference: "raw", Scale: 2, Offset: 1}},
	}
	root := &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 8, Children: []*tree.Node{source, scaled}}

	_, err := Resolve(root, reg, access.Collection{}, nil, testNames())
	require.NoError(t, err)
	require.NotNil(t, scaled.Extensions)
	target, ok := scaled.Extensions.Target.(*tree.Node)
	require.True(t, ok)
	require.Same(t, source, target)
}

// TestLocalIDBoundary checks that a local id equal to 1 <<
// parent.id_space_shift fails with id-space-violation, while one less
// passes.
func TestLocalIDBoundary(t *testing.T) {
	reg := newBuiltinRegistry(t)

	build := func(localID int) *tree.Node {
		p := &tree.Node{Kind: tree.KindParameter, Name: "p", LocalID: localID, PrimitiveType: "u8"}
		return &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 4, Children: []*tree.Node{p}}
	}

	_, err := Resolve(build(15), reg, access.Collection{}, nil, testNames())
	require.NoError(t, err)

	_, err = Resolve(build(16), reg, access.Collection{}, nil, testNames())
	require.Error(t, err)
	oerr, ok := err.(*oderr.Error)
	require.True(t, ok)
	require.Equal(t, oderr.IDSpaceViolation, oerr.Kind)
}

func TestVoidParameterHasNoResolvedTypeOrStorage(t *testing.T) {
	reg := newBuiltinRegistry(t)
	v := &tree.Node{Kind: tree.KindVoid, Name: "reset", LocalID: 1}
	root := &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 8, Children: []*tree.Node{v}}

	_, err := Resolve(root, reg, access.Collection{}, nil, testNames())
	require.NoError(t, err)
	require.Nil(t, v.ResolvedType)
	require.False(t, v.IsStorageBacked())
}

func TestUnknownPrimitiveTypeFails(t *testing.T) {
	reg := newBuiltinRegistry(t)
	p := &tree.Node{Kind: tree.KindParameter, Name: "p", LocalID: 1, PrimitiveType: "nope"}
	root := &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 8, Children: []*tree.Node{p}}

	_, err := Resolve(root, reg, access.Collection{}, nil, testNames())
	require.Error(t, err)
	oerr, ok := err.(*oderr.Error)
	require.True(t, ok)
	require.Equal(t, oderr.UnknownType, oerr.Kind)
}

func TestStringSerialiserImplicitlyAppendsCodecExtension(t *testing.T) {
	reg := newBuiltinRegistry(t)
	_, err := reg.RegisterUserType("msg", types.UserTypeDecl{
		StringSerialiser: "ascii_codec",
		Model:            map[string]types.FieldTypeUse{"data": {Type: "char", Elements: 8}},
		FieldOrder:       []string{"data"},
	})
	require.NoError(t, err)

	p := &tree.Node{Kind: tree.KindParameter, Name: "p", LocalID: 1, PrimitiveType: "msg"}
	root := &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 8, Children: []*tree.Node{p}}

	_, err = Resolve(root, reg, access.Collection{}, nil, testNames())
	require.NoError(t, err)
	require.NotNil(t, p.Extensions)
	require.Equal(t, ext.KindStringCodecReference, p.Extensions.Kind)
	require.Equal(t, "ascii_codec", p.Extensions.Reference)
}

func TestTooManyAccessGroupsFails(t *testing.T) {
	reg := newBuiltinRegistry(t)
	root := &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 8}
	_, err := Resolve(root, reg, access.Collection{}, []string{"a", "b", "c", "d", "e", "f", "g"}, testNames())
	require.Error(t, err)
	oerr, ok := err.(*oderr.Error)
	require.True(t, ok)
	require.Equal(t, oderr.TooManyAccessGroups, oerr.Kind)
}

func TestAssignedReferencesConcatenateWithParent(t *testing.T) {
	reg := newBuiltinRegistry(t)
	voltage := &tree.Node{Kind: tree.KindParameter, Name: "voltage", LocalID: 1, PrimitiveType: "u16"}
	telemetry := &tree.Node{Kind: tree.KindGroup, Name: "telemetry", LocalID: 1, IDSpaceShift: 8, Children: []*tree.Node{voltage}}
	root := &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 8, Children: []*tree.Node{telemetry}}

	_, err := Resolve(root, reg, access.Collection{}, nil, testNames())
	require.NoError(t, err)

	require.Equal(t, "od_vars", root.VarRef)
	require.Equal(t, "od_vars.telemetry", telemetry.VarRef)
	require.Equal(t, "od_vars.telemetry.voltage", voltage.VarRef)
	require.Equal(t, "od_objs", root.ObjRef)
	require.Equal(t, "od_objs_telemetry", telemetry.ObjRef)
	require.Equal(t, "od_objs_telemetry_voltage", voltage.ObjRef)
}

// ---- property tests ----

func TestGlobalIDInjectiveAndBitPositionProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("global ids are injective and local id sits at the expected bit offset", prop.ForAll(
		func(shift, rawCount int) bool {
			// Local ids start at 1: a root child with local id 0 would share
			// the root's own global id 0.
			count := rawCount
			if max := (1 << uint(shift)) - 1; count > max {
				count = max
			}
			reg := types.NewRegistry()
			if err := reg.RegisterBuiltins(); err != nil {
				return false
			}
			children := make([]*tree.Node, count)
			for i := 0; i < count; i++ {
				children[i] = &tree.Node{Kind: tree.KindParameter, Name: nthName(i), LocalID: i + 1, PrimitiveType: "u8"}
			}
			root := &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: shift, Children: children}
			if _, err := Resolve(root, reg, access.Collection{}, nil, Names{VariablesStruct: "v", ObjectsStruct: "o", GroupNamespace: "g"}); err != nil {
				return false
			}

			seen := make(map[uint32]bool, count)
			for _, c := range children {
				if seen[c.GlobalID] {
					return false // global ids must be injective
				}
				seen[c.GlobalID] = true

				expectedShift := bitWidth - (0 + root.IDSpaceShift) // local id sits at this bit offset
				if expectedShift >= bitWidth {
					continue
				}
				if c.GlobalID != uint32(c.LocalID)<<uint(expectedShift) {
					return false
				}
			}
			return true
		},
		gen.IntRange(2, 8),
		gen.IntRange(1, 16),
	))

	properties.TestingRun(t)
}

func nthName(i int) string {
	return string(rune('a' + i%26))
}

// TestAbsolutePathsAreUniqueProperty checks that two distinct nodes never
// share an absolute path, and every path is the dot-join of names from root.
func TestAbsolutePathsAreUniqueProperty(t *testing.T) {
	reg := newBuiltinRegistry(t)
	voltage := &tree.Node{Kind: tree.KindParameter, Name: "voltage", LocalID: 1, PrimitiveType: "u16"}
	current := &tree.Node{Kind: tree.KindParameter, Name: "current", LocalID: 2, PrimitiveType: "u16"}
	telemetry := &tree.Node{Kind: tree.KindGroup, Name: "telemetry", LocalID: 1, IDSpaceShift: 8, Children: []*tree.Node{voltage, current}}
	status := &tree.Node{Kind: tree.KindParameter, Name: "status", LocalID: 2, PrimitiveType: "u8"}
	root := &tree.Node{Kind: tree.KindGroup, LocalID: 0, IDSpaceShift: 8, Children: []*tree.Node{telemetry, status}}

	_, err := Resolve(root, reg, access.Collection{}, nil, testNames())
	require.NoError(t, err)

	seen := map[string]bool{}
	tree.Walk(root, func(n *tree.Node) {
		require.False(t, seen[n.AbsolutePath], "duplicate absolute path %q", n.AbsolutePath)
		seen[n.AbsolutePath] = true
	})
	require.Equal(t, "telemetry.voltage", voltage.AbsolutePath)
	require.Equal(t, "telemetry.current", current.AbsolutePath)
	require.Equal(t, "status", status.AbsolutePath)
}
