package specfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fvsolutions-common/odin/internal/oderr"
)

func TestDecodeMinimalDocument(t *testing.T) {
	doc, err := Decode([]byte(`
description: a fixture dictionary
parameters:
  voltage:
    type: parameter
    local_id: 1
    primitive: u16
`))
	require.NoError(t, err)
	require.Equal(t, "a fixture dictionary", doc.Description)
	require.Equal(t, "OD", doc.Config.Name)
	require.Len(t, doc.Parameters, 1)
	require.Equal(t, "voltage", doc.Parameters[0].Name)
	require.Equal(t, "parameter", doc.Parameters[0].Type)
	require.Equal(t, "u16", doc.Parameters[0].Primitive)
}

func TestDecodeRejectsUnknownTopLevelField(t *testing.T) {
	_, err := Decode([]byte(`
bogus: true
`))
	require.Error(t, err)
	oerr, ok := err.(*oderr.Error)
	require.True(t, ok)
	require.Equal(t, oderr.SchemaValidation, oerr.Kind)
}

func TestDecodeRejectsFieldForeignToParameterKind(t *testing.T) {
	_, err := Decode([]byte(`
parameters:
  reset:
    type: void
    local_id: 1
    primitive: u8
`))
	require.Error(t, err)
	oerr, ok := err.(*oderr.Error)
	require.True(t, ok)
	require.Equal(t, oderr.SchemaValidation, oerr.Kind)
}

func TestDecodeRejectsMissingRequiredType(t *testing.T) {
	_, err := Decode([]byte(`
parameters:
  voltage:
    local_id: 1
`))
	require.Error(t, err)
}

func TestDecodeRejectsUnknownParameterKind(t *testing.T) {
	_, err := Decode([]byte(`
parameters:
  voltage:
    type: nonsense
`))
	require.Error(t, err)
}

func TestDecodePreservesParameterDeclarationOrder(t *testing.T) {
	doc, err := Decode([]byte(`
parameters:
  b:
    type: void
    local_id: 2
  a:
    type: void
    local_id: 1
  c:
    type: void
    local_id: 3
`))
	require.NoError(t, err)
	names := make([]string, len(doc.Parameters))
	for i, p := range doc.Parameters {
		names[i] = p.Name
	}
	require.Equal(t, []string{"b", "a", "c"}, names)
}

func TestDecodeNestedGroupWithChildren(t *testing.T) {
	doc, err := Decode([]byte(`
parameters:
  telemetry:
    type: group
    local_id: 1
    id_space_shift: 8
    children:
      voltage:
        type: parameter
        local_id: 1
        primitive: u16
`))
	require.NoError(t, err)
	require.Len(t, doc.Parameters, 1)
	group := doc.Parameters[0]
	require.Equal(t, "group", group.Type)
	require.Equal(t, 8, group.IDSpaceShift)
	require.Len(t, group.Children, 1)
	require.Equal(t, "voltage", group.Children[0].Name)
}

func TestDecodeGroupIDSpaceShiftDefaultsToEight(t *testing.T) {
	doc, err := Decode([]byte(`
parameters:
  telemetry:
    type: group
    local_id: 1
`))
	require.NoError(t, err)
	require.Equal(t, 8, doc.Parameters[0].IDSpaceShift)
}

func TestDecodeAccessControlCompactAndListForms(t *testing.T) {
	doc, err := Decode([]byte(`
access_control:
  admin:
    default: RW
  operator:
    default: [read, log_read]
    override: r
`))
	require.NoError(t, err)
	require.Len(t, doc.AccessControl, 2)
	require.Equal(t, "admin", doc.AccessControl[0].Name)
	require.Equal(t, []string{"RW"}, doc.AccessControl[0].Default)
	require.Equal(t, "operator", doc.AccessControl[1].Name)
	require.Equal(t, []string{"read", "log_read"}, doc.AccessControl[1].Default)
	require.True(t, doc.AccessControl[1].HasOverride)
	require.Equal(t, []string{"r"}, doc.AccessControl[1].Override)
}

func TestDecodeUserTypeWithExpandedFieldForm(t *testing.T) {
	doc, err := Decode([]byte(`
types:
  vec3:
    model:
      x: f32
      y: f32
      label:
        type: char
        elements: 8
        default: "abc"
`))
	require.NoError(t, err)
	require.Len(t, doc.Types, 1)
	vec3 := doc.Types[0]
	require.Equal(t, "vec3", vec3.Name)
	require.Len(t, vec3.Model, 3)
	require.Equal(t, "x", vec3.Model[0].Name)
	require.Equal(t, "f32", vec3.Model[0].Type)
	require.Equal(t, 1, vec3.Model[0].Elements)
	require.Equal(t, "label", vec3.Model[2].Name)
	require.Equal(t, 8, vec3.Model[2].Elements)
	require.Equal(t, "abc", vec3.Model[2].Default)
}

func TestDecodeTypeMissingModelFails(t *testing.T) {
	_, err := Decode([]byte(`
types:
  vec3:
    description: "missing its model"
`))
	require.Error(t, err)
}

func TestDecodeExtensionsListAndUnknownKindRejected(t *testing.T) {
	doc, err := Decode([]byte(`
parameters:
  scaled:
    type: parameter
    local_id: 1
    primitive: f32
    extensions:
      - type: io_mapped_number
        reference: raw
        scale: 2
        offset: 1
`))
	require.NoError(t, err)
	exts := doc.Parameters[0].Extensions
	require.Len(t, exts, 1)
	require.Equal(t, "io_mapped_number", exts[0].Type)
	require.Equal(t, "raw", exts[0].Reference)
	require.Equal(t, 2.0, exts[0].Scale)
	require.Equal(t, 1.0, exts[0].Offset)

	_, err = Decode([]byte(`
parameters:
  scaled:
    type: parameter
    local_id: 1
    primitive: f32
    extensions:
      - type: not_a_real_kind
`))
	require.Error(t, err)
}

func TestDecodeCollections(t *testing.T) {
	doc, err := Decode([]byte(`
collections:
  all_telemetry:
    description: every telemetry value
    children:
      - telemetry.*
`))
	require.NoError(t, err)
	require.Len(t, doc.Collections, 1)
	require.Equal(t, "all_telemetry", doc.Collections[0].Name)
	require.Equal(t, []string{"telemetry.*"}, doc.Collections[0].Children)
}

func TestDecodeEmptyDocumentFails(t *testing.T) {
	_, err := Decode([]byte(``))
	require.Error(t, err)
}

func TestDecodeInvalidYAMLFails(t *testing.T) {
	_, err := Decode([]byte("parameters: [this, is, not, a, mapping"))
	require.Error(t, err)
}
