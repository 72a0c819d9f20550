package specfile

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	jsonschemav6 "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/fvsolutions-common/odin/internal/oderr"
)

// Shape is a json-tagged mirror of the document's top-level surface, used
// only as a reflection target for schema generation — the real decode path
// is decode.go's order-preserving walk, which also enforces the per-kind
// strict field sets a generic reflected schema can't express precisely.
type Shape struct {
	Description string `json:"description,omitempty"`
	Config      struct {
		Name string `json:"name,omitempty"`
		C    struct {
			HeaderPath string `json:"header_path,omitempty"`
			SourcePath string `json:"source_path,omitempty"`
			VarsStruct string `json:"vars_struct,omitempty"`
			ObjsStruct string `json:"objs_struct,omitempty"`
			GroupNS    string `json:"group_ns,omitempty"`
		} `json:"c,omitempty"`
		Py struct {
			ModulePath string `json:"module_path,omitempty"`
			RootClass  string `json:"root_class,omitempty"`
		} `json:"py,omitempty"`
		DB struct {
			OutputPath string `json:"output_path,omitempty"`
		} `json:"db,omitempty"`
		Doc struct {
			OutputPath string `json:"output_path,omitempty"`
			Title      string `json:"title,omitempty"`
		} `json:"doc,omitempty"`
	} `json:"config,omitempty"`
	IDSpaceShift  int                    `json:"id_space_shift,omitempty"`
	AccessControl map[string]GroupShape  `json:"access_control,omitempty"`
	Types         map[string]TypeShape   `json:"types,omitempty"`
	Collections   map[string]interface{} `json:"collections,omitempty"`
	Parameters    map[string]interface{} `json:"parameters,omitempty"`
}

// GroupShape mirrors one access-control group definition for reflection.
type GroupShape struct {
	Default  interface{} `json:"default,omitempty"`
	Override interface{} `json:"override,omitempty"`
}

// TypeShape mirrors one `types:` entry for reflection.
type TypeShape struct {
	Description      string                 `json:"description,omitempty"`
	CTypeName        string                 `json:"c_typename,omitempty"`
	PyTypeName       string                 `json:"py_typename,omitempty"`
	StringSerialiser string                 `json:"string_serialiser,omitempty"`
	Model            map[string]interface{} `json:"model"`
}

// GenerateSchema reflects Shape into a JSON Schema document, the artifact
// the `gen-schema` subcommand writes to disk.
func GenerateSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	return r.Reflect(&Shape{})
}

// Validate compiles the reflected schema and checks raw YAML bytes against
// it, surfacing any violation as a schema-validation error. This is a second,
// coarser check layered on top of decode.go's own structural validation: it
// catches shape mistakes (wrong value kind, stray top-level key) before the
// order-preserving walk even starts.
func Validate(data []byte) error {
	schema := GenerateSchema()
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return oderr.New(oderr.SchemaValidation, "", "could not marshal reflected schema: %v", err)
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return oderr.New(oderr.SchemaValidation, "", "could not decode reflected schema: %v", err)
	}

	compiler := jsonschemav6.NewCompiler()
	if err := compiler.AddResource("od-document.json", schemaDoc); err != nil {
		return oderr.New(oderr.SchemaValidation, "", "could not register schema resource: %v", err)
	}
	compiled, err := compiler.Compile("od-document.json")
	if err != nil {
		return oderr.New(oderr.SchemaValidation, "", "could not compile schema: %v", err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oderr.New(oderr.SchemaValidation, "", "invalid YAML: %v", err)
	}

	if err := compiled.Validate(doc); err != nil {
		return oderr.New(oderr.SchemaValidation, "", "%v", err)
	}
	return nil
}
