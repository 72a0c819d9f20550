// Package specfile loads and strictly validates the YAML input document and
// bridges it into the pre-resolve parameter IR the resolver consumes. YAML
// parsing and JSON-schema validation are treated as ambient I/O concerns,
// not part of the semantic core.
package specfile

// Document is the fully decoded, order-preserving shape of a spec file.
type Document struct {
	Description   string
	Config        Config
	AccessControl []AccessGroupDecl
	Types         []TypeDecl
	Collections   []CollectionDecl
	Parameters    []ParameterDecl
	IDSpaceShift  int
}

// Config holds the per-backend configuration blocks (the document's
// top-level `config` field).
// Every field is optional; zero values fall back to backend defaults.
type Config struct {
	Name string

	C struct {
		HeaderPath string `yaml:"header_path"`
		SourcePath string `yaml:"source_path"`
		VarsStruct string `yaml:"vars_struct"`
		ObjsStruct string `yaml:"objs_struct"`
		GroupNS    string `yaml:"group_ns"`
	}

	Host struct {
		ModulePath string `yaml:"module_path"`
		RootClass  string `yaml:"root_class"`
	}

	DB struct {
		OutputPath string `yaml:"output_path"`
	}

	Doc struct {
		OutputPath string `yaml:"output_path"`
		Title      string `yaml:"title"`
	}
}

// AccessGroupDecl is one named group's permission definition, as declared
// at some node in the tree.
type AccessGroupDecl struct {
	Name        string
	Default     []string
	Override    []string
	HasOverride bool
}

// FieldDecl is one field of a user-type declaration.
type FieldDecl struct {
	Name     string
	Type     string
	Elements int
	Default  any
}

// TypeDecl is a `types:` entry.
type TypeDecl struct {
	Name             string
	Description      string
	CTypeName        string
	PyTypeName       string
	StringSerialiser string
	Model            []FieldDecl
}

// CollectionDecl is a `collections:` entry.
type CollectionDecl struct {
	Name        string
	Description string
	Children    []string
}

// ExtensionDecl is one entry of a parameter's `extensions:` list.
type ExtensionDecl struct {
	Type      string
	Reference string
	Scale     float64
	Offset    float64
	Min       *float64
	Max       *float64
}

// ParameterDecl is one node of the `parameters:` tree. Fields unused by a
// given Type are simply left zero; decode.go enforces that the YAML source
// does not set fields foreign to a node's discriminated kind.
type ParameterDecl struct {
	Name          string
	Type          string // parameter | void | array | vector | group
	LocalID       int
	Description   string
	AccessControl []AccessGroupDecl

	Primitive   string
	Default     any
	HasDefault  bool
	Reference   string
	Elements    int
	MaxElements int
	Extensions  []ExtensionDecl

	IDSpaceShift int
	Children     []ParameterDecl
}
