package specfile

import (
	"fmt"

	"github.com/fvsolutions-common/odin/internal/oderr"
	"gopkg.in/yaml.v3"
)

// field is one key/value pair of a YAML mapping node, in document order —
// decoding through yaml.Node rather than a plain Go map preserves
// declaration order, which is preserved end to end (child order, group
// order, access-control group enumeration order).
type field struct {
	key  string
	node *yaml.Node
}

func mappingFields(n *yaml.Node, path string) ([]field, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, oderr.New(oderr.SchemaValidation, path, "expected a mapping")
	}
	out := make([]field, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, field{key: n.Content[i].Value, node: n.Content[i+1]})
	}
	return out, nil
}

func fieldSet(fields []field) map[string]*yaml.Node {
	m := make(map[string]*yaml.Node, len(fields))
	for _, f := range fields {
		m[f.key] = f.node
	}
	return m
}

// rejectUnknown fails schema-validation if fields contains a key not in
// allowed, rejecting any field foreign to the containing node's shape.
func rejectUnknown(fields []field, allowed map[string]bool, path string) error {
	for _, f := range fields {
		if !allowed[f.key] {
			return oderr.New(oderr.SchemaValidation, path, "unknown field %q", f.key)
		}
	}
	return nil
}

func allowedSet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// Decode parses raw YAML bytes into a Document, performing the strict
// structural validation as it goes.
func Decode(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, oderr.New(oderr.SchemaValidation, "", "invalid YAML: %v", err)
	}
	if len(root.Content) == 0 {
		return nil, oderr.New(oderr.SchemaValidation, "", "empty document")
	}
	return decodeDocument(root.Content[0])
}

func decodeDocument(n *yaml.Node) (*Document, error) {
	fields, err := mappingFields(n, "")
	if err != nil {
		return nil, err
	}
	if err := rejectUnknown(fields, allowedSet("description", "config", "access_control", "types", "collections", "parameters", "id_space_shift"), ""); err != nil {
		return nil, err
	}
	set := fieldSet(fields)

	doc := &Document{Config: Config{Name: "OD"}}

	if n, ok := set["description"]; ok {
		_ = n.Decode(&doc.Description)
	}
	if n, ok := set["config"]; ok {
		if err := decodeConfig(n, &doc.Config); err != nil {
			return nil, err
		}
	}
	if n, ok := set["id_space_shift"]; ok {
		if err := n.Decode(&doc.IDSpaceShift); err != nil {
			return nil, oderr.New(oderr.SchemaValidation, "id_space_shift", "%v", err)
		}
	}
	if n, ok := set["access_control"]; ok {
		groups, err := decodeAccessControl(n, "access_control")
		if err != nil {
			return nil, err
		}
		doc.AccessControl = groups
	}
	if n, ok := set["types"]; ok {
		types, err := decodeTypes(n)
		if err != nil {
			return nil, err
		}
		doc.Types = types
	}
	if n, ok := set["collections"]; ok {
		colls, err := decodeCollections(n)
		if err != nil {
			return nil, err
		}
		doc.Collections = colls
	}
	if n, ok := set["parameters"]; ok {
		params, err := decodeParameters(n, "parameters")
		if err != nil {
			return nil, err
		}
		doc.Parameters = params
	}
	return doc, nil
}

func decodeConfig(n *yaml.Node, cfg *Config) error {
	fields, err := mappingFields(n, "config")
	if err != nil {
		return err
	}
	set := fieldSet(fields)
	if nameNode, ok := set["name"]; ok {
		_ = nameNode.Decode(&cfg.Name)
	}
	if cNode, ok := set["c"]; ok {
		_ = cNode.Decode(&cfg.C)
	}
	if hNode, ok := set["py"]; ok {
		_ = hNode.Decode(&cfg.Host)
	}
	if dNode, ok := set["db"]; ok {
		_ = dNode.Decode(&cfg.DB)
	}
	if docNode, ok := set["doc"]; ok {
		_ = docNode.Decode(&cfg.Doc)
	}
	return nil
}

func decodeAccessControl(n *yaml.Node, path string) ([]AccessGroupDecl, error) {
	fields, err := mappingFields(n, path)
	if err != nil {
		return nil, err
	}
	out := make([]AccessGroupDecl, 0, len(fields))
	for _, f := range fields {
		decl, err := decodeGroupDef(f.node, path+"."+f.key)
		if err != nil {
			return nil, err
		}
		decl.Name = f.key
		out = append(out, decl)
	}
	return out, nil
}

func decodeGroupDef(n *yaml.Node, path string) (AccessGroupDecl, error) {
	fields, err := mappingFields(n, path)
	if err != nil {
		return AccessGroupDecl{}, err
	}
	if err := rejectUnknown(fields, allowedSet("default", "override"), path); err != nil {
		return AccessGroupDecl{}, err
	}
	set := fieldSet(fields)
	var decl AccessGroupDecl
	if dn, ok := set["default"]; ok {
		toks, err := decodePermissionTokens(dn, path+".default")
		if err != nil {
			return AccessGroupDecl{}, err
		}
		decl.Default = toks
	}
	if on, ok := set["override"]; ok {
		toks, err := decodePermissionTokens(on, path+".override")
		if err != nil {
			return AccessGroupDecl{}, err
		}
		decl.Override = toks
		decl.HasOverride = true
	}
	return decl, nil
}

// decodePermissionTokens accepts either a compact scalar string ("RW") or a
// sequence of name tokens (["read", "write"]).
func decodePermissionTokens(n *yaml.Node, path string) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		var s string
		if err := n.Decode(&s); err != nil {
			return nil, oderr.New(oderr.SchemaValidation, path, "%v", err)
		}
		return []string{s}, nil
	case yaml.SequenceNode:
		var s []string
		if err := n.Decode(&s); err != nil {
			return nil, oderr.New(oderr.SchemaValidation, path, "%v", err)
		}
		return s, nil
	default:
		return nil, oderr.New(oderr.SchemaValidation, path, "expected a permission string or list")
	}
}

func decodeTypes(n *yaml.Node) ([]TypeDecl, error) {
	fields, err := mappingFields(n, "types")
	if err != nil {
		return nil, err
	}
	out := make([]TypeDecl, 0, len(fields))
	for _, f := range fields {
		path := "types." + f.key
		tf, err := mappingFields(f.node, path)
		if err != nil {
			return nil, err
		}
		if err := rejectUnknown(tf, allowedSet("description", "c_typename", "py_typename", "string_serialiser", "model"), path); err != nil {
			return nil, err
		}
		set := fieldSet(tf)
		decl := TypeDecl{Name: f.key}
		decodeStringField(set, "description", &decl.Description)
		decodeStringField(set, "c_typename", &decl.CTypeName)
		decodeStringField(set, "py_typename", &decl.PyTypeName)
		decodeStringField(set, "string_serialiser", &decl.StringSerialiser)
		modelNode, ok := set["model"]
		if !ok {
			return nil, oderr.New(oderr.SchemaValidation, path, "missing required field \"model\"")
		}
		model, err := decodeModel(modelNode, path+".model")
		if err != nil {
			return nil, err
		}
		decl.Model = model
		out = append(out, decl)
	}
	return out, nil
}

func decodeStringField(set map[string]*yaml.Node, key string, dst *string) {
	if n, ok := set[key]; ok {
		_ = n.Decode(dst)
	}
}

func decodeModel(n *yaml.Node, path string) ([]FieldDecl, error) {
	fields, err := mappingFields(n, path)
	if err != nil {
		return nil, err
	}
	out := make([]FieldDecl, 0, len(fields))
	for _, f := range fields {
		fd := FieldDecl{Name: f.key}
		switch f.node.Kind {
		case yaml.ScalarNode:
			var typeName string
			if err := f.node.Decode(&typeName); err != nil {
				return nil, oderr.New(oderr.SchemaValidation, path+"."+f.key, "%v", err)
			}
			fd.Type = typeName
			fd.Elements = 1
		case yaml.MappingNode:
			ff, err := mappingFields(f.node, path+"."+f.key)
			if err != nil {
				return nil, err
			}
			if err := rejectUnknown(ff, allowedSet("type", "elements", "default"), path+"."+f.key); err != nil {
				return nil, err
			}
			set := fieldSet(ff)
			if tn, ok := set["type"]; ok {
				_ = tn.Decode(&fd.Type)
			}
			fd.Elements = 1
			if en, ok := set["elements"]; ok {
				_ = en.Decode(&fd.Elements)
			}
			if dn, ok := set["default"]; ok {
				var v any
				if err := dn.Decode(&v); err != nil {
					return nil, oderr.New(oderr.SchemaValidation, path+"."+f.key+".default", "%v", err)
				}
				fd.Default = v
			}
		default:
			return nil, oderr.New(oderr.SchemaValidation, path+"."+f.key, "expected a type name or field declaration")
		}
		out = append(out, fd)
	}
	return out, nil
}

func decodeCollections(n *yaml.Node) ([]CollectionDecl, error) {
	fields, err := mappingFields(n, "collections")
	if err != nil {
		return nil, err
	}
	out := make([]CollectionDecl, 0, len(fields))
	for _, f := range fields {
		path := "collections." + f.key
		cf, err := mappingFields(f.node, path)
		if err != nil {
			return nil, err
		}
		if err := rejectUnknown(cf, allowedSet("description", "children"), path); err != nil {
			return nil, err
		}
		set := fieldSet(cf)
		decl := CollectionDecl{Name: f.key}
		decodeStringField(set, "description", &decl.Description)
		if cn, ok := set["children"]; ok {
			if err := cn.Decode(&decl.Children); err != nil {
				return nil, oderr.New(oderr.SchemaValidation, path+".children", "%v", err)
			}
		}
		out = append(out, decl)
	}
	return out, nil
}

var parameterFieldsByKind = map[string]map[string]bool{
	"group": allowedSet("type", "local_id", "description", "access_control", "id_space_shift", "children"),
	"parameter": allowedSet("type", "local_id", "description", "access_control", "primitive",
		"default", "reference", "extensions"),
	"void": allowedSet("type", "local_id", "description", "access_control"),
	"array": allowedSet("type", "local_id", "description", "access_control", "primitive",
		"elements", "default", "reference", "extensions"),
	"vector": allowedSet("type", "local_id", "description", "access_control", "primitive",
		"max_elements", "default", "reference", "extensions"),
}

func decodeParameters(n *yaml.Node, path string) ([]ParameterDecl, error) {
	fields, err := mappingFields(n, path)
	if err != nil {
		return nil, err
	}
	out := make([]ParameterDecl, 0, len(fields))
	for _, f := range fields {
		pd, err := decodeParameterNode(f.node, path+"."+f.key)
		if err != nil {
			return nil, err
		}
		pd.Name = f.key
		out = append(out, pd)
	}
	return out, nil
}

func decodeParameterNode(n *yaml.Node, path string) (ParameterDecl, error) {
	fields, err := mappingFields(n, path)
	if err != nil {
		return ParameterDecl{}, err
	}
	set := fieldSet(fields)
	typeNode, ok := set["type"]
	if !ok {
		return ParameterDecl{}, oderr.New(oderr.SchemaValidation, path, "missing required field \"type\"")
	}
	var kind string
	if err := typeNode.Decode(&kind); err != nil {
		return ParameterDecl{}, oderr.New(oderr.SchemaValidation, path, "%v", err)
	}
	allowed, ok := parameterFieldsByKind[kind]
	if !ok {
		return ParameterDecl{}, oderr.New(oderr.SchemaValidation, path, "unknown parameter type %q", kind)
	}
	if err := rejectUnknown(fields, allowed, path); err != nil {
		return ParameterDecl{}, err
	}

	pd := ParameterDecl{Type: kind}
	if ln, ok := set["local_id"]; ok {
		if err := ln.Decode(&pd.LocalID); err != nil {
			return ParameterDecl{}, oderr.New(oderr.SchemaValidation, path+".local_id", "%v", err)
		}
	}
	decodeStringField(set, "description", &pd.Description)
	if an, ok := set["access_control"]; ok {
		groups, err := decodeAccessControl(an, path+".access_control")
		if err != nil {
			return ParameterDecl{}, err
		}
		pd.AccessControl = groups
	}

	switch kind {
	case "group":
		pd.IDSpaceShift = 8
		if sn, ok := set["id_space_shift"]; ok {
			if err := sn.Decode(&pd.IDSpaceShift); err != nil {
				return ParameterDecl{}, oderr.New(oderr.SchemaValidation, path+".id_space_shift", "%v", err)
			}
		}
		if cn, ok := set["children"]; ok {
			children, err := decodeParameters(cn, path+".children")
			if err != nil {
				return ParameterDecl{}, err
			}
			pd.Children = children
		}
		return pd, nil
	case "void":
		return pd, nil
	}

	decodeStringField(set, "primitive", &pd.Primitive)
	decodeStringField(set, "reference", &pd.Reference)
	if kind == "array" {
		if en, ok := set["elements"]; ok {
			if err := en.Decode(&pd.Elements); err != nil {
				return ParameterDecl{}, oderr.New(oderr.SchemaValidation, path+".elements", "%v", err)
			}
		}
	}
	if kind == "vector" {
		if mn, ok := set["max_elements"]; ok {
			if err := mn.Decode(&pd.MaxElements); err != nil {
				return ParameterDecl{}, oderr.New(oderr.SchemaValidation, path+".max_elements", "%v", err)
			}
		}
	}
	if dn, ok := set["default"]; ok {
		var v any
		if err := dn.Decode(&v); err != nil {
			return ParameterDecl{}, oderr.New(oderr.SchemaValidation, path+".default", "%v", err)
		}
		pd.Default = v
		pd.HasDefault = true
	}
	if en, ok := set["extensions"]; ok {
		exts, err := decodeExtensions(en, path+".extensions")
		if err != nil {
			return ParameterDecl{}, err
		}
		pd.Extensions = exts
	}
	return pd, nil
}

var extensionFieldsByKind = map[string]map[string]bool{
	"io_mapped_number":       allowedSet("type", "reference", "scale", "offset"),
	"custom_io":              allowedSet("type", "reference"),
	"validation_limit_value": allowedSet("type", "min", "max"),
	"string_codec_reference": allowedSet("type", "reference"),
}

func decodeExtensions(n *yaml.Node, path string) ([]ExtensionDecl, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, oderr.New(oderr.SchemaValidation, path, "expected a list of extensions")
	}
	out := make([]ExtensionDecl, 0, len(n.Content))
	for i, item := range n.Content {
		ed, err := decodeExtension(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, ed)
	}
	return out, nil
}

func decodeExtension(n *yaml.Node, path string) (ExtensionDecl, error) {
	fields, err := mappingFields(n, path)
	if err != nil {
		return ExtensionDecl{}, err
	}
	set := fieldSet(fields)
	typeNode, ok := set["type"]
	if !ok {
		return ExtensionDecl{}, oderr.New(oderr.SchemaValidation, path, "missing required field \"type\"")
	}
	var kind string
	if err := typeNode.Decode(&kind); err != nil {
		return ExtensionDecl{}, oderr.New(oderr.SchemaValidation, path, "%v", err)
	}
	allowed, ok := extensionFieldsByKind[kind]
	if !ok {
		return ExtensionDecl{}, oderr.New(oderr.SchemaValidation, path, "unknown extension type %q", kind)
	}
	if err := rejectUnknown(fields, allowed, path); err != nil {
		return ExtensionDecl{}, err
	}
	ed := ExtensionDecl{Type: kind}
	decodeStringField(set, "reference", &ed.Reference)
	if sn, ok := set["scale"]; ok {
		_ = sn.Decode(&ed.Scale)
	}
	if on, ok := set["offset"]; ok {
		_ = on.Decode(&ed.Offset)
	}
	if mn, ok := set["min"]; ok {
		var v float64
		if err := mn.Decode(&v); err != nil {
			return ExtensionDecl{}, oderr.New(oderr.SchemaValidation, path+".min", "%v", err)
		}
		ed.Min = &v
	}
	if mn, ok := set["max"]; ok {
		var v float64
		if err := mn.Decode(&v); err != nil {
			return ExtensionDecl{}, oderr.New(oderr.SchemaValidation, path+".max", "%v", err)
		}
		ed.Max = &v
	}
	return ed, nil
}
