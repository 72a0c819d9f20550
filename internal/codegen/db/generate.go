// Package db is the JSON database backend: it serializes the frozen model
// context to a machine-readable document carrying a configuration
// fingerprint, for tooling that needs to detect when a deployed object
// dictionary has drifted from the spec it was built from.
//
// JSON encoding and MD5 hashing are done with the standard library
// (encoding/json, crypto/md5): MD5 is mandated by name, and this fingerprint
// targets a plain JSON file rather than a database connection, so there's no
// driver layer to delegate hashing to.
package db

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fvsolutions-common/odin/internal/access"
	"github.com/fvsolutions-common/odin/internal/backend"
	"github.com/fvsolutions-common/odin/internal/ext"
	"github.com/fvsolutions-common/odin/internal/oderr"
	"github.com/fvsolutions-common/odin/internal/tree"
	"github.com/fvsolutions-common/odin/internal/types"
)

type document struct {
	Name                string          `json:"name"`
	Description         string          `json:"description,omitempty"`
	CreationTimestamp   string          `json:"creation_timestamp"`
	ConfigurationHash   string          `json:"configuration_hash"`
	Root                *nodeJSON       `json:"root"`
	Types               []*userTypeJSON `json:"types"`
}

type nodeJSON struct {
	Name          string               `json:"name"`
	Kind          string               `json:"kind"`
	LocalID       int                  `json:"local_id"`
	GlobalID      uint32               `json:"global_id"`
	Description   string               `json:"description,omitempty"`
	PrimitiveType string               `json:"primitive_type,omitempty"`
	Elements      int                  `json:"elements,omitempty"`
	MaxElements   int                  `json:"max_elements,omitempty"`
	Default       any                  `json:"default,omitempty"`
	Access        map[string][]string  `json:"access,omitempty"`
	Extensions    []*extensionJSON     `json:"extensions,omitempty"`
	Children      []*nodeJSON          `json:"children,omitempty"`
}

type extensionJSON struct {
	Kind      string   `json:"kind"`
	Reference string   `json:"reference,omitempty"`
	Scale     float64  `json:"scale,omitempty"`
	Offset    float64  `json:"offset,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

type userTypeJSON struct {
	Name        string       `json:"name"`
	CTypeName   string       `json:"c_typename"`
	PyTypeName  string       `json:"py_typename"`
	Size        int          `json:"size"`
	Format      string       `json:"format"`
	Fields      []*fieldJSON `json:"fields"`
}

type fieldJSON struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Elements int    `json:"elements"`
}

// Generate writes the JSON database document for ctx's model to
// outDir/<name>.json.
func Generate(ctx *backend.Context, outDir, name string) error {
	if err := ctx.Validate(); err != nil {
		return err
	}

	root := buildNodeJSON(ctx.Root())
	hash, err := configurationHash(root)
	if err != nil {
		return err
	}

	doc := &document{
		Name:              name,
		Description:       ctx.Description(),
		CreationTimestamp: time.Now().UTC().Format(time.RFC3339),
		ConfigurationHash: hash,
		Root:              root,
		Types:             buildUserTypesJSON(ctx.Types()),
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return oderr.New(oderr.PipelineMisuse, "", "could not marshal database document: %v", err)
	}

	path := filepath.Join(outDir, name+".json")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return oderr.New(oderr.PipelineMisuse, outDir, "could not create output directory: %v", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return oderr.New(oderr.PipelineMisuse, path, "could not write database document: %v", err)
	}
	return nil
}

// configurationHash computes the MD5 fingerprint of the canonical JSON
// encoding of the root parameter tree, independent of name/description/
// timestamp so it changes only when the dictionary's shape does.
func configurationHash(root *nodeJSON) (string, error) {
	canonical, err := json.Marshal(root)
	if err != nil {
		return "", oderr.New(oderr.PipelineMisuse, "", "could not marshal root for fingerprinting: %v", err)
	}
	sum := md5.Sum(canonical)
	return fmt.Sprintf("%x", sum), nil
}

func buildNodeJSON(n *tree.Node) *nodeJSON {
	nj := &nodeJSON{
		Name:        n.Name,
		Kind:        string(n.Kind),
		LocalID:     n.LocalID,
		GlobalID:    n.GlobalID,
		Description: n.Description,
	}
	if len(n.EffectiveAccess) > 0 {
		nj.Access = accessJSON(n.EffectiveAccess)
	}
	switch n.Kind {
	case tree.KindGroup:
		for _, c := range n.Children {
			nj.Children = append(nj.Children, buildNodeJSON(c))
		}
	case tree.KindParameter, tree.KindArray, tree.KindVector:
		nj.PrimitiveType = n.PrimitiveType
		nj.Elements = n.Elements
		nj.MaxElements = n.MaxElements
		nj.Default = n.Default
		nj.Extensions = extensionsJSON(n.Extensions)
	}
	return nj
}

func accessJSON(eff access.Collection) map[string][]string {
	out := make(map[string][]string, len(eff))
	for name, def := range eff {
		var perms []string
		if def.Default&access.Read != 0 {
			perms = append(perms, "read")
		}
		if def.Default&access.Write != 0 {
			perms = append(perms, "write")
		}
		if def.Default&access.LogRead != 0 {
			perms = append(perms, "log_read")
		}
		if def.Default&access.LogWrite != 0 {
			perms = append(perms, "log_write")
		}
		out[name] = perms
	}
	return out
}

func extensionsJSON(head *ext.Extension) []*extensionJSON {
	var out []*extensionJSON
	for _, e := range ext.Slice(head) {
		out = append(out, &extensionJSON{
			Kind:      string(e.Kind),
			Reference: e.Reference,
			Scale:     e.Scale,
			Offset:    e.Offset,
			Min:       e.Min,
			Max:       e.Max,
		})
	}
	return out
}

func buildUserTypesJSON(reg *types.Registry) []*userTypeJSON {
	var out []*userTypeJSON
	for _, name := range types.UserTypeNames(reg) {
		t, err := reg.Lookup(name)
		if err != nil {
			continue
		}
		ut, ok := t.(*types.UserType)
		if !ok {
			continue
		}
		utj := &userTypeJSON{
			Name:       ut.Name,
			CTypeName:  ut.CName(),
			PyTypeName: ut.HostName(),
			Size:       ut.Size(),
			Format:     ut.Format(),
		}
		for _, f := range ut.Fields {
			utj.Fields = append(utj.Fields, &fieldJSON{Name: f.Name, Type: f.Resolved.TypeName(), Elements: f.Use.Elements})
		}
		out = append(out, utj)
	}
	return out
}
