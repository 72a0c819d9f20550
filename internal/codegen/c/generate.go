package c

import (
	"path/filepath"
	"text/template"

	"github.com/fvsolutions-common/odin/internal/backend"
	"github.com/fvsolutions-common/odin/internal/casegen"
	"github.com/fvsolutions-common/odin/internal/codegen/shared"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"ctoken": casegen.CToken,
	}
}

// Generate writes the C header and source files for ctx's model to outDir,
// named "<name>.h" and "<name>.c".
func Generate(ctx *backend.Context, outDir, name string) error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	fd := buildFileData(ctx, name)

	headerPath := filepath.Join(outDir, name+".h")
	if err := shared.Render(headerPath, headerTemplate, readTemplate(headerTemplate), funcMap(), fd); err != nil {
		return err
	}

	sourcePath := filepath.Join(outDir, name+".c")
	return shared.Render(sourcePath, sourceTemplate, readTemplate(sourceTemplate), funcMap(), fd)
}
