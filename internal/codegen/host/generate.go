package host

import (
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/fvsolutions-common/odin/internal/backend"
	"github.com/fvsolutions-common/odin/internal/codegen/shared"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"pyquote": func(s string) string { return fmt.Sprintf("%q", s) },
	}
}

// Generate writes the Python host-client module for ctx's model to outDir,
// named "<moduleName>.py".
func Generate(ctx *backend.Context, outDir, rootClassName, moduleName string) error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	fd := buildFileData(ctx, rootClassName)
	path := filepath.Join(outDir, moduleName+".py")
	return shared.Render(path, clientTemplate, readTemplate(clientTemplate), funcMap(), fd)
}
