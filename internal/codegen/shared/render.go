// Package shared holds the template-rendering plumbing common to the C and
// host-client backends: both drive text/template directly, the layer
// goa.design/goa/v3/codegen's own SectionTemplate builds on, rather than
// codegen.File/codegen.Header — those add Go-specific import bookkeeping and
// gofmt formatting that does not apply to C or Python output.
package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"github.com/fvsolutions-common/odin/internal/oderr"
)

// Render executes the named template against data and writes the result to
// path, creating parent directories as needed.
func Render(path, name, tpl string, funcs template.FuncMap, data any) error {
	t, err := template.New(name).Funcs(funcs).Parse(tpl)
	if err != nil {
		return oderr.New(oderr.PipelineMisuse, name, "template parse error: %v", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return oderr.New(oderr.PipelineMisuse, name, "template execution error: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return oderr.New(oderr.PipelineMisuse, path, "could not create output directory: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return oderr.New(oderr.PipelineMisuse, path, "could not write output file: %v", err)
	}
	return nil
}
