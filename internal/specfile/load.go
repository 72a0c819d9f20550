package specfile

import (
	"os"

	"github.com/fvsolutions-common/odin/internal/oderr"
)

// Load reads and decodes a spec file from disk. skipSchema, when true, skips
// the reflected-schema pass and relies solely on decode.go's structural
// validation; the CLI passes false, so its input always goes through the
// schema check before decoding.
func Load(path string, skipSchema bool) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oderr.New(oderr.SchemaValidation, path, "could not read spec file: %v", err)
	}
	if !skipSchema {
		if err := Validate(data); err != nil {
			return nil, err
		}
	}
	return Decode(data)
}
