package c

import "embed"

//go:embed templates/*.tmpl
var templateFS embed.FS

func readTemplate(name string) string {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		panic(err) // embedded at build time; a missing template is a programming error
	}
	return string(data)
}

const (
	headerTemplate = "header.h.tmpl"
	sourceTemplate = "source.c.tmpl"
)
