package host

import "embed"

//go:embed templates/*.tmpl
var templateFS embed.FS

func readTemplate(name string) string {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		panic(err)
	}
	return string(data)
}

const clientTemplate = "client.py.tmpl"
