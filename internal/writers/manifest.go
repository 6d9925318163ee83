package writers

import (
	"bytes"
	"embed"
	"path"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var manifestTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// ManifestData feeds the Package.swift and CMakeLists.txt templates.
type ManifestData struct {
	Banner     string
	Module     string
	CModule    string
	Deps       []string
	SupportLib string
	IsSupport  bool
}

func manifestData(m *Module) ManifestData {
	return ManifestData{
		Banner:     banner,
		Module:     m.Name(),
		CModule:    m.CModule(),
		Deps:       m.Deps,
		SupportLib: m.Settings.SupportModule(),
		IsSupport:  m.Desc.Support,
	}
}

// Manifests renders Package.swift and CMakeLists.txt of the module.
func Manifests(m *Module) ([]File, error) {
	data := manifestData(m)
	var out []File
	for _, name := range []string{"Package.swift", "CMakeLists.txt"} {
		var buf bytes.Buffer
		if err := manifestTemplates.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
			return nil, err
		}
		out = append(out, File{Path: path.Join(m.Name(), name), Content: buf.Bytes()})
	}
	return out, nil
}
