package writers

import (
	"bytes"
	"io/fs"
	"path"

	runtimeembed "swiftwinrt/runtime"
)

// supportCModule is the C module name the embedded Swift sources import.
const supportCModule = "CWinRTBase"

// SupportFiles renders the runtime glue hosted by the support module: the
// Swift sources next to the generated ones and the base header next to the
// generated headers.
func SupportFiles(m *Module) ([]File, error) {
	src := runtimeembed.SupportFS()
	var out []File
	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		switch path.Ext(p) {
		case ".swift":
			data = bytes.ReplaceAll(data, []byte(supportCModule), []byte(m.CModule()))
			out = append(out, File{Path: path.Join(m.SwiftDir(), path.Base(p)), Content: data})
		case ".h":
			out = append(out, File{Path: path.Join(m.IncludeDir(), path.Base(p)), Content: data})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
