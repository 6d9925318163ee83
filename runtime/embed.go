// Package runtimeembed provides the embedded sources of the support module:
// the Swift runtime glue every projection builds on and the base C header
// every generated header includes.
package runtimeembed

import (
	"embed"
	"io/fs"
)

//go:embed support/Sources/*.swift support/include/*.h
var supportFS embed.FS

// SupportFS exposes the support sources rooted at support/.
func SupportFS() fs.FS {
	sub, err := fs.Sub(supportFS, "support")
	if err != nil {
		panic(err)
	}
	return sub
}
