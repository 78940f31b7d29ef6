// Package ui renders the server-side HTML pages and the fragments that
// datastar swaps into them.
package ui

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFS embed.FS

// Static serves the stylesheet and other assets under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
