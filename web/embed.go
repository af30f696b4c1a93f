// Package web embeds the dashboard template and its static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed css/*.css js/*.js
var staticFS embed.FS

// Templates is rooted at the templates directory.
func Templates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Static serves css/ and js/ under their own prefixes.
func Static() fs.FS {
	return staticFS
}
