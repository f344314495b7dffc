// Package web holds the embedded demo pages and their static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets
var assetFS embed.FS

// Templates parses every page template. Pages are addressed by file name
// ("index.html", "pong.html", "experiments.html").
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Assets serves the files under assets/ from the root of the returned
// file system.
func Assets() http.FileSystem {
	sub, err := fs.Sub(assetFS, "assets")
	if err != nil {
		panic(err) // the embedded tree always contains assets/
	}
	return http.FS(sub)
}
