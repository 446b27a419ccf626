//go:build ui_embed

// Package ui embeds the control panel frontend.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// Build the panel into ui/dist first, then: go build -tags ui_embed .

//go:embed all:dist
var distFS embed.FS

// Handler serves the embedded panel. Unknown extensionless paths fall back
// to index.html so client-side routes survive a reload.
func Handler() (http.Handler, error) {
	fsys, err := fs.Sub(distFS, "dist")
	if err != nil {
		return nil, err
	}

	fileServer := http.FileServer(http.FS(fsys))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := path.Clean(r.URL.Path)

		if isFile(fsys, strings.TrimPrefix(p, "/")) {
			fileServer.ServeHTTP(w, r)
			return
		}

		if !strings.Contains(path.Base(p), ".") {
			w.Header().Set("Cache-Control", "no-cache")
			r.URL.Path = "/"
		}
		fileServer.ServeHTTP(w, r)
	}), nil
}

func isFile(fsys fs.FS, name string) bool {
	stat, err := fs.Stat(fsys, name)
	return err == nil && !stat.IsDir()
}
