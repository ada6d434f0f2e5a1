package api

import (
	"net/http"
	"os"
	"path/filepath"
)

// StaticHandler serves the doc console assets from ./static when present.
// The files are not vendored; drop the swagger-ui and redoc bundles into
// ./static to run /docs and /console fully offline.
func (s *Server) StaticHandler(w http.ResponseWriter, r *http.Request) {
	switch name := filepath.Base(r.URL.Path); name {
	case "redoc.standalone.js", "swagger-ui-bundle.js", "swagger-ui-standalone-preset.js", "swagger-ui.css":
		p := filepath.Join("static", name)
		if _, err := os.Stat(p); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, p)
	default:
		http.NotFound(w, r)
	}
}
