package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"portfolio-cms/backend/internal/platform/httpx"
)

// SPA serves the built frontend from dir. Paths that name a file are served as-is; anything else
// gets index.html so client-side routes resolve. Without index.html every request is a 404 hint.
func SPA(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			httpx.JSON(w, http.StatusNotFound, map[string]string{
				"error": "Frontend not built",
				"hint":  "run the frontend build and set STATIC_DIR",
			})
			return
		}
		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" {
			full := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
			if fi, err := os.Stat(full); err == nil && !fi.IsDir() {
				http.ServeFile(w, r, full)
				return
			}
		}
		http.ServeFile(w, r, index)
	})
}

// Uploads serves files from dir under prefix without directory listings.
func Uploads(prefix, dir string) http.Handler {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
