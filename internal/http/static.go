package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const healthMessage = "Lawn Mowing Roster API is running!"

// Health serves GET /api.
func Health(w http.ResponseWriter, r *http.Request) {
	newResponder(nil).writeJSON(r.Context(), w, http.StatusOK, map[string]string{"message": healthMessage})
}

// NewSPAHandler serves files from dir and falls back to dir/index.html for
// any path that is not a file, so client side routes resolve.
func NewSPAHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, http.MethodGet, http.MethodHead)
			return
		}
		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" {
			info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
			if err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}
		http.ServeFile(w, r, index)
	})
}
