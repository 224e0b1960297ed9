package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/poorehouse/twotruths/internal/httputil"
	"github.com/poorehouse/twotruths/internal/logging"
)

// SPAHandler serves the game frontend from staticDir. Unknown paths
// fall back to index.html so client-side routes survive a reload.
func SPAHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base, err := filepath.Abs(staticDir)
		if err != nil {
			httputil.NotFound(w, "Invalid path")
			return
		}

		rel := strings.TrimPrefix(r.URL.Path, "/")
		target := filepath.Join(base, filepath.FromSlash(rel))
		// Join cleans the path, so a crafted ../ shows up as a target
		// outside base.
		if target != base && !strings.HasPrefix(target, base+string(os.PathSeparator)) {
			logging.Warnf("static: attempted directory traversal: %s", r.URL.Path)
			httputil.NotFound(w, "Invalid path")
			return
		}

		if rel != "" {
			if info, err := os.Stat(target); err == nil && !info.IsDir() {
				http.ServeFile(w, r, target)
				return
			}
		}

		index := filepath.Join(base, "index.html")
		if _, err := os.Stat(index); err != nil {
			logging.Errorf("static: index.html not found in %s", staticDir)
			httputil.NotFound(w, "index.html not found")
			return
		}
		http.ServeFile(w, r, index)
	}
}
