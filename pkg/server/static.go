package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StaticHandler serves the built frontend bundle with SPA fallback.
//
// Existing files are served as-is. A missing path with a file extension is a
// real 404; a missing extensionless path is assumed to be a client-side
// route and gets the index file, so a hard refresh on /mail/inbox still
// loads the application.
type StaticHandler struct {
	dir   string
	index string
}

// NewStaticHandler creates a handler rooted at dir. An empty index defaults
// to index.html.
func NewStaticHandler(dir, index string) *StaticHandler {
	if index == "" {
		index = "index.html"
	}
	return &StaticHandler{dir: dir, index: index}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Clean before joining so .. segments cannot escape the bundle root.
	urlPath := path.Clean("/" + r.URL.Path)
	if urlPath == "/" {
		urlPath = "/" + h.index
	}

	full := filepath.Join(h.dir, filepath.FromSlash(urlPath))

	info, err := os.Stat(full)
	if err == nil && !info.IsDir() {
		http.ServeFile(w, r, full)
		return
	}

	if strings.Contains(path.Base(urlPath), ".") {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.dir, h.index))
}
