package webui

import (
	"io/fs"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"colorizer/webui/static"
)

// StaticAssetHandler serves the embedded UI. "/" maps to index.html.
type StaticAssetHandler struct {
	fs          fs.FS
	indexFile   string
	cacheMaxAge int
}

// NewStaticAssetHandler serves the embedded assets.
func NewStaticAssetHandler() *StaticAssetHandler {
	return NewStaticAssetHandlerWithFS(static.FS())
}

// NewStaticAssetHandlerWithFS serves fsys instead of the embedded assets.
func NewStaticAssetHandlerWithFS(fsys fs.FS) *StaticAssetHandler {
	return &StaticAssetHandler{fs: fsys, indexFile: "index.html", cacheMaxAge: 300}
}

func (h *StaticAssetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = h.indexFile
	}

	data, err := fs.ReadFile(h.fs, name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", detectContentType(name))
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(h.cacheMaxAge))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		w.Write(data)
	}
}

func detectContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	switch ext {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
