// Package site serves the embedded front-end.
package site

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// IndexFile is served for every path that does not name an embedded file.
const IndexFile = "index.html"

// ErrServe is returned when the site cannot be served.
var ErrServe = errors.New("site serve failed")

// Register attaches the embedded site to the root of mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", NewRootHandler(FS()))
}

// RootHandler serves static files and falls back to the index page.
type RootHandler struct {
	files fs.FS
	fs    http.Handler
}

// NewRootHandler creates a root handler over files.
func NewRootHandler(files fs.FS) *RootHandler {
	return &RootHandler{files: files, fs: http.FileServerFS(files)}
}

// ServeHTTP serves the named file if it exists, otherwise the index page.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name != "" && name != IndexFile {
		if info, err := fs.Stat(h.files, name); err == nil && !info.IsDir() {
			h.fs.ServeHTTP(w, r)
			return
		}
	}
	h.serveIndex(w, r)
}

func (h *RootHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	b, err := fs.ReadFile(h.files, IndexFile)
	if err != nil {
		http.Error(w, ErrServe.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(b)
}
