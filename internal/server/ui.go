package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"
)

//go:embed uiassets/dist/*
var uiFS embed.FS

const uiContentSecurityPolicy = "default-src 'self'; img-src 'self' blob: data:; style-src 'self'; script-src 'self'"

type uiIndexData struct {
	TokenRequired bool
}

var loadUIIndex = sync.OnceValues(func() (*template.Template, error) {
	dist, err := fs.Sub(uiFS, "uiassets/dist")
	if err != nil {
		return nil, err
	}
	raw, err := fs.ReadFile(dist, "index.html")
	if err != nil {
		return nil, err
	}
	return template.New("index").Parse(string(raw))
})

func (s *Server) uiAssetHandler() http.Handler {
	dist, err := fs.Sub(uiFS, "uiassets/dist")
	if err != nil {
		return http.NotFoundHandler()
	}

	fileServer := http.StripPrefix("/ui/", http.FileServerFS(dist))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/ui/") || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}

		asset := strings.TrimPrefix(r.URL.Path, "/ui/")
		if asset == "index.html" {
			http.NotFound(w, r)
			return
		}
		if isFingerprintAsset(asset) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}

		fileServer.ServeHTTP(w, r)
	})
}

func (s *Server) handleUIIndex(w http.ResponseWriter, r *http.Request) {
	tmpl, err := loadUIIndex()
	if err != nil {
		s.log().Error("load ui index", "error", err)
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, uiIndexData{TokenRequired: s.apiToken != ""}); err != nil {
		s.writeErrorReq(w, r, http.StatusInternalServerError, internalError(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Security-Policy", uiContentSecurityPolicy)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func isFingerprintAsset(assetPath string) bool {
	base := path.Base(strings.TrimSpace(assetPath))
	parts := strings.Split(base, ".")
	if len(parts) < 3 {
		return false
	}

	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return false
	}
	for _, ch := range hash {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}
