package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Catalog.
	mux.HandleFunc("GET /v1/images", s.handleListImages)
	mux.HandleFunc("POST /v1/images", s.handleCreateImage)
	mux.HandleFunc("GET /v1/images/{position}", s.handleGetImage)
	mux.HandleFunc("GET /v1/images/{position}/content", s.handleGetImageContent)
	mux.HandleFunc("DELETE /v1/images/{position}", s.handleDeleteImage)

	// Admin.
	mux.HandleFunc("POST /v1/admin/reload", s.handleAdminReload)

	// Grid UI.
	mux.HandleFunc("GET /{$}", s.handleUIIndex)
	mux.Handle("GET /ui/", s.uiAssetHandler())

	return s.withAuth(mux)
}
