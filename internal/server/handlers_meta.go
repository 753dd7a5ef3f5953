package server

import (
	"net/http"

	"gallery/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.gallery.Info(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleAdminReload(w http.ResponseWriter, r *http.Request) {
	count, err := s.gallery.Reload(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.log().Info("catalog reloaded", "images", count)
	s.writeJSON(w, http.StatusOK, api.ReloadResponse{TotalImages: count})
}
