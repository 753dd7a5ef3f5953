package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gallery/internal/models"
)

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	images, err := s.gallery.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, images)
}

func (s *Server) handleCreateImage(w http.ResponseWriter, r *http.Request) {
	s.withLimiter(w, r, s.uploadLimiter, "upload", func() {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
		if err := r.ParseMultipartForm(uploadMultipartMemory); err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, classifyMultipartError(err))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, _, err := r.FormFile("content")
		if err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("content is required"), ErrCodeMissingRequired))
			return
		}
		defer file.Close()

		source, err := models.ParseImageSource(r.FormValue("source"))
		if err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(err, ErrCodeInvalidSource))
			return
		}
		createdAt, err := parseOptionalTime(r.FormValue("created_at"))
		if err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, err)
			return
		}
		raw, err := formBool(r, "raw")
		if err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, err)
			return
		}

		image, err := s.gallery.Capture(r.Context(), CaptureInput{
			Source:    source,
			CreatedAt: createdAt,
			Raw:       raw,
		}, file)
		if err != nil {
			if isContextError(err) {
				s.log().Debug("upload abandoned", "error", err)
				return
			}
			s.writeServiceError(w, r, err)
			return
		}

		w.Header().Set("Location", imageLocation(image.Position))
		s.writeJSON(w, http.StatusCreated, image)
	})
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	position, ok := s.pathPositionOrBadRequest(w, r)
	if !ok {
		return
	}
	rec, err := s.gallery.Get(r.Context(), position)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, imageResponse(position, rec))
}

func (s *Server) handleGetImageContent(w http.ResponseWriter, r *http.Request) {
	position, ok := s.pathPositionOrBadRequest(w, r)
	if !ok {
		return
	}
	download, err := queryBool(r, "download")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	s.withLimiter(w, r, s.contentLimiter, "content", func() {
		rec, err := s.gallery.Get(r.Context(), position)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		etag := strconv.Quote(rec.Digest())
		w.Header().Set("ETag", etag)
		// Positions shift on every mutation, so clients must revalidate.
		w.Header().Set("Cache-Control", "no-cache")
		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", rec.MediaType())
		w.Header().Set("Content-Length", strconv.Itoa(len(rec.Data)))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if download {
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName(rec)))
		}
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := w.Write(rec.Data); err != nil {
			s.log().Debug("write image content", "position", position, "error", err)
		}
	})
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	position, ok := s.pathPositionOrBadRequest(w, r)
	if !ok {
		return
	}
	digest := strings.TrimSpace(r.URL.Query().Get("digest"))
	if digest != "" && !validateDigest(digest) {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("invalid digest"), ErrCodeInvalidDigest))
		return
	}

	resp, err := s.gallery.Remove(r.Context(), position, digest)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func imageLocation(position int) string {
	return "/v1/images/" + strconv.Itoa(position)
}

func etagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}

func downloadName(rec models.ImageRecord) string {
	ext := ".bin"
	switch rec.MediaType() {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	case "image/bmp":
		ext = ".bmp"
	}
	return rec.CreatedAt.UTC().Format("20060102-150405") + ext
}
