package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"
)

func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiToken == "" || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		client := clientKey(r)
		now := time.Now()
		if s.authLimiter.Blocked(client, now) {
			err := makeAPIError(http.StatusTooManyRequests, "resource_exhausted", ErrCodeResourceExhausted, fmt.Errorf("too many failed auth attempts"))
			s.writeErrorReq(w, r, http.StatusTooManyRequests, err)
			return
		}

		token, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.apiToken)) != 1 {
			s.authLimiter.Fail(client, now)
			err := makeAPIError(http.StatusUnauthorized, "unauthorized", ErrCodeUnauthorized, fmt.Errorf("unauthorized"))
			s.writeErrorReq(w, r, http.StatusUnauthorized, err)
			return
		}
		s.authLimiter.Succeed(client)
		next.ServeHTTP(w, r)
	})
}

func isPublicPath(path string) bool {
	return path == "/" || path == "/health" || strings.HasPrefix(path, "/ui/")
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
