package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestListenAddrRemoteGuard(t *testing.T) {
	t.Run("allows loopback", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		addr, err := ListenAddr("http://127.0.0.1:7444")
		if err != nil {
			t.Fatalf("expected loopback to be allowed, got error: %v", err)
		}
		if addr != "127.0.0.1:7444" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("allows localhost host:port", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		addr, err := ListenAddr("localhost:7444")
		if err != nil {
			t.Fatalf("expected localhost to be allowed, got error: %v", err)
		}
		if addr != "localhost:7444" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("blocks non-loopback by default", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		_, err := ListenAddr("http://0.0.0.0:7444")
		if err == nil {
			t.Fatal("expected error for non-loopback listen host")
		}
	})

	t.Run("allows non-loopback when explicitly enabled", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "true")
		addr, err := ListenAddr("http://0.0.0.0:7444")
		if err != nil {
			t.Fatalf("expected allow-remote to permit host, got error: %v", err)
		}
		if addr != "0.0.0.0:7444" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("requires url", func(t *testing.T) {
		if _, err := ListenAddr(""); err == nil {
			t.Fatal("expected error for empty api url")
		}
	})
}

func TestWithAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("denies missing auth", func(t *testing.T) {
		srv := &Server{apiToken: "token"}
		w := doRequest(t, srv.withAuth(next), http.MethodGet, "/v1/images")
		assertErrorCode(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
	})

	t.Run("denies wrong token", func(t *testing.T) {
		srv := &Server{apiToken: "token"}
		req := httptest.NewRequest(http.MethodGet, "/v1/images", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		srv.withAuth(next).ServeHTTP(w, req)
		assertErrorCode(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
	})

	t.Run("allows valid auth", func(t *testing.T) {
		srv := &Server{apiToken: "token"}
		req := httptest.NewRequest(http.MethodDelete, "/v1/images/0", nil)
		req.Header.Set("Authorization", "bearer token")
		w := httptest.NewRecorder()
		srv.withAuth(next).ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})

	t.Run("health stays public", func(t *testing.T) {
		srv := &Server{apiToken: "token"}
		if w := doRequest(t, srv.withAuth(next), http.MethodGet, "/health"); w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})

	t.Run("no token configured", func(t *testing.T) {
		srv := &Server{}
		if w := doRequest(t, srv.withAuth(next), http.MethodGet, "/v1/images"); w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	w := doRequest(t, h, http.MethodGet, "/v1/images")
	generated := w.Header().Get(requestIDHeader)
	if len(generated) != 36 || strings.Count(generated, "-") != 4 {
		t.Fatalf("expected uuid request id, got %q", generated)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/images", nil)
	req.Header.Set(requestIDHeader, "client-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "client-123" {
		t.Fatalf("expected caller request id to be echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/images", nil)
	req.Header.Set(requestIDHeader, "has space")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got == "has space" {
		t.Fatal("expected unprintable request id to be replaced")
	}
}

func TestUploadLimiter(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < cap(srv.uploadLimiter); i++ {
		srv.uploadLimiter <- struct{}{}
	}
	w := doUpload(t, srv.Handler(), []byte("x"), map[string]string{"raw": "true"})
	assertErrorCode(t, w, http.StatusTooManyRequests, ErrCodeResourceExhausted)
}
