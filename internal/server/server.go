package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"gallery/internal/catalog"
	"gallery/internal/imaging"
)

const (
	apiTokenEnvKey          = "GALLERY_API_TOKEN"
	allowRemoteEnvKey       = "GALLERY_ALLOW_REMOTE"
	readHeaderTimeout       = 5 * time.Second
	readTimeout             = 60 * time.Second
	writeTimeout            = 60 * time.Second
	idleTimeout             = 60 * time.Second
	shutdownTimeout         = 10 * time.Second
	uploadConcurrencyLimit  = 2
	defaultMaxUploadBytes   = 32 << 20 // 32 MiB
	uploadMultipartMemory   = 8 << 20  // 8 MiB
	contentConcurrencyLimit = 8
)

// Server wraps HTTP handlers for the gallery API and grid UI.
type Server struct {
	addr           string
	gallery        *GalleryService
	logger         *slog.Logger
	apiToken       string
	maxUploadBytes int64
	uploadLimiter  chan struct{}
	contentLimiter chan struct{}
	authLimiter    *authFailureLimiter
}

// New creates a new server instance backed by store.
func New(addr string, store *catalog.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:           addr,
		gallery:        NewGalleryService(store, logger),
		logger:         logger,
		apiToken:       strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
		maxUploadBytes: defaultMaxUploadBytes,
		uploadLimiter:  make(chan struct{}, uploadConcurrencyLimit),
		contentLimiter: make(chan struct{}, contentConcurrencyLimit),
		authLimiter:    newAuthFailureLimiter(authFailureLimit, authFailureWindow, authFailureBlockFor),
	}
}

// ConfigureUploads sets the upload size limit and image preparation options.
func (s *Server) ConfigureUploads(maxUploadBytes int64, opts imaging.Options) {
	if maxUploadBytes > 0 {
		s.maxUploadBytes = maxUploadBytes
	}
	s.gallery.ConfigureImages(opts)
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.routes())
}

// ListenAndServe starts the HTTP server and blocks until ctx is done or the
// listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Load up front so a corrupt catalog is reported at startup.
	count, err := s.gallery.Reload(ctx)
	if err != nil {
		return err
	}

	s.log().Info("starting server", "addr", s.addr, "catalog", s.gallery.CatalogPath(), "images", count)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log().Info("shutting down server", "addr", s.addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) acquireLimiter(limiter chan struct{}, w http.ResponseWriter, r *http.Request, name string) bool {
	if limiter == nil {
		return true
	}
	select {
	case limiter <- struct{}{}:
		return true
	default:
		err := apiError{
			status:  http.StatusTooManyRequests,
			code:    "resource_exhausted",
			errCode: ErrCodeResourceExhausted,
			err:     fmt.Errorf("too many concurrent %s requests", name),
		}
		s.writeErrorReq(w, r, http.StatusTooManyRequests, err)
		return false
	}
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func (s *Server) releaseLimiter(limiter chan struct{}) {
	if limiter == nil {
		return
	}
	select {
	case <-limiter:
	default:
	}
}
