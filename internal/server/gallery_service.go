package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gallery/internal/api"
	"gallery/internal/catalog"
	"gallery/internal/imaging"
	"gallery/internal/models"
)

// GalleryService is the single writer in front of a catalog store. It owns
// image preparation and the digest guard on deletes.
type GalleryService struct {
	store     *catalog.Store
	imageOpts imaging.Options
	logger    *slog.Logger
	now       func() time.Time

	// mu serializes check-then-mutate sequences such as guarded deletes.
	mu     sync.Mutex
	loaded bool
}

// CaptureInput describes one image entering the gallery.
type CaptureInput struct {
	Source    models.ImageSource
	CreatedAt *time.Time
	// Raw keeps the uploaded bytes as they are.
	Raw bool
}

// NewGalleryService wraps store. The store is loaded lazily on first use.
func NewGalleryService(store *catalog.Store, logger *slog.Logger) *GalleryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GalleryService{
		store:     store,
		imageOpts: imaging.DefaultOptions(),
		logger:    logger,
		now:       time.Now,
	}
}

// ConfigureImages replaces the resize and encode options used for uploads.
func (s *GalleryService) ConfigureImages(opts imaging.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if opts.Target.Width > 0 && opts.Target.Height > 0 {
		s.imageOpts.Target = opts.Target
	}
	if opts.Quality > 0 {
		s.imageOpts.Quality = opts.Quality
	}
}

// CatalogPath returns the backing file path.
func (s *GalleryService) CatalogPath() string {
	return s.store.Path()
}

// Records loads the catalog if needed and returns it newest first.
func (s *GalleryService) Records(ctx context.Context) ([]models.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	return s.store.Records(), nil
}

// Reload rereads the catalog file, dropping the in-memory mirror.
func (s *GalleryService) Reload(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	if err := s.ensureLoadedLocked(); err != nil {
		return 0, err
	}
	return s.store.Len(), nil
}

func (s *GalleryService) ensureLoadedLocked() error {
	if s.loaded {
		return nil
	}
	if _, err := s.store.Load(); err != nil {
		return fromCatalogError(err)
	}
	s.loaded = true
	return nil
}

// List returns one summary per record in catalog order.
func (s *GalleryService) List(ctx context.Context) ([]api.ImageResponse, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]api.ImageResponse, 0, len(records))
	for i, rec := range records {
		out = append(out, imageResponse(i, rec))
	}
	return out, nil
}

// Info summarizes the catalog.
func (s *GalleryService) Info(ctx context.Context) (api.InfoResponse, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return api.InfoResponse{}, err
	}
	resp := api.InfoResponse{
		CatalogPath: s.store.Path(),
		TotalImages: len(records),
	}
	for _, rec := range records {
		resp.TotalBytes += int64(len(rec.Data))
	}
	if len(records) > 0 {
		newest := records[0].CreatedAt
		resp.NewestAt = &newest
	}
	return resp, nil
}

// Get returns the record at position.
func (s *GalleryService) Get(ctx context.Context, position int) (models.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.ImageRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return models.ImageRecord{}, err
	}
	rec, err := s.store.At(position)
	if err != nil {
		return models.ImageRecord{}, fromCatalogError(err)
	}
	return rec, nil
}

// Capture prepares content and prepends it to the catalog.
func (s *GalleryService) Capture(ctx context.Context, in CaptureInput, content io.Reader) (api.ImageResponse, error) {
	if content == nil {
		return api.ImageResponse{}, badRequestCode(fmt.Errorf("content is required"), ErrCodeMissingRequired)
	}

	s.mu.Lock()
	opts := s.imageOpts
	s.mu.Unlock()

	data, err := io.ReadAll(content)
	if err != nil {
		return api.ImageResponse{}, classifyMultipartError(err)
	}
	if !in.Raw && len(data) > 0 {
		data, err = imaging.PrepareBytes(data, opts)
		if err != nil {
			return api.ImageResponse{}, badRequestCode(err, ErrCodeInvalidImage)
		}
	}
	if len(data) == 0 {
		return api.ImageResponse{}, badRequestCode(catalog.ErrEmptyImageData, ErrCodeEmptyImage)
	}
	if err := ctx.Err(); err != nil {
		return api.ImageResponse{}, err
	}

	createdAt := s.now().UTC()
	if in.CreatedAt != nil {
		createdAt = in.CreatedAt.UTC()
	}
	rec := models.ImageRecord{Data: data, CreatedAt: createdAt}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return api.ImageResponse{}, err
	}
	if err := s.store.Create(rec); err != nil {
		return api.ImageResponse{}, fromCatalogError(err)
	}

	source := in.Source
	if source == "" {
		source = models.SourceLibrary
	}
	s.logger.Info("image captured",
		"source", source,
		"raw", in.Raw,
		"size_bytes", len(data),
		"digest", rec.Digest(),
	)
	return imageResponse(0, rec), nil
}

// Remove deletes the record at position. When expectedDigest is set the
// record must still carry that digest, otherwise the delete is refused.
func (s *GalleryService) Remove(ctx context.Context, position int, expectedDigest string) (api.DeleteResponse, error) {
	if err := ctx.Err(); err != nil {
		return api.DeleteResponse{}, err
	}
	expectedDigest = strings.ToLower(strings.TrimSpace(expectedDigest))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return api.DeleteResponse{}, err
	}
	rec, err := s.store.At(position)
	if err != nil {
		return api.DeleteResponse{}, fromCatalogError(err)
	}
	digest := rec.Digest()
	if expectedDigest != "" && expectedDigest != digest {
		return api.DeleteResponse{}, conflictCode(
			fmt.Errorf("image at position %d changed (digest %s, expected %s)", position, shortDigest(digest), shortDigest(expectedDigest)),
			ErrCodeDigestMismatch,
		)
	}
	if err := s.store.Delete(position); err != nil {
		return api.DeleteResponse{}, fromCatalogError(err)
	}

	s.logger.Info("image deleted", "position", position, "digest", digest)
	return api.DeleteResponse{Position: position, Digest: digest}, nil
}

func imageResponse(position int, rec models.ImageRecord) api.ImageResponse {
	return api.ImageResponse{
		Position:  position,
		CreatedAt: rec.CreatedAt,
		SizeBytes: len(rec.Data),
		MediaType: rec.MediaType(),
		Digest:    rec.Digest(),
	}
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
