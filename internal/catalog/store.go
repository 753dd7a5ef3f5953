// Package catalog persists the ordered image catalog to one local file.
//
// Every mutation rewrites the whole file. The newest record lives at position
// 0. A Store assumes it is the only writer of its file for the lifetime of the
// process; it never re-reads the file before writing.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"gallery/internal/codec"
	"gallery/internal/models"
)

const defaultFileMode os.FileMode = 0o600

// Store owns the catalog file and the in-memory mirror of its records.
type Store struct {
	path     string
	fileMode os.FileMode
	logger   *slog.Logger

	mu      sync.Mutex
	records []models.ImageRecord
	loaded  bool

	writeFile func(path string, data []byte, perm os.FileMode) error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFileMode sets the permission bits of the catalog file.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Store) {
		if mode != 0 {
			s.fileMode = mode
		}
	}
}

// New creates a store for path without touching the disk.
func New(path string, opts ...Option) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("catalog path is required")
	}
	s := &Store{
		path:      path,
		fileMode:  defaultFileMode,
		logger:    slog.Default(),
		writeFile: writeFileAtomic,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open creates a store for path and loads it.
func Open(path string, opts ...Option) (*Store, error) {
	s, err := New(path, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the catalog file and replaces the in-memory mirror with its
// records. A missing file is an empty catalog. On failure the mirror is left
// untouched.
func (s *Store) Load() ([]models.ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	return slices.Clone(s.records), nil
}

func (s *Store) loadLocked() error {
	data, exists, err := readFileIfExists(s.path)
	if err != nil {
		return &StoreError{Kind: KindIOFailure, Op: "load", Path: s.path, Err: err}
	}
	if !exists {
		s.logger.Debug("catalog file missing; starting empty", "path", s.path)
		s.records = []models.ImageRecord{}
		s.loaded = true
		return nil
	}

	records, err := codec.DecodeAll(data)
	if err != nil {
		return &StoreError{Kind: KindCorrupt, Op: "load", Path: s.path, Err: err}
	}
	s.records = records
	s.loaded = true
	s.logger.Debug("catalog loaded", "path", s.path, "records", len(records), "bytes", len(data))
	return nil
}

// Create inserts record at position 0 and persists the catalog. If the write
// fails the insert is rolled back.
func (s *Store) Create(record models.ImageRecord) error {
	if len(record.Data) == 0 {
		return &StoreError{Kind: KindInvalidRecord, Op: "create", Path: s.path, Err: ErrEmptyImageData}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}

	previous := s.records
	next := make([]models.ImageRecord, 0, len(previous)+1)
	next = append(next, record)
	next = append(next, previous...)

	if err := s.persistLocked("create", next); err != nil {
		return err
	}
	s.records = next
	return nil
}

// Delete removes the record at position, shifting later records down by one,
// and persists the catalog. If the write fails the removal is rolled back.
func (s *Store) Delete(position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}
	if position < 0 || position >= len(s.records) {
		return &StoreError{
			Kind: KindIndexOutOfRange,
			Op:   "delete",
			Path: s.path,
			Err:  fmt.Errorf("position %d not in [0, %d)", position, len(s.records)),
		}
	}

	next := slices.Delete(slices.Clone(s.records), position, position+1)
	if err := s.persistLocked("delete", next); err != nil {
		return err
	}
	s.records = next
	return nil
}

// Records returns a copy of the in-memory sequence.
func (s *Store) Records() []models.ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Len returns the number of records in memory.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// At returns the record at position.
func (s *Store) At(position int) (models.ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if position < 0 || position >= len(s.records) {
		return models.ImageRecord{}, &StoreError{
			Kind: KindIndexOutOfRange,
			Op:   "get",
			Path: s.path,
			Err:  fmt.Errorf("position %d not in [0, %d)", position, len(s.records)),
		}
	}
	return s.records[position], nil
}

func (s *Store) ensureLoadedLocked() error {
	if s.loaded {
		return nil
	}
	return s.loadLocked()
}

func (s *Store) persistLocked(op string, records []models.ImageRecord) error {
	data, err := codec.EncodeAll(records)
	if err != nil {
		return &StoreError{Kind: KindIOFailure, Op: op, Path: s.path, Err: err}
	}
	if err := s.writeFile(s.path, data, s.fileMode); err != nil {
		s.logger.Error("catalog write failed", "op", op, "path", s.path, "error", err)
		return &StoreError{Kind: KindIOFailure, Op: op, Path: s.path, Err: err}
	}
	s.logger.Debug("catalog written", "op", op, "path", s.path, "records", len(records), "bytes", len(data))
	return nil
}
