package models

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ImageSource records how an image entered the gallery.
type ImageSource string

const (
	SourceCamera  ImageSource = "camera"
	SourceLibrary ImageSource = "library"
)

var validImageSources = map[ImageSource]struct{}{
	SourceCamera:  {},
	SourceLibrary: {},
}

// ParseImageSource validates a source marker. An empty value means library.
func ParseImageSource(raw string) (ImageSource, error) {
	value := ImageSource(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return SourceLibrary, nil
	}
	if _, ok := validImageSources[value]; !ok {
		return "", fmt.Errorf("invalid source: %s", value)
	}
	return value, nil
}

// ImageRecord is one stored gallery entry. Records have no key; their identity
// is their position in the catalog.
type ImageRecord struct {
	Data      []byte
	CreatedAt time.Time
}

// Digest returns the hex BLAKE2b-256 digest of the record bytes.
func (r ImageRecord) Digest() string {
	sum := blake2b.Sum256(r.Data)
	return hex.EncodeToString(sum[:])
}

// MediaType sniffs the content type of the record bytes.
func (r ImageRecord) MediaType() string {
	return http.DetectContentType(r.Data)
}

// Equal reports whether two records hold the same bytes and instant.
func (r ImageRecord) Equal(other ImageRecord) bool {
	return r.CreatedAt.Equal(other.CreatedAt) && string(r.Data) == string(other.Data)
}
