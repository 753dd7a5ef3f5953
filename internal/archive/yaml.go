package archive

import (
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

const manifestKind = "gallery.export"

type manifest struct {
	Kind       string          `yaml:"kind"`
	ExportedAt time.Time       `yaml:"exported_at"`
	Images     []manifestImage `yaml:"images"`
}

type manifestImage struct {
	Position  int       `yaml:"position"`
	CreatedAt time.Time `yaml:"created_at"`
	Digest    string    `yaml:"digest"`
	MediaType string    `yaml:"media_type,omitempty"`
	Data      string    `yaml:"data"`
}

// WriteYAML writes entries as a YAML manifest with base64 image data.
func WriteYAML(w io.Writer, entries []Entry, exportedAt time.Time) error {
	doc := manifest{
		Kind:       manifestKind,
		ExportedAt: exportedAt.UTC(),
		Images:     make([]manifestImage, 0, len(entries)),
	}
	for _, e := range entries {
		doc.Images = append(doc.Images, manifestImage{
			Position:  e.Position,
			CreatedAt: e.CreatedAt.UTC(),
			Digest:    e.Digest,
			MediaType: e.MediaType,
			Data:      base64.StdEncoding.EncodeToString(e.Data),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write yaml manifest: %w", err)
	}
	return enc.Close()
}

// ReadYAML parses a manifest written by WriteYAML and verifies every digest.
func ReadYAML(r io.Reader) ([]Entry, error) {
	var doc manifest
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("read yaml manifest: %w", err)
	}
	if doc.Kind != manifestKind {
		return nil, fmt.Errorf("read yaml manifest: unexpected kind %q", doc.Kind)
	}

	entries := make([]Entry, 0, len(doc.Images))
	for i, img := range doc.Images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return nil, fmt.Errorf("entry %d: invalid base64 data: %w", i, err)
		}
		e := Entry{
			Position:  img.Position,
			CreatedAt: img.CreatedAt.UTC(),
			Digest:    img.Digest,
			MediaType: img.MediaType,
			Data:      data,
		}
		if err := verifyEntry(i, e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
