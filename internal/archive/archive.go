// Package archive exports gallery images to portable files and reads them back.
package archive

import (
	"fmt"
	"strings"
	"time"

	"gallery/internal/models"
)

// Format names an export format.
type Format string

const (
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// ParseFormat validates an export format name.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatSQLite, "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("invalid export format: %s (expected yaml or sqlite)", raw)
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return FormatSQLite
	default:
		return FormatYAML
	}
}

// Entry is one exported image, in catalog order.
type Entry struct {
	Position  int
	CreatedAt time.Time
	Digest    string
	MediaType string
	Data      []byte
}

// FromRecords converts catalog records to entries, keeping their order.
func FromRecords(records []models.ImageRecord) []Entry {
	entries := make([]Entry, 0, len(records))
	for i, record := range records {
		entries = append(entries, Entry{
			Position:  i,
			CreatedAt: record.CreatedAt.UTC(),
			Digest:    record.Digest(),
			MediaType: record.MediaType(),
			Data:      record.Data,
		})
	}
	return entries
}

// Record returns the catalog record held by the entry.
func (e Entry) Record() models.ImageRecord {
	return models.ImageRecord{Data: e.Data, CreatedAt: e.CreatedAt}
}

func verifyEntry(i int, e Entry) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("entry %d: image data is empty", i)
	}
	if e.Digest != "" {
		if got := e.Record().Digest(); got != e.Digest {
			return fmt.Errorf("entry %d: digest mismatch: expected %s, got %s", i, e.Digest, got)
		}
	}
	return nil
}
