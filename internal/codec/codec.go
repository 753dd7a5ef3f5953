// Package codec serializes the ordered image catalog to a single BSON document.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"gallery/internal/models"
)

// CatalogKind is the format marker stored in every encoded catalog.
const CatalogKind = "gallery.catalog"

const minDocumentSize = 5

// ErrDecode matches every DecodeError via errors.Is.
var ErrDecode = errors.New("invalid catalog encoding")

// DecodeError reports bytes that are not a valid catalog encoding.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("decode catalog: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode catalog: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

type catalogDocument struct {
	Kind    string           `bson:"kind"`
	Records []recordDocument `bson:"records"`
}

type recordDocument struct {
	Data      []byte `bson:"data"`
	CreatedS  int64  `bson:"created_s"`
	CreatedNS int32  `bson:"created_ns"`
}

// EncodeAll encodes records in the given order.
func EncodeAll(records []models.ImageRecord) ([]byte, error) {
	doc := catalogDocument{
		Kind:    CatalogKind,
		Records: make([]recordDocument, 0, len(records)),
	}
	for _, record := range records {
		doc.Records = append(doc.Records, recordDocument{
			Data:      record.Data,
			CreatedS:  record.CreatedAt.Unix(),
			CreatedNS: int32(record.CreatedAt.Nanosecond()),
		})
	}

	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return data, nil
}

// DecodeAll decodes a catalog produced by EncodeAll. It returns either the full
// sequence or a *DecodeError and no records.
func DecodeAll(data []byte) ([]models.ImageRecord, error) {
	if len(data) < minDocumentSize {
		return nil, &DecodeError{Reason: "truncated document"}
	}
	declared := int64(int32(binary.LittleEndian.Uint32(data[:4])))
	if declared != int64(len(data)) {
		return nil, &DecodeError{Reason: fmt.Sprintf("document length %d does not match %d bytes", declared, len(data))}
	}
	if err := bson.Raw(data).Validate(); err != nil {
		return nil, &DecodeError{Reason: "malformed document", Err: err}
	}

	var doc catalogDocument
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Reason: "unexpected structure", Err: err}
	}
	if doc.Kind != CatalogKind {
		return nil, &DecodeError{Reason: fmt.Sprintf("unexpected format marker %q", doc.Kind)}
	}

	records := make([]models.ImageRecord, 0, len(doc.Records))
	for i, rec := range doc.Records {
		if rec.CreatedNS < 0 || rec.CreatedNS >= int32(time.Second) {
			return nil, &DecodeError{Reason: fmt.Sprintf("record %d: nanoseconds out of range", i)}
		}
		records = append(records, models.ImageRecord{
			Data:      rec.Data,
			CreatedAt: time.Unix(rec.CreatedS, int64(rec.CreatedNS)).UTC(),
		})
	}
	return records, nil
}
