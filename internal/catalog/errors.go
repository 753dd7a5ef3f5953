package catalog

import (
	"errors"
	"fmt"
)

// Kind classifies a StoreError.
type Kind int

const (
	// KindCorrupt means the catalog file exists but could not be decoded.
	KindCorrupt Kind = iota + 1
	// KindIOFailure means reading or writing the catalog file failed.
	KindIOFailure
	// KindIndexOutOfRange means a position outside [0, len) was requested.
	KindIndexOutOfRange
	// KindInvalidRecord means a record was rejected before it reached disk.
	KindInvalidRecord
)

func (k Kind) String() string {
	switch k {
	case KindCorrupt:
		return "corrupt"
	case KindIOFailure:
		return "io_failure"
	case KindIndexOutOfRange:
		return "index_out_of_range"
	case KindInvalidRecord:
		return "invalid_record"
	default:
		return "unknown"
	}
}

// StoreError is returned by every failing Store operation.
type StoreError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("catalog %s %s: %s", e.Op, e.Path, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf extracts the StoreError kind from err.
func KindOf(err error) (Kind, bool) {
	var storeErr *StoreError
	if errors.As(err, &storeErr) && storeErr != nil {
		return storeErr.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a StoreError of the given kind.
func IsKind(err error, kind Kind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}

// ErrEmptyImageData is wrapped by KindInvalidRecord errors for empty records.
var ErrEmptyImageData = errors.New("image data is empty")
