package colstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/tabiter/internal/resource"
)

var (
	// ErrNoBlobStore is returned by Open and Flush without a storage location.
	ErrNoBlobStore = errors.New("colstore: no blob store")
	// ErrReadOnly is returned when mutating a read-only store.
	ErrReadOnly = errors.New("colstore: store is read-only")
	// ErrTableNotFound is returned when opening a missing table read-only.
	ErrTableNotFound = errors.New("colstore: table not found")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("colstore: store is closed")

	// ErrColumnExists is returned when creating a column twice.
	ErrColumnExists = errors.New("colstore: column already exists")
	// ErrColumnNotFound is returned for unknown column names.
	ErrColumnNotFound = errors.New("colstore: column not found")
	// ErrInvalidKind is returned for descriptors without a storable kind.
	ErrInvalidKind = errors.New("colstore: invalid column kind")
	// ErrTypeMismatch is returned when an address type differs from the column type.
	ErrTypeMismatch = errors.New("colstore: type mismatch")
	// ErrNoAddress is returned when reading a column without a registered address.
	ErrNoAddress = errors.New("colstore: no address registered")
	// ErrColumnInactive is returned when reading a disabled column.
	ErrColumnInactive = errors.New("colstore: column inactive")

	// ErrRowOutOfRange is returned for reads outside the stored rows.
	ErrRowOutOfRange = errors.New("colstore: row out of range")
	// ErrRowMismatch is returned when column lengths disagree with the row count.
	ErrRowMismatch = errors.New("colstore: column length does not match row count")
	// ErrMemoryLimitExceeded is returned when an append exceeds the memory budget.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded

	// ErrInvalidMagic is returned for blobs that are not tables.
	ErrInvalidMagic = errors.New("colstore: invalid magic number")
	// ErrUnsupportedVersion is returned for tables written by a newer format.
	ErrUnsupportedVersion = errors.New("colstore: unsupported format version")
	// ErrCorrupt is returned when a checksum or length check fails.
	ErrCorrupt = errors.New("colstore: table data corrupted")
	// ErrUnknownCodec is returned when the header names an unknown codec.
	ErrUnknownCodec = errors.New("colstore: unknown codec")
)

// ColumnError wraps an error with the operation and column it occurred on.
type ColumnError struct {
	Op     string
	Column string
	Err    error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("colstore: %s %q: %v", e.Op, e.Column, e.Err)
}

func (e *ColumnError) Unwrap() error { return e.Err }

func columnErr(op, column string, err error) error {
	return &ColumnError{Op: op, Column: column, Err: err}
}
