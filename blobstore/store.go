package blobstore

import (
	"context"
	"io"
	"os"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error that satisfies errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// PointerSuffix marks the blob that names a table's current version.
const PointerSuffix = ".CURRENT"

// IsPointer reports whether name is a version pointer blob.
func IsPointer(name string) bool {
	return strings.HasSuffix(name, PointerSuffix)
}

// BlobStore is a flat namespace of immutable blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create starts a streaming write; the blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a small blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the names with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle.
type Blob interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange streams length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
	Sync() error
}

// Aborter is implemented by writable blobs that can discard an unfinished write.
type Aborter interface {
	Abort() error
}

// Abort discards an unfinished write of name. Blobs that cannot abort are
// closed and then deleted.
func Abort(ctx context.Context, s BlobStore, name string, w WritableBlob) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	_ = w.Close()
	return s.Delete(ctx, name)
}

// Mappable is implemented by blobs whose contents are already in memory.
type Mappable interface {
	// Bytes returns the contents. The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// ReadAll returns the full contents of the named blob.
func ReadAll(ctx context.Context, s BlobStore, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), data...), nil
	}

	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
