package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hupe1980/tabiter/internal/fs"
)

const tmpSuffix = ".tmp"

// LocalStore keeps blobs as files in one directory.
//
// Writes go to a temporary file that is renamed into place on Close, so a
// crashed flush never leaves a truncated blob under its final name.
type LocalStore struct {
	root string
	fs   fs.FileSystem
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithFileSystem replaces the file system (used for fault injection in tests).
func WithFileSystem(fsys fs.FileSystem) LocalOption {
	return func(s *LocalStore) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// NewLocalStore creates a LocalStore rooted at dir. The directory is created on first write.
func NewLocalStore(dir string, opts ...LocalOption) *LocalStore {
	s := &LocalStore{root: dir, fs: fs.Default}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(name string) string { return filepath.Join(s.root, name) }

// Open maps the blob read-only.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	f, err := s.fs.OpenFile(s.path(name), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if info.Size() == 0 {
		return &localBlob{}, nil
	}

	data, unmap, err := mapFile(f, int(info.Size()))
	if err != nil {
		return nil, err
	}
	return &localBlob{data: data, unmap: unmap}, nil
}

// Create writes to a temporary file renamed into place on Close.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return nil, err
	}
	tmp := s.path(name) + tmpSuffix
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{store: s, f: f, tmp: tmp, final: s.path(name)}, nil
}

// Put writes data through Create so the replacement is atomic.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.(*localWritableBlob).Abort()
		return err
	}
	if err := w.Sync(); err != nil {
		_ = w.(*localWritableBlob).Abort()
		return err
	}
	return w.Close()
}

// Delete removes the file; a missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	if err := s.fs.Remove(s.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns the sorted file names with the given prefix, ignoring in-flight writes.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := s.fs.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, tmpSuffix) || !strings.HasPrefix(name, prefix) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

type localBlob struct {
	data  []byte
	unmap func([]byte) error
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return readAt(b.data, p, off)
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(sliceRange(b.data, off, length))), nil
}

func (b *localBlob) Close() error {
	if b.unmap == nil || b.data == nil {
		return nil
	}
	data := b.data
	b.data = nil
	return b.unmap(data)
}

func (b *localBlob) Size() int64 { return int64(len(b.data)) }

func (b *localBlob) Bytes() ([]byte, error) { return b.data, nil }

type localWritableBlob struct {
	store  *LocalStore
	f      fs.File
	tmp    string
	final  string
	closed bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errBlobClosed
	}
	return w.f.Write(p)
}

func (w *localWritableBlob) Sync() error { return w.f.Sync() }

func (w *localWritableBlob) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.f.Close(); err != nil {
		_ = w.store.fs.Remove(w.tmp)
		return err
	}
	if err := w.store.fs.Rename(w.tmp, w.final); err != nil {
		_ = w.store.fs.Remove(w.tmp)
		return err
	}
	return nil
}

// Abort removes the temporary file; the blob is not created.
func (w *localWritableBlob) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.f.Close()
	return w.store.fs.Remove(w.tmp)
}
