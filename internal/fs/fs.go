package fs

import (
	"io"
	"os"
)

// File is an open table or pointer file. Reads go through ReaderAt or a
// mapping of Fd; writes are streamed and synced before the rename that
// publishes them.
type File interface {
	io.ReadWriteCloser
	io.ReaderAt
	Sync() error
	Stat() (os.FileInfo, error)
	// Fd returns the descriptor used for memory mapping.
	Fd() uintptr
}

// FileSystem is the subset of the os package used by the local blob store:
// blobs are written to a temporary name and renamed into place, List reads
// the root directory, Delete removes a blob.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	ReadDir(name string) ([]os.DirEntry, error)
}

// LocalFS implements FileSystem with the os package.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (LocalFS) Remove(name string) error             { return os.Remove(name) }
func (LocalFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }
func (LocalFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
func (LocalFS) ReadDir(name string) ([]os.DirEntry, error) { return os.ReadDir(name) }

// Default is the local file system.
var Default FileSystem = LocalFS{}
