//go:build windows

package blobstore

import (
	"io"

	"github.com/hupe1980/tabiter/internal/fs"
)

func mapFile(f fs.File, size int) ([]byte, func([]byte) error, error) {
	data := make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, nil, err
	}
	return data, func([]byte) error { return nil }, nil
}
