//go:build !windows

package blobstore

import (
	"github.com/hupe1980/tabiter/internal/fs"
	"golang.org/x/sys/unix"
)

func mapFile(f fs.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}
