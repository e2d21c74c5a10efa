//go:build unix

package mapfile

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type descriptor interface {
	Fd() uintptr
}

func mmap(f any, size int64) ([]byte, func([]byte) error, error) {
	d, ok := f.(descriptor)
	if !ok {
		return nil, nil, errNoDescriptor
	}
	data, err := unix.Mmap(int(d.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap: %w", err)
	}
	return data, unix.Munmap, nil
}
