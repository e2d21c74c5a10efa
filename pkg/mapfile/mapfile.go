// Package mapfile maps log files into memory read-only.
package mapfile

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/spf13/afero"
)

// ErrTooLarge is returned for files bigger than the address space can map.
// Callers must treat it as fatal: scanning a partial mapping would silently
// produce wrong counts.
var ErrTooLarge = errors.New("file is too large to be safely mapped into memory")

// ErrNotRegular is returned for directories, devices, sockets and the like.
var ErrNotRegular = errors.New("not a file")

var errNoDescriptor = errors.New("file has no descriptor to map")

// maxSize is the largest mapping the platform can address.
var maxSize int64 = math.MaxInt

// File is a read-only view of a file's contents.
type File struct {
	path  string
	data  []byte
	unmap func([]byte) error
}

// Open maps the file at path. Files reached through an OS filesystem are
// memory mapped; anything else (for example an in-memory afero filesystem)
// is read into memory. Empty files yield an empty view without a mapping.
// The returned File must be closed.
func Open(fsys afero.Fs, path string) (*File, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("reading metadata of %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrTooLarge)
	}

	mf := &File{path: path}
	if info.Size() == 0 {
		return mf, nil
	}

	data, unmap, err := mmap(f, info.Size())
	switch {
	case err == nil:
		mf.data, mf.unmap = data, unmap
	case errors.Is(err, errNoDescriptor):
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		mf.data = data
	default:
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	return mf, nil
}

// Bytes returns the file contents. The slice is only valid until Close.
func (f *File) Bytes() []byte {
	return f.data
}

// Len returns the size of the view in bytes.
func (f *File) Len() int {
	return len(f.data)
}

// Path returns the path the file was opened from.
func (f *File) Path() string {
	return f.path
}

// Close releases the mapping. It is safe to call more than once.
func (f *File) Close() error {
	data, unmap := f.data, f.unmap
	f.data, f.unmap = nil, nil
	if unmap == nil {
		return nil
	}
	if err := unmap(data); err != nil {
		return fmt.Errorf("unmapping %s: %w", f.path, err)
	}
	return nil
}
