//go:build !unix

package mapfile

// Without mmap support the caller falls back to reading the file.
func mmap(_ any, _ int64) ([]byte, func([]byte) error, error) {
	return nil, nil, errNoDescriptor
}
