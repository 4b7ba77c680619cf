//go:build !unix

// Package mmfile maps files read-only into memory for zero-copy decoding of
// large archives.
package mmfile

import "os"

func noop() error { return nil }

// Map reads the entire file when mmap is not available.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, noop, nil
}

// Sync falls back to a full fsync.
func Sync(f *os.File) error {
	return f.Sync()
}
