package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/apkkit/internal/buf"
	"github.com/joshuapare/apkkit/internal/mmfile"
)

// ByteSource is a read-only random-access view over an archive.
//
// OpenRange returns a stream over exactly [off, off+n); callers close it as
// soon as the decode consuming it is done. Implementations may reopen their
// backing store for every range.
type ByteSource interface {
	io.ReaderAt
	Length() int64
	OpenRange(off, n int64) (io.ReadCloser, error)
}

// BytesSource serves an in-memory buffer.
type BytesSource struct {
	data []byte
}

// NewBytesSource wraps b without copying it.
func NewBytesSource(b []byte) *BytesSource {
	return &BytesSource{data: b}
}

// Length returns the buffer size.
func (s *BytesSource) Length() int64 { return int64(len(s.data)) }

// ReadAt implements io.ReaderAt.
func (s *BytesSource) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(s.data).ReadAt(p, off)
}

// OpenRange implements ByteSource.
func (s *BytesSource) OpenRange(off, n int64) (io.ReadCloser, error) {
	if err := buf.CheckRange(s.Length(), off, n); err != nil {
		return nil, fmt.Errorf("archive: open range: %w", err)
	}
	return io.NopCloser(bytes.NewReader(s.data[off : off+n])), nil
}

// Bytes returns the backing buffer.
func (s *BytesSource) Bytes() []byte { return s.data }

// FileSource reopens a file for every range it serves, so no descriptor is
// held between reads.
type FileSource struct {
	path string
	size int64
}

// NewFileSource stats path and returns a source over it.
func NewFileSource(path string) (*FileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("archive: %s is not a regular file", path)
	}
	return &FileSource{path: path, size: info.Size()}, nil
}

// Path returns the file path.
func (s *FileSource) Path() string { return s.path }

// Length returns the file size observed when the source was created.
func (s *FileSource) Length() int64 { return s.size }

// ReadAt implements io.ReaderAt.
func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.ReadAt(p, off)
}

// OpenRange implements ByteSource.
func (s *FileSource) OpenRange(off, n int64) (io.ReadCloser, error) {
	if err := buf.CheckRange(s.size, off, n); err != nil {
		return nil, fmt.Errorf("archive: open range: %w", err)
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	return &sectionFile{SectionReader: io.NewSectionReader(f, off, n), f: f}, nil
}

type sectionFile struct {
	*io.SectionReader
	f *os.File
}

func (s *sectionFile) Close() error { return s.f.Close() }

// MappedSource serves a read-only memory mapping of a file.
type MappedSource struct {
	BytesSource
	release func() error
}

// OpenFile maps path read-only. Close releases the mapping; slices obtained
// from the source must not be used afterwards.
func OpenFile(path string) (*MappedSource, error) {
	data, release, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("archive: map %s: %w", path, err)
	}
	return &MappedSource{BytesSource: BytesSource{data: data}, release: release}, nil
}

// Close releases the mapping.
func (s *MappedSource) Close() error {
	if s.release == nil {
		return nil
	}
	err := s.release()
	s.release = nil
	s.data = nil
	return err
}

// readFull reads exactly n bytes at off through a scoped range stream.
func readFull(src ByteSource, off int64, n int) ([]byte, error) {
	rc, err := src.OpenRange(off, int64(n))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	out := make([]byte, n)
	if _, err := io.ReadFull(rc, out); err != nil {
		return nil, fmt.Errorf("archive: read %d bytes at %d: %w", n, off, err)
	}
	return out, nil
}
