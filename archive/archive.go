package archive

import (
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/opencontainers/go-digest"

	"github.com/joshuapare/apkkit/internal/format"
	"github.com/joshuapare/apkkit/pkg/types"
)

// ErrChecksum is returned when inflated entry data does not match the CRC-32
// recorded in the central directory.
var ErrChecksum = errors.New("archive: checksum mismatch")

// Entry pairs a central directory record with its local header.
type Entry struct {
	*CentralEntryHeader
	Local *LocalFileHeader
}

// Archive is an opened ZIP container.
type Archive struct {
	src     ByteSource
	dir     *CentralFileDirectory
	entries []*Entry
}

// OpenArchive reads the central directory of src and the local header of
// every entry it lists.
func OpenArchive(src ByteSource, opts OpenOptions) (*Archive, error) {
	dir, err := ReadCentralFileDirectory(src, opts)
	if err != nil {
		return nil, err
	}
	a := &Archive{src: src, dir: dir, entries: make([]*Entry, 0, dir.Count())}
	for i, ceh := range dir.Headers() {
		lfh, err := ReadLocalFileHeader(src, int64(ceh.LocalHeaderOffset), i)
		if err != nil {
			return nil, fmt.Errorf("archive: entry %q: %w", ceh.FileName, err)
		}
		matched := dir.Get(lfh)
		if matched == nil {
			matched = ceh
		}
		a.entries = append(a.entries, &Entry{CentralEntryHeader: matched, Local: lfh})
	}
	return a, nil
}

// Directory returns the decoded central directory.
func (a *Archive) Directory() *CentralFileDirectory { return a.dir }

// Entries returns every entry in directory order.
func (a *Archive) Entries() []*Entry { return a.entries }

// Entry returns the entry named name.
func (a *Archive) Entry(name string) (*Entry, error) {
	for _, e := range a.entries {
		if e.FileName == name {
			return e, nil
		}
	}
	return nil, types.Errorf(types.ErrKindNotFound, types.ErrNotFound, "archive: entry %q", name)
}

// Open returns a reader over the entry's uncompressed data. The CRC-32 is
// verified when the reader reaches EOF.
func (a *Archive) Open(name string) (io.ReadCloser, error) {
	e, err := a.Entry(name)
	if err != nil {
		return nil, err
	}
	return a.OpenEntry(e)
}

// OpenEntry is Open for an entry obtained from Entries.
func (a *Archive) OpenEntry(e *Entry) (io.ReadCloser, error) {
	if e.IsEncrypted() {
		return nil, types.Errorf(types.ErrKindUnsupported, types.ErrUnsupported, "archive: %s is encrypted", e.FileName)
	}
	section := io.NewSectionReader(a.src, e.Local.DataOffset(), int64(e.CompressedSize))
	var (
		rc  io.ReadCloser
		err error
	)
	switch e.Method {
	case format.MethodStore:
		rc = io.NopCloser(section)
	case format.MethodDeflate:
		rc = flate.NewReader(section)
	default:
		err = types.Errorf(types.ErrKindUnsupported, types.ErrUnsupported, "archive: %s uses compression method %d", e.FileName, e.Method)
	}
	if err != nil {
		return nil, err
	}
	return &entryReader{
		rc:        rc,
		hasher:    crc32.NewIEEE(),
		want:      e.CRC32,
		remaining: e.UncompressedSize,
		name:      e.FileName,
	}, nil
}

// ReadAll returns the entry's uncompressed data.
func (a *Archive) ReadAll(name string) ([]byte, error) {
	rc, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Digest returns the canonical digest of the entry's uncompressed data.
func (a *Archive) Digest(name string) (digest.Digest, error) {
	rc, err := a.Open(name)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	d, err := digest.Canonical.FromReader(rc)
	if err != nil {
		return "", fmt.Errorf("archive: digest %s: %w", name, err)
	}
	return d, nil
}

// entryReader counts and checksums data as it is read.
type entryReader struct {
	rc        io.ReadCloser
	hasher    hash.Hash32
	want      uint32
	remaining uint64
	name      string
	err       error
}

func (r *entryReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.remaining == 0 {
		r.err = r.verify()
		return 0, r.err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if uint64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.rc.Read(p)
	_, _ = r.hasher.Write(p[:n]) //nolint:errcheck // hash writes never fail
	r.remaining -= uint64(n)
	if err == io.EOF {
		if r.remaining != 0 {
			r.err = fmt.Errorf("archive: %s: %w", r.name, io.ErrUnexpectedEOF)
			return n, r.err
		}
		r.err = r.verify()
		return n, r.err
	}
	if err != nil {
		r.err = err
	}
	return n, err
}

func (r *entryReader) verify() error {
	if got := r.hasher.Sum32(); got != r.want {
		return fmt.Errorf("%w: %s crc32 %08x, want %08x", ErrChecksum, r.name, got, r.want)
	}
	return io.EOF
}

func (r *entryReader) Close() error { return r.rc.Close() }

// IsZip reports whether path holds a readable ZIP container. Errors of any
// kind report false.
func IsZip(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	src, err := NewFileSource(path)
	if err != nil {
		return false
	}
	_, err = FindEndRecord(src, OpenOptions{})
	return err == nil
}
