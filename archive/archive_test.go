package archive

import (
	"bytes"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/apkkit/pkg/types"
)

func TestArchiveOpenEntries(t *testing.T) {
	b := signedZip(t)
	a, err := OpenArchive(NewBytesSource(b), OpenOptions{})
	require.NoError(t, err)
	require.Len(t, a.Entries(), len(defaultFiles))
	require.NotNil(t, a.Directory().SignatureFooter())

	for i, f := range defaultFiles {
		e := a.Entries()[i]
		require.Equal(t, f.name, e.FileName)
		require.Equal(t, i, e.Local.Index)
		require.Equal(t, f.name, e.Local.FileName)

		got, err := a.ReadAll(f.name)
		require.NoError(t, err)
		require.Equal(t, f.body, string(got))
	}
}

func TestArchiveEntryNotFound(t *testing.T) {
	a, err := OpenArchive(NewBytesSource(buildZip(t, defaultFiles, "")), OpenOptions{})
	require.NoError(t, err)

	_, err = a.Open("missing.txt")
	require.ErrorIs(t, err, types.ErrNotFound)
	require.True(t, types.IsKind(err, types.ErrKindNotFound))
}

func TestArchiveDigest(t *testing.T) {
	a, err := OpenArchive(NewBytesSource(buildZip(t, defaultFiles, "")), OpenOptions{})
	require.NoError(t, err)

	d, err := a.Digest("classes.dex")
	require.NoError(t, err)
	require.Equal(t, digest.FromString(defaultFiles[1].body), d)
	require.NoError(t, d.Validate())
}

func TestArchiveChecksumMismatch(t *testing.T) {
	b := buildZip(t, []testFile{{name: "a.txt", body: "abcdef"}}, "")
	i := bytes.Index(b, []byte("abcdef"))
	require.Positive(t, i)
	b[i] = 'X'

	a, err := OpenArchive(NewBytesSource(b), OpenOptions{})
	require.NoError(t, err)
	_, err = a.ReadAll("a.txt")
	require.ErrorIs(t, err, ErrChecksum)
}

func TestArchiveLocalHeaderCorrupt(t *testing.T) {
	b := buildZip(t, defaultFiles, "")
	b[0] = 'X'
	_, err := OpenArchive(NewBytesSource(b), OpenOptions{})
	require.ErrorIs(t, err, types.ErrCorrupt)
}

func TestEntryReaderStopsAtDeclaredSize(t *testing.T) {
	r := &entryReader{
		rc:        io.NopCloser(bytes.NewReader([]byte("hello world"))),
		hasher:    crc32.NewIEEE(),
		want:      crc32.ChecksumIEEE([]byte("hello")),
		remaining: 5,
		name:      "x",
	}
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
	require.NoError(t, r.Close())
}

func writeTemp(t *testing.T, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestFileAndMappedSources(t *testing.T) {
	b := signedZip(t)
	path := writeTemp(t, "app.apk", b)

	fs, err := NewFileSource(path)
	require.NoError(t, err)
	require.Equal(t, int64(len(b)), fs.Length())
	require.Equal(t, path, fs.Path())

	ms, err := OpenFile(path)
	require.NoError(t, err)
	defer ms.Close()
	require.Equal(t, b, ms.Bytes())

	for name, src := range map[string]ByteSource{"file": fs, "mapped": ms, "bytes": NewBytesSource(b)} {
		t.Run(name, func(t *testing.T) {
			a, err := OpenArchive(src, OpenOptions{})
			require.NoError(t, err)
			require.Len(t, a.Entries(), len(defaultFiles))
			require.NotNil(t, a.Directory().SignatureFooter())

			got, err := a.ReadAll("res/raw/hello.txt")
			require.NoError(t, err)
			require.Equal(t, "hello, world", string(got))

			_, err = src.OpenRange(int64(len(b))-4, 8)
			require.Error(t, err)
		})
	}
	require.NoError(t, ms.Close())
	require.NoError(t, ms.Close())
}

func TestIsZip(t *testing.T) {
	dir := t.TempDir()
	zipPath := writeTemp(t, "ok.zip", buildZip(t, defaultFiles, ""))
	txtPath := writeTemp(t, "note.txt", []byte("not a zip at all"))

	require.True(t, IsZip(zipPath))
	require.False(t, IsZip(txtPath))
	require.False(t, IsZip(filepath.Join(dir, "missing.zip")))
	require.False(t, IsZip(dir))

	_, err := NewFileSource(dir)
	require.Error(t, err)
}
