package archive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/apkkit/internal/format"
	"github.com/joshuapare/apkkit/pkg/types"
)

func TestFindEndRecord(t *testing.T) {
	b := buildZip(t, defaultFiles, "")
	rec, err := FindEndRecord(NewBytesSource(b), OpenOptions{})
	require.NoError(t, err)

	cdOff, cdLen := directoryRange(t, b)
	require.Equal(t, int64(len(b)-format.EndRecordSize), rec.Offset)
	require.Equal(t, int64(cdOff), rec.OffsetOfCentralDirectory())
	require.Equal(t, int64(cdLen), rec.LengthOfCentralDirectory())
	require.Equal(t, uint64(len(defaultFiles)), rec.TotalEntries)
	require.Equal(t, int64(format.EndRecordSize), rec.TotalBytesCount())
	require.False(t, rec.IsZip64())
}

func TestFindEndRecordWithComment(t *testing.T) {
	b := buildZip(t, defaultFiles, "built by apkkit")
	rec, err := FindEndRecord(NewBytesSource(b), OpenOptions{})
	require.NoError(t, err)
	require.Equal(t, []byte("built by apkkit"), rec.Comment)
	require.Equal(t, int64(format.EndRecordSize+len("built by apkkit")), rec.TotalBytesCount())
}

func TestFindEndRecordSkipsSignatureInsideComment(t *testing.T) {
	// A signature inside the comment whose declared comment would run past
	// the end of the source must be skipped.
	fake := make([]byte, format.EndRecordSize)
	format.PutU32(fake, 0, format.EndRecordSignature)
	format.PutU16(fake, format.EndCommentLengthOffset, 0xFFFF)
	b := buildZip(t, defaultFiles, string(fake))

	rec, err := FindEndRecord(NewBytesSource(b), OpenOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(len(b)-2*format.EndRecordSize), rec.Offset)
	require.Equal(t, fake, rec.Comment)
}

func TestFindEndRecordTrailingBytes(t *testing.T) {
	b := buildZip(t, defaultFiles, "note")
	end := len(b)
	b = append(b, bytes.Repeat([]byte{0}, 10)...)

	rec, err := FindEndRecord(NewBytesSource(b), OpenOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(end-format.EndRecordSize-len("note")), rec.Offset)
	require.Equal(t, []byte("note"), rec.Comment)
}

func TestFindEndRecordMissing(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("PK")},
		{"no signature", bytes.Repeat([]byte{0xAA}, 4096)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FindEndRecord(NewBytesSource(tt.data), OpenOptions{})
			require.ErrorIs(t, err, types.ErrNoEndRecord)
			require.True(t, types.IsKind(err, types.ErrKindFormat))
		})
	}
}

func TestFindEndRecordRespectsWindow(t *testing.T) {
	b := buildZip(t, defaultFiles, string(bytes.Repeat([]byte{'x'}, 100)))

	_, err := FindEndRecord(NewBytesSource(b), OpenOptions{MaxCommentSize: 10})
	require.ErrorIs(t, err, types.ErrNoEndRecord)

	_, err = FindEndRecord(NewBytesSource(b), OpenOptions{MaxCommentSize: 100})
	require.NoError(t, err)
}

func TestFindEndRecordZip64(t *testing.T) {
	plain := buildZip(t, defaultFiles, "")
	cdOff, cdLen := directoryRange(t, plain)
	b := toZip64(t, plain)

	rec, err := FindEndRecord(NewBytesSource(b), OpenOptions{})
	require.NoError(t, err)
	require.True(t, rec.IsZip64())
	require.Equal(t, int64(cdOff+cdLen), rec.Zip64Offset)
	require.Equal(t, int64(cdOff), rec.OffsetOfCentralDirectory())
	require.Equal(t, int64(cdLen), rec.LengthOfCentralDirectory())
	require.Equal(t, uint64(len(defaultFiles)), rec.TotalEntries)
	require.Equal(t, int64(format.Zip64EndSize+format.Zip64LocatorSize+format.EndRecordSize), rec.TotalBytesCount())

	dir, err := ReadCentralFileDirectory(NewBytesSource(b), OpenOptions{})
	require.NoError(t, err)
	require.Equal(t, len(defaultFiles), dir.Count())
}

func TestFindEndRecordZip64BadPointer(t *testing.T) {
	b := toZip64(t, buildZip(t, defaultFiles, ""))
	loc := len(b) - format.EndRecordSize - format.Zip64LocatorSize
	format.PutU64(b, loc+format.Zip64LocatorRecordOffset, uint64(len(b)))

	_, err := FindEndRecord(NewBytesSource(b), OpenOptions{})
	require.ErrorIs(t, err, types.ErrCorrupt)
}
