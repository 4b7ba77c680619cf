package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/apkkit/internal/format"
)

type testFile struct {
	name    string
	body    string
	deflate bool
	nonUTF8 bool
}

var defaultFiles = []testFile{
	{name: "AndroidManifest.xml", body: "<manifest/>"},
	{name: "classes.dex", body: "dex\n035\x00payload payload payload payload", deflate: true},
	{name: "res/raw/hello.txt", body: "hello, world"},
}

// buildZip writes files with the standard library writer.
func buildZip(t testing.TB, files []testFile, comment string) []byte {
	t.Helper()
	var out bytes.Buffer
	w := zip.NewWriter(&out)
	for _, f := range files {
		method := zip.Store
		if f.deflate {
			method = zip.Deflate
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: f.name, Method: method, NonUTF8: f.nonUTF8})
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	if comment != "" {
		require.NoError(t, w.SetComment(comment))
	}
	require.NoError(t, w.Close())
	return out.Bytes()
}

// endRecordAt returns the offset of the last end record signature, which is
// the real one for archives built without a comment.
func endRecordAt(t testing.TB, b []byte) int {
	t.Helper()
	sig := []byte{0x50, 0x4b, 0x05, 0x06}
	i := bytes.LastIndex(b, sig)
	require.GreaterOrEqual(t, i, 0)
	return i
}

// directoryRange returns the central directory offset and length recorded in
// the end record of b.
func directoryRange(t testing.TB, b []byte) (int, int) {
	t.Helper()
	e := endRecordAt(t, b)
	return int(format.ReadU32(b, e+format.EndCDOffsetOffset)), int(format.ReadU32(b, e+format.EndCDLengthOffset))
}

// signingBlock encodes pairs as an APK signing block.
func signingBlock(pairs ...SigningBlockPair) []byte {
	var body []byte
	for _, p := range pairs {
		hdr := make([]byte, format.SigningBlockPairHeaderSize)
		format.PutU64(hdr, 0, uint64(len(p.Value)+format.SigningBlockPairIDSize))
		format.PutU32(hdr, 8, p.ID)
		body = append(body, hdr...)
		body = append(body, p.Value...)
	}
	size := uint64(len(body) + format.SignatureFooterMinSize)
	out := make([]byte, 8, len(body)+8+format.SignatureFooterMinSize)
	format.PutU64(out, 0, size)
	out = append(out, body...)
	tail := make([]byte, 8)
	format.PutU64(tail, 0, size)
	out = append(out, tail...)
	return append(out, format.SigningBlockMagic...)
}

// insertBeforeDirectory splices block between the entry data and the central
// directory and patches the end record's directory offset.
func insertBeforeDirectory(t testing.TB, b, block []byte) []byte {
	t.Helper()
	cdOff, _ := directoryRange(t, b)
	out := make([]byte, 0, len(b)+len(block))
	out = append(out, b[:cdOff]...)
	out = append(out, block...)
	out = append(out, b[cdOff:]...)
	e := endRecordAt(t, out)
	format.PutU32(out, e+format.EndCDOffsetOffset, uint32(cdOff+len(block)))
	return out
}

// toZip64 rewrites the trailer of b as a ZIP64 end record, locator and a
// saturated end record.
func toZip64(t testing.TB, b []byte) []byte {
	t.Helper()
	e := endRecordAt(t, b)
	entries := format.ReadU16(b, e+format.EndTotalEntriesOffset)
	cdOff, cdLen := directoryRange(t, b)

	out := append([]byte{}, b[:cdOff+cdLen]...)
	z64Off := len(out)

	rec := make([]byte, format.Zip64EndSize)
	format.PutU32(rec, 0, format.Zip64EndSignature)
	format.PutU64(rec, format.Zip64EndRecordSizeOffset, format.Zip64EndSize-format.Zip64EndLeadingBytes)
	format.PutU16(rec, 0x0C, 45)
	format.PutU16(rec, 0x0E, 45)
	format.PutU64(rec, 0x18, uint64(entries))
	format.PutU64(rec, format.Zip64EndEntriesOffset, uint64(entries))
	format.PutU64(rec, format.Zip64EndCDLengthOffset, uint64(cdLen))
	format.PutU64(rec, format.Zip64EndCDOffsetOffset, uint64(cdOff))
	out = append(out, rec...)

	loc := make([]byte, format.Zip64LocatorSize)
	format.PutU32(loc, 0, format.Zip64LocatorSignature)
	format.PutU64(loc, format.Zip64LocatorRecordOffset, uint64(z64Off))
	format.PutU32(loc, 0x10, 1)
	out = append(out, loc...)

	end := make([]byte, format.EndRecordSize)
	format.PutU32(end, 0, format.EndRecordSignature)
	format.PutU16(end, format.EndEntriesOnDiskOffset, format.Zip64Saturated16)
	format.PutU16(end, format.EndTotalEntriesOffset, format.Zip64Saturated16)
	format.PutU32(end, format.EndCDLengthOffset, format.Zip64Saturated32)
	format.PutU32(end, format.EndCDOffsetOffset, format.Zip64Saturated32)
	return append(out, end...)
}
