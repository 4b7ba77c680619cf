package main

import (
	"archive/zip"
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"hash/adler32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/apkkit/internal/format"
)

var testStrings = []string{"Foo.java", "Lcom/example/Foo;", "hello"}

// buildDex lays out a DEX holding only a string pool: the header, the
// string ids, the string data and a map list.
func buildDex(t *testing.T, strs []string) []byte {
	t.Helper()
	idsOff := format.DexHeaderSize
	dataOff := idsOff + len(strs)*format.StringIdItemSize

	var data []byte
	offsets := make([]int, len(strs))
	for i, s := range strs {
		offsets[i] = dataOff + len(data)
		data = format.AppendULEB128(data, uint32(format.UTF16Len(s)))
		data = format.AppendMUTF8(data, s)
	}
	mapOff := format.Align4(dataOff + len(data))
	const entries = 4
	size := mapOff + format.MapListHeaderSize + entries*format.MapItemSize

	b := make([]byte, size)
	copy(b, "dex\n035\x00")
	format.PutU32(b, format.DexFileSizeOffset, uint32(size))
	format.PutU32(b, format.DexHeaderSizeOffset, format.DexHeaderSize)
	format.PutU32(b, format.DexEndianTagOffset, format.DexEndianConstant)
	format.PutU32(b, format.DexMapOffOffset, uint32(mapOff))
	format.PutU32(b, format.DexStringIdsSizeOffset, uint32(len(strs)))
	format.PutU32(b, format.DexStringIdsOffOffset, uint32(idsOff))
	format.PutU32(b, format.DexDataSizeOffset, uint32(size-dataOff))
	format.PutU32(b, format.DexDataOffOffset, uint32(dataOff))

	for i, off := range offsets {
		format.PutU32(b, idsOff+i*format.StringIdItemSize, uint32(off))
	}
	copy(b[dataOff:], data)

	m := b[mapOff:]
	format.PutU32(m, 0, entries)
	for i, e := range [][3]int{
		{format.TypeHeaderItem, 1, 0},
		{format.TypeStringIdItem, len(strs), idsOff},
		{format.TypeStringDataItem, len(strs), dataOff},
		{format.TypeMapList, 1, mapOff},
	} {
		at := format.MapListHeaderSize + i*format.MapItemSize
		format.PutU16(m, at+format.MapItemTypeOffset, uint16(e[0]))
		format.PutU32(m, at+format.MapItemSizeOffset, uint32(e[1]))
		format.PutU32(m, at+format.MapItemOffsetOffset, uint32(e[2]))
	}

	sig := sha1.Sum(b[format.DexSignatureRegionStart:])
	copy(b[format.DexSignatureOffset:], sig[:])
	format.PutU32(b, format.DexChecksumOffset, adler32.Checksum(b[format.DexChecksumRegionStart:]))
	return b
}

type zipFile struct {
	name   string
	body   []byte
	method uint16
}

// writeZip writes a ZIP holding files and returns its path.
func writeZip(t *testing.T, dir, name string, files []zipFile) string {
	t.Helper()
	var out bytes.Buffer
	w := zip.NewWriter(&out)
	for _, f := range files {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: f.name, Method: f.method})
		require.NoError(t, err)
		_, err = fw.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return writeFile(t, dir, name, out.Bytes())
}

func writeFile(t *testing.T, dir, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

// testApk writes an APK-shaped ZIP holding a string-only classes.dex.
func testApk(t *testing.T, dir string) string {
	t.Helper()
	return writeZip(t, dir, "app.apk", []zipFile{
		{name: "AndroidManifest.xml", body: []byte("<manifest/>"), method: zip.Store},
		{name: "classes.dex", body: buildDex(t, testStrings), method: zip.Deflate},
		{name: "res/raw/data.txt", body: bytes.Repeat([]byte("apk "), 64), method: zip.Deflate},
	})
}

// resetFlags restores every global flag to its default.
func resetFlags() {
	verbose, quiet, jsonOut, logJSON = false, false, false, false
	zipSkipSigning = false
	lsDigest = false
	dexVerify, dexJavaNames, dexStringUsage, dexSync = false, false, false, false
	dexSetStrings = nil
	scanJobs = 2
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return string(<-done), fnErr
}

// decodeJSON checks that output is valid JSON and decodes it into v.
func decodeJSON(t *testing.T, output string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(output), v), "output: %s", output)
}
