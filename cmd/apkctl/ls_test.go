package main

import (
	"bytes"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/apkkit/internal/format"
)

func TestLsCommand(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	apk := testApk(t, dir)

	out, err := captureOutput(t, func() error { return runLs([]string{apk}) })
	require.NoError(t, err)
	assert.Contains(t, out, "AndroidManifest.xml")
	assert.Contains(t, out, "classes.dex")
	assert.Contains(t, out, "deflate")
	assert.Contains(t, out, "stored")
	assert.NotContains(t, out, "sha256:")

	verbose = true
	out, err = captureOutput(t, func() error { return runLs([]string{apk}) })
	require.NoError(t, err)
	assert.Contains(t, out, "3 entries")

	resetFlags()
	quiet = true
	out, err = captureOutput(t, func() error { return runLs([]string{apk}) })
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLsCommandDigestJSON(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	apk := testApk(t, dir)
	jsonOut = true
	lsDigest = true

	out, err := captureOutput(t, func() error { return runLs([]string{apk}) })
	require.NoError(t, err)

	var got struct {
		File    string        `json:"file"`
		Count   int           `json:"count"`
		Entries []entryReport `json:"entries"`
	}
	decodeJSON(t, out, &got)
	require.Equal(t, 3, got.Count)
	require.Len(t, got.Entries, 3)

	manifest := got.Entries[0]
	assert.Equal(t, "AndroidManifest.xml", manifest.Name)
	assert.Equal(t, uint16(format.MethodStore), manifest.Method)
	assert.Equal(t, uint64(len("<manifest/>")), manifest.Uncompressed)
	assert.Equal(t, digest.FromString("<manifest/>").String(), manifest.Digest)

	data := got.Entries[2]
	assert.Equal(t, "res/raw/data.txt", data.Name)
	assert.Equal(t, uint16(format.MethodDeflate), data.Method)
	assert.Less(t, data.Compressed, data.Uncompressed)
	assert.Equal(t, digest.FromBytes(bytes.Repeat([]byte("apk "), 64)).String(), data.Digest)
}

func TestCatCommand(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	apk := testApk(t, dir)

	out, err := captureOutput(t, func() error { return runCat([]string{apk, "res/raw/data.txt"}) })
	require.NoError(t, err)
	assert.Equal(t, string(bytes.Repeat([]byte("apk "), 64)), out)

	out, err = captureOutput(t, func() error { return runCat([]string{apk, "classes.dex"}) })
	require.NoError(t, err)
	assert.Equal(t, string(buildDex(t, testStrings)), out)

	_, err = captureOutput(t, func() error { return runCat([]string{apk, "missing.txt"}) })
	require.Error(t, err)
}
