//go:build unix

// Package mmfile maps files read-only into memory for zero-copy decoding of
// large archives.
package mmfile

func noop() error { return nil }
