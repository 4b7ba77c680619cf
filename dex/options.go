package dex

import "os"

// ReadOptions controls how DEX files are read.
type ReadOptions struct {
	// VerifyChecksum rejects files whose stored adler32 checksum or SHA-1
	// signature does not match their contents.
	VerifyChecksum bool
}

// WriteOptions controls WriteFile.
type WriteOptions struct {
	// Sync flushes file data to stable storage before returning.
	Sync bool
	// Perm is the mode of a newly created file; zero selects 0o644.
	Perm os.FileMode
}

func (o *WriteOptions) perm() os.FileMode {
	if o == nil || o.Perm == 0 {
		return 0o644
	}
	return o.Perm
}
