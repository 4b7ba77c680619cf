package archive

import "github.com/joshuapare/apkkit/internal/format"

// OpenOptions controls how archives are located and read.
type OpenOptions struct {
	// MaxCommentSize bounds the backward trailer scan to the last
	// EndRecordSize+MaxCommentSize bytes of the source. Zero selects the
	// largest comment the format can express.
	MaxCommentSize int

	// SkipSignatureBlock disables the signing block probe.
	SkipSignatureBlock bool
}

func (o OpenOptions) maxComment() int {
	if o.MaxCommentSize <= 0 || o.MaxCommentSize > format.MaxCommentSize {
		return format.MaxCommentSize
	}
	return o.MaxCommentSize
}
