package format

import "errors"

var (
	// ErrSignatureMismatch indicates a structure had an unexpected magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrOverflow indicates a variable-length integer did not terminate within
	// its maximum encoded length.
	ErrOverflow = errors.New("format: leb128 overflow")
	// ErrMalformedString indicates invalid modified UTF-8.
	ErrMalformedString = errors.New("format: malformed mutf-8")
	// ErrUnsupported indicates the structure or feature is not yet supported.
	ErrUnsupported = errors.New("format: unsupported feature")
)
