package types

import (
	"errors"
	"fmt"
)

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindFormat      ErrKind = iota // malformed headers/signatures (e.g., bad "dex\n" magic)
	ErrKindCorrupt                    // structural corruption (bad sizes/offsets/counts)
	ErrKindUnsupported                // valid feature we don't support (yet)
	ErrKindNotFound                   // missing entry/class/section
	ErrKindState                      // invalid operation for current state (e.g., write before refresh)
	ErrKindIO                         // failure of the underlying byte source or sink
	ErrKindParse                      // malformed input handed to a collaborator
)

// String returns a short lowercase label for the kind.
func (k ErrKind) String() string {
	switch k {
	case ErrKindFormat:
		return "format"
	case ErrKindCorrupt:
		return "corrupt"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindNotFound:
		return "not found"
	case ErrKindState:
		return "state"
	case ErrKindIO:
		return "io"
	case ErrKindParse:
		return "parse"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels commonly returned by implementations.
var (
	// ErrNoEndRecord indicates no end of central directory record was found
	// in the searchable tail of the source.
	ErrNoEndRecord = &Error{Kind: ErrKindFormat, Msg: "no valid end of central directory record"}
	// ErrNotDex indicates the bytes lack a valid "dex\n" header.
	ErrNotDex = &Error{Kind: ErrKindFormat, Msg: "not a dex file (bad magic or version)"}
	// ErrCorrupt indicates non-recoverable structural inconsistency.
	ErrCorrupt = &Error{Kind: ErrKindCorrupt, Msg: "corrupt structure"}
	// ErrUnsupported indicates a recognized but unsupported feature/variant.
	ErrUnsupported = &Error{Kind: ErrKindUnsupported, Msg: "unsupported feature"}
	// ErrNotFound indicates a missing entry, class or section.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrNotRefreshed indicates a write was attempted after a mutation that was
	// not followed by a refresh.
	ErrNotRefreshed = &Error{Kind: ErrKindState, Msg: "structure modified since last refresh"}
)

// Wrap returns an *Error of the given kind whose cause is err.
func Wrap(kind ErrKind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Errorf returns an *Error of the given kind wrapping cause with a formatted
// message. The cause may be one of the sentinels above so errors.Is keeps
// matching it.
func Errorf(kind ErrKind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind ErrKind) bool {
	for err != nil {
		var te *Error
		if !errors.As(err, &te) {
			return false
		}
		if te.Kind == kind {
			return true
		}
		err = te.Err
	}
	return false
}
