package archive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/apkkit/internal/format"
	"github.com/joshuapare/apkkit/pkg/types"
)

// CentralEntryHeader is one record of the central directory.
type CentralEntryHeader struct {
	// Index is the record's position in the directory.
	Index int

	VersionMadeBy     uint16
	VersionNeeded     uint16
	Flags             uint16
	Method            uint16
	ModTime           uint16
	ModDate           uint16
	CRC32             uint32
	CompressedSize    uint64
	UncompressedSize  uint64
	DiskStart         uint32
	InternalAttr      uint16
	ExternalAttr      uint32
	LocalHeaderOffset uint64

	FileName string
	Extra    []byte
	Comment  string

	signature uint32
}

// IsValidSignature reports whether the record carried the central directory
// signature.
func (h *CentralEntryHeader) IsValidSignature() bool {
	return h.signature == format.CentralSignature
}

// Modified returns the DOS timestamp as time.Time.
func (h *CentralEntryHeader) Modified() time.Time {
	return format.DosTimeToTime(h.ModDate, h.ModTime)
}

// IsDir reports whether the entry names a directory.
func (h *CentralEntryHeader) IsDir() bool {
	return len(h.FileName) > 0 && h.FileName[len(h.FileName)-1] == '/'
}

// IsEncrypted reports whether the entry data is encrypted.
func (h *CentralEntryHeader) IsEncrypted() bool {
	return h.Flags&format.FlagEncrypted != 0
}

func (h *CentralEntryHeader) String() string {
	return fmt.Sprintf("%s (method=%d size=%d/%d)", h.FileName, h.Method, h.CompressedSize, h.UncompressedSize)
}

// errShortRecord marks a candidate cut off by the end of the directory range.
var errShortRecord = errors.New("archive: short central directory record")

// readCentralEntry decodes one candidate record from r. A candidate whose
// signature does not match is returned with IsValidSignature false and its
// variable part left unread.
func readCentralEntry(r io.Reader, fixed []byte) (*CentralEntryHeader, error) {
	if _, err := io.ReadFull(r, fixed); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errShortRecord
		}
		return nil, err
	}
	h := &CentralEntryHeader{signature: format.ReadU32(fixed, 0)}
	if !h.IsValidSignature() {
		return h, nil
	}
	h.VersionMadeBy = format.ReadU16(fixed, format.CentralVersionMadeByOffset)
	h.VersionNeeded = format.ReadU16(fixed, format.CentralVersionNeededOffset)
	h.Flags = format.ReadU16(fixed, format.CentralFlagsOffset)
	h.Method = format.ReadU16(fixed, format.CentralMethodOffset)
	h.ModTime = format.ReadU16(fixed, format.CentralModTimeOffset)
	h.ModDate = format.ReadU16(fixed, format.CentralModDateOffset)
	h.CRC32 = format.ReadU32(fixed, format.CentralCRC32Offset)
	h.CompressedSize = uint64(format.ReadU32(fixed, format.CentralCompressedOffset))
	h.UncompressedSize = uint64(format.ReadU32(fixed, format.CentralUncompressedOffset))
	h.DiskStart = uint32(format.ReadU16(fixed, format.CentralDiskStartOffset))
	h.InternalAttr = format.ReadU16(fixed, format.CentralInternalAttrOffset)
	h.ExternalAttr = format.ReadU32(fixed, format.CentralExternalAttrOffset)
	h.LocalHeaderOffset = uint64(format.ReadU32(fixed, format.CentralLocalOffsetOffset))

	nameLen := int(format.ReadU16(fixed, format.CentralNameLengthOffset))
	extraLen := int(format.ReadU16(fixed, format.CentralExtraLengthOffset))
	commentLen := int(format.ReadU16(fixed, format.CentralCommentLengthOffset))

	variable := make([]byte, nameLen+extraLen+commentLen)
	if _, err := io.ReadFull(r, variable); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errShortRecord
		}
		return nil, err
	}
	utf8Flag := h.Flags&format.FlagUTF8 != 0
	h.FileName = decodeName(variable[:nameLen], utf8Flag)
	h.Extra = variable[nameLen : nameLen+extraLen]
	h.Comment = decodeName(variable[nameLen+extraLen:], utf8Flag)
	h.applyZip64Extra()
	return h, nil
}

// applyZip64Extra replaces saturated fields with values from the ZIP64 extra
// block. The block lists only the fields that are saturated, in fixed order.
func (h *CentralEntryHeader) applyZip64Extra() {
	extra := h.Extra
	for len(extra) >= format.ExtraHeaderSize {
		tag := format.ReadU16(extra, 0)
		size := int(format.ReadU16(extra, 2))
		extra = extra[format.ExtraHeaderSize:]
		if size > len(extra) {
			return
		}
		if tag != format.Zip64ExtraID {
			extra = extra[size:]
			continue
		}
		field := extra[:size]
		next := func(dst *uint64) {
			if len(field) >= 8 {
				*dst = format.ReadU64(field, 0)
				field = field[8:]
			}
		}
		if h.UncompressedSize == format.Zip64Saturated32 {
			next(&h.UncompressedSize)
		}
		if h.CompressedSize == format.Zip64Saturated32 {
			next(&h.CompressedSize)
		}
		if h.LocalHeaderOffset == format.Zip64Saturated32 {
			next(&h.LocalHeaderOffset)
		}
		if h.DiskStart == format.Zip64Saturated16 && len(field) >= 4 {
			h.DiskStart = format.ReadU32(field, 0)
		}
		return
	}
}

// decodeName decodes an entry name. Names without the UTF-8 flag are CP437,
// though many tools write UTF-8 without setting the flag; valid UTF-8 that is
// not plain ASCII is kept as is.
func decodeName(b []byte, utf8Flag bool) string {
	if utf8Flag || isASCII(b) || utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.CodePage437.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// readCentralDirectory streams [off, off+n) and decodes records back to back.
// The loop ends at the first candidate with a foreign signature or one cut
// short by the end of the range; neither is an error.
func readCentralDirectory(src ByteSource, off, n int64) ([]*CentralEntryHeader, error) {
	rc, err := src.OpenRange(off, n)
	if err != nil {
		return nil, types.Wrap(types.ErrKindIO, "archive: open central directory", err)
	}
	defer rc.Close()

	r := bufio.NewReader(rc)
	fixed := make([]byte, format.CentralHeaderSize)
	var headers []*CentralEntryHeader
	for {
		h, err := readCentralEntry(r, fixed)
		if errors.Is(err, errShortRecord) {
			return headers, nil
		}
		if err != nil {
			return nil, types.Wrap(types.ErrKindIO, "archive: read central directory", err)
		}
		if !h.IsValidSignature() {
			return headers, nil
		}
		h.Index = len(headers)
		headers = append(headers, h)
	}
}
