package archive

import (
	"github.com/joshuapare/apkkit/internal/format"
	"github.com/joshuapare/apkkit/pkg/types"
)

// LocalFileHeader is the header that precedes each entry's data.
type LocalFileHeader struct {
	// Index is the position of the central directory record this header was
	// read for. It is a hint only: CentralFileDirectory.Get verifies it by name.
	Index int
	// Offset is the header's position in the source.
	Offset int64

	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	FileName         string
	Extra            []byte

	rawName []byte
}

// DataOffset returns the position of the entry data that follows the header.
func (h *LocalFileHeader) DataOffset() int64 {
	return h.Offset + format.LocalHeaderSize + int64(len(h.rawName)) + int64(len(h.Extra))
}

// HasDataDescriptor reports whether sizes and CRC follow the data instead of
// living in this header.
func (h *LocalFileHeader) HasDataDescriptor() bool {
	return h.Flags&format.FlagDataDescriptor != 0
}

// ReadLocalFileHeader decodes the local header at off.
func ReadLocalFileHeader(src ByteSource, off int64, index int) (*LocalFileHeader, error) {
	fixed, err := readFull(src, off, format.LocalHeaderSize)
	if err != nil {
		return nil, types.Wrap(types.ErrKindIO, "archive: read local header", err)
	}
	if format.ReadU32(fixed, 0) != format.LocalSignature {
		return nil, types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt, "archive: local header signature mismatch at %d", off)
	}
	h := &LocalFileHeader{
		Index:            index,
		Offset:           off,
		VersionNeeded:    format.ReadU16(fixed, format.LocalVersionNeededOffset),
		Flags:            format.ReadU16(fixed, format.LocalFlagsOffset),
		Method:           format.ReadU16(fixed, format.LocalMethodOffset),
		ModTime:          format.ReadU16(fixed, format.LocalModTimeOffset),
		ModDate:          format.ReadU16(fixed, format.LocalModDateOffset),
		CRC32:            format.ReadU32(fixed, format.LocalCRC32Offset),
		CompressedSize:   format.ReadU32(fixed, format.LocalCompressedOffset),
		UncompressedSize: format.ReadU32(fixed, format.LocalUncompressedOffset),
	}
	nameLen := int(format.ReadU16(fixed, format.LocalNameLengthOffset))
	extraLen := int(format.ReadU16(fixed, format.LocalExtraLengthOffset))
	if nameLen+extraLen > 0 {
		variable, err := readFull(src, off+format.LocalHeaderSize, nameLen+extraLen)
		if err != nil {
			return nil, types.Wrap(types.ErrKindIO, "archive: read local header name", err)
		}
		h.rawName = variable[:nameLen]
		h.Extra = variable[nameLen:]
	}
	h.FileName = decodeName(h.rawName, h.Flags&format.FlagUTF8 != 0)
	return h, nil
}
