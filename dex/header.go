package dex

import (
	"bytes"

	"github.com/joshuapare/apkkit/internal/format"
)

// DexHeader is the header_item at offset zero.
type DexHeader struct {
	rawItem
}

func readHeader(_ *SectionList, b []byte, off int) (*DexHeader, int, error) {
	if !hasBytes(b, off, format.DexHeaderSize) {
		return nil, 0, errTruncated("header_item", off)
	}
	return &DexHeader{rawItem: newRawItem(b, off, format.DexHeaderSize)}, format.DexHeaderSize, nil
}

// Magic returns the eight magic bytes, including the version digits.
func (h *DexHeader) Magic() []byte { return h.raw[:format.DexMagicSize] }

// Version returns the numeric format version, or 0 when it is malformed.
func (h *DexHeader) Version() int { return parseVersion(h.raw) }

// Checksum returns the stored adler32 checksum.
func (h *DexHeader) Checksum() uint32 { return h.u32(format.DexChecksumOffset) }

// Signature returns the stored SHA-1 signature.
func (h *DexHeader) Signature() []byte {
	return h.raw[format.DexSignatureOffset : format.DexSignatureOffset+format.DexSignatureSize]
}

func (h *DexHeader) FileSize() uint32   { return h.u32(format.DexFileSizeOffset) }
func (h *DexHeader) HeaderSize() uint32 { return h.u32(format.DexHeaderSizeOffset) }
func (h *DexHeader) EndianTag() uint32  { return h.u32(format.DexEndianTagOffset) }
func (h *DexHeader) LinkSize() uint32   { return h.u32(format.DexLinkSizeOffset) }
func (h *DexHeader) LinkOff() uint32    { return h.u32(format.DexLinkOffOffset) }
func (h *DexHeader) MapOff() uint32     { return h.u32(format.DexMapOffOffset) }
func (h *DexHeader) DataSize() uint32   { return h.u32(format.DexDataSizeOffset) }
func (h *DexHeader) DataOff() uint32    { return h.u32(format.DexDataOffOffset) }

// IdSection returns the (size, offset) pair the header records for an id
// section. ok is false for sections the header does not describe.
func (h *DexHeader) IdSection(t SectionType) (size, off uint32, ok bool) {
	at, ok := headerIdFields[t]
	if !ok {
		return 0, 0, false
	}
	return h.u32(at), h.u32(at + 4), true
}

var headerIdFields = map[SectionType]int{
	SectionStringId: format.DexStringIdsSizeOffset,
	SectionTypeId:   format.DexTypeIdsSizeOffset,
	SectionProtoId:  format.DexProtoIdsSizeOffset,
	SectionFieldId:  format.DexFieldIdsSizeOffset,
	SectionMethodId: format.DexMethodIdsSizeOffset,
	SectionClassId:  format.DexClassDefsSizeOffset,
}

func (h *DexHeader) u32(off int) uint32 { return format.ReadU32(h.raw, off) }

func (h *DexHeader) put(off int, v uint32) { format.PutU32(h.raw, off, v) }

// parseVersion reads the three ASCII digits after "dex\n". It returns 0 for
// anything else.
func parseVersion(b []byte) int {
	if len(b) < format.DexVersionOffset+format.DexVersionDigits {
		return 0
	}
	v := 0
	for _, c := range b[format.DexVersionOffset : format.DexVersionOffset+format.DexVersionDigits] {
		if c < '0' || c > '9' {
			return 0
		}
		v = v*10 + int(c-'0')
	}
	return v
}

// validMagic reports whether b opens with "dex\n" followed by a version in
// 1..999.
func validMagic(b []byte) bool {
	if len(b) < format.DexMagicSize || !bytes.HasPrefix(b, format.DexMagicPrefix) {
		return false
	}
	v := parseVersion(b)
	return v > 0 && v < 1000
}
