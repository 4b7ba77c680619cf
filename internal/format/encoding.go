package format

import "encoding/binary"

// Little-endian field accessors shared by the ZIP and DEX decoders.
//
// Both formats store every multi-byte integer little-endian. Callers are
// expected to have bounds-checked the buffer (see internal/buf) before using
// these helpers; they panic on short slices like the binary package does.

// PutU16 writes a uint16 value to the buffer at the specified offset in little-endian format.
func PutU16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU16 reads a uint16 value from the buffer at the specified offset in little-endian format.
func ReadU16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// ReadUint reads an unsigned field of the given width (1, 2 or 4 bytes).
func ReadUint(b []byte, off, width int) uint32 {
	switch width {
	case 1:
		return uint32(b[off])
	case 2:
		return uint32(ReadU16(b, off))
	default:
		return ReadU32(b, off)
	}
}

// PutUint writes an unsigned field of the given width (1, 2 or 4 bytes),
// truncating v to that width.
func PutUint(b []byte, off, width int, v uint32) {
	switch width {
	case 1:
		b[off] = byte(v)
	case 2:
		PutU16(b, off, uint16(v))
	default:
		PutU32(b, off, v)
	}
}
