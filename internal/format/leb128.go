package format

// LEB128 codecs used throughout the DEX data area.
//
// DEX caps every LEB128 value at 32 bits, so at most five bytes are consumed.
// uleb128p1 stores value+1 so that -1 (NoIndex) encodes as a single zero byte.

const maxLEB128Len = 5

// ReadULEB128 decodes an unsigned LEB128 value at off and returns it with the
// number of bytes consumed.
func ReadULEB128(b []byte, off int) (uint32, int, error) {
	var result uint32
	for i := 0; i < maxLEB128Len; i++ {
		if off+i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[off+i]
		result |= uint32(c&0x7f) << (7 * i)
		if c&0x80 == 0 {
			return result, i + 1, nil
		}
	}
	return 0, 0, ErrOverflow
}

// ReadSLEB128 decodes a signed LEB128 value at off.
func ReadSLEB128(b []byte, off int) (int32, int, error) {
	var result int32
	for i := 0; i < maxLEB128Len; i++ {
		if off+i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[off+i]
		result |= int32(c&0x7f) << (7 * i)
		if c&0x80 == 0 {
			shift := 7 * (i + 1)
			if shift < 32 && c&0x40 != 0 {
				result |= -1 << shift
			}
			return result, i + 1, nil
		}
	}
	return 0, 0, ErrOverflow
}

// ReadULEB128p1 decodes a uleb128p1 value. A zero byte yields -1.
func ReadULEB128p1(b []byte, off int) (int32, int, error) {
	v, n, err := ReadULEB128(b, off)
	if err != nil {
		return 0, 0, err
	}
	return int32(v) - 1, n, nil
}

// AppendULEB128 appends the unsigned LEB128 encoding of v.
func AppendULEB128(dst []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(dst, c)
		}
		dst = append(dst, c|0x80)
	}
}

// AppendSLEB128 appends the signed LEB128 encoding of v.
func AppendSLEB128(dst []byte, v int32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			return append(dst, c)
		}
		dst = append(dst, c|0x80)
	}
}

// AppendULEB128p1 appends the uleb128p1 encoding of v.
func AppendULEB128p1(dst []byte, v int32) []byte {
	return AppendULEB128(dst, uint32(v+1))
}

// ULEB128Len reports the encoded length of v.
func ULEB128Len(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
