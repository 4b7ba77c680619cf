package format

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Modified UTF-8 as used by string_data_item.
//
// It differs from standard UTF-8 in two ways: U+0000 is written as the two
// byte sequence C0 80, and supplementary characters are written as a pair of
// three-byte encoded UTF-16 surrogates instead of one four-byte sequence.

// DecodeMUTF8 decodes the NUL-terminated MUTF-8 string starting at off. It
// returns the Go string and the number of bytes consumed, including the
// terminating NUL.
func DecodeMUTF8(b []byte, off int) (string, int, error) {
	units := make([]uint16, 0, 16)
	i := off
	for {
		if i >= len(b) {
			return "", 0, ErrTruncated
		}
		c := b[i]
		switch {
		case c == 0:
			return string(utf16.Decode(units)), i - off + 1, nil
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xe0 == 0xc0:
			if i+1 >= len(b) {
				return "", 0, ErrTruncated
			}
			c2 := b[i+1]
			if c2&0xc0 != 0x80 {
				return "", 0, ErrMalformedString
			}
			units = append(units, uint16(c&0x1f)<<6|uint16(c2&0x3f))
			i += 2
		case c&0xf0 == 0xe0:
			if i+2 >= len(b) {
				return "", 0, ErrTruncated
			}
			c2, c3 := b[i+1], b[i+2]
			if c2&0xc0 != 0x80 || c3&0xc0 != 0x80 {
				return "", 0, ErrMalformedString
			}
			units = append(units, uint16(c&0x0f)<<12|uint16(c2&0x3f)<<6|uint16(c3&0x3f))
			i += 3
		default:
			return "", 0, ErrMalformedString
		}
	}
}

// AppendMUTF8 appends the MUTF-8 encoding of s followed by a NUL terminator.
func AppendMUTF8(dst []byte, s string) []byte {
	for _, u := range utf16.Encode([]rune(s)) {
		switch {
		case u != 0 && u < 0x80:
			dst = append(dst, byte(u))
		case u < 0x800:
			dst = append(dst, byte(0xc0|u>>6), byte(0x80|u&0x3f))
		default:
			dst = append(dst, byte(0xe0|u>>12), byte(0x80|(u>>6)&0x3f), byte(0x80|u&0x3f))
		}
	}
	return append(dst, 0)
}

// UTF16Len returns the number of UTF-16 code units in s, the value stored
// in the utf16_size prefix of string_data_item.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 && r <= utf8.MaxRune {
			n += 2
		} else {
			n++
		}
	}
	return n
}
