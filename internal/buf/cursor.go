// Package buf contains bounds-checked helpers for walking binary buffers.
package buf

import (
	"github.com/joshuapare/apkkit/internal/format"
)

// Cursor walks a byte slice forward. The first failing read records an error
// and every later read becomes a no-op returning zero, so decoders can read a
// whole record and check Err once.
type Cursor struct {
	b   []byte
	pos int
	err error
}

// NewCursor returns a cursor positioned at off.
func NewCursor(b []byte, off int) *Cursor {
	c := &Cursor{b: b, pos: off}
	if off < 0 || off > len(b) {
		c.err = format.ErrTruncated
	}
	return c
}

// Pos returns the current offset.
func (c *Cursor) Pos() int { return c.pos }

// Err returns the first error encountered.
func (c *Cursor) Err() error { return c.err }

// Bytes returns the next n bytes without copying.
func (c *Cursor) Bytes(n int) []byte {
	if c.err != nil {
		return nil
	}
	s, ok := Slice(c.b, c.pos, n)
	if !ok {
		c.err = format.ErrTruncated
		return nil
	}
	c.pos += n
	return s
}

// U8 reads one byte.
func (c *Cursor) U8() uint8 {
	s := c.Bytes(1)
	if s == nil {
		return 0
	}
	return s[0]
}

// U16 reads a little-endian uint16.
func (c *Cursor) U16() uint16 {
	s := c.Bytes(2)
	if s == nil {
		return 0
	}
	return format.ReadU16(s, 0)
}

// U32 reads a little-endian uint32.
func (c *Cursor) U32() uint32 {
	s := c.Bytes(4)
	if s == nil {
		return 0
	}
	return format.ReadU32(s, 0)
}

// ULEB128 reads an unsigned LEB128 value.
func (c *Cursor) ULEB128() uint32 {
	if c.err != nil {
		return 0
	}
	v, n, err := format.ReadULEB128(c.b, c.pos)
	if err != nil {
		c.err = err
		return 0
	}
	c.pos += n
	return v
}

// SLEB128 reads a signed LEB128 value.
func (c *Cursor) SLEB128() int32 {
	if c.err != nil {
		return 0
	}
	v, n, err := format.ReadSLEB128(c.b, c.pos)
	if err != nil {
		c.err = err
		return 0
	}
	c.pos += n
	return v
}

// ULEB128p1 reads a uleb128p1 value.
func (c *Cursor) ULEB128p1() int32 {
	if c.err != nil {
		return 0
	}
	v, n, err := format.ReadULEB128p1(c.b, c.pos)
	if err != nil {
		c.err = err
		return 0
	}
	c.pos += n
	return v
}

// Skip advances n bytes.
func (c *Cursor) Skip(n int) {
	c.Bytes(n)
}
