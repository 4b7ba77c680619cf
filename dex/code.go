package dex

import (
	"github.com/joshuapare/apkkit/internal/buf"
	"github.com/joshuapare/apkkit/internal/format"
)

// CodeItem is a code_item. The instruction stream is held as code units;
// try items and handlers are kept as read.
type CodeItem struct {
	itemBase
	header    []byte
	debugInfo *OffsetReference[*DebugInfo]
	insns     []uint16
	tries     []byte
}

func readCodeItem(_ *SectionList, b []byte, off int) (*CodeItem, int, error) {
	const what = "code_item"
	c := buf.NewCursor(b, off)
	item := &CodeItem{header: append([]byte(nil), c.Bytes(format.CodeItemHeaderSize)...)}
	if err := c.Err(); err != nil {
		return nil, 0, errCorrupt(what, off, err)
	}
	item.debugInfo = newOffsetRef[*DebugInfo](&item.itemBase, &item.header, format.CodeDebugInfoOffset, SectionDebugInfo)

	n := int(format.ReadU32(item.header, format.CodeInsnsSizeOffset))
	if _, err := buf.CheckListBounds(len(b), c.Pos(), n, format.CodeUnitSize); err != nil {
		return nil, 0, errCorrupt(what, off, err)
	}
	item.insns = make([]uint16, n)
	for i := range item.insns {
		item.insns[i] = c.U16()
	}

	if tries := int(item.TriesSize()); tries > 0 {
		if n%2 == 1 {
			c.Skip(format.CodeUnitSize)
		}
		start := c.Pos()
		c.Skip(tries * format.CodeTryItemSize)
		skipHandlers(c)
		if err := c.Err(); err != nil {
			return nil, 0, errCorrupt(what, off, err)
		}
		item.tries = append([]byte(nil), b[start:c.Pos()]...)
	}
	return item, c.Pos() - off, nil
}

// skipHandlers walks an encoded_catch_handler_list.
func skipHandlers(c *buf.Cursor) {
	lists := c.ULEB128()
	for i := uint32(0); i < lists && c.Err() == nil; i++ {
		size := c.SLEB128()
		pairs := size
		if pairs < 0 {
			pairs = -pairs
		}
		for j := int32(0); j < pairs && c.Err() == nil; j++ {
			c.ULEB128() // type_idx
			c.ULEB128() // addr
		}
		if size <= 0 {
			c.ULEB128() // catch_all_addr
		}
	}
}

func (ci *CodeItem) cacheItems() { ci.debugInfo.cache() }
func (ci *CodeItem) refresh()    { ci.debugInfo.Refresh() }

func (ci *CodeItem) RegistersSize() uint16 { return format.ReadU16(ci.header, format.CodeRegistersOffset) }
func (ci *CodeItem) InsSize() uint16       { return format.ReadU16(ci.header, format.CodeInsOffset) }
func (ci *CodeItem) OutsSize() uint16      { return format.ReadU16(ci.header, format.CodeOutsOffset) }
func (ci *CodeItem) TriesSize() uint16     { return format.ReadU16(ci.header, format.CodeTriesSizeOffset) }

// DebugInfo is the reference to the method's debug info.
func (ci *CodeItem) DebugInfo() *OffsetReference[*DebugInfo] { return ci.debugInfo }

// Instructions returns the code units. The slice aliases the item.
func (ci *CodeItem) Instructions() []uint16 { return ci.insns }

// SetInstructions replaces the instruction stream. Try ranges are left as
// they are and must still fit the new stream.
func (ci *CodeItem) SetInstructions(insns []uint16) {
	ci.insns = append([]uint16(nil), insns...)
	ci.markModified()
}

func (ci *CodeItem) byteSize() int { return len(ci.encode(nil)) }

func (ci *CodeItem) encode(dst []byte) []byte {
	format.PutU32(ci.header, format.CodeInsnsSizeOffset, uint32(len(ci.insns)))
	dst = append(dst, ci.header...)
	for _, u := range ci.insns {
		dst = append(dst, byte(u), byte(u>>8))
	}
	if len(ci.tries) > 0 {
		if len(ci.insns)%2 == 1 {
			dst = append(dst, 0, 0)
		}
		dst = append(dst, ci.tries...)
	}
	return dst
}

// DebugInfo is a debug_info_item. Its state machine program is kept as read;
// the string and type indices inside it are not tracked.
type DebugInfo struct {
	rawItem
	lineStart uint32
}

func readDebugInfo(_ *SectionList, b []byte, off int) (*DebugInfo, int, error) {
	c := buf.NewCursor(b, off)
	line := c.ULEB128()
	params := c.ULEB128()
	for i := uint32(0); i < params && c.Err() == nil; i++ {
		c.ULEB128p1()
	}
	for c.Err() == nil {
		op := c.U8()
		if c.Err() != nil || op == format.DbgEndSequence {
			break
		}
		switch op {
		case format.DbgAdvancePC, format.DbgEndLocal, format.DbgRestartLocal:
			c.ULEB128()
		case format.DbgAdvanceLine:
			c.SLEB128()
		case format.DbgStartLocal:
			c.ULEB128()
			c.ULEB128p1()
			c.ULEB128p1()
		case format.DbgStartLocalExt:
			c.ULEB128()
			c.ULEB128p1()
			c.ULEB128p1()
			c.ULEB128p1()
		case format.DbgSetFile:
			c.ULEB128p1()
		}
	}
	if err := c.Err(); err != nil {
		return nil, 0, errCorrupt("debug_info_item", off, err)
	}
	n := c.Pos() - off
	return &DebugInfo{rawItem: newRawItem(b, off, n), lineStart: line}, n, nil
}

// LineStart returns the initial line register value.
func (d *DebugInfo) LineStart() uint32 { return d.lineStart }
