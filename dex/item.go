package dex

import "reflect"

// Item is one entry of a Section.
//
// Items keep their index and file offset as of the last layout. An item that
// was removed from its section reports Index() == -1; references still
// pointing at it are written back as unset on the next refresh.
type Item interface {
	Index() int
	Offset() int
	SectionType() SectionType

	base() *itemBase
	// byteSize is the encoded size in the item's current state.
	byteSize() int
	// encode appends the item's bytes to dst.
	encode(dst []byte) []byte
	// cacheItems resolves every reference the item holds.
	cacheItems()
	// refresh writes the current index or offset of every resolved
	// reference back into the item's bytes.
	refresh()
}

type itemBase struct {
	list   *SectionList
	typ    SectionType
	index  int
	offset int
}

func (b *itemBase) Index() int               { return b.index }
func (b *itemBase) Offset() int              { return b.offset }
func (b *itemBase) SectionType() SectionType { return b.typ }
func (b *itemBase) base() *itemBase          { return b }
func (b *itemBase) cacheItems()              {}
func (b *itemBase) refresh()                 {}

// Attached reports whether the item currently belongs to a section.
func (b *itemBase) Attached() bool { return b.list != nil && b.index >= 0 }

func (b *itemBase) markModified() {
	if b.list != nil {
		b.list.modified = true
	}
}

// rawItem is an item whose encoding is a byte buffer edited in place.
type rawItem struct {
	itemBase
	raw []byte
}

func (r *rawItem) byteSize() int            { return len(r.raw) }
func (r *rawItem) encode(dst []byte) []byte { return append(dst, r.raw...) }

// Bytes returns the item's current encoding. The slice aliases the item.
func (r *rawItem) Bytes() []byte { return r.raw }

func newRawItem(b []byte, off, n int) rawItem {
	return rawItem{raw: append([]byte(nil), b[off:off+n]...)}
}

func isNil(item Item) bool {
	if item == nil {
		return true
	}
	v := reflect.ValueOf(item)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// cell is a reference stored inside an item.
type cell interface {
	Raw() uint32
	cache()
	Refresh()
}

func cacheCells(cells ...cell) {
	for _, c := range cells {
		if c != nil {
			c.cache()
		}
	}
}

func refreshCells(cells ...cell) {
	for _, c := range cells {
		if c != nil {
			c.Refresh()
		}
	}
}
