package dex

import (
	"fmt"

	"github.com/joshuapare/apkkit/internal/format"
)

// ItemIndexReference is a 16- or 32-bit index field inside an item that
// refers to an entry of an indexed section.
//
// The target is resolved lazily and memoized; once resolved the reference
// follows the item rather than the raw number, so Refresh writes back
// whatever index the item holds after the section is edited.
type ItemIndexReference[T Item] struct {
	owner  *itemBase
	buf    *[]byte
	off    int
	width  int
	target SectionType

	cached T
	has    bool
}

func newIndexRef[T Item](owner *itemBase, buf *[]byte, off, width int, target SectionType) *ItemIndexReference[T] {
	return &ItemIndexReference[T]{owner: owner, buf: buf, off: off, width: width, target: target}
}

// Raw returns the stored index.
func (r *ItemIndexReference[T]) Raw() uint32 {
	return format.ReadUint(*r.buf, r.off, r.width)
}

// IsSet reports whether the field holds an index other than NO_INDEX.
func (r *ItemIndexReference[T]) IsSet() bool {
	return r.Raw() != noIndex(r.width)
}

// Item resolves the referenced item. The zero value is returned when the
// field is unset or the index is out of range; such results are not memoized.
func (r *ItemIndexReference[T]) Item() T {
	if r.has {
		return r.cached
	}
	var zero T
	raw := r.Raw()
	if raw == noIndex(r.width) || r.owner.list == nil {
		return zero
	}
	s := SectionOf[T](r.owner.list, r.target)
	if s == nil {
		return zero
	}
	item, ok := s.lookup(int(raw))
	if !ok {
		return zero
	}
	r.cached, r.has = item, true
	return item
}

// Set points the reference at item and stores its current index.
func (r *ItemIndexReference[T]) Set(item T) {
	if isNil(item) {
		panic("dex: Set called with nil item; use Clear")
	}
	checkTarget(r.owner, item)
	r.cached, r.has = item, true
	r.put(item.Index())
	r.owner.markModified()
}

// Clear stores NO_INDEX.
func (r *ItemIndexReference[T]) Clear() {
	var zero T
	r.cached, r.has = zero, false
	format.PutUint(*r.buf, r.off, r.width, noIndex(r.width))
	r.owner.markModified()
}

// Refresh writes the resolved item's current index back into the field.
// Unresolved references are left untouched.
func (r *ItemIndexReference[T]) Refresh() {
	if r.has {
		checkSameFile(r.owner, r.cached)
		r.put(r.cached.Index())
	}
}

func (r *ItemIndexReference[T]) cache() { r.Item() }

func (r *ItemIndexReference[T]) put(index int) {
	v := noIndex(r.width)
	if index >= 0 {
		v = uint32(index)
	}
	format.PutUint(*r.buf, r.off, r.width, v)
}

// checkTarget panics unless item belongs to a section and, when the owner is
// attached, to the owner's file.
func checkTarget(owner *itemBase, item Item) {
	if !item.base().Attached() {
		panic(fmt.Sprintf("dex: %s item is not in a section; Add it before referencing it", item.SectionType()))
	}
	checkSameFile(owner, item)
}

// checkSameFile panics when an attached owner references an item of another
// file. Items removed from the owner's file still pass.
func checkSameFile(owner *itemBase, item Item) {
	if owner.list != nil && item.base().list != owner.list {
		panic(fmt.Sprintf("dex: %s item belongs to another file", item.SectionType()))
	}
}

func noIndex(width int) uint32 {
	if width == 2 {
		return format.DexNoIndex16
	}
	return format.DexNoIndex
}

// OffsetReference is a 32-bit file offset inside an item that refers to an
// item of a data section. Zero means unset.
type OffsetReference[T Item] struct {
	owner  *itemBase
	buf    *[]byte
	off    int
	target SectionType

	cached T
	has    bool
}

func newOffsetRef[T Item](owner *itemBase, buf *[]byte, off int, target SectionType) *OffsetReference[T] {
	return &OffsetReference[T]{owner: owner, buf: buf, off: off, target: target}
}

// Raw returns the stored offset.
func (r *OffsetReference[T]) Raw() uint32 {
	return format.ReadU32(*r.buf, r.off)
}

// IsSet reports whether the field holds a non-zero offset.
func (r *OffsetReference[T]) IsSet() bool { return r.Raw() != 0 }

// Item resolves the item found at the stored offset.
func (r *OffsetReference[T]) Item() T {
	if r.has {
		return r.cached
	}
	var zero T
	raw := r.Raw()
	if raw == 0 || r.owner.list == nil {
		return zero
	}
	s := SectionOf[T](r.owner.list, r.target)
	if s == nil {
		return zero
	}
	item, ok := s.AtOffset(int(raw))
	if !ok {
		return zero
	}
	r.cached, r.has = item, true
	return item
}

// Set points the reference at item.
func (r *OffsetReference[T]) Set(item T) {
	if isNil(item) {
		panic("dex: Set called with nil item; use Clear")
	}
	checkTarget(r.owner, item)
	r.cached, r.has = item, true
	r.put(item)
	r.owner.markModified()
}

// Clear stores zero.
func (r *OffsetReference[T]) Clear() {
	var zero T
	r.cached, r.has = zero, false
	format.PutU32(*r.buf, r.off, 0)
	r.owner.markModified()
}

// Refresh writes the resolved item's current offset back into the field, or
// zero once the item has been removed from its section.
func (r *OffsetReference[T]) Refresh() {
	if r.has {
		checkSameFile(r.owner, r.cached)
		r.put(r.cached)
	}
}

func (r *OffsetReference[T]) cache() { r.Item() }

func (r *OffsetReference[T]) put(item T) {
	var v uint32
	if item.Index() >= 0 {
		v = uint32(item.Offset())
	}
	format.PutU32(*r.buf, r.off, v)
}

// ownedCell backs a reference whose value is not stored at a fixed place in
// the owner's bytes, such as a LEB128 or variable-width field. The value is
// held in a private four-byte buffer and re-encoded when the owner is written.
func ownedCell(v uint32) *[]byte {
	b := make([]byte, 4)
	format.PutU32(b, 0, v)
	return &b
}

func ownedIndexRef[T Item](owner *itemBase, v uint32, target SectionType) *ItemIndexReference[T] {
	return newIndexRef[T](owner, ownedCell(v), 0, 4, target)
}

func ownedOffsetRef[T Item](owner *itemBase, v uint32, target SectionType) *OffsetReference[T] {
	return newOffsetRef[T](owner, ownedCell(v), 0, target)
}
