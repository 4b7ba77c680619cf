package dex

import (
	"fmt"
	"iter"
	"slices"
)

// Section is the ordered list of items of one type.
type Section[T Item] struct {
	typ    SectionType
	list   *SectionList
	offset int
	items  []T

	byOffset map[int]T
}

func newSection[T Item](list *SectionList, typ SectionType) *Section[T] {
	return &Section[T]{typ: typ, list: list, byOffset: make(map[int]T)}
}

// Type returns the section's map_list type.
func (s *Section[T]) Type() SectionType { return s.typ }

// Count returns the number of items. A nil section is empty.
func (s *Section[T]) Count() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Offset returns the file offset of the first item as of the last layout.
func (s *Section[T]) Offset() int { return s.offset }

// Get returns the item at index i, or the zero value when out of range.
func (s *Section[T]) Get(i int) T {
	item, _ := s.lookup(i)
	return item
}

func (s *Section[T]) lookup(i int) (T, bool) {
	if s == nil || i < 0 || i >= len(s.items) {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

// Items returns a copy of the item list.
func (s *Section[T]) Items() []T {
	if s == nil {
		return nil
	}
	return slices.Clone(s.items)
}

// All iterates items with their indices.
func (s *Section[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if s == nil {
			return
		}
		for i, item := range s.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// AtOffset returns the item that started at off when the section was last
// read or laid out.
func (s *Section[T]) AtOffset(off int) (T, bool) {
	item, ok := s.byOffset[off]
	return item, ok
}

// Add appends item to the section and returns it. The item's offset is
// assigned by the next refresh.
func (s *Section[T]) Add(item T) T {
	b := item.base()
	if b.list != nil && b.index >= 0 {
		panic(fmt.Sprintf("dex: %s item already belongs to a section", s.typ))
	}
	b.list = s.list
	b.typ = s.typ
	b.index = len(s.items)
	b.offset = 0
	s.items = append(s.items, item)
	s.list.modified = true
	return item
}

// Remove detaches item from the section and renumbers the items after it.
// It reports whether the item was found.
func (s *Section[T]) Remove(item T) bool {
	if !s.list.resolved {
		s.list.resolveAll()
	}
	i := item.Index()
	if i < 0 || i >= len(s.items) || Item(s.items[i]) != Item(item) {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	for j := i; j < len(s.items); j++ {
		s.items[j].base().index = j
	}
	item.base().index = -1
	if cur, ok := s.byOffset[item.Offset()]; ok && Item(cur) == Item(item) {
		delete(s.byOffset, item.Offset())
	}
	s.list.modified = true
	return true
}

func (s *Section[T]) String() string {
	return fmt.Sprintf("%s[%d]@0x%x", s.typ, len(s.items), s.offset)
}

// append adds an item while reading; it leaves the modified flag alone.
func (s *Section[T]) append(item T, off int) {
	b := item.base()
	b.list = s.list
	b.typ = s.typ
	b.index = len(s.items)
	b.offset = off
	s.items = append(s.items, item)
	s.byOffset[off] = item
}

func (s *Section[T]) ItemAt(i int) Item { return s.items[i] }
func (s *Section[T]) setOffset(off int) { s.offset = off }

func (s *Section[T]) indexOffsets() {
	clear(s.byOffset)
	for _, item := range s.items {
		s.byOffset[item.Offset()] = item
	}
}

// AnySection is the untyped view of a Section.
type AnySection interface {
	Type() SectionType
	Count() int
	Offset() int
	// ItemAt returns the i-th item; it panics when i is out of range.
	ItemAt(i int) Item

	setOffset(off int)
	indexOffsets()
}

// SectionOf returns the section of the given type from list, typed by its
// item type. It returns nil when the file has no such section and panics
// when T is not the item type of the section.
func SectionOf[T Item](list *SectionList, typ SectionType) *Section[T] {
	s, ok := list.sections[typ]
	if !ok {
		return nil
	}
	typed, ok := s.(*Section[T])
	if !ok {
		panic(fmt.Sprintf("dex: section %s does not hold %T", typ, *new(T)))
	}
	return typed
}
