package dex

import (
	"slices"

	"github.com/joshuapare/apkkit/internal/buf"
	"github.com/joshuapare/apkkit/internal/format"
)

// readCountedList slices a "uint size; T[size]" item out of b.
func readCountedList(b []byte, off, entrySize int, t SectionType) (rawItem, int, error) {
	if !hasBytes(b, off, 4) {
		return rawItem{}, 0, errTruncated(t.String(), off)
	}
	count := int(format.ReadU32(b, off))
	end, err := buf.CheckListBounds(len(b), off+4, count, entrySize)
	if err != nil {
		return rawItem{}, 0, errCorrupt(t.String(), off, err)
	}
	return newRawItem(b, off, end-off), count, nil
}

// TypeList is a type_list.
type TypeList struct {
	rawItem
	types []*ItemIndexReference[*TypeId]
}

// NewTypeList returns a detached type list holding types.
func NewTypeList(types ...*TypeId) *TypeList {
	l := &TypeList{rawItem: rawItem{raw: make([]byte, format.TypeListHeaderSize)}}
	for _, t := range types {
		l.Add(t)
	}
	return l
}

func readTypeList(_ *SectionList, b []byte, off int) (*TypeList, int, error) {
	raw, count, err := readCountedList(b, off, format.TypeListEntrySize, SectionTypeList)
	if err != nil {
		return nil, 0, err
	}
	l := &TypeList{rawItem: raw}
	for i := range count {
		l.types = append(l.types, l.entry(i))
	}
	return l, len(raw.raw), nil
}

func (l *TypeList) entry(i int) *ItemIndexReference[*TypeId] {
	off := format.TypeListHeaderSize + i*format.TypeListEntrySize
	return newIndexRef[*TypeId](&l.itemBase, &l.raw, off, format.TypeListEntrySize, SectionTypeId)
}

func (l *TypeList) cacheItems() {
	for _, r := range l.types {
		r.cache()
	}
}

func (l *TypeList) refresh() {
	for _, r := range l.types {
		r.Refresh()
	}
}

// Count returns the number of entries.
func (l *TypeList) Count() int { return len(l.types) }

// Ref returns the reference stored at entry i.
func (l *TypeList) Ref(i int) *ItemIndexReference[*TypeId] { return l.types[i] }

// Types resolves every entry. Unresolvable entries are nil.
func (l *TypeList) Types() []*TypeId {
	out := make([]*TypeId, len(l.types))
	for i, r := range l.types {
		out[i] = r.Item()
	}
	return out
}

// Add appends t.
func (l *TypeList) Add(t *TypeId) {
	l.raw = append(l.raw, 0, 0)
	r := l.entry(len(l.types))
	l.types = append(l.types, r)
	format.PutU32(l.raw, 0, uint32(len(l.types)))
	r.Set(t)
}

// Remove deletes entry i.
func (l *TypeList) Remove(i int) {
	off := format.TypeListHeaderSize + i*format.TypeListEntrySize
	l.raw = slices.Delete(l.raw, off, off+format.TypeListEntrySize)
	l.types = slices.Delete(l.types, i, i+1)
	for j := i; j < len(l.types); j++ {
		l.types[j].off -= format.TypeListEntrySize
	}
	format.PutU32(l.raw, 0, uint32(len(l.types)))
	l.markModified()
}

// AnnotationSet is an annotation_set_item.
type AnnotationSet struct {
	rawItem
	entries []*OffsetReference[*AnnotationItem]
}

func readAnnotationSet(_ *SectionList, b []byte, off int) (*AnnotationSet, int, error) {
	raw, count, err := readCountedList(b, off, format.OffsetListEntrySize, SectionAnnotationSet)
	if err != nil {
		return nil, 0, err
	}
	s := &AnnotationSet{rawItem: raw}
	for i := range count {
		at := format.OffsetListHeaderSize + i*format.OffsetListEntrySize
		s.entries = append(s.entries, newOffsetRef[*AnnotationItem](&s.itemBase, &s.raw, at, SectionAnnotation))
	}
	return s, len(raw.raw), nil
}

func (s *AnnotationSet) cacheItems() {
	for _, r := range s.entries {
		r.cache()
	}
}

func (s *AnnotationSet) refresh() {
	for _, r := range s.entries {
		r.Refresh()
	}
}

func (s *AnnotationSet) Count() int { return len(s.entries) }

// Annotations resolves every entry.
func (s *AnnotationSet) Annotations() []*AnnotationItem {
	out := make([]*AnnotationItem, len(s.entries))
	for i, r := range s.entries {
		out[i] = r.Item()
	}
	return out
}

// AnnotationSetRefList is an annotation_set_ref_list.
type AnnotationSetRefList struct {
	rawItem
	entries []*OffsetReference[*AnnotationSet]
}

func readAnnotationSetRefList(_ *SectionList, b []byte, off int) (*AnnotationSetRefList, int, error) {
	raw, count, err := readCountedList(b, off, format.OffsetListEntrySize, SectionAnnotationSetRefList)
	if err != nil {
		return nil, 0, err
	}
	l := &AnnotationSetRefList{rawItem: raw}
	for i := range count {
		at := format.OffsetListHeaderSize + i*format.OffsetListEntrySize
		l.entries = append(l.entries, newOffsetRef[*AnnotationSet](&l.itemBase, &l.raw, at, SectionAnnotationSet))
	}
	return l, len(raw.raw), nil
}

func (l *AnnotationSetRefList) cacheItems() {
	for _, r := range l.entries {
		r.cache()
	}
}

func (l *AnnotationSetRefList) refresh() {
	for _, r := range l.entries {
		r.Refresh()
	}
}

func (l *AnnotationSetRefList) Count() int { return len(l.entries) }

// Sets resolves every entry; entries with a zero offset are nil.
func (l *AnnotationSetRefList) Sets() []*AnnotationSet {
	out := make([]*AnnotationSet, len(l.entries))
	for i, r := range l.entries {
		out[i] = r.Item()
	}
	return out
}
