package dex

import (
	"cmp"
	"slices"

	"github.com/joshuapare/apkkit/internal/format"
	"github.com/joshuapare/apkkit/internal/logger"
	"github.com/joshuapare/apkkit/pkg/types"
)

// SectionList owns the header and every section of a DEX file in file order.
type SectionList struct {
	sections map[SectionType]AnySection
	order    []AnySection
	header   *DexHeader
	mapList  *MapList

	// modified is set by every mutation and cleared by a successful refresh.
	modified bool
	// resolved is set once every reference has been resolved against the
	// numbering the file was read with.
	resolved bool
}

func readSectionList(b []byte) (*SectionList, error) {
	l := &SectionList{sections: make(map[SectionType]AnySection)}

	hs, err := readItems(l, SectionHeader, b, 0, 1, readHeader)
	if err != nil {
		return nil, err
	}
	l.header = hs.Get(0)
	l.add(hs)

	mapOff := int(l.header.MapOff())
	ml, _, err := readMapList(l, b, mapOff)
	if err != nil {
		return nil, err
	}

	entries := slices.Clone(ml.Entries)
	if _, ok := ml.Entry(SectionMapList); !ok {
		entries = append(entries, MapItem{Type: SectionMapList, Count: 1, Offset: uint32(mapOff)})
	}
	slices.SortStableFunc(entries, func(a, b MapItem) int { return cmp.Compare(a.Offset, b.Offset) })

	for _, e := range entries {
		switch {
		case e.Type == SectionHeader:
			continue
		case e.Type == SectionMapList:
			ms := newSection[*MapList](l, SectionMapList)
			ms.offset = mapOff
			ms.append(ml, mapOff)
			l.mapList = ml
			l.add(ms)
			continue
		case !e.Type.Known():
			return nil, types.Errorf(types.ErrKindUnsupported, types.ErrUnsupported, "dex: map_list type 0x%04x", uint16(e.Type))
		}
		if _, dup := l.sections[e.Type]; dup {
			return nil, types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt, "dex: duplicate map_list entry %s", e.Type)
		}
		s, err := readSection(l, e.Type, b, int(e.Offset), int(e.Count))
		if err != nil {
			return nil, err
		}
		l.add(s)
	}

	if n := l.header.LinkSize(); n != 0 {
		logger.Warn("dex: link section is not preserved", "size", n, "offset", l.header.LinkOff())
	}
	logger.Debug("dex: read sections", "count", len(l.order), "map_off", mapOff)
	return l, nil
}

func readSection(l *SectionList, t SectionType, b []byte, off, count int) (AnySection, error) {
	switch t {
	case SectionStringId:
		return readItems(l, t, b, off, count, readStringId)
	case SectionTypeId:
		return readItems(l, t, b, off, count, readTypeId)
	case SectionProtoId:
		return readItems(l, t, b, off, count, readProtoId)
	case SectionFieldId:
		return readItems(l, t, b, off, count, readFieldId)
	case SectionMethodId:
		return readItems(l, t, b, off, count, readMethodId)
	case SectionClassId:
		return readItems(l, t, b, off, count, readClassId)
	case SectionCallSiteId:
		return readItems(l, t, b, off, count, readCallSiteId)
	case SectionMethodHandle:
		return readItems(l, t, b, off, count, readMethodHandle)
	case SectionTypeList:
		return readItems(l, t, b, off, count, readTypeList)
	case SectionAnnotationSetRefList:
		return readItems(l, t, b, off, count, readAnnotationSetRefList)
	case SectionAnnotationSet:
		return readItems(l, t, b, off, count, readAnnotationSet)
	case SectionClassData:
		return readItems(l, t, b, off, count, readClassData)
	case SectionCode:
		return readItems(l, t, b, off, count, readCodeItem)
	case SectionStringData:
		return readItems(l, t, b, off, count, readStringData)
	case SectionDebugInfo:
		return readItems(l, t, b, off, count, readDebugInfo)
	case SectionAnnotation:
		return readItems(l, t, b, off, count, readAnnotationItem)
	case SectionEncodedArray:
		return readItems(l, t, b, off, count, readEncodedArrayItem)
	case SectionAnnotationsDirectory:
		return readItems(l, t, b, off, count, readAnnotationsDirectory)
	case SectionHiddenAPI:
		return readItems(l, t, b, off, count, readHiddenAPIData)
	}
	return nil, types.Errorf(types.ErrKindUnsupported, types.ErrUnsupported, "dex: section %s", t)
}

func readItems[T Item](l *SectionList, t SectionType, b []byte, off, count int, read func(*SectionList, []byte, int) (T, int, error)) (*Section[T], error) {
	if off < 0 || off > len(b) {
		return nil, errTruncated(t.String(), off)
	}
	s := newSection[T](l, t)
	s.offset = off
	pos := off
	for range count {
		pos = format.AlignTo(pos, t.Alignment())
		item, n, err := read(l, b, pos)
		if err != nil {
			return nil, err
		}
		s.append(item, pos)
		pos += n
	}
	return s, nil
}

func (l *SectionList) add(s AnySection) {
	l.sections[s.Type()] = s
	l.order = append(l.order, s)
}

// Header returns the header item.
func (l *SectionList) Header() *DexHeader { return l.header }

// MapList returns the map list as of the last read or refresh.
func (l *SectionList) MapList() *MapList { return l.mapList }

// Get returns the section of type t, or nil when the file has none.
func (l *SectionList) Get(t SectionType) AnySection {
	return l.sections[t]
}

// Has reports whether the file has a section of type t.
func (l *SectionList) Has(t SectionType) bool {
	_, ok := l.sections[t]
	return ok
}

// Count returns the number of items in the section of type t.
func (l *SectionList) Count(t SectionType) int {
	if s, ok := l.sections[t]; ok {
		return s.Count()
	}
	return 0
}

// Modified reports whether the list changed since the last refresh.
func (l *SectionList) Modified() bool { return l.modified }

// itemsOf returns the items of the section of type t, or nil.
func itemsOf[T Item](l *SectionList, t SectionType) []T {
	if s := SectionOf[T](l, t); s != nil {
		return s.items
	}
	return nil
}

// Summary describes every non-empty section in file order.
func (l *SectionList) Summary() []MapItem {
	var out []MapItem
	for _, s := range l.order {
		if s.Count() == 0 {
			continue
		}
		out = append(out, MapItem{Type: s.Type(), Count: uint32(s.Count()), Offset: uint32(s.Offset())})
	}
	return out
}

// items iterates every item in file order.
func (l *SectionList) items(yield func(Item) bool) {
	for _, s := range l.order {
		for i := range s.Count() {
			if !yield(s.ItemAt(i)) {
				return
			}
		}
	}
}

// resolveAll resolves every reference against the current numbering. It
// runs before the first renumbering mutation and at the start of a refresh.
func (l *SectionList) resolveAll() {
	for item := range l.items {
		item.cacheItems()
	}
	l.resolved = true
}
