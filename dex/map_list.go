package dex

import (
	"github.com/joshuapare/apkkit/internal/buf"
	"github.com/joshuapare/apkkit/internal/format"
)

// MapItem is one map_item entry.
type MapItem struct {
	Type   SectionType
	Count  uint32
	Offset uint32
}

// MapList is the map_list item describing every section of the file.
type MapList struct {
	itemBase
	Entries []MapItem
}

func readMapList(_ *SectionList, b []byte, off int) (*MapList, int, error) {
	if !hasBytes(b, off, format.MapListHeaderSize) {
		return nil, 0, errTruncated("map_list", off)
	}
	n := int(format.ReadU32(b, off))
	end, err := buf.CheckListBounds(len(b), off+format.MapListHeaderSize, n, format.MapItemSize)
	if err != nil {
		return nil, 0, errCorrupt("map_list", off, err)
	}
	m := &MapList{Entries: make([]MapItem, n)}
	at := off + format.MapListHeaderSize
	for i := range m.Entries {
		m.Entries[i] = MapItem{
			Type:   SectionType(format.ReadU16(b, at+format.MapItemTypeOffset)),
			Count:  format.ReadU32(b, at+format.MapItemSizeOffset),
			Offset: format.ReadU32(b, at+format.MapItemOffsetOffset),
		}
		at += format.MapItemSize
	}
	return m, end - off, nil
}

// Entry returns the entry for t.
func (m *MapList) Entry(t SectionType) (MapItem, bool) {
	for _, e := range m.Entries {
		if e.Type == t {
			return e, true
		}
	}
	return MapItem{}, false
}

func (m *MapList) byteSize() int {
	return format.MapListHeaderSize + len(m.Entries)*format.MapItemSize
}

func (m *MapList) encode(dst []byte) []byte {
	start := len(dst)
	dst = append(dst, make([]byte, m.byteSize())...)
	b := dst[start:]
	format.PutU32(b, 0, uint32(len(m.Entries)))
	at := format.MapListHeaderSize
	for _, e := range m.Entries {
		format.PutU16(b, at+format.MapItemTypeOffset, uint16(e.Type))
		format.PutU32(b, at+format.MapItemSizeOffset, e.Count)
		format.PutU32(b, at+format.MapItemOffsetOffset, e.Offset)
		at += format.MapItemSize
	}
	return dst
}

// HiddenAPIData is a hiddenapi_class_data_item, kept opaque.
type HiddenAPIData struct {
	rawItem
}

func readHiddenAPIData(_ *SectionList, b []byte, off int) (*HiddenAPIData, int, error) {
	if !hasBytes(b, off, 4) {
		return nil, 0, errTruncated("hiddenapi_class_data_item", off)
	}
	n := int(format.ReadU32(b, off+format.HiddenapiSizeOffset))
	if n < 4 || !hasBytes(b, off, n) {
		return nil, 0, errTruncated("hiddenapi_class_data_item", off)
	}
	return &HiddenAPIData{rawItem: newRawItem(b, off, n)}, n, nil
}
