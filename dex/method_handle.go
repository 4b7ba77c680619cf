package dex

import (
	"github.com/joshuapare/apkkit/internal/format"
)

// MethodHandle is a method_handle_item.
//
// Both 16-bit halves that name a method are tracked as METHOD_ID references:
// the field at offset 0 (method) and the field at offset 4 (member). Each is
// resolved and written back on its own.
//
// TODO: offset 0 is method_handle_type in the published format, and member
// targets a FIELD_ID for the field accessor kinds; resolve member by kind
// once callers need field handles.
type MethodHandle struct {
	rawItem
	method *ItemIndexReference[*MethodId]
	member *ItemIndexReference[*MethodId]
}

func readMethodHandle(_ *SectionList, b []byte, off int) (*MethodHandle, int, error) {
	raw, err := readFixed(b, off, SectionMethodHandle)
	if err != nil {
		return nil, 0, err
	}
	h := &MethodHandle{rawItem: raw}
	h.method = newIndexRef[*MethodId](&h.itemBase, &h.raw, format.MethodHandleTypeOffset, 2, SectionMethodId)
	h.member = newIndexRef[*MethodId](&h.itemBase, &h.raw, format.MethodHandleMemberOffset, 2, SectionMethodId)
	return h, len(raw.raw), nil
}

func (h *MethodHandle) cacheItems() { cacheCells(h.method, h.member) }
func (h *MethodHandle) refresh()    { refreshCells(h.method, h.member) }

// HandleType returns the raw 16-bit value at offset 0.
func (h *MethodHandle) HandleType() uint16 {
	return format.ReadU16(h.raw, format.MethodHandleTypeOffset)
}

func (h *MethodHandle) Method() *ItemIndexReference[*MethodId] { return h.method }
func (h *MethodHandle) Member() *ItemIndexReference[*MethodId] { return h.member }
