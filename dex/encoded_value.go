package dex

import (
	"fmt"
	"math"

	"github.com/joshuapare/apkkit/internal/buf"
	"github.com/joshuapare/apkkit/internal/format"
	"github.com/joshuapare/apkkit/pkg/types"
)

// ValueType is the value_type of an encoded_value.
type ValueType uint8

const (
	ValueByte         ValueType = format.ValueByte
	ValueShort        ValueType = format.ValueShort
	ValueChar         ValueType = format.ValueChar
	ValueInt          ValueType = format.ValueInt
	ValueLong         ValueType = format.ValueLong
	ValueFloat        ValueType = format.ValueFloat
	ValueDouble       ValueType = format.ValueDouble
	ValueMethodType   ValueType = format.ValueMethodType
	ValueMethodHandle ValueType = format.ValueMethodHandle
	ValueString       ValueType = format.ValueString
	ValueTypeRef      ValueType = format.ValueType
	ValueField        ValueType = format.ValueField
	ValueMethod       ValueType = format.ValueMethod
	ValueEnum         ValueType = format.ValueEnum
	ValueArray        ValueType = format.ValueArray
	ValueAnnotation   ValueType = format.ValueAnnotation
	ValueNull         ValueType = format.ValueNull
	ValueBoolean      ValueType = format.ValueBoolean
)

// indexTarget maps index-carrying value types to the section they index.
var indexTarget = map[ValueType]SectionType{
	ValueMethodType:   SectionProtoId,
	ValueMethodHandle: SectionMethodHandle,
	ValueString:       SectionStringId,
	ValueTypeRef:      SectionTypeId,
	ValueField:        SectionFieldId,
	ValueMethod:       SectionMethodId,
	ValueEnum:         SectionFieldId,
}

// EncodedValue is one encoded_value. Index-carrying values hold a reference
// and are rewritten at the smallest width that fits the current index.
type EncodedValue struct {
	kind       ValueType
	arg        uint8
	data       []byte
	ref        cell
	array      *EncodedArray
	annotation *EncodedAnnotation
}

func decodeEncodedValue(owner *itemBase, c *buf.Cursor) (*EncodedValue, error) {
	h := c.U8()
	if err := c.Err(); err != nil {
		return nil, err
	}
	v := &EncodedValue{kind: ValueType(h & format.ValueTypeMask), arg: h >> format.ValueArgShift}
	switch v.kind {
	case ValueByte, ValueShort, ValueChar, ValueInt, ValueLong, ValueFloat, ValueDouble:
		v.data = append([]byte(nil), c.Bytes(int(v.arg)+1)...)
	case ValueMethodType, ValueMethodHandle, ValueString, ValueTypeRef, ValueField, ValueMethod, ValueEnum:
		if v.arg > 3 {
			return nil, fmt.Errorf("%w: index value of %d bytes", format.ErrOverflow, v.arg+1)
		}
		raw := c.Bytes(int(v.arg) + 1)
		var idx uint32
		for i, b := range raw {
			idx |= uint32(b) << (8 * i)
		}
		v.ref = newValueRef(owner, v.kind, idx)
	case ValueArray:
		arr, err := decodeEncodedArray(owner, c)
		if err != nil {
			return nil, err
		}
		v.array = arr
	case ValueAnnotation:
		ann, err := decodeEncodedAnnotation(owner, c)
		if err != nil {
			return nil, err
		}
		v.annotation = ann
	case ValueNull, ValueBoolean:
	default:
		return nil, types.Errorf(types.ErrKindUnsupported, types.ErrUnsupported, "encoded value type 0x%02x", uint8(v.kind))
	}
	return v, c.Err()
}

func newValueRef(owner *itemBase, kind ValueType, idx uint32) cell {
	target := indexTarget[kind]
	switch kind {
	case ValueMethodType:
		return ownedIndexRef[*ProtoId](owner, idx, target)
	case ValueMethodHandle:
		return ownedIndexRef[*MethodHandle](owner, idx, target)
	case ValueString:
		return ownedIndexRef[*StringId](owner, idx, target)
	case ValueTypeRef:
		return ownedIndexRef[*TypeId](owner, idx, target)
	case ValueMethod:
		return ownedIndexRef[*MethodId](owner, idx, target)
	default:
		return ownedIndexRef[*FieldId](owner, idx, target)
	}
}

// Type returns the value type.
func (v *EncodedValue) Type() ValueType { return v.kind }

// Arg returns the value_arg bits as read.
func (v *EncodedValue) Arg() uint8 { return v.arg }

// Bool returns the value of a boolean.
func (v *EncodedValue) Bool() bool { return v.kind == ValueBoolean && v.arg != 0 }

// Int returns integral values sign-extended (zero-extended for char).
func (v *EncodedValue) Int() (int64, bool) {
	switch v.kind {
	case ValueByte, ValueShort, ValueInt, ValueLong:
		var u uint64
		for i, b := range v.data {
			u |= uint64(b) << (8 * i)
		}
		shift := 64 - 8*len(v.data)
		return int64(u<<shift) >> shift, true
	case ValueChar:
		var u uint64
		for i, b := range v.data {
			u |= uint64(b) << (8 * i)
		}
		return int64(u), true
	}
	return 0, false
}

// Float returns float and double values. Their bytes are right-aligned
// to the full width, so the missing low-order bytes are zero.
func (v *EncodedValue) Float() (float64, bool) {
	var u uint64
	switch v.kind {
	case ValueFloat:
		if len(v.data) > 4 {
			return 0, false
		}
		for i, b := range v.data {
			u |= uint64(b) << (8 * (4 - len(v.data) + i))
		}
		return float64(math.Float32frombits(uint32(u))), true
	case ValueDouble:
		for i, b := range v.data {
			u |= uint64(b) << (8 * (8 - len(v.data) + i))
		}
		return math.Float64frombits(u), true
	}
	return 0, false
}

// StringRef returns the reference of a string value, or nil.
func (v *EncodedValue) StringRef() *ItemIndexReference[*StringId] {
	r, _ := v.ref.(*ItemIndexReference[*StringId])
	return r
}

// TypeRef returns the reference of a type value, or nil.
func (v *EncodedValue) TypeRef() *ItemIndexReference[*TypeId] {
	r, _ := v.ref.(*ItemIndexReference[*TypeId])
	return r
}

// FieldRef returns the reference of a field or enum value, or nil.
func (v *EncodedValue) FieldRef() *ItemIndexReference[*FieldId] {
	r, _ := v.ref.(*ItemIndexReference[*FieldId])
	return r
}

// MethodRef returns the reference of a method value, or nil.
func (v *EncodedValue) MethodRef() *ItemIndexReference[*MethodId] {
	r, _ := v.ref.(*ItemIndexReference[*MethodId])
	return r
}

// ProtoRef returns the reference of a method type value, or nil.
func (v *EncodedValue) ProtoRef() *ItemIndexReference[*ProtoId] {
	r, _ := v.ref.(*ItemIndexReference[*ProtoId])
	return r
}

// MethodHandleRef returns the reference of a method handle value, or nil.
func (v *EncodedValue) MethodHandleRef() *ItemIndexReference[*MethodHandle] {
	r, _ := v.ref.(*ItemIndexReference[*MethodHandle])
	return r
}

// Array returns the elements of an array value.
func (v *EncodedValue) Array() *EncodedArray { return v.array }

// Annotation returns the payload of an annotation value.
func (v *EncodedValue) Annotation() *EncodedAnnotation { return v.annotation }

// StringData resolves a string value to its contents.
func (v *EncodedValue) StringData() *StringData {
	r := v.StringRef()
	if r == nil {
		return nil
	}
	if s := r.Item(); s != nil {
		return s.Data().Item()
	}
	return nil
}

func (v *EncodedValue) appendTo(dst []byte) []byte {
	switch {
	case v.ref != nil:
		idx := v.ref.Raw()
		w := minWidth(idx)
		dst = append(dst, byte(w-1)<<format.ValueArgShift|byte(v.kind))
		for i := range w {
			dst = append(dst, byte(idx>>(8*i)))
		}
		return dst
	case v.kind == ValueArray:
		return v.array.appendTo(append(dst, byte(v.kind)))
	case v.kind == ValueAnnotation:
		return v.annotation.appendTo(append(dst, byte(v.kind)))
	case v.kind == ValueNull:
		return append(dst, byte(v.kind))
	default:
		dst = append(dst, v.arg<<format.ValueArgShift|byte(v.kind))
		return append(dst, v.data...)
	}
}

func (v *EncodedValue) collect(dst []cell) []cell {
	switch {
	case v.ref != nil:
		dst = append(dst, v.ref)
	case v.array != nil:
		dst = v.array.collect(dst)
	case v.annotation != nil:
		dst = v.annotation.collect(dst)
	}
	return dst
}

func minWidth(v uint32) int {
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	case v <= 0xFFFFFF:
		return 3
	}
	return 4
}

// EncodedArray is an encoded_array.
type EncodedArray struct {
	Values []*EncodedValue
}

func decodeEncodedArray(owner *itemBase, c *buf.Cursor) (*EncodedArray, error) {
	n := c.ULEB128()
	if err := c.Err(); err != nil {
		return nil, err
	}
	a := &EncodedArray{}
	for range n {
		v, err := decodeEncodedValue(owner, c)
		if err != nil {
			return nil, err
		}
		a.Values = append(a.Values, v)
	}
	return a, nil
}

func (a *EncodedArray) appendTo(dst []byte) []byte {
	dst = format.AppendULEB128(dst, uint32(len(a.Values)))
	for _, v := range a.Values {
		dst = v.appendTo(dst)
	}
	return dst
}

func (a *EncodedArray) collect(dst []cell) []cell {
	for _, v := range a.Values {
		dst = v.collect(dst)
	}
	return dst
}

// EncodedArrayItem is an encoded_array_item.
type EncodedArrayItem struct {
	itemBase
	array *EncodedArray
	cells []cell
}

func readEncodedArrayItem(_ *SectionList, b []byte, off int) (*EncodedArrayItem, int, error) {
	item := &EncodedArrayItem{}
	c := buf.NewCursor(b, off)
	arr, err := decodeEncodedArray(&item.itemBase, c)
	if err != nil {
		return nil, 0, errCorrupt("encoded_array_item", off, err)
	}
	item.array = arr
	item.cells = arr.collect(nil)
	return item, c.Pos() - off, nil
}

// Array returns the item's values.
func (e *EncodedArrayItem) Array() *EncodedArray { return e.array }

func (e *EncodedArrayItem) cacheItems() { cacheCells(e.cells...) }
func (e *EncodedArrayItem) refresh()    { refreshCells(e.cells...) }

func (e *EncodedArrayItem) byteSize() int            { return len(e.encode(nil)) }
func (e *EncodedArrayItem) encode(dst []byte) []byte { return e.array.appendTo(dst) }
