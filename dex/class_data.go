package dex

import (
	"github.com/joshuapare/apkkit/internal/buf"
	"github.com/joshuapare/apkkit/internal/format"
)

// EncodedField is one encoded_field of a class_data_item.
type EncodedField struct {
	field       *ItemIndexReference[*FieldId]
	AccessFlags uint32
}

// FieldRef is the reference to the field id.
func (f *EncodedField) FieldRef() *ItemIndexReference[*FieldId] { return f.field }

// Field resolves the field id.
func (f *EncodedField) Field() *FieldId { return f.field.Item() }

// EncodedMethod is one encoded_method of a class_data_item.
type EncodedMethod struct {
	method      *ItemIndexReference[*MethodId]
	AccessFlags uint32
	code        *OffsetReference[*CodeItem]
}

// MethodRef is the reference to the method id.
func (m *EncodedMethod) MethodRef() *ItemIndexReference[*MethodId] { return m.method }

// Method resolves the method id.
func (m *EncodedMethod) Method() *MethodId { return m.method.Item() }

// CodeRef is the reference to the method body; unset for abstract and
// native methods.
func (m *EncodedMethod) CodeRef() *OffsetReference[*CodeItem] { return m.code }

// Code resolves the method body.
func (m *EncodedMethod) Code() *CodeItem { return m.code.Item() }

// ClassData is a class_data_item. Member indices are stored as running
// differences on disk and held as absolute indices here.
type ClassData struct {
	itemBase
	StaticFields   []*EncodedField
	InstanceFields []*EncodedField
	DirectMethods  []*EncodedMethod
	VirtualMethods []*EncodedMethod
}

func readClassData(_ *SectionList, b []byte, off int) (*ClassData, int, error) {
	d := &ClassData{}
	c := buf.NewCursor(b, off)
	ns, ni, nd, nv := c.ULEB128(), c.ULEB128(), c.ULEB128(), c.ULEB128()
	d.StaticFields = d.readFields(c, ns)
	d.InstanceFields = d.readFields(c, ni)
	d.DirectMethods = d.readMethods(c, nd)
	d.VirtualMethods = d.readMethods(c, nv)
	if err := c.Err(); err != nil {
		return nil, 0, errCorrupt("class_data_item", off, err)
	}
	return d, c.Pos() - off, nil
}

func (d *ClassData) readFields(c *buf.Cursor, n uint32) []*EncodedField {
	var out []*EncodedField
	var idx uint32
	for i := uint32(0); i < n && c.Err() == nil; i++ {
		idx += c.ULEB128()
		out = append(out, &EncodedField{
			field:       ownedIndexRef[*FieldId](&d.itemBase, idx, SectionFieldId),
			AccessFlags: c.ULEB128(),
		})
	}
	return out
}

func (d *ClassData) readMethods(c *buf.Cursor, n uint32) []*EncodedMethod {
	var out []*EncodedMethod
	var idx uint32
	for i := uint32(0); i < n && c.Err() == nil; i++ {
		idx += c.ULEB128()
		flags := c.ULEB128()
		out = append(out, &EncodedMethod{
			method:      ownedIndexRef[*MethodId](&d.itemBase, idx, SectionMethodId),
			AccessFlags: flags,
			code:        ownedOffsetRef[*CodeItem](&d.itemBase, c.ULEB128(), SectionCode),
		})
	}
	return out
}

func (d *ClassData) cells() []cell {
	var out []cell
	for _, list := range [][]*EncodedField{d.StaticFields, d.InstanceFields} {
		for _, f := range list {
			out = append(out, f.field)
		}
	}
	for _, list := range [][]*EncodedMethod{d.DirectMethods, d.VirtualMethods} {
		for _, m := range list {
			out = append(out, m.method, m.code)
		}
	}
	return out
}

func (d *ClassData) cacheItems() { cacheCells(d.cells()...) }
func (d *ClassData) refresh()    { refreshCells(d.cells()...) }

// Methods returns direct methods followed by virtual methods.
func (d *ClassData) Methods() []*EncodedMethod {
	out := make([]*EncodedMethod, 0, len(d.DirectMethods)+len(d.VirtualMethods))
	out = append(out, d.DirectMethods...)
	return append(out, d.VirtualMethods...)
}

// Fields returns static fields followed by instance fields.
func (d *ClassData) Fields() []*EncodedField {
	out := make([]*EncodedField, 0, len(d.StaticFields)+len(d.InstanceFields))
	out = append(out, d.StaticFields...)
	return append(out, d.InstanceFields...)
}

func (d *ClassData) byteSize() int { return len(d.encode(nil)) }

func (d *ClassData) encode(dst []byte) []byte {
	for _, n := range []int{len(d.StaticFields), len(d.InstanceFields), len(d.DirectMethods), len(d.VirtualMethods)} {
		dst = format.AppendULEB128(dst, uint32(n))
	}
	for _, list := range [][]*EncodedField{d.StaticFields, d.InstanceFields} {
		var prev uint32
		for _, f := range list {
			idx := f.field.Raw()
			dst = format.AppendULEB128(dst, idx-prev)
			dst = format.AppendULEB128(dst, f.AccessFlags)
			prev = idx
		}
	}
	for _, list := range [][]*EncodedMethod{d.DirectMethods, d.VirtualMethods} {
		var prev uint32
		for _, m := range list {
			idx := m.method.Raw()
			dst = format.AppendULEB128(dst, idx-prev)
			dst = format.AppendULEB128(dst, m.AccessFlags)
			dst = format.AppendULEB128(dst, m.code.Raw())
			prev = idx
		}
	}
	return dst
}
