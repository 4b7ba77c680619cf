package dex

import (
	"fmt"

	"github.com/joshuapare/apkkit/internal/format"
)

// readFixed slices a fixed-size id item out of b.
func readFixed(b []byte, off int, t SectionType) (rawItem, error) {
	n := t.ItemSize()
	if !hasBytes(b, off, n) {
		return rawItem{}, errTruncated(t.String(), off)
	}
	return newRawItem(b, off, n), nil
}

// StringId is a string_id_item.
type StringId struct {
	rawItem
	data *OffsetReference[*StringData]
}

// NewStringId returns a detached string id pointing at data.
func NewStringId(data *StringData) *StringId {
	s := &StringId{rawItem: rawItem{raw: make([]byte, format.StringIdItemSize)}}
	s.bind()
	s.data.Set(data)
	return s
}

func readStringId(_ *SectionList, b []byte, off int) (*StringId, int, error) {
	raw, err := readFixed(b, off, SectionStringId)
	if err != nil {
		return nil, 0, err
	}
	s := &StringId{rawItem: raw}
	s.bind()
	return s, len(raw.raw), nil
}

func (s *StringId) bind() {
	s.data = newOffsetRef[*StringData](&s.itemBase, &s.raw, format.StringIdDataOffOffset, SectionStringData)
}

func (s *StringId) cacheItems() { cacheCells(s.data) }
func (s *StringId) refresh()    { refreshCells(s.data) }

// Data is the reference to the string's contents.
func (s *StringId) Data() *OffsetReference[*StringData] { return s.data }

// String returns the decoded string, or "" when it cannot be resolved.
func (s *StringId) String() string {
	if d := s.data.Item(); d != nil {
		return d.String()
	}
	return ""
}

// TypeId is a type_id_item.
type TypeId struct {
	rawItem
	descriptor *ItemIndexReference[*StringId]
}

// NewTypeId returns a detached type id whose descriptor is s.
func NewTypeId(s *StringId) *TypeId {
	t := &TypeId{rawItem: rawItem{raw: make([]byte, format.TypeIdItemSize)}}
	t.bind()
	t.descriptor.Set(s)
	return t
}

func readTypeId(_ *SectionList, b []byte, off int) (*TypeId, int, error) {
	raw, err := readFixed(b, off, SectionTypeId)
	if err != nil {
		return nil, 0, err
	}
	t := &TypeId{rawItem: raw}
	t.bind()
	return t, len(raw.raw), nil
}

func (t *TypeId) bind() {
	t.descriptor = newIndexRef[*StringId](&t.itemBase, &t.raw, format.TypeIdDescriptorOffset, 4, SectionStringId)
}

func (t *TypeId) cacheItems() { cacheCells(t.descriptor) }
func (t *TypeId) refresh()    { refreshCells(t.descriptor) }

// DescriptorRef is the reference to the descriptor string.
func (t *TypeId) DescriptorRef() *ItemIndexReference[*StringId] { return t.descriptor }

// Descriptor returns the type descriptor such as "Ljava/lang/String;".
func (t *TypeId) Descriptor() string {
	if s := t.descriptor.Item(); s != nil {
		return s.String()
	}
	return ""
}

func (t *TypeId) String() string { return t.Descriptor() }

// ProtoId is a proto_id_item.
type ProtoId struct {
	rawItem
	shorty     *ItemIndexReference[*StringId]
	returnType *ItemIndexReference[*TypeId]
	parameters *OffsetReference[*TypeList]
}

func readProtoId(_ *SectionList, b []byte, off int) (*ProtoId, int, error) {
	raw, err := readFixed(b, off, SectionProtoId)
	if err != nil {
		return nil, 0, err
	}
	p := &ProtoId{rawItem: raw}
	p.shorty = newIndexRef[*StringId](&p.itemBase, &p.raw, format.ProtoIdShortyOffset, 4, SectionStringId)
	p.returnType = newIndexRef[*TypeId](&p.itemBase, &p.raw, format.ProtoIdReturnTypeOffset, 4, SectionTypeId)
	p.parameters = newOffsetRef[*TypeList](&p.itemBase, &p.raw, format.ProtoIdParametersOffset, SectionTypeList)
	return p, len(raw.raw), nil
}

func (p *ProtoId) cacheItems() { cacheCells(p.shorty, p.returnType, p.parameters) }
func (p *ProtoId) refresh()    { refreshCells(p.shorty, p.returnType, p.parameters) }

func (p *ProtoId) Shorty() *ItemIndexReference[*StringId]   { return p.shorty }
func (p *ProtoId) ReturnType() *ItemIndexReference[*TypeId] { return p.returnType }
func (p *ProtoId) Parameters() *OffsetReference[*TypeList]  { return p.parameters }

// String renders the prototype as "(params)return".
func (p *ProtoId) String() string {
	s := "("
	if tl := p.parameters.Item(); tl != nil {
		for _, t := range tl.Types() {
			if t != nil {
				s += t.Descriptor()
			}
		}
	}
	s += ")"
	if rt := p.returnType.Item(); rt != nil {
		s += rt.Descriptor()
	}
	return s
}

// FieldId is a field_id_item.
type FieldId struct {
	rawItem
	class *ItemIndexReference[*TypeId]
	typ   *ItemIndexReference[*TypeId]
	name  *ItemIndexReference[*StringId]
}

func readFieldId(_ *SectionList, b []byte, off int) (*FieldId, int, error) {
	raw, err := readFixed(b, off, SectionFieldId)
	if err != nil {
		return nil, 0, err
	}
	f := &FieldId{rawItem: raw}
	f.class = newIndexRef[*TypeId](&f.itemBase, &f.raw, format.FieldIdClassOffset, 2, SectionTypeId)
	f.typ = newIndexRef[*TypeId](&f.itemBase, &f.raw, format.FieldIdTypeOffset, 2, SectionTypeId)
	f.name = newIndexRef[*StringId](&f.itemBase, &f.raw, format.FieldIdNameOffset, 4, SectionStringId)
	return f, len(raw.raw), nil
}

func (f *FieldId) cacheItems() { cacheCells(f.class, f.typ, f.name) }
func (f *FieldId) refresh()    { refreshCells(f.class, f.typ, f.name) }

func (f *FieldId) Class() *ItemIndexReference[*TypeId]  { return f.class }
func (f *FieldId) Type() *ItemIndexReference[*TypeId]   { return f.typ }
func (f *FieldId) Name() *ItemIndexReference[*StringId] { return f.name }

func (f *FieldId) String() string {
	return fmt.Sprintf("%s->%s:%s", descriptorOf(f.class), stringOf(f.name), descriptorOf(f.typ))
}

// MethodId is a method_id_item.
type MethodId struct {
	rawItem
	class *ItemIndexReference[*TypeId]
	proto *ItemIndexReference[*ProtoId]
	name  *ItemIndexReference[*StringId]
}

func readMethodId(_ *SectionList, b []byte, off int) (*MethodId, int, error) {
	raw, err := readFixed(b, off, SectionMethodId)
	if err != nil {
		return nil, 0, err
	}
	m := &MethodId{rawItem: raw}
	m.class = newIndexRef[*TypeId](&m.itemBase, &m.raw, format.MethodIdClassOffset, 2, SectionTypeId)
	m.proto = newIndexRef[*ProtoId](&m.itemBase, &m.raw, format.MethodIdProtoOffset, 2, SectionProtoId)
	m.name = newIndexRef[*StringId](&m.itemBase, &m.raw, format.MethodIdNameOffset, 4, SectionStringId)
	return m, len(raw.raw), nil
}

func (m *MethodId) cacheItems() { cacheCells(m.class, m.proto, m.name) }
func (m *MethodId) refresh()    { refreshCells(m.class, m.proto, m.name) }

func (m *MethodId) Class() *ItemIndexReference[*TypeId]  { return m.class }
func (m *MethodId) Proto() *ItemIndexReference[*ProtoId] { return m.proto }
func (m *MethodId) Name() *ItemIndexReference[*StringId] { return m.name }

func (m *MethodId) String() string {
	proto := ""
	if p := m.proto.Item(); p != nil {
		proto = p.String()
	}
	return fmt.Sprintf("%s->%s%s", descriptorOf(m.class), stringOf(m.name), proto)
}

// ClassId is a class_def_item.
type ClassId struct {
	rawItem
	class        *ItemIndexReference[*TypeId]
	superclass   *ItemIndexReference[*TypeId]
	interfaces   *OffsetReference[*TypeList]
	sourceFile   *ItemIndexReference[*StringId]
	annotations  *OffsetReference[*AnnotationsDirectory]
	classData    *OffsetReference[*ClassData]
	staticValues *OffsetReference[*EncodedArrayItem]
}

func readClassId(_ *SectionList, b []byte, off int) (*ClassId, int, error) {
	raw, err := readFixed(b, off, SectionClassId)
	if err != nil {
		return nil, 0, err
	}
	c := &ClassId{rawItem: raw}
	o := &c.itemBase
	c.class = newIndexRef[*TypeId](o, &c.raw, format.ClassDefClassOffset, 4, SectionTypeId)
	c.superclass = newIndexRef[*TypeId](o, &c.raw, format.ClassDefSuperclassOffset, 4, SectionTypeId)
	c.interfaces = newOffsetRef[*TypeList](o, &c.raw, format.ClassDefInterfacesOffset, SectionTypeList)
	c.sourceFile = newIndexRef[*StringId](o, &c.raw, format.ClassDefSourceFileOffset, 4, SectionStringId)
	c.annotations = newOffsetRef[*AnnotationsDirectory](o, &c.raw, format.ClassDefAnnotationsOffset, SectionAnnotationsDirectory)
	c.classData = newOffsetRef[*ClassData](o, &c.raw, format.ClassDefClassDataOffset, SectionClassData)
	c.staticValues = newOffsetRef[*EncodedArrayItem](o, &c.raw, format.ClassDefStaticValuesOffset, SectionEncodedArray)
	return c, len(raw.raw), nil
}

func (c *ClassId) cells() []cell {
	return []cell{c.class, c.superclass, c.interfaces, c.sourceFile, c.annotations, c.classData, c.staticValues}
}

func (c *ClassId) cacheItems() { cacheCells(c.cells()...) }
func (c *ClassId) refresh()    { refreshCells(c.cells()...) }

// AccessFlags returns the class access flags.
func (c *ClassId) AccessFlags() uint32 { return format.ReadU32(c.raw, format.ClassDefAccessFlagsOffset) }

// SetAccessFlags replaces the class access flags.
func (c *ClassId) SetAccessFlags(v uint32) {
	format.PutU32(c.raw, format.ClassDefAccessFlagsOffset, v)
	c.markModified()
}

func (c *ClassId) Class() *ItemIndexReference[*TypeId]                  { return c.class }
func (c *ClassId) Superclass() *ItemIndexReference[*TypeId]             { return c.superclass }
func (c *ClassId) Interfaces() *OffsetReference[*TypeList]              { return c.interfaces }
func (c *ClassId) SourceFile() *ItemIndexReference[*StringId]           { return c.sourceFile }
func (c *ClassId) Annotations() *OffsetReference[*AnnotationsDirectory] { return c.annotations }
func (c *ClassId) ClassData() *OffsetReference[*ClassData]              { return c.classData }
func (c *ClassId) StaticValues() *OffsetReference[*EncodedArrayItem]    { return c.staticValues }

// Descriptor returns the class's type descriptor.
func (c *ClassId) Descriptor() string { return descriptorOf(c.class) }

func (c *ClassId) String() string { return c.Descriptor() }

// CallSiteId is a call_site_id_item.
type CallSiteId struct {
	rawItem
	data *OffsetReference[*EncodedArrayItem]
}

func readCallSiteId(_ *SectionList, b []byte, off int) (*CallSiteId, int, error) {
	raw, err := readFixed(b, off, SectionCallSiteId)
	if err != nil {
		return nil, 0, err
	}
	c := &CallSiteId{rawItem: raw}
	c.data = newOffsetRef[*EncodedArrayItem](&c.itemBase, &c.raw, format.CallSiteIdDataOffset, SectionEncodedArray)
	return c, len(raw.raw), nil
}

func (c *CallSiteId) cacheItems() { cacheCells(c.data) }
func (c *CallSiteId) refresh()    { refreshCells(c.data) }

// Data is the reference to the call site's encoded array.
func (c *CallSiteId) Data() *OffsetReference[*EncodedArrayItem] { return c.data }

func descriptorOf(r *ItemIndexReference[*TypeId]) string {
	if t := r.Item(); t != nil {
		return t.Descriptor()
	}
	return ""
}

func stringOf(r *ItemIndexReference[*StringId]) string {
	if s := r.Item(); s != nil {
		return s.String()
	}
	return ""
}
