package dex

import (
	"strings"

	"github.com/joshuapare/apkkit/internal/buf"
	"github.com/joshuapare/apkkit/internal/format"
)

// Annotation visibilities.
const (
	VisibilityBuild   = format.VisibilityBuild
	VisibilityRuntime = format.VisibilityRuntime
	VisibilitySystem  = format.VisibilitySystem
)

// AnnotationElement is one name/value pair of an encoded_annotation.
type AnnotationElement struct {
	name  *ItemIndexReference[*StringId]
	Value *EncodedValue
}

// NameRef is the reference to the element name.
func (e *AnnotationElement) NameRef() *ItemIndexReference[*StringId] { return e.name }

// Name returns the element name.
func (e *AnnotationElement) Name() string { return stringOf(e.name) }

// EncodedAnnotation is an encoded_annotation.
type EncodedAnnotation struct {
	typ      *ItemIndexReference[*TypeId]
	Elements []*AnnotationElement
}

func decodeEncodedAnnotation(owner *itemBase, c *buf.Cursor) (*EncodedAnnotation, error) {
	a := &EncodedAnnotation{typ: ownedIndexRef[*TypeId](owner, c.ULEB128(), SectionTypeId)}
	n := c.ULEB128()
	if err := c.Err(); err != nil {
		return nil, err
	}
	for range n {
		name := c.ULEB128()
		if err := c.Err(); err != nil {
			return nil, err
		}
		v, err := decodeEncodedValue(owner, c)
		if err != nil {
			return nil, err
		}
		a.Elements = append(a.Elements, &AnnotationElement{
			name:  ownedIndexRef[*StringId](owner, name, SectionStringId),
			Value: v,
		})
	}
	return a, nil
}

// TypeRef is the reference to the annotation type.
func (a *EncodedAnnotation) TypeRef() *ItemIndexReference[*TypeId] { return a.typ }

// Element returns the i-th element or nil.
func (a *EncodedAnnotation) Element(i int) *AnnotationElement {
	if i < 0 || i >= len(a.Elements) {
		return nil
	}
	return a.Elements[i]
}

// Key identifies the annotation by type and element names, for example
// "Ldalvik/annotation/Signature;->value()".
func (a *EncodedAnnotation) Key() string {
	var sb strings.Builder
	sb.WriteString(descriptorOf(a.typ))
	sb.WriteString("->")
	for i, e := range a.Elements {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(e.Name())
		sb.WriteString("()")
	}
	return sb.String()
}

func (a *EncodedAnnotation) appendTo(dst []byte) []byte {
	dst = format.AppendULEB128(dst, a.typ.Raw())
	dst = format.AppendULEB128(dst, uint32(len(a.Elements)))
	for _, e := range a.Elements {
		dst = format.AppendULEB128(dst, e.name.Raw())
		dst = e.Value.appendTo(dst)
	}
	return dst
}

func (a *EncodedAnnotation) collect(dst []cell) []cell {
	dst = append(dst, a.typ)
	for _, e := range a.Elements {
		dst = append(dst, e.name)
		dst = e.Value.collect(dst)
	}
	return dst
}

// AnnotationItem is an annotation_item.
type AnnotationItem struct {
	itemBase
	visibility uint8
	annotation *EncodedAnnotation
	cells      []cell
}

func readAnnotationItem(_ *SectionList, b []byte, off int) (*AnnotationItem, int, error) {
	item := &AnnotationItem{}
	c := buf.NewCursor(b, off)
	item.visibility = c.U8()
	ann, err := decodeEncodedAnnotation(&item.itemBase, c)
	if err != nil {
		return nil, 0, errCorrupt("annotation_item", off, err)
	}
	item.annotation = ann
	item.cells = ann.collect(nil)
	return item, c.Pos() - off, nil
}

// Visibility returns the annotation visibility.
func (a *AnnotationItem) Visibility() uint8 { return a.visibility }

// Annotation returns the encoded annotation.
func (a *AnnotationItem) Annotation() *EncodedAnnotation { return a.annotation }

// Element returns the i-th element or nil.
func (a *AnnotationItem) Element(i int) *AnnotationElement { return a.annotation.Element(i) }

// Key identifies the annotation; see EncodedAnnotation.Key.
func (a *AnnotationItem) Key() string { return a.annotation.Key() }

func (a *AnnotationItem) cacheItems() { cacheCells(a.cells...) }
func (a *AnnotationItem) refresh()    { refreshCells(a.cells...) }

func (a *AnnotationItem) byteSize() int { return len(a.encode(nil)) }

func (a *AnnotationItem) encode(dst []byte) []byte {
	return a.annotation.appendTo(append(dst, a.visibility))
}

// MemberAnnotation associates a field or method with its annotation set.
type MemberAnnotation[T Item] struct {
	Member      *ItemIndexReference[T]
	Annotations *OffsetReference[*AnnotationSet]
}

// ParameterAnnotation associates a method with its parameter annotations.
type ParameterAnnotation struct {
	Method      *ItemIndexReference[*MethodId]
	Annotations *OffsetReference[*AnnotationSetRefList]
}

// AnnotationsDirectory is an annotations_directory_item.
type AnnotationsDirectory struct {
	rawItem
	class      *OffsetReference[*AnnotationSet]
	fields     []MemberAnnotation[*FieldId]
	methods    []MemberAnnotation[*MethodId]
	parameters []ParameterAnnotation
}

func readAnnotationsDirectory(_ *SectionList, b []byte, off int) (*AnnotationsDirectory, int, error) {
	const what = "annotations_directory_item"
	if !hasBytes(b, off, format.AnnotationsDirectoryHeaderSize) {
		return nil, 0, errTruncated(what, off)
	}
	nf := int(format.ReadU32(b, off+format.AnnotationsDirFieldsSizeOffset))
	nm := int(format.ReadU32(b, off+format.AnnotationsDirMethodsSizeOffset))
	np := int(format.ReadU32(b, off+format.AnnotationsDirParametersSizeOffset))
	total, ok := buf.AddOverflowSafe(nf, nm)
	if ok {
		total, ok = buf.AddOverflowSafe(total, np)
	}
	if !ok {
		return nil, 0, errTruncated(what, off)
	}
	end, err := buf.CheckListBounds(len(b), off+format.AnnotationsDirectoryHeaderSize, total, format.AnnotationsDirEntrySize)
	if err != nil {
		return nil, 0, errCorrupt(what, off, err)
	}

	d := &AnnotationsDirectory{rawItem: newRawItem(b, off, end-off)}
	o := &d.itemBase
	d.class = newOffsetRef[*AnnotationSet](o, &d.raw, format.AnnotationsDirClassOffset, SectionAnnotationSet)
	at := format.AnnotationsDirectoryHeaderSize
	for range nf {
		d.fields = append(d.fields, MemberAnnotation[*FieldId]{
			Member:      newIndexRef[*FieldId](o, &d.raw, at, 4, SectionFieldId),
			Annotations: newOffsetRef[*AnnotationSet](o, &d.raw, at+4, SectionAnnotationSet),
		})
		at += format.AnnotationsDirEntrySize
	}
	for range nm {
		d.methods = append(d.methods, MemberAnnotation[*MethodId]{
			Member:      newIndexRef[*MethodId](o, &d.raw, at, 4, SectionMethodId),
			Annotations: newOffsetRef[*AnnotationSet](o, &d.raw, at+4, SectionAnnotationSet),
		})
		at += format.AnnotationsDirEntrySize
	}
	for range np {
		d.parameters = append(d.parameters, ParameterAnnotation{
			Method:      newIndexRef[*MethodId](o, &d.raw, at, 4, SectionMethodId),
			Annotations: newOffsetRef[*AnnotationSetRefList](o, &d.raw, at+4, SectionAnnotationSetRefList),
		})
		at += format.AnnotationsDirEntrySize
	}
	return d, end - off, nil
}

func (d *AnnotationsDirectory) cells() []cell {
	out := []cell{d.class}
	for _, f := range d.fields {
		out = append(out, f.Member, f.Annotations)
	}
	for _, m := range d.methods {
		out = append(out, m.Member, m.Annotations)
	}
	for _, p := range d.parameters {
		out = append(out, p.Method, p.Annotations)
	}
	return out
}

func (d *AnnotationsDirectory) cacheItems() { cacheCells(d.cells()...) }
func (d *AnnotationsDirectory) refresh()    { refreshCells(d.cells()...) }

// ClassAnnotations is the reference to the class-level annotation set.
func (d *AnnotationsDirectory) ClassAnnotations() *OffsetReference[*AnnotationSet] { return d.class }

func (d *AnnotationsDirectory) Fields() []MemberAnnotation[*FieldId]   { return d.fields }
func (d *AnnotationsDirectory) Methods() []MemberAnnotation[*MethodId] { return d.methods }
func (d *AnnotationsDirectory) Parameters() []ParameterAnnotation      { return d.parameters }
