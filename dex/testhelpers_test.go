package dex

import (
	"crypto/sha1"
	"hash/adler32"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/apkkit/internal/format"
)

// Fixture indices. The fixture declares two classes:
//
//	public class com.example.Foo {
//	    static int count = 7;
//	    @Signature({"Ljava/util/List<", "Ljava/lang/String;", ">;"}) List items;
//	    Foo() { super(); }
//	    public void run(int) { ... }   // has a try block and debug info
//	}
//	public class com.example.Bar extends Foo implements java.util.List {}
var fixtureStrings = []string{
	"<init>",                        // 0
	"Ljava/lang/Object;",            // 1
	"Lcom/example/Foo;",             // 2
	"Ldalvik/annotation/Signature;", // 3
	"V",                             // 4
	"I",                             // 5
	"Foo.java",                      // 6
	"count",                         // 7
	"run",                           // 8
	"value",                         // 9
	"Ljava/util/List<",              // 10
	"Ljava/lang/String;",            // 11
	">;",                            // 12
	"VI",                            // 13
	"Ljava/util/List;",              // 14
	"Lcom/example/Bar;",             // 15
	"items",                         // 16
}

const (
	typeObject = iota
	typeFoo
	typeSignature
	typeVoid
	typeInt
	typeList
	typeBar
)

// fixtureTypes maps type index to descriptor string index.
var fixtureTypes = []uint32{1, 2, 3, 4, 5, 14, 15}

var (
	initInsns = []uint16{0x1070, 0x0000, 0x0000, 0x000e}
	runInsns  = []uint16{0x0012, 0x000e, 0x0000}
)

// fixtureItem builds one item given the offsets of the items laid out
// before it.
type fixtureItem func(o fixtureOffsets) []byte

type fixtureOffsets map[SectionType][]int

func (o fixtureOffsets) at(t SectionType, i int) uint32 { return uint32(o[t][i]) }

type fixtureSection struct {
	typ   SectionType
	items []fixtureItem
}

// assembleDex lays sections out after the header in the given order, id
// sections first, appends the map list and stamps both checksums.
func assembleDex(t *testing.T, sections []fixtureSection) []byte {
	t.Helper()
	offs := fixtureOffsets{SectionHeader: {0}}
	bodies := map[SectionType][][]byte{}

	pos := format.DexHeaderSize
	var ids, data []fixtureSection
	for _, s := range sections {
		if s.typ.IsData() {
			data = append(data, s)
		} else {
			ids = append(ids, s)
		}
	}
	for _, s := range ids {
		pos = format.Align4(pos)
		for range s.items {
			offs[s.typ] = append(offs[s.typ], pos)
			pos += s.typ.ItemSize()
		}
	}
	dataOff := 0
	for _, s := range data {
		pos = format.AlignTo(pos, s.typ.Alignment())
		if dataOff == 0 {
			dataOff = pos
		}
		for _, item := range s.items {
			pos = format.AlignTo(pos, s.typ.Alignment())
			offs[s.typ] = append(offs[s.typ], pos)
			body := item(offs)
			bodies[s.typ] = append(bodies[s.typ], body)
			pos += len(body)
		}
	}
	pos = format.Align4(pos)
	mapOff := pos
	entries := 2 + len(sections)
	fileSize := mapOff + format.MapListHeaderSize + entries*format.MapItemSize

	out := make([]byte, fileSize)
	for _, s := range ids {
		for i, item := range s.items {
			body := item(offs)
			require.Len(t, body, s.typ.ItemSize())
			copy(out[offs[s.typ][i]:], body)
		}
	}
	for _, s := range data {
		for i, body := range bodies[s.typ] {
			copy(out[offs[s.typ][i]:], body)
		}
	}

	m := out[mapOff:]
	format.PutU32(m, 0, uint32(entries))
	putEntry := func(i int, typ SectionType, count, off int) {
		at := format.MapListHeaderSize + i*format.MapItemSize
		format.PutU16(m, at, uint16(typ))
		format.PutU32(m, at+4, uint32(count))
		format.PutU32(m, at+8, uint32(off))
	}
	putEntry(0, SectionHeader, 1, 0)
	for i, s := range append(ids, data...) {
		putEntry(i+1, s.typ, len(s.items), offs[s.typ][0])
	}
	putEntry(entries-1, SectionMapList, 1, mapOff)

	copy(out, "dex\n035\x00")
	format.PutU32(out, format.DexFileSizeOffset, uint32(fileSize))
	format.PutU32(out, format.DexHeaderSizeOffset, format.DexHeaderSize)
	format.PutU32(out, format.DexEndianTagOffset, format.DexEndianConstant)
	format.PutU32(out, format.DexMapOffOffset, uint32(mapOff))
	for typ, at := range headerIdFields {
		if len(offs[typ]) > 0 {
			format.PutU32(out, at, uint32(len(offs[typ])))
			format.PutU32(out, at+4, uint32(offs[typ][0]))
		}
	}
	if dataOff != 0 {
		format.PutU32(out, format.DexDataSizeOffset, uint32(fileSize-dataOff))
		format.PutU32(out, format.DexDataOffOffset, uint32(dataOff))
	}

	sig := sha1.Sum(out[format.DexSignatureRegionStart:])
	copy(out[format.DexSignatureOffset:], sig[:])
	format.PutU32(out, format.DexChecksumOffset, adler32.Checksum(out[format.DexChecksumRegionStart:]))
	return out
}

func fixed(fields ...uint32) fixtureItem {
	return func(fixtureOffsets) []byte {
		b := make([]byte, 4*len(fields))
		for i, v := range fields {
			format.PutU32(b, 4*i, v)
		}
		return b
	}
}

func halves(lo, hi uint16, rest ...uint32) fixtureItem {
	return func(fixtureOffsets) []byte {
		b := make([]byte, 4+4*len(rest))
		format.PutU16(b, 0, lo)
		format.PutU16(b, 2, hi)
		for i, v := range rest {
			format.PutU32(b, 4+4*i, v)
		}
		return b
	}
}

func codeItem(regs, ins, outs uint16, insns []uint16, debug func(fixtureOffsets) uint32, tries []byte) fixtureItem {
	return func(o fixtureOffsets) []byte {
		b := make([]byte, format.CodeItemHeaderSize)
		format.PutU16(b, format.CodeRegistersOffset, regs)
		format.PutU16(b, format.CodeInsOffset, ins)
		format.PutU16(b, format.CodeOutsOffset, outs)
		if tries != nil {
			format.PutU16(b, format.CodeTriesSizeOffset, 1)
		}
		if debug != nil {
			format.PutU32(b, format.CodeDebugInfoOffset, debug(o))
		}
		format.PutU32(b, format.CodeInsnsSizeOffset, uint32(len(insns)))
		for _, u := range insns {
			b = append(b, byte(u), byte(u>>8))
		}
		if tries != nil {
			if len(insns)%2 == 1 {
				b = append(b, 0, 0)
			}
			b = append(b, tries...)
		}
		return b
	}
}

func fixtureSections() []fixtureSection {
	var stringIds, stringData []fixtureItem
	for i, s := range fixtureStrings {
		stringIds = append(stringIds, func(o fixtureOffsets) []byte {
			return fixed(o.at(SectionStringData, i))(o)
		})
		stringData = append(stringData, func(fixtureOffsets) []byte {
			b := format.AppendULEB128(nil, uint32(format.UTF16Len(s)))
			return format.AppendMUTF8(b, s)
		})
	}
	var typeIds []fixtureItem
	for _, s := range fixtureTypes {
		typeIds = append(typeIds, fixed(s))
	}

	mkTypeList := func(types ...uint16) fixtureItem {
		return func(fixtureOffsets) []byte {
			b := make([]byte, 4, 4+2*len(types))
			format.PutU32(b, 0, uint32(len(types)))
			for _, t := range types {
				b = append(b, byte(t), byte(t>>8))
			}
			return b
		}
	}

	// try: start 0, one code unit, handler at offset 1 of the list;
	// handlers: one list holding only a catch-all at address 2.
	tries := []byte{0, 0, 0, 0, 1, 0, 1, 0, 0x01, 0x00, 0x02}

	return []fixtureSection{
		{SectionStringId, stringIds},
		{SectionTypeId, typeIds},
		{SectionProtoId, []fixtureItem{
			fixed(4, typeVoid, 0),
			func(o fixtureOffsets) []byte { return fixed(13, typeVoid, o.at(SectionTypeList, 0))(o) },
		}},
		{SectionFieldId, []fixtureItem{
			halves(typeFoo, typeInt, 7),
			halves(typeFoo, typeList, 16),
		}},
		{SectionMethodId, []fixtureItem{
			halves(typeObject, 0, 0),
			halves(typeFoo, 0, 0),
			halves(typeFoo, 1, 8),
		}},
		{SectionClassId, []fixtureItem{
			func(o fixtureOffsets) []byte {
				return fixed(typeFoo, 1, typeObject, 0, 6,
					o.at(SectionAnnotationsDirectory, 0),
					o.at(SectionClassData, 0),
					o.at(SectionEncodedArray, 0))(o)
			},
			func(o fixtureOffsets) []byte {
				return fixed(typeBar, 1, typeFoo, o.at(SectionTypeList, 1), format.DexNoIndex, 0, 0, 0)(o)
			},
		}},
		{SectionMethodHandle, []fixtureItem{halves(1, 0, 2)}},

		{SectionStringData, stringData},
		{SectionTypeList, []fixtureItem{mkTypeList(typeInt), mkTypeList(typeList)}},
		{SectionAnnotation, []fixtureItem{func(fixtureOffsets) []byte {
			return []byte{format.VisibilitySystem, typeSignature, 1, 9, format.ValueArray, 3,
				format.ValueString, 10, format.ValueString, 11, format.ValueString, 12}
		}}},
		{SectionAnnotationSet, []fixtureItem{func(o fixtureOffsets) []byte {
			return fixed(1, o.at(SectionAnnotation, 0))(o)
		}}},
		{SectionAnnotationsDirectory, []fixtureItem{func(o fixtureOffsets) []byte {
			return fixed(0, 1, 0, 0, 1, o.at(SectionAnnotationSet, 0))(o)
		}}},
		{SectionDebugInfo, []fixtureItem{func(fixtureOffsets) []byte {
			return []byte{10, 1, 8, format.DbgSetPrologueEnd, 0x0e, format.DbgEndSequence}
		}}},
		{SectionCode, []fixtureItem{
			codeItem(1, 1, 1, initInsns, nil, nil),
			codeItem(2, 2, 0, runInsns, func(o fixtureOffsets) uint32 { return o.at(SectionDebugInfo, 0) }, tries),
		}},
		{SectionClassData, []fixtureItem{func(o fixtureOffsets) []byte {
			b := []byte{1, 1, 1, 1}
			b = append(b, 0, 8) // static count
			b = append(b, 1, 0) // instance items
			b = append(b, 1)    // direct <init>
			b = format.AppendULEB128(b, 0x10001)
			b = format.AppendULEB128(b, o.at(SectionCode, 0))
			b = append(b, 2, 1) // virtual run
			return format.AppendULEB128(b, o.at(SectionCode, 1))
		}}},
		{SectionEncodedArray, []fixtureItem{func(fixtureOffsets) []byte {
			return []byte{1, format.ValueInt, 7}
		}}},
	}
}

// fixtureDex returns the bytes of the two-class fixture.
func fixtureDex(t *testing.T) []byte {
	t.Helper()
	return assembleDex(t, fixtureSections())
}

func readFixture(t *testing.T) (*DexFile, []byte) {
	t.Helper()
	b := fixtureDex(t)
	f, err := Read(b, &ReadOptions{VerifyChecksum: true})
	require.NoError(t, err)
	return f, b
}

func mustRefresh(t *testing.T, f *DexFile) *DexFile {
	t.Helper()
	require.NoError(t, f.Refresh())
	out, err := f.Bytes()
	require.NoError(t, err)
	g, err := Read(out, &ReadOptions{VerifyChecksum: true})
	require.NoError(t, err)
	return g
}

func strs(f *DexFile) []string {
	var out []string
	for _, s := range f.StringIds().Items() {
		out = append(out, s.String())
	}
	return out
}
