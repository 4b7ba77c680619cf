package dex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/apkkit/internal/buf"
	"github.com/joshuapare/apkkit/internal/format"
	"github.com/joshuapare/apkkit/pkg/types"
)

func decodeValue(t *testing.T, b []byte) *EncodedValue {
	t.Helper()
	v, err := decodeEncodedValue(&itemBase{}, buf.NewCursor(b, 0))
	require.NoError(t, err)
	return v
}

func TestEncodedValueIndexMinimalWidth(t *testing.T) {
	v := decodeValue(t, []byte{0x37, 0x05, 0x00})
	require.Equal(t, ValueString, v.Type())
	require.Equal(t, uint8(1), v.Arg())
	require.NotNil(t, v.StringRef())
	require.Nil(t, v.TypeRef())
	require.Equal(t, uint32(5), v.StringRef().Raw())
	require.Equal(t, []byte{0x17, 0x05}, v.appendTo(nil))

	wide := decodeValue(t, []byte{0x78, 0x00, 0x01, 0x00, 0x00})
	require.Equal(t, ValueTypeRef, wide.Type())
	require.Equal(t, uint32(0x100), wide.TypeRef().Raw())
	require.Equal(t, []byte{0x38, 0x00, 0x01}, wide.appendTo(nil))
}

func TestEncodedValueNumbers(t *testing.T) {
	short := decodeValue(t, []byte{0x22, 0xff, 0xff})
	n, ok := short.Int()
	require.True(t, ok)
	require.Equal(t, int64(-1), n)
	require.Equal(t, []byte{0x22, 0xff, 0xff}, short.appendTo(nil))

	char := decodeValue(t, []byte{0x23, 0xff, 0xff})
	n, ok = char.Int()
	require.True(t, ok)
	require.Equal(t, int64(0xffff), n)

	long := decodeValue(t, []byte{0x06, 0x80})
	n, ok = long.Int()
	require.True(t, ok)
	require.Equal(t, int64(-128), n)

	f := decodeValue(t, []byte{0x30, 0x80, 0x3f})
	x, ok := f.Float()
	require.True(t, ok)
	require.InDelta(t, 1.0, x, 0)
	_, ok = f.Int()
	require.False(t, ok)

	d := decodeValue(t, []byte{0x31, 0xf0, 0x3f})
	x, ok = d.Float()
	require.True(t, ok)
	require.InDelta(t, 1.0, x, 0)

	_, ok = short.Float()
	require.False(t, ok)
}

func TestEncodedValueConstants(t *testing.T) {
	tr := decodeValue(t, []byte{0x3f})
	require.Equal(t, ValueBoolean, tr.Type())
	require.True(t, tr.Bool())
	require.Equal(t, []byte{0x3f}, tr.appendTo(nil))

	fl := decodeValue(t, []byte{0x1f})
	require.False(t, fl.Bool())

	null := decodeValue(t, []byte{0x1e})
	require.Equal(t, ValueNull, null.Type())
	require.Equal(t, []byte{0x1e}, null.appendTo(nil))
}

func TestEncodedValueNested(t *testing.T) {
	// array of [int 7, annotation type 1 { name 2 = method 3 }]
	b := []byte{0x1c, 0x02, 0x04, 0x07, 0x1d, 0x01, 0x01, 0x02, 0x1a, 0x03}
	v := decodeValue(t, b)
	require.Equal(t, ValueArray, v.Type())
	require.Len(t, v.Array().Values, 2)

	ann := v.Array().Values[1].Annotation()
	require.NotNil(t, ann)
	require.Equal(t, uint32(1), ann.TypeRef().Raw())
	require.Equal(t, uint32(2), ann.Element(0).NameRef().Raw())
	require.Equal(t, uint32(3), ann.Element(0).Value.MethodRef().Raw())
	require.Nil(t, ann.Element(1))
	require.Len(t, v.collect(nil), 3)

	require.Equal(t, b, v.appendTo(nil))
}

func TestEncodedValueErrors(t *testing.T) {
	_, err := decodeEncodedValue(&itemBase{}, buf.NewCursor([]byte{0x97, 1, 2, 3, 4, 5}, 0))
	require.ErrorIs(t, err, format.ErrOverflow)

	_, err = decodeEncodedValue(&itemBase{}, buf.NewCursor([]byte{0x01}, 0))
	require.True(t, types.IsKind(err, types.ErrKindUnsupported))

	_, err = decodeEncodedValue(&itemBase{}, buf.NewCursor([]byte{0x24, 0x01}, 0))
	require.Error(t, err)

	_, err = decodeEncodedValue(&itemBase{}, buf.NewCursor(nil, 0))
	require.Error(t, err)
}

func TestMinWidth(t *testing.T) {
	for v, want := range map[uint32]int{0: 1, 0xff: 1, 0x100: 2, 0xffff: 2, 0x10000: 3, 0x1000000: 4, format.DexNoIndex: 4} {
		assert.Equal(t, want, minWidth(v), "0x%x", v)
	}
}

func TestReadDebugInfo(t *testing.T) {
	b := []byte{
		0x2a, 0x02, 0x00, 0x05, // line 42, two parameters, one unnamed
		format.DbgAdvancePC, 0x03,
		format.DbgAdvanceLine, 0x7f,
		format.DbgStartLocal, 0x01, 0x02, 0x03,
		format.DbgStartLocalExt, 0x01, 0x02, 0x03, 0x04,
		format.DbgSetFile, 0x00,
		format.DbgEndLocal, 0x01,
		0x20,
		format.DbgEndSequence,
		0xaa, 0xbb,
	}
	d, n, err := readDebugInfo(nil, b, 0)
	require.NoError(t, err)
	require.Equal(t, len(b)-2, n)
	require.Equal(t, uint32(42), d.LineStart())
	require.Equal(t, b[:n], d.Bytes())

	_, _, err = readDebugInfo(nil, b[:6], 0)
	require.ErrorIs(t, err, types.ErrCorrupt)
}

func TestReadHiddenAPIData(t *testing.T) {
	b := make([]byte, 12)
	format.PutU32(b, format.HiddenapiSizeOffset, 8)
	h, n, err := readHiddenAPIData(nil, b, 0)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Len(t, h.Bytes(), 8)

	format.PutU32(b, format.HiddenapiSizeOffset, 2)
	_, _, err = readHiddenAPIData(nil, b, 0)
	require.ErrorIs(t, err, types.ErrCorrupt)

	format.PutU32(b, format.HiddenapiSizeOffset, 64)
	_, _, err = readHiddenAPIData(nil, b, 0)
	require.ErrorIs(t, err, types.ErrCorrupt)
}

func TestReadCodeItemTruncated(t *testing.T) {
	b := make([]byte, format.CodeItemHeaderSize+2)
	format.PutU32(b, format.CodeInsnsSizeOffset, 4)
	_, _, err := readCodeItem(nil, b, 0)
	require.ErrorIs(t, err, types.ErrCorrupt)
}

func TestStringUsageString(t *testing.T) {
	assert.Equal(t, "none", StringUsage(0).String())
	assert.Equal(t, "type|shorty", (UsageType | UsageShorty).String())
	assert.Equal(t, "signature", UsageSignatureType.String())
}

func TestValidMagic(t *testing.T) {
	assert.True(t, validMagic([]byte("dex\n035\x00")))
	assert.True(t, validMagic([]byte("dex\n039\x00")))
	assert.False(t, validMagic([]byte("dex\n000\x00")))
	assert.False(t, validMagic([]byte("dex\n03a\x00")))
	assert.Equal(t, 38, parseVersion([]byte("dex\n038\x00")))
	assert.Equal(t, 0, parseVersion([]byte("dex\n")))
}

func TestSectionTypeInfo(t *testing.T) {
	assert.Equal(t, 4, SectionCode.Alignment())
	assert.Equal(t, 1, SectionStringData.Alignment())
	assert.Equal(t, format.ClassDefItemSize, SectionClassId.ItemSize())
	assert.True(t, SectionClassId.IsIndexed())
	assert.False(t, SectionCode.IsIndexed())
	assert.True(t, SectionMapList.IsData())
	assert.False(t, SectionMethodHandle.IsData())
	assert.False(t, SectionType(0x7777).Known())
	assert.Equal(t, "section(0x7777)", SectionType(0x7777).String())
}
