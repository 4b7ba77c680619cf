package format

// DexMagicPrefix opens every DEX file; the four bytes that follow carry the
// three-digit ASCII version and a NUL ("035\x00", "039\x00", ...).
var DexMagicPrefix = []byte{'d', 'e', 'x', '\n'}

// ============================================================================
// DEX header_item
// ============================================================================
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    8    magic "dex\n" + version + NUL
//	 0x08    4    adler32 checksum of [0x0C, EOF)
//	 0x0C   20    SHA-1 signature of [0x20, EOF)
//	 0x20    4    file_size
//	 0x24    4    header_size (0x70)
//	 0x28    4    endian_tag
//	 0x2C    4    link_size       0x30  4  link_off
//	 0x34    4    map_off
//	 0x38    4    string_ids_size 0x3C  4  string_ids_off
//	 0x40    4    type_ids_size   0x44  4  type_ids_off
//	 0x48    4    proto_ids_size  0x4C  4  proto_ids_off
//	 0x50    4    field_ids_size  0x54  4  field_ids_off
//	 0x58    4    method_ids_size 0x5C  4  method_ids_off
//	 0x60    4    class_defs_size 0x64  4  class_defs_off
//	 0x68    4    data_size       0x6C  4  data_off
const (
	DexHeaderSize = 0x70

	DexMagicOffset         = 0x00
	DexMagicSize           = 8
	DexVersionOffset       = 0x04
	DexVersionDigits       = 3
	DexChecksumOffset      = 0x08
	DexSignatureOffset     = 0x0C
	DexSignatureSize       = 20
	DexFileSizeOffset      = 0x20
	DexHeaderSizeOffset    = 0x24
	DexEndianTagOffset     = 0x28
	DexLinkSizeOffset      = 0x2C
	DexLinkOffOffset       = 0x30
	DexMapOffOffset        = 0x34
	DexStringIdsSizeOffset = 0x38
	DexStringIdsOffOffset  = 0x3C
	DexTypeIdsSizeOffset   = 0x40
	DexTypeIdsOffOffset    = 0x44
	DexProtoIdsSizeOffset  = 0x48
	DexProtoIdsOffOffset   = 0x4C
	DexFieldIdsSizeOffset  = 0x50
	DexFieldIdsOffOffset   = 0x54
	DexMethodIdsSizeOffset = 0x58
	DexMethodIdsOffOffset  = 0x5C
	DexClassDefsSizeOffset = 0x60
	DexClassDefsOffOffset  = 0x64
	DexDataSizeOffset      = 0x68
	DexDataOffOffset       = 0x6C

	// DexChecksumRegionStart is where the adler32 checksum coverage begins.
	DexChecksumRegionStart  = 0x0C
	// DexSignatureRegionStart is where the SHA-1 signature coverage begins.
	DexSignatureRegionStart = 0x20

	DexEndianConstant        = 0x12345678
	DexReverseEndianConstant = 0x78563412

	// DexNoIndex marks an unset 32-bit index field.
	DexNoIndex   = 0xFFFFFFFF
	// DexNoIndex16 marks an unset 16-bit index field.
	DexNoIndex16 = 0xFFFF

	// DexAlignment is the boundary of 4-byte aligned sections and items.
	DexAlignment     = 4
	DexAlignmentMask = DexAlignment - 1
)

// Map list item type codes.
const (
	TypeHeaderItem               = 0x0000
	TypeStringIdItem             = 0x0001
	TypeTypeIdItem               = 0x0002
	TypeProtoIdItem              = 0x0003
	TypeFieldIdItem              = 0x0004
	TypeMethodIdItem             = 0x0005
	TypeClassDefItem             = 0x0006
	TypeCallSiteIdItem           = 0x0007
	TypeMethodHandleItem         = 0x0008
	TypeMapList                  = 0x1000
	TypeTypeList                 = 0x1001
	TypeAnnotationSetRefList     = 0x1002
	TypeAnnotationSetItem        = 0x1003
	TypeClassDataItem            = 0x2000
	TypeCodeItem                 = 0x2001
	TypeStringDataItem           = 0x2002
	TypeDebugInfoItem            = 0x2003
	TypeAnnotationItem           = 0x2004
	TypeEncodedArrayItem         = 0x2005
	TypeAnnotationsDirectoryItem = 0x2006
	TypeHiddenapiClassDataItem   = 0xF000
)

// Fixed item sizes.
const (
	StringIdItemSize     = 4
	TypeIdItemSize       = 4
	ProtoIdItemSize      = 12
	FieldIdItemSize      = 8
	MethodIdItemSize     = 8
	ClassDefItemSize     = 32
	CallSiteIdItemSize   = 4
	MethodHandleItemSize = 8
	MapItemSize          = 12
	MapListHeaderSize    = 4
)

// Field offsets of the fixed-size id items.
const (
	// string_id_item
	StringIdDataOffOffset = 0x00

	// type_id_item
	TypeIdDescriptorOffset = 0x00

	// proto_id_item
	ProtoIdShortyOffset     = 0x00
	ProtoIdReturnTypeOffset = 0x04
	ProtoIdParametersOffset = 0x08

	// field_id_item
	FieldIdClassOffset = 0x00 // ushort
	FieldIdTypeOffset  = 0x02 // ushort
	FieldIdNameOffset  = 0x04

	// method_id_item
	MethodIdClassOffset = 0x00 // ushort
	MethodIdProtoOffset = 0x02 // ushort
	MethodIdNameOffset  = 0x04

	// class_def_item
	ClassDefClassOffset        = 0x00
	ClassDefAccessFlagsOffset  = 0x04
	ClassDefSuperclassOffset   = 0x08
	ClassDefInterfacesOffset   = 0x0C
	ClassDefSourceFileOffset   = 0x10
	ClassDefAnnotationsOffset  = 0x14
	ClassDefClassDataOffset    = 0x18
	ClassDefStaticValuesOffset = 0x1C

	// call_site_id_item
	CallSiteIdDataOffset = 0x00

	// method_handle_item
	MethodHandleTypeOffset   = 0x00 // ushort
	MethodHandleMemberOffset = 0x04 // ushort

	// map_item
	MapItemTypeOffset   = 0x00 // ushort
	MapItemSizeOffset   = 0x04
	MapItemOffsetOffset = 0x08
)

// Fixed parts of variable-length data items.
const (
	// type_list: uint size, ushort[size]
	TypeListHeaderSize = 4
	TypeListEntrySize  = 2

	// annotation_set_item / annotation_set_ref_list: uint size, uint[size]
	OffsetListHeaderSize = 4
	OffsetListEntrySize  = 4

	// annotations_directory_item
	AnnotationsDirectoryHeaderSize     = 16
	AnnotationsDirClassOffset          = 0x00
	AnnotationsDirFieldsSizeOffset     = 0x04
	AnnotationsDirMethodsSizeOffset    = 0x08
	AnnotationsDirParametersSizeOffset = 0x0C
	AnnotationsDirEntrySize            = 8

	// code_item
	CodeItemHeaderSize  = 16
	CodeRegistersOffset = 0x00
	CodeInsOffset       = 0x02
	CodeOutsOffset      = 0x04
	CodeTriesSizeOffset = 0x06
	CodeDebugInfoOffset = 0x08
	CodeInsnsSizeOffset = 0x0C
	CodeTryItemSize     = 8
	CodeUnitSize        = 2

	// hiddenapi_class_data_item: uint size, then size-4 bytes.
	HiddenapiSizeOffset = 0x00
)

// Encoded value types (value_type in the low five bits of the header byte).
const (
	ValueByte         = 0x00
	ValueShort        = 0x02
	ValueChar         = 0x03
	ValueInt          = 0x04
	ValueLong         = 0x06
	ValueFloat        = 0x10
	ValueDouble       = 0x11
	ValueMethodType   = 0x15
	ValueMethodHandle = 0x16
	ValueString       = 0x17
	ValueType         = 0x18
	ValueField        = 0x19
	ValueMethod       = 0x1a
	ValueEnum         = 0x1b
	ValueArray        = 0x1c
	ValueAnnotation   = 0x1d
	ValueNull         = 0x1e
	ValueBoolean      = 0x1f

	ValueTypeMask = 0x1f
	ValueArgShift = 5
)

// Annotation visibilities.
const (
	VisibilityBuild   = 0x00
	VisibilityRuntime = 0x01
	VisibilitySystem  = 0x02
)

// debug_info_item opcodes.
const (
	DbgEndSequence      = 0x00
	DbgAdvancePC        = 0x01
	DbgAdvanceLine      = 0x02
	DbgStartLocal       = 0x03
	DbgStartLocalExt    = 0x04
	DbgEndLocal         = 0x05
	DbgRestartLocal     = 0x06
	DbgSetPrologueEnd   = 0x07
	DbgSetEpilogueBegin = 0x08
	DbgSetFile          = 0x09
)
