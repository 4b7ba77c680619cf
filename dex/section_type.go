package dex

import (
	"fmt"

	"github.com/joshuapare/apkkit/internal/format"
)

// SectionType identifies a section by its map_list type code.
type SectionType uint16

const (
	SectionHeader               SectionType = format.TypeHeaderItem
	SectionStringId             SectionType = format.TypeStringIdItem
	SectionTypeId               SectionType = format.TypeTypeIdItem
	SectionProtoId              SectionType = format.TypeProtoIdItem
	SectionFieldId              SectionType = format.TypeFieldIdItem
	SectionMethodId             SectionType = format.TypeMethodIdItem
	SectionClassId              SectionType = format.TypeClassDefItem
	SectionCallSiteId           SectionType = format.TypeCallSiteIdItem
	SectionMethodHandle         SectionType = format.TypeMethodHandleItem
	SectionMapList              SectionType = format.TypeMapList
	SectionTypeList             SectionType = format.TypeTypeList
	SectionAnnotationSetRefList SectionType = format.TypeAnnotationSetRefList
	SectionAnnotationSet        SectionType = format.TypeAnnotationSetItem
	SectionClassData            SectionType = format.TypeClassDataItem
	SectionCode                 SectionType = format.TypeCodeItem
	SectionStringData           SectionType = format.TypeStringDataItem
	SectionDebugInfo            SectionType = format.TypeDebugInfoItem
	SectionAnnotation           SectionType = format.TypeAnnotationItem
	SectionEncodedArray         SectionType = format.TypeEncodedArrayItem
	SectionAnnotationsDirectory SectionType = format.TypeAnnotationsDirectoryItem
	SectionHiddenAPI            SectionType = format.TypeHiddenapiClassDataItem
)

type sectionInfo struct {
	name      string
	alignment int
	itemSize  int // fixed size of id items, 0 for variable-length items
}

var sectionInfos = map[SectionType]sectionInfo{
	SectionHeader:               {"header_item", 4, format.DexHeaderSize},
	SectionStringId:             {"string_id_item", 4, format.StringIdItemSize},
	SectionTypeId:               {"type_id_item", 4, format.TypeIdItemSize},
	SectionProtoId:              {"proto_id_item", 4, format.ProtoIdItemSize},
	SectionFieldId:              {"field_id_item", 4, format.FieldIdItemSize},
	SectionMethodId:             {"method_id_item", 4, format.MethodIdItemSize},
	SectionClassId:              {"class_def_item", 4, format.ClassDefItemSize},
	SectionCallSiteId:           {"call_site_id_item", 4, format.CallSiteIdItemSize},
	SectionMethodHandle:         {"method_handle_item", 4, format.MethodHandleItemSize},
	SectionMapList:              {"map_list", 4, 0},
	SectionTypeList:             {"type_list", 4, 0},
	SectionAnnotationSetRefList: {"annotation_set_ref_list", 4, 0},
	SectionAnnotationSet:        {"annotation_set_item", 4, 0},
	SectionClassData:            {"class_data_item", 1, 0},
	SectionCode:                 {"code_item", 4, 0},
	SectionStringData:           {"string_data_item", 1, 0},
	SectionDebugInfo:            {"debug_info_item", 1, 0},
	SectionAnnotation:           {"annotation_item", 1, 0},
	SectionEncodedArray:         {"encoded_array_item", 1, 0},
	SectionAnnotationsDirectory: {"annotations_directory_item", 4, 0},
	SectionHiddenAPI:            {"hiddenapi_class_data_item", 4, 0},
}

// Known reports whether t is a map_list type this package understands.
func (t SectionType) Known() bool {
	_, ok := sectionInfos[t]
	return ok
}

func (t SectionType) String() string {
	if info, ok := sectionInfos[t]; ok {
		return info.name
	}
	return fmt.Sprintf("section(0x%04x)", uint16(t))
}

// Alignment returns the byte boundary every item of the section starts on.
func (t SectionType) Alignment() int {
	if info, ok := sectionInfos[t]; ok {
		return info.alignment
	}
	return 1
}

// ItemSize returns the fixed item size of id sections and the header, or 0.
func (t SectionType) ItemSize() int {
	return sectionInfos[t].itemSize
}

// IsIndexed reports whether items of the section are referenced by index.
func (t SectionType) IsIndexed() bool {
	return t != SectionHeader && t < SectionMapList
}

// IsData reports whether the section lives in the data area.
func (t SectionType) IsData() bool {
	return t >= SectionMapList
}
