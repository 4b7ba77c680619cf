package dex

import (
	"strings"

	"github.com/joshuapare/apkkit/internal/format"
)

// StringUsage records the roles a string plays in the file.
type StringUsage uint16

const (
	UsageType StringUsage = 1 << iota
	UsageField
	UsageMethod
	UsageShorty
	UsageSourceFile
	UsageEncodedValue
	UsageSignatureType
)

var usageNames = []string{"type", "field", "method", "shorty", "source", "value", "signature"}

func (u StringUsage) String() string {
	if u == 0 {
		return "none"
	}
	var parts []string
	for i, name := range usageNames {
		if u&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// StringData is a string_data_item.
type StringData struct {
	itemBase
	value string
	usage StringUsage
}

// NewStringData returns a detached string.
func NewStringData(s string) *StringData {
	return &StringData{value: s}
}

func readStringData(_ *SectionList, b []byte, off int) (*StringData, int, error) {
	_, n, err := format.ReadULEB128(b, off)
	if err != nil {
		return nil, 0, errCorrupt("string_data_item", off, err)
	}
	s, m, err := format.DecodeMUTF8(b, off+n)
	if err != nil {
		return nil, 0, errCorrupt("string_data_item", off, err)
	}
	return &StringData{value: s}, n + m, nil
}

func (s *StringData) String() string { return s.value }

// SetString replaces the string's contents.
func (s *StringData) SetString(v string) {
	if v == s.value {
		return
	}
	s.value = v
	s.markModified()
}

// Usage returns the recorded usage flags.
func (s *StringData) Usage() StringUsage { return s.usage }

// AddUsage records an additional role for the string.
func (s *StringData) AddUsage(u StringUsage) { s.usage |= u }

// HasUsage reports whether every flag in u is recorded.
func (s *StringData) HasUsage(u StringUsage) bool { return s.usage&u == u }

func (s *StringData) byteSize() int {
	return format.ULEB128Len(uint32(format.UTF16Len(s.value))) + len(format.AppendMUTF8(nil, s.value))
}

func (s *StringData) encode(dst []byte) []byte {
	dst = format.AppendULEB128(dst, uint32(format.UTF16Len(s.value)))
	return format.AppendMUTF8(dst, s.value)
}
