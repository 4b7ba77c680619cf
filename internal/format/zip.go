// Package format houses low-level layout constants and decoders for the ZIP
// container and the DEX executable format. The goal is to keep the parsing
// focused, allocation-free where possible, and independent from the public API
// so higher-level packages can orchestrate the data in a more ergonomic form.
package format

// ============================================================================
// ZIP End of Central Directory Record
// ============================================================================
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    4    Signature 0x06054b50 ("PK\x05\x06")
//	 0x04    2    Number of this disk
//	 0x06    2    Disk where the central directory starts
//	 0x08    2    Number of central directory records on this disk
//	 0x0A    2    Total number of central directory records
//	 0x0C    4    Size of the central directory (bytes)
//	 0x10    4    Offset of the start of the central directory
//	 0x14    2    Comment length (n)
//	 0x16    n    Comment
const (
	EndRecordSignature = 0x06054b50
	EndRecordSize      = 0x16

	EndDiskNumberOffset    = 0x04
	EndCDStartDiskOffset   = 0x06
	EndEntriesOnDiskOffset = 0x08
	EndTotalEntriesOffset  = 0x0A
	EndCDLengthOffset      = 0x0C
	EndCDOffsetOffset      = 0x10
	EndCommentLengthOffset = 0x14

	// MaxCommentSize is the largest comment the 16-bit length field can express.
	MaxCommentSize = 0xFFFF

	// Saturated values signal that the ZIP64 end record holds the real value.
	Zip64Saturated16 = 0xFFFF
	Zip64Saturated32 = 0xFFFFFFFF
)

// ============================================================================
// ZIP64 End of Central Directory Locator / Record
// ============================================================================
//
// Locator (immediately precedes the end record):
//
//	 0x00    4    Signature 0x07064b50
//	 0x04    4    Disk holding the ZIP64 end record
//	 0x08    8    Offset of the ZIP64 end record
//	 0x10    4    Total number of disks
//
// Record:
//
//	 0x00    4    Signature 0x06064b50
//	 0x04    8    Size of the remaining record (total - 12)
//	 0x0C    2    Version made by
//	 0x0E    2    Version needed
//	 0x10    4    Number of this disk
//	 0x14    4    Disk where the central directory starts
//	 0x18    8    Entries on this disk
//	 0x20    8    Total entries
//	 0x28    8    Size of the central directory
//	 0x30    8    Offset of the central directory
const (
	Zip64LocatorSignature    = 0x07064b50
	Zip64LocatorSize         = 0x14
	Zip64LocatorRecordOffset = 0x08

	Zip64EndSignature        = 0x06064b50
	Zip64EndSize             = 0x38
	Zip64EndRecordSizeOffset = 0x04
	Zip64EndLeadingBytes     = 0x0C // signature + size field, excluded from the size field's value
	Zip64EndEntriesOffset    = 0x20
	Zip64EndCDLengthOffset   = 0x28
	Zip64EndCDOffsetOffset   = 0x30

	// Zip64ExtraID is the extra-field tag carrying 64-bit sizes and offsets.
	Zip64ExtraID    = 0x0001
	// ExtraHeaderSize is the tag + length prefix of every extra-field block.
	ExtraHeaderSize = 4
)

// ============================================================================
// ZIP Central Directory File Header
// ============================================================================
//
//	 0x00    4    Signature 0x02014b50 ("PK\x01\x02")
//	 0x04    2    Version made by
//	 0x06    2    Version needed to extract
//	 0x08    2    General purpose bit flag
//	 0x0A    2    Compression method
//	 0x0C    2    Last modification time (DOS)
//	 0x0E    2    Last modification date (DOS)
//	 0x10    4    CRC-32
//	 0x14    4    Compressed size
//	 0x18    4    Uncompressed size
//	 0x1C    2    File name length (n)
//	 0x1E    2    Extra field length (m)
//	 0x20    2    File comment length (k)
//	 0x22    2    Disk number where the file starts
//	 0x24    2    Internal file attributes
//	 0x26    4    External file attributes
//	 0x2A    4    Relative offset of the local file header
//	 0x2E    n+m+k  name, extra, comment
const (
	CentralSignature  = 0x02014b50
	CentralHeaderSize = 0x2E

	CentralVersionMadeByOffset = 0x04
	CentralVersionNeededOffset = 0x06
	CentralFlagsOffset         = 0x08
	CentralMethodOffset        = 0x0A
	CentralModTimeOffset       = 0x0C
	CentralModDateOffset       = 0x0E
	CentralCRC32Offset         = 0x10
	CentralCompressedOffset    = 0x14
	CentralUncompressedOffset  = 0x18
	CentralNameLengthOffset    = 0x1C
	CentralExtraLengthOffset   = 0x1E
	CentralCommentLengthOffset = 0x20
	CentralDiskStartOffset     = 0x22
	CentralInternalAttrOffset  = 0x24
	CentralExternalAttrOffset  = 0x26
	CentralLocalOffsetOffset   = 0x2A
)

// ============================================================================
// ZIP Local File Header
// ============================================================================
//
//	 0x00    4    Signature 0x04034b50 ("PK\x03\x04")
//	 0x04    2    Version needed to extract
//	 0x06    2    General purpose bit flag
//	 0x08    2    Compression method
//	 0x0A    2    Last modification time
//	 0x0C    2    Last modification date
//	 0x0E    4    CRC-32
//	 0x12    4    Compressed size
//	 0x16    4    Uncompressed size
//	 0x1A    2    File name length (n)
//	 0x1C    2    Extra field length (m)
//	 0x1E    n+m  name, extra
const (
	LocalSignature  = 0x04034b50
	LocalHeaderSize = 0x1E

	LocalVersionNeededOffset = 0x04
	LocalFlagsOffset         = 0x06
	LocalMethodOffset        = 0x08
	LocalModTimeOffset       = 0x0A
	LocalModDateOffset       = 0x0C
	LocalCRC32Offset         = 0x0E
	LocalCompressedOffset    = 0x12
	LocalUncompressedOffset  = 0x16
	LocalNameLengthOffset    = 0x1A
	LocalExtraLengthOffset   = 0x1C
)

// General purpose flag bits and compression methods.
const (
	FlagEncrypted      = 0x0001
	FlagDataDescriptor = 0x0008
	FlagUTF8           = 0x0800

	MethodStore   = 0
	MethodDeflate = 8
)

// ============================================================================
// APK Signing Block
// ============================================================================
//
// The block sits immediately before the central directory:
//
//	 0x00    8    Size of block (excluding this field)
//	 0x08    ...  ID-value pairs: uint64 length, uint32 id, value
//	 -0x18   8    Size of block (repeated, same value)
//	 -0x10  16    Magic "APK Sig Block 42"
//
// The trailing 24 bytes form the footer probed by the archive package.
var SigningBlockMagic = []byte("APK Sig Block 42")

const (
	SignatureFooterMinSize     = 0x18
	SignatureFooterSizeOffset  = 0x00
	SignatureFooterMagicOffset = 0x08
	SignatureFooterMagicSize   = 0x10

	// SigningBlockSizeFieldLen is the leading uint64 size field of the block.
	SigningBlockSizeFieldLen   = 8
	// SigningBlockPairHeaderSize is the uint64 length + uint32 id of one pair.
	SigningBlockPairHeaderSize = 12
	SigningBlockPairIDSize     = 4

	SigningBlockIDV2          = 0x7109871a
	SigningBlockIDV3          = 0xf05368c0
	SigningBlockIDV31         = 0x1b93ad61
	SigningBlockIDSourceStamp = 0x6dff800d
	SigningBlockIDPadding     = 0x42726577
)
