package archive

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/apkkit/internal/format"
	"github.com/joshuapare/apkkit/pkg/types"
)

// SignatureFooter is the fixed 24-byte tail of an APK signing block:
// the repeated block size followed by the magic.
type SignatureFooter struct {
	// Offset is the footer's position in the source.
	Offset int64
	// SizeOfBlock is the block size excluding its leading size field.
	SizeOfBlock uint64
	Magic       [format.SignatureFooterMagicSize]byte
}

// decodeSignatureFooter decodes exactly SignatureFooterMinSize bytes.
func decodeSignatureFooter(b []byte, off int64) *SignatureFooter {
	f := &SignatureFooter{
		Offset:      off,
		SizeOfBlock: format.ReadU64(b, format.SignatureFooterSizeOffset),
	}
	copy(f.Magic[:], b[format.SignatureFooterMagicOffset:])
	return f
}

// IsValid checks the magic first and only then the declared size, which must
// cover at least the footer and fit between the source start and the end of
// the footer.
func (f *SignatureFooter) IsValid() bool {
	if !bytes.Equal(f.Magic[:], format.SigningBlockMagic) {
		return false
	}
	if f.SizeOfBlock < format.SignatureFooterMinSize {
		return false
	}
	end := uint64(f.Offset) + format.SignatureFooterMinSize
	return f.SizeOfBlock <= end-format.SigningBlockSizeFieldLen
}

// BlockOffset returns the position of the signing block's leading size field.
func (f *SignatureFooter) BlockOffset() int64 {
	return f.Offset + format.SignatureFooterMinSize - int64(f.SizeOfBlock) - format.SigningBlockSizeFieldLen
}

// probeSignatureFooter looks for a signing block footer immediately before
// the central directory. A negative candidate offset means there is no room
// for one; both that and a failed validity check report absence.
func probeSignatureFooter(src ByteSource, end *EndRecord) (*SignatureFooter, error) {
	offset := src.Length() - end.TotalBytesCount() - end.LengthOfCentralDirectory() - format.SignatureFooterMinSize
	if offset < 0 {
		return nil, nil
	}
	b, err := readFull(src, offset, format.SignatureFooterMinSize)
	if err != nil {
		return nil, types.Wrap(types.ErrKindIO, "archive: read signature footer", err)
	}
	f := decodeSignatureFooter(b, offset)
	if !f.IsValid() {
		return nil, nil
	}
	return f, nil
}

// SigningBlockPair is one ID-value pair of the signing block.
type SigningBlockPair struct {
	ID    uint32
	Value []byte
}

// Name returns a label for well-known IDs.
func (p SigningBlockPair) Name() string {
	switch p.ID {
	case format.SigningBlockIDV2:
		return "v2"
	case format.SigningBlockIDV3:
		return "v3"
	case format.SigningBlockIDV31:
		return "v3.1"
	case format.SigningBlockIDSourceStamp:
		return "source-stamp"
	case format.SigningBlockIDPadding:
		return "padding"
	default:
		return fmt.Sprintf("0x%08x", p.ID)
	}
}

// SigningBlock is a decoded APK signing block.
type SigningBlock struct {
	Offset int64
	Pairs  []SigningBlockPair
}

// Pair returns the first pair with the given ID.
func (b *SigningBlock) Pair(id uint32) (SigningBlockPair, bool) {
	for _, p := range b.Pairs {
		if p.ID == id {
			return p, true
		}
	}
	return SigningBlockPair{}, false
}

// ReadSigningBlock reads the block a valid footer belongs to and decodes its
// ID-value pairs.
func ReadSigningBlock(src ByteSource, f *SignatureFooter) (*SigningBlock, error) {
	if f == nil || !f.IsValid() {
		return nil, types.ErrNotFound
	}
	start := f.BlockOffset()
	total := int(f.SizeOfBlock) + format.SigningBlockSizeFieldLen
	raw, err := readFull(src, start, total)
	if err != nil {
		return nil, types.Wrap(types.ErrKindIO, "archive: read signing block", err)
	}
	if format.ReadU64(raw, 0) != f.SizeOfBlock {
		return nil, types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt,
			"archive: signing block size mismatch (%d != %d)", format.ReadU64(raw, 0), f.SizeOfBlock)
	}

	pairs := raw[format.SigningBlockSizeFieldLen : total-format.SignatureFooterMinSize]
	block := &SigningBlock{Offset: start}
	for len(pairs) > 0 {
		if len(pairs) < format.SigningBlockPairHeaderSize {
			return nil, types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt, "archive: truncated signing block pair")
		}
		n := format.ReadU64(pairs, 0)
		if n < format.SigningBlockPairIDSize || n > uint64(len(pairs)-format.SigningBlockSizeFieldLen) {
			return nil, types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt, "archive: signing block pair length %d out of range", n)
		}
		body := pairs[format.SigningBlockSizeFieldLen : format.SigningBlockSizeFieldLen+int(n)]
		block.Pairs = append(block.Pairs, SigningBlockPair{
			ID:    format.ReadU32(body, 0),
			Value: body[format.SigningBlockPairIDSize:],
		})
		pairs = pairs[format.SigningBlockSizeFieldLen+int(n):]
	}
	return block, nil
}
