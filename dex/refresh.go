package dex

import (
	"crypto/sha1"
	"hash/adler32"

	"github.com/joshuapare/apkkit/internal/format"
	"github.com/joshuapare/apkkit/internal/logger"
	"github.com/joshuapare/apkkit/pkg/types"
)

// maxLayoutPasses bounds the write-back/layout loop. Each pass can only grow
// LEB128-encoded offsets, so real files settle in two or three passes.
const maxLayoutPasses = 16

// refresh rebuilds the file image from the item graph.
//
// Every reference is resolved first so that no raw index or offset is
// interpreted after renumbering. Then references are written back and the
// sections laid out until no item moves, the map list and header are
// rebuilt, and the image is serialized and stamped.
func (l *SectionList) refresh() ([]byte, error) {
	l.resolveAll()

	fileSize := 0
	for pass := 0; ; pass++ {
		if pass == maxLayoutPasses {
			return nil, types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt, "dex: layout did not settle after %d passes", pass)
		}
		for item := range l.items {
			item.refresh()
		}
		l.rebuildMapList()
		moved, end := l.layout()
		for _, s := range l.order {
			s.indexOffsets()
		}
		if !moved {
			fileSize = end
			logger.Debug("dex: layout settled", "passes", pass+1, "size", end)
			break
		}
	}

	l.updateHeader(fileSize)
	out, err := l.serialize(fileSize)
	if err != nil {
		return nil, err
	}
	stampChecksums(out)
	copy(l.header.raw, out[:format.DexHeaderSize])
	l.modified = false
	return out, nil
}

// layout assigns offsets in section order and reports whether any item moved.
func (l *SectionList) layout() (moved bool, end int) {
	pos := 0
	for _, s := range l.order {
		if s.Count() == 0 {
			s.setOffset(0)
			continue
		}
		align := s.Type().Alignment()
		pos = format.AlignTo(pos, align)
		s.setOffset(pos)
		for i := range s.Count() {
			item := s.ItemAt(i)
			pos = format.AlignTo(pos, align)
			if b := item.base(); b.offset != pos {
				b.offset = pos
				moved = true
			}
			pos += item.byteSize()
		}
	}
	return moved, pos
}

// rebuildMapList lists every non-empty section. The entry count only depends
// on which sections are empty, so the map list's size is final before layout.
func (l *SectionList) rebuildMapList() {
	l.mapList.Entries = l.Summary()
}

func (l *SectionList) updateHeader(fileSize int) {
	h := l.header
	if h.LinkSize() != 0 {
		logger.Warn("dex: dropping link section", "size", h.LinkSize())
	}
	h.put(format.DexFileSizeOffset, uint32(fileSize))
	h.put(format.DexHeaderSizeOffset, format.DexHeaderSize)
	h.put(format.DexLinkSizeOffset, 0)
	h.put(format.DexLinkOffOffset, 0)
	h.put(format.DexMapOffOffset, uint32(l.mapList.Offset()))

	for t, at := range headerIdFields {
		var size, off uint32
		if s, ok := l.sections[t]; ok && s.Count() > 0 {
			size, off = uint32(s.Count()), uint32(s.Offset())
		}
		h.put(at, size)
		h.put(at+4, off)
	}

	var dataOff uint32
	for _, s := range l.order {
		if s.Type().IsData() && s.Count() > 0 {
			dataOff = uint32(s.Offset())
			break
		}
	}
	var dataSize uint32
	if dataOff != 0 {
		dataSize = uint32(fileSize) - dataOff
	}
	h.put(format.DexDataSizeOffset, dataSize)
	h.put(format.DexDataOffOffset, dataOff)
}

func (l *SectionList) serialize(size int) ([]byte, error) {
	out := make([]byte, 0, size)
	for item := range l.items {
		off := item.Offset()
		if off < len(out) {
			return nil, types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt, "dex: %s item %d overlaps previous item", item.SectionType(), item.Index())
		}
		out = append(out, make([]byte, off-len(out))...)
		out = item.encode(out)
	}
	if len(out) != size {
		return nil, types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt, "dex: serialized %d bytes, laid out %d", len(out), size)
	}
	return out, nil
}

// stampChecksums writes the SHA-1 signature of [0x20, EOF) and then the
// adler32 checksum of [0x0C, EOF), which covers the signature.
func stampChecksums(b []byte) {
	sig := sha1.Sum(b[format.DexSignatureRegionStart:])
	copy(b[format.DexSignatureOffset:format.DexSignatureOffset+format.DexSignatureSize], sig[:])
	format.PutU32(b, format.DexChecksumOffset, adler32.Checksum(b[format.DexChecksumRegionStart:]))
}

// verifyChecksums checks both stored checksums against b.
func verifyChecksums(b []byte) error {
	if got, want := adler32.Checksum(b[format.DexChecksumRegionStart:]), format.ReadU32(b, format.DexChecksumOffset); got != want {
		return types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt, "dex: adler32 checksum 0x%08x, header says 0x%08x", got, want)
	}
	sig := sha1.Sum(b[format.DexSignatureRegionStart:])
	if string(sig[:]) != string(b[format.DexSignatureOffset:format.DexSignatureOffset+format.DexSignatureSize]) {
		return types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt, "dex: SHA-1 signature mismatch")
	}
	return nil
}
