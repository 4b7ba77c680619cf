package archive

import (
	"bytes"

	"github.com/joshuapare/apkkit/internal/format"
	"github.com/joshuapare/apkkit/internal/logger"
	"github.com/joshuapare/apkkit/pkg/types"
)

// EndRecord is the decoded end of central directory record.
type EndRecord struct {
	// Offset is the position of the record's signature in the source.
	Offset int64

	DiskNumber         uint32
	CentralStartDisk   uint32
	EntriesOnDisk      uint64
	TotalEntries       uint64
	LengthOfCentralDir uint64
	OffsetOfCentralDir uint64
	Comment            []byte

	// Zip64Offset is the position of the ZIP64 end record, or -1.
	Zip64Offset int64

	sourceLength int64
}

// LengthOfCentralDirectory returns the directory's byte length.
func (e *EndRecord) LengthOfCentralDirectory() int64 { return int64(e.LengthOfCentralDir) }

// OffsetOfCentralDirectory returns the directory's start offset.
func (e *EndRecord) OffsetOfCentralDirectory() int64 { return int64(e.OffsetOfCentralDir) }

// IsZip64 reports whether a ZIP64 end record supplied the directory fields.
func (e *EndRecord) IsZip64() bool { return e.Zip64Offset >= 0 }

// TotalBytesCount is the number of trailing bytes the trailer occupies: the
// fixed record plus its comment, or everything from the ZIP64 end record to
// the end of the source when one is present.
func (e *EndRecord) TotalBytesCount() int64 {
	if e.IsZip64() {
		return e.sourceLength - e.Zip64Offset
	}
	return int64(format.EndRecordSize + len(e.Comment))
}

// FindEndRecord locates the end of central directory record by scanning the
// tail of src backward. The comment that may follow the record makes its
// position variable, so candidates are accepted only when the declared comment
// fits within the source. Bytes after the comment are tolerated.
func FindEndRecord(src ByteSource, opts OpenOptions) (*EndRecord, error) {
	total := src.Length()
	if total < format.EndRecordSize {
		return nil, types.ErrNoEndRecord
	}
	window := int64(format.EndRecordSize + opts.maxComment())
	start := max(total-window, 0)
	tail, err := readFull(src, start, int(total-start))
	if err != nil {
		return nil, types.Wrap(types.ErrKindIO, "archive: read trailer window", err)
	}

	for i := len(tail) - format.EndRecordSize; i >= 0; i-- {
		if format.ReadU32(tail, i) != format.EndRecordSignature {
			continue
		}
		commentLen := int(format.ReadU16(tail, i+format.EndCommentLengthOffset))
		if i+format.EndRecordSize+commentLen > len(tail) {
			continue
		}
		rec := decodeEndRecord(tail[i:i+format.EndRecordSize+commentLen], start+int64(i), total)
		if err := rec.resolveZip64(src, tail, i); err != nil {
			return nil, err
		}
		logger.Debug("archive: end record located",
			"offset", rec.Offset,
			"cd_offset", rec.OffsetOfCentralDir,
			"cd_length", rec.LengthOfCentralDir,
			"zip64", rec.IsZip64())
		return rec, nil
	}
	return nil, types.ErrNoEndRecord
}

func decodeEndRecord(b []byte, off, total int64) *EndRecord {
	comment := b[format.EndRecordSize:]
	return &EndRecord{
		Offset:             off,
		DiskNumber:         uint32(format.ReadU16(b, format.EndDiskNumberOffset)),
		CentralStartDisk:   uint32(format.ReadU16(b, format.EndCDStartDiskOffset)),
		EntriesOnDisk:      uint64(format.ReadU16(b, format.EndEntriesOnDiskOffset)),
		TotalEntries:       uint64(format.ReadU16(b, format.EndTotalEntriesOffset)),
		LengthOfCentralDir: uint64(format.ReadU32(b, format.EndCDLengthOffset)),
		OffsetOfCentralDir: uint64(format.ReadU32(b, format.EndCDOffsetOffset)),
		Comment:            bytes.Clone(comment),
		Zip64Offset:        -1,
		sourceLength:       total,
	}
}

func (e *EndRecord) saturated() bool {
	return e.TotalEntries == format.Zip64Saturated16 ||
		e.LengthOfCentralDir == format.Zip64Saturated32 ||
		e.OffsetOfCentralDir == format.Zip64Saturated32
}

// resolveZip64 replaces saturated fields with the ZIP64 end record's values
// when a locator immediately precedes the record at tail[i]. A locator that
// points at garbage is ignored unless the 32-bit fields need it.
func (e *EndRecord) resolveZip64(src ByteSource, tail []byte, i int) error {
	locPos := e.Offset - format.Zip64LocatorSize
	if locPos < 0 {
		return nil
	}
	var loc []byte
	if li := i - format.Zip64LocatorSize; li >= 0 {
		loc = tail[li:i]
	} else {
		var err error
		if loc, err = readFull(src, locPos, format.Zip64LocatorSize); err != nil {
			return types.Wrap(types.ErrKindIO, "archive: read zip64 locator", err)
		}
	}
	if format.ReadU32(loc, 0) != format.Zip64LocatorSignature {
		return nil
	}
	recOff := int64(format.ReadU64(loc, format.Zip64LocatorRecordOffset))
	if recOff < 0 || recOff+format.Zip64EndSize > locPos {
		if e.saturated() {
			return types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt, "archive: zip64 end record offset %d out of range", recOff)
		}
		return nil
	}
	rec, err := readFull(src, recOff, format.Zip64EndSize)
	if err != nil {
		return types.Wrap(types.ErrKindIO, "archive: read zip64 end record", err)
	}
	if format.ReadU32(rec, 0) != format.Zip64EndSignature {
		if e.saturated() {
			return types.Errorf(types.ErrKindCorrupt, types.ErrCorrupt, "archive: zip64 end record signature mismatch at %d", recOff)
		}
		return nil
	}
	e.TotalEntries = format.ReadU64(rec, format.Zip64EndEntriesOffset)
	e.EntriesOnDisk = e.TotalEntries
	e.LengthOfCentralDir = format.ReadU64(rec, format.Zip64EndCDLengthOffset)
	e.OffsetOfCentralDir = format.ReadU64(rec, format.Zip64EndCDOffsetOffset)
	e.Zip64Offset = recOff
	return nil
}
