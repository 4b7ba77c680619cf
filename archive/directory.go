package archive

import (
	"github.com/joshuapare/apkkit/internal/logger"
)

// CentralFileDirectory owns the decoded central directory of one archive: the
// ordered entry headers, the end record and the optional signing block
// footer. It is populated once by Visit and read-only afterwards.
type CentralFileDirectory struct {
	headers         []*CentralEntryHeader
	endRecord       *EndRecord
	signatureFooter *SignatureFooter
}

// ReadCentralFileDirectory visits src and returns the populated directory.
func ReadCentralFileDirectory(src ByteSource, opts OpenOptions) (*CentralFileDirectory, error) {
	d := &CentralFileDirectory{}
	if err := d.Visit(src, opts); err != nil {
		return nil, err
	}
	return d, nil
}

// Visit locates the trailer, decodes the directory range it names, and
// probes for a signing block footer, in that order.
func (d *CentralFileDirectory) Visit(src ByteSource, opts OpenOptions) error {
	end, err := FindEndRecord(src, opts)
	if err != nil {
		return err
	}
	headers, err := readCentralDirectory(src, end.OffsetOfCentralDirectory(), end.LengthOfCentralDirectory())
	if err != nil {
		return err
	}
	d.endRecord = end
	d.headers = headers
	logger.Debug("archive: central directory read",
		"entries", len(headers),
		"declared", end.TotalEntries)

	if opts.SkipSignatureBlock {
		return nil
	}
	footer, err := probeSignatureFooter(src, end)
	if err != nil {
		return err
	}
	d.signatureFooter = footer
	logger.Debug("archive: signature block probe", "present", footer != nil)
	return nil
}

// Get returns the directory record matching a local header. The record at
// lfh.Index wins when its name matches; otherwise the name is searched.
func (d *CentralFileDirectory) Get(lfh *LocalFileHeader) *CentralEntryHeader {
	if lfh == nil {
		return nil
	}
	if ceh := d.GetAt(lfh.Index); ceh != nil && ceh.FileName == lfh.FileName {
		return ceh
	}
	return d.GetByName(lfh.FileName)
}

// GetByName returns the first record named name, or nil.
func (d *CentralFileDirectory) GetByName(name string) *CentralEntryHeader {
	for _, ceh := range d.headers {
		if ceh.FileName == name {
			return ceh
		}
	}
	return nil
}

// GetAt returns the record at position i, or nil when i is out of range.
func (d *CentralFileDirectory) GetAt(i int) *CentralEntryHeader {
	if i < 0 || i >= len(d.headers) {
		return nil
	}
	return d.headers[i]
}

// Count returns the number of decoded records.
func (d *CentralFileDirectory) Count() int { return len(d.headers) }

// Headers returns the records in directory order.
func (d *CentralFileDirectory) Headers() []*CentralEntryHeader { return d.headers }

// EndRecord returns the located trailer.
func (d *CentralFileDirectory) EndRecord() *EndRecord { return d.endRecord }

// SignatureFooter returns the signing block footer, or nil when absent.
func (d *CentralFileDirectory) SignatureFooter() *SignatureFooter { return d.signatureFooter }
