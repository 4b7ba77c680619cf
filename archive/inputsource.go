package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joshuapare/apkkit/pkg/types"
)

// InputSource is a named stream of bytes destined for an archive path.
type InputSource interface {
	// Alias is the archive path the source is written under.
	Alias() string
	Open() (io.ReadCloser, error)
}

// FileInputSource reads a file from disk.
type FileInputSource struct {
	path  string
	alias string
}

// NewFileInputSource returns a source for path stored under alias.
func NewFileInputSource(path, alias string) *FileInputSource {
	return &FileInputSource{path: path, alias: alias}
}

// FileInputSourceUnder derives the alias from path relative to root, using
// forward slashes as archive paths do.
func FileInputSourceUnder(root, path string) (*FileInputSource, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return NewFileInputSource(path, filepath.ToSlash(rel)), nil
}

func (s *FileInputSource) Alias() string { return s.alias }

func (s *FileInputSource) Open() (io.ReadCloser, error) { return os.Open(s.path) }

// EntryInputSource reads an entry of an opened archive.
type EntryInputSource struct {
	archive *Archive
	entry   *Entry
}

// NewEntryInputSource returns a source for e, aliased by its name.
func NewEntryInputSource(a *Archive, e *Entry) *EntryInputSource {
	return &EntryInputSource{archive: a, entry: e}
}

func (s *EntryInputSource) Alias() string { return s.entry.FileName }

func (s *EntryInputSource) Open() (io.ReadCloser, error) { return s.archive.OpenEntry(s.entry) }

// Table is a binary table built from a JSON document.
type Table interface {
	MarshalBinary() ([]byte, error)
}

// TableDecoder builds a Table from one JSON object. Resource-table semantics
// live entirely in the decoder.
type TableDecoder interface {
	DecodeTable(doc map[string]json.RawMessage) (Table, error)
}

// TableDecoderFunc adapts a function to TableDecoder.
type TableDecoderFunc func(doc map[string]json.RawMessage) (Table, error)

// DecodeTable implements TableDecoder.
func (f TableDecoderFunc) DecodeTable(doc map[string]json.RawMessage) (Table, error) {
	return f(doc)
}

// JSONTableSource turns a JSON document into a binary table on first use and
// serves the table's bytes under the wrapped source's alias. The table is
// cached after the first successful build.
type JSONTableSource struct {
	src     InputSource
	decoder TableDecoder
	table   Table
	encoded []byte
}

// NewJSONTableSource wraps src.
func NewJSONTableSource(src InputSource, decoder TableDecoder) *JSONTableSource {
	return &JSONTableSource{src: src, decoder: decoder}
}

func (s *JSONTableSource) Alias() string { return s.src.Alias() }

// Table decodes the JSON document, or returns the cached table. Parse and
// decode failures are reported with the source alias.
func (s *JSONTableSource) Table() (Table, error) {
	if s.table != nil {
		return s.table, nil
	}
	rc, err := s.src.Open()
	if err != nil {
		return nil, types.Wrap(types.ErrKindIO, s.src.Alias(), err)
	}
	defer rc.Close()

	var doc map[string]json.RawMessage
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, types.Wrap(types.ErrKindParse, s.src.Alias(), err)
		}
		return nil, types.Wrap(types.ErrKindIO, s.src.Alias(), err)
	}
	table, err := s.decoder.DecodeTable(doc)
	if err != nil {
		return nil, types.Wrap(types.ErrKindParse, s.src.Alias(), err)
	}
	s.table = table
	return table, nil
}

func (s *JSONTableSource) bytes() ([]byte, error) {
	if s.encoded != nil {
		return s.encoded, nil
	}
	table, err := s.Table()
	if err != nil {
		return nil, err
	}
	b, err := table.MarshalBinary()
	if err != nil {
		return nil, types.Wrap(types.ErrKindParse, s.src.Alias(), err)
	}
	s.encoded = b
	return b, nil
}

// Open returns the encoded table.
func (s *JSONTableSource) Open() (io.ReadCloser, error) {
	b, err := s.bytes()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// Length returns the encoded table size.
func (s *JSONTableSource) Length() (int64, error) {
	b, err := s.bytes()
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}

// WriteTo writes the encoded table to w.
func (s *JSONTableSource) WriteTo(w io.Writer) (int64, error) {
	b, err := s.bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}
