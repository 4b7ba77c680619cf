package dex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/joshuapare/apkkit/internal/format"
	"github.com/joshuapare/apkkit/internal/logger"
	"github.com/joshuapare/apkkit/internal/mmfile"
	"github.com/joshuapare/apkkit/internal/pathtree"
	"github.com/joshuapare/apkkit/pkg/types"
)

// SignatureAnnotationKey is the key of the dalvik generic-signature
// annotation whose string array spells out a type signature.
const SignatureAnnotationKey = "Ldalvik/annotation/Signature;->value()"

// DexFile is a parsed DEX file.
//
// Edits go through the items of its sections. After any edit, Refresh must
// run before Bytes, WriteTo or WriteFile.
type DexFile struct {
	list    *SectionList
	image   []byte
	classes map[string]*DexClass
	tree    *pathtree.Tree[*StringData]
}

// Read parses a DEX file held in b. The input is copied.
func Read(b []byte, opts *ReadOptions) (*DexFile, error) {
	if opts == nil {
		opts = &ReadOptions{}
	}
	if !validMagic(b) {
		return nil, types.ErrNotDex
	}
	if len(b) < format.DexHeaderSize {
		return nil, errTruncated("header_item", 0)
	}
	switch format.ReadU32(b, format.DexEndianTagOffset) {
	case format.DexEndianConstant:
	case format.DexReverseEndianConstant:
		return nil, types.Errorf(types.ErrKindUnsupported, types.ErrUnsupported, "dex: big-endian files")
	default:
		return nil, types.Errorf(types.ErrKindFormat, types.ErrNotDex, "dex: bad endian tag")
	}
	if opts.VerifyChecksum {
		if err := verifyChecksums(b); err != nil {
			return nil, err
		}
	}

	list, err := readSectionList(b)
	if err != nil {
		return nil, err
	}
	f := &DexFile{list: list, image: slices.Clone(b)}
	f.markUsages()
	return f, nil
}

// ReadFrom parses a DEX file from r.
func ReadFrom(r io.Reader, opts *ReadOptions) (*DexFile, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, types.Wrap(types.ErrKindIO, "dex: read", err)
	}
	return Read(b, opts)
}

// ReadFile parses the DEX file at path.
func ReadFile(path string, opts *ReadOptions) (*DexFile, error) {
	b, release, err := mmfile.Map(path)
	if err != nil {
		return nil, types.Wrap(types.ErrKindIO, "dex: open "+path, err)
	}
	defer release()
	return Read(b, opts)
}

// IsDexFile reports whether path names a regular file that starts with a
// DEX header. Errors yield false.
func IsDexFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return IsDexReader(f)
}

// IsDexReader reports whether r starts with a DEX header.
func IsDexReader(r io.Reader) bool {
	magic := make([]byte, format.DexMagicSize)
	if _, err := io.ReadFull(r, magic); err != nil {
		return false
	}
	return validMagic(magic)
}

// IsDexBytes reports whether b starts with a DEX header.
func IsDexBytes(b []byte) bool { return validMagic(b) }

// Header returns the header item.
func (f *DexFile) Header() *DexHeader { return f.list.header }

// Sections returns the section list.
func (f *DexFile) Sections() *SectionList { return f.list }

// StringIds returns the string_ids section.
func (f *DexFile) StringIds() *Section[*StringId] { return SectionOf[*StringId](f.list, SectionStringId) }

// StringData returns the string_data section.
func (f *DexFile) StringData() *Section[*StringData] {
	return SectionOf[*StringData](f.list, SectionStringData)
}

// TypeIds returns the type_ids section.
func (f *DexFile) TypeIds() *Section[*TypeId] { return SectionOf[*TypeId](f.list, SectionTypeId) }

// ClassDefs returns the class_defs section.
func (f *DexFile) ClassDefs() *Section[*ClassId] { return SectionOf[*ClassId](f.list, SectionClassId) }

// Refresh recomputes indices, offsets, the map list, the header and both
// checksums after edits.
func (f *DexFile) Refresh() error {
	image, err := f.list.refresh()
	if err != nil {
		return err
	}
	f.image = image
	return nil
}

// Bytes returns the file image. The slice must not be modified.
func (f *DexFile) Bytes() ([]byte, error) {
	if f.list.modified {
		return nil, types.ErrNotRefreshed
	}
	return f.image, nil
}

// WriteTo writes the file image to w.
func (f *DexFile) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	if err != nil {
		return int64(n), types.Wrap(types.ErrKindIO, "dex: write", err)
	}
	return int64(n), nil
}

// WriteFile writes the file image to path, creating parent directories.
func (f *DexFile) WriteFile(path string, opts *WriteOptions) error {
	b, err := f.Bytes()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.Wrap(types.ErrKindIO, "dex: create directory", err)
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, opts.perm())
	if err != nil {
		return types.Wrap(types.ErrKindIO, "dex: create "+path, err)
	}
	if _, err := out.Write(b); err != nil {
		out.Close()
		return types.Wrap(types.ErrKindIO, "dex: write "+path, err)
	}
	if opts != nil && opts.Sync {
		if err := mmfile.Sync(out); err != nil {
			out.Close()
			return types.Wrap(types.ErrKindIO, "dex: sync "+path, err)
		}
	}
	if err := out.Close(); err != nil {
		return types.Wrap(types.ErrKindIO, "dex: close "+path, err)
	}
	return nil
}

// Digest returns the canonical digest of the file image.
func (f *DexFile) Digest() (digest.Digest, error) {
	b, err := f.Bytes()
	if err != nil {
		return "", err
	}
	return digest.FromBytes(b), nil
}

// MapClasses indexes the class definitions by descriptor. The index is not
// updated by later edits; call MapClasses again to rebuild it.
func (f *DexFile) MapClasses() {
	defs := itemsOf[*ClassId](f.list, SectionClassId)
	f.classes = make(map[string]*DexClass, len(defs))
	for _, def := range defs {
		c := newDexClass(def)
		f.classes[c.Name()] = c
	}
}

// Class returns the class with the given descriptor.
func (f *DexFile) Class(name string) (*DexClass, bool) {
	if f.classes == nil {
		f.MapClasses()
	}
	c, ok := f.classes[name]
	return c, ok
}

// Classes returns every class sorted by descriptor.
func (f *DexFile) Classes() []*DexClass {
	if f.classes == nil {
		f.MapClasses()
	}
	out := make([]*DexClass, 0, len(f.classes))
	for _, c := range f.classes {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *DexClass) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

// BuildPathTree indexes every type descriptor by its '/'-separated path.
func (f *DexFile) BuildPathTree() {
	tree := pathtree.New[*StringData]()
	for _, t := range itemsOf[*TypeId](f.list, SectionTypeId) {
		s := t.descriptor.Item()
		if s == nil {
			continue
		}
		if d := s.Data().Item(); d != nil {
			tree.Add(d.String(), d)
		}
	}
	f.tree = tree
}

// PathTree returns the tree built by the last BuildPathTree call, or nil.
func (f *DexFile) PathTree() *pathtree.Tree[*StringData] { return f.tree }

// LinkTypeSignature marks every string of a generic-signature annotation
// with UsageSignatureType.
func (f *DexFile) LinkTypeSignature() {
	for _, a := range itemsOf[*AnnotationItem](f.list, SectionAnnotation) {
		if a.Key() != SignatureAnnotationKey {
			continue
		}
		el := a.Element(0)
		if el == nil || el.Value.Array() == nil {
			continue
		}
		for _, v := range el.Value.Array().Values {
			if d := v.StringData(); d != nil {
				d.AddUsage(UsageSignatureType)
			}
		}
	}
}

// ClassDecoder turns one class into files under an output directory.
type ClassDecoder interface {
	DecodeClass(outDir string, c *DexClass) error
}

// ClassDecoderFunc adapts a function to ClassDecoder.
type ClassDecoderFunc func(outDir string, c *DexClass) error

func (fn ClassDecoderFunc) DecodeClass(outDir string, c *DexClass) error { return fn(outDir, c) }

// Decode hands every class to dec in descriptor order.
func (f *DexFile) Decode(outDir string, dec ClassDecoder) error {
	classes := f.Classes()
	logger.Info("dex: decoding classes", "total", len(classes), "dir", outDir)
	for i, c := range classes {
		logger.Debug("dex: decode class", "n", i+1, "total", len(classes), "class", c.Name())
		if err := dec.DecodeClass(outDir, c); err != nil {
			return fmt.Errorf("dex: decode %s: %w", c.Name(), err)
		}
	}
	logger.Info("dex: decode done", "dir", outDir)
	return nil
}

// markUsages records the role of every string referenced from the id
// sections and from encoded values.
func (f *DexFile) markUsages() {
	l := f.list
	for _, t := range itemsOf[*TypeId](l, SectionTypeId) {
		markString(t.descriptor, UsageType)
	}
	for _, fid := range itemsOf[*FieldId](l, SectionFieldId) {
		markString(fid.name, UsageField)
	}
	for _, m := range itemsOf[*MethodId](l, SectionMethodId) {
		markString(m.name, UsageMethod)
	}
	for _, p := range itemsOf[*ProtoId](l, SectionProtoId) {
		markString(p.shorty, UsageShorty)
	}
	for _, c := range itemsOf[*ClassId](l, SectionClassId) {
		markString(c.sourceFile, UsageSourceFile)
	}
	for _, e := range itemsOf[*EncodedArrayItem](l, SectionEncodedArray) {
		markValues(e.array.Values)
	}
	for _, a := range itemsOf[*AnnotationItem](l, SectionAnnotation) {
		markAnnotation(a.annotation)
	}
}

func markString(r *ItemIndexReference[*StringId], u StringUsage) {
	if s := r.Item(); s != nil {
		if d := s.Data().Item(); d != nil {
			d.AddUsage(u)
		}
	}
}

func markValues(values []*EncodedValue) {
	for _, v := range values {
		switch {
		case v.StringRef() != nil:
			markString(v.StringRef(), UsageEncodedValue)
		case v.array != nil:
			markValues(v.array.Values)
		case v.annotation != nil:
			markAnnotation(v.annotation)
		}
	}
}

func markAnnotation(a *EncodedAnnotation) {
	for _, e := range a.Elements {
		markValues([]*EncodedValue{e.Value})
	}
}
