package dex

import (
	"strings"
)

// DexClass is a convenience view over one class definition.
type DexClass struct {
	def *ClassId
}

func newDexClass(def *ClassId) *DexClass { return &DexClass{def: def} }

// Def returns the underlying class_def_item.
func (c *DexClass) Def() *ClassId { return c.def }

// Name returns the class descriptor, e.g. "Lcom/example/Foo;".
func (c *DexClass) Name() string { return c.def.Descriptor() }

// JavaName returns the source-level name, e.g. "com.example.Foo".
func (c *DexClass) JavaName() string { return JavaTypeName(c.Name()) }

// SuperClass returns the superclass descriptor, or "" for java.lang.Object.
func (c *DexClass) SuperClass() string { return descriptorOf(c.def.superclass) }

// SourceFile returns the recorded source file name, or "".
func (c *DexClass) SourceFile() string { return stringOf(c.def.sourceFile) }

// AccessFlags returns the class access flags.
func (c *DexClass) AccessFlags() uint32 { return c.def.AccessFlags() }

// Interfaces returns the descriptors of the implemented interfaces.
func (c *DexClass) Interfaces() []string {
	tl := c.def.interfaces.Item()
	if tl == nil {
		return nil
	}
	var out []string
	for _, t := range tl.Types() {
		if t != nil {
			out = append(out, t.Descriptor())
		}
	}
	return out
}

// Data returns the class data, or nil for marker classes without members.
func (c *DexClass) Data() *ClassData { return c.def.classData.Item() }

// Methods returns every method with a body or declaration in this class.
func (c *DexClass) Methods() []*EncodedMethod {
	if d := c.Data(); d != nil {
		return d.Methods()
	}
	return nil
}

// Fields returns every field declared in this class.
func (c *DexClass) Fields() []*EncodedField {
	if d := c.Data(); d != nil {
		return d.Fields()
	}
	return nil
}

func (c *DexClass) String() string { return c.Name() }

// JavaTypeName converts a type descriptor to its source-level spelling:
// "[Ljava/lang/String;" becomes "java.lang.String[]" and "I" becomes "int".
// Descriptors it cannot interpret are returned unchanged.
func JavaTypeName(desc string) string {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	rest := desc[dims:]
	if rest == "" {
		return desc
	}

	var base string
	switch rest[0] {
	case 'L':
		base = strings.TrimSuffix(rest[1:], ";")
		base = strings.ReplaceAll(base, "/", ".")
	case 'B':
		base = "byte"
	case 'C':
		base = "char"
	case 'D':
		base = "double"
	case 'F':
		base = "float"
	case 'I':
		base = "int"
	case 'J':
		base = "long"
	case 'S':
		base = "short"
	case 'Z':
		base = "boolean"
	case 'V':
		base = "void"
	default:
		return desc
	}
	return base + strings.Repeat("[]", dims)
}
