package vm

import "fmt"

// Kind tags the variant held by an Object.
type Kind uint8

const (
	// KindInteger holds a 64-bit unsigned integer.
	KindInteger Kind = iota
	// KindString holds an owned byte sequence, conventionally text.
	KindString
	// KindBuffer holds an owned byte array.
	KindBuffer
	// KindPackage holds an owned, fixed-capacity vector of Objects.
	KindPackage
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindString:
		return "String"
	case KindBuffer:
		return "Buffer"
	case KindPackage:
		return "Package"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// MaxPackageEntries bounds a Package's capacity (ACPI_MAX_PACKAGE_ENTRIES).
const MaxPackageEntries = 255

// Object is a tagged AML value. The zero Object is Integer(0).
//
// Releasing an Object must release any owned heap it carries (the
// string/buffer body, or a package's elements, recursively). Copy
// produces an independent deep-equal Object; Move transfers ownership
// and leaves the source reset to Integer(0).
type Object struct {
	kind    Kind
	integer uint64
	bytes   []byte  // String / Buffer body
	pkg     []Object // Package elements
}

// NewInteger returns an Integer Object.
func NewInteger(v uint64) Object { return Object{kind: KindInteger, integer: v} }

// NewString returns a String Object owning a copy of s.
func NewString(s string) Object {
	return Object{kind: KindString, bytes: append([]byte(nil), s...)}
}

// NewBuffer returns a Buffer Object owning a copy of b.
func NewBuffer(b []byte) Object {
	return Object{kind: KindBuffer, bytes: append([]byte(nil), b...)}
}

// NewPackage returns a Package Object owning elems (elems is taken by
// reference, not copied — callers that built elems for this purpose
// alone should pass ownership by not retaining their own slice).
func NewPackage(elems []Object) Object {
	if len(elems) > MaxPackageEntries {
		panic(FatalErrorf("package entry count %d exceeds max %d", len(elems), MaxPackageEntries))
	}
	return Object{kind: KindPackage, pkg: elems}
}

// Kind reports the Object's variant.
func (o Object) Kind() Kind { return o.kind }

// Integer returns the integer value; valid only when Kind() == KindInteger.
func (o Object) Integer() uint64 { return o.integer }

// Bytes returns the String or Buffer body. The caller must not mutate
// the returned slice.
func (o Object) Bytes() []byte { return o.bytes }

// Package returns the Package elements. The caller must not mutate the
// returned slice.
func (o Object) Package() []Object { return o.pkg }

// IsTrue reports AML truthiness: any nonzero Integer is true; other
// kinds are compared as objects are in the source (Integer predicates
// are the only ones the reducer/loop conditions consume).
func (o Object) IsTrue() bool {
	return o.kind == KindInteger && o.integer != 0
}

// Copy produces an independent deep copy of src: strings and buffers
// are duplicated, packages are copied element by element.
func Copy(src Object) Object {
	switch src.kind {
	case KindString, KindBuffer:
		cp := append([]byte(nil), src.bytes...)
		return Object{kind: src.kind, bytes: cp}
	case KindPackage:
		cp := make([]Object, len(src.pkg))
		for i, e := range src.pkg {
			cp[i] = Copy(e)
		}
		return Object{kind: KindPackage, pkg: cp}
	default:
		return src
	}
}

// Move transfers ownership of src's heap to the returned Object and
// resets *src to Integer(0), mirroring acpi_move_object's ownership
// transfer at STORE_OP.
func Move(src *Object) Object {
	out := *src
	*src = NewInteger(0)
	return out
}

// Release frees any heap src owns. After Release src reads as
// Integer(0), matching acpi_free_object's contract.
func Release(dst *Object) {
	*dst = NewInteger(0)
}
