package vm

import "testing"

func TestObjectZeroValueIsIntegerZero(t *testing.T) {
	var o Object
	if o.Kind() != KindInteger || o.Integer() != 0 {
		t.Fatalf("zero Object should read as Integer(0), got %v", o)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	src := NewBuffer([]byte{1, 2, 3})
	cp := Copy(src)
	cp.bytes[0] = 0xFF
	if src.bytes[0] == 0xFF {
		t.Fatal("Copy shared backing storage with its source")
	}
}

func TestCopyPackageIsDeep(t *testing.T) {
	inner := NewBuffer([]byte{9})
	src := NewPackage([]Object{inner})
	cp := Copy(src)
	cp.pkg[0].bytes[0] = 0x00
	if src.pkg[0].bytes[0] != 9 {
		t.Fatal("Copy of a Package shared an inner element's backing storage")
	}
}

func TestMoveResetsSource(t *testing.T) {
	src := NewString("hello")
	out := Move(&src)
	if out.Kind() != KindString || string(out.Bytes()) != "hello" {
		t.Fatalf("Move did not transfer the value, got %v", out)
	}
	if src.Kind() != KindInteger || src.Integer() != 0 {
		t.Fatalf("Move did not reset the source to Integer(0), got %v", src)
	}
}

func TestReleaseResetsToIntegerZero(t *testing.T) {
	o := NewString("x")
	Release(&o)
	if o.Kind() != KindInteger || o.Integer() != 0 {
		t.Fatalf("Release should leave Integer(0), got %v", o)
	}
}

func TestIsTrue(t *testing.T) {
	if NewInteger(0).IsTrue() {
		t.Fatal("Integer(0) must not be true")
	}
	if !NewInteger(1).IsTrue() {
		t.Fatal("Integer(1) must be true")
	}
	if NewString("nonempty").IsTrue() {
		t.Fatal("only Integer kind participates in AML truthiness")
	}
}

func TestNewPackageRejectsOversized(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for package exceeding MaxPackageEntries")
		}
	}()
	NewPackage(make([]Object, MaxPackageEntries+1))
}
