package namespace

import (
	"testing"

	"github.com/amlvm/engine/vm"
)

func TestResolvePathRootAbsolute(t *testing.T) {
	tr := NewTree()
	body := []byte{'\\', 'A', 'B', 'C', 'D', 0x00}
	path, consumed := tr.ResolvePath("\\FOO", body)
	if path != "\\ABCD" {
		t.Fatalf("expected \\ABCD, got %q", path)
	}
	if consumed != 5 {
		t.Fatalf("expected 5 bytes consumed, got %d", consumed)
	}
}

func TestResolvePathRelativeJoinsScope(t *testing.T) {
	tr := NewTree()
	body := []byte{'A', 'B', 'C', 'D'}
	path, consumed := tr.ResolvePath("\\_SB", body)
	if path != "\\_SB.ABCD" {
		t.Fatalf("expected \\_SB.ABCD, got %q", path)
	}
	if consumed != 4 {
		t.Fatalf("expected 4 bytes consumed, got %d", consumed)
	}
}

func TestResolvePathParentPrefix(t *testing.T) {
	tr := NewTree()
	body := []byte{'^', 'A', 'B', 'C', 'D'}
	path, _ := tr.ResolvePath("\\_SB.PCI0", body)
	if path != "\\_SB.ABCD" {
		t.Fatalf("expected ^ to pop one scope level, got %q", path)
	}
}

func TestResolvePathNullName(t *testing.T) {
	tr := NewTree()
	body := []byte{0x00}
	path, consumed := tr.ResolvePath("\\_SB.PCI0", body)
	if path != "\\_SB.PCI0" || consumed != 1 {
		t.Fatalf("NullName should resolve to the scope itself, got %q/%d", path, consumed)
	}
}

func TestResolvePathDualNamePrefix(t *testing.T) {
	tr := NewTree()
	body := append([]byte{0x2E}, []byte("ABCD")...)
	body = append(body, []byte("EFGH")...)
	path, consumed := tr.ResolvePath("\\", body)
	if path != "\\ABCD.EFGH" {
		t.Fatalf("expected \\ABCD.EFGH, got %q", path)
	}
	if consumed != 9 {
		t.Fatalf("expected 9 bytes consumed, got %d", consumed)
	}
}

func TestResolvePathTrimsUnderscorePadding(t *testing.T) {
	tr := NewTree()
	body := []byte("SB__")
	path, _ := tr.ResolvePath("\\", body)
	if path != "\\SB" {
		t.Fatalf("trailing underscore padding should be trimmed, got %q", path)
	}
}

func TestBindAndLookup(t *testing.T) {
	tr := NewTree()
	tr.Bind("\\FOO", vm.NewInteger(42))
	node, ok := tr.Lookup("\\FOO")
	if !ok {
		t.Fatal("expected \\FOO to be found")
	}
	if node.Type != vm.NodeName || node.Bound.Integer() != 42 {
		t.Fatalf("unexpected node: %+v", node)
	}
}

func TestDeclareNameBindsEvaluatedValue(t *testing.T) {
	tr := NewTree()
	body := append([]byte("FOO_"), byte(vm.BytePrefix), 0x2A)
	consumed := tr.DeclareName("\\", body)
	if consumed != len(body) {
		t.Fatalf("expected to consume all %d bytes, consumed %d", len(body), consumed)
	}
	node, ok := tr.Lookup("\\FOO")
	if !ok || node.Bound.Integer() != 42 {
		t.Fatalf("expected \\FOO bound to 42, got %+v ok=%v", node, ok)
	}
}

func TestExecMethodViaTree(t *testing.T) {
	tr := NewTree()
	body := []byte{byte(vm.ReturnOp), byte(vm.BytePrefix), 0x2A}
	tr.DeclareMethod("\\MAIN", body, 0)

	e := vm.NewEngine()
	method := &vm.Method{Path: "\\MAIN", Body: body}
	result, err := e.ExecMethod(tr, method, nil)
	if err != nil {
		t.Fatalf("ExecMethod: %v", err)
	}
	if result.Integer() != 42 {
		t.Fatalf("expected 42, got %d", result.Integer())
	}
}

type fakeRegion struct {
	val vm.Object
}

func (r *fakeRegion) Read() vm.Object   { return r.val }
func (r *fakeRegion) Write(v vm.Object) { r.val = v }

func TestFieldRegionReadWrite(t *testing.T) {
	tr := NewTree()
	region := &fakeRegion{val: vm.NewInteger(7)}
	tr.DeclareFieldRegion("\\GPE0", false, region)
	node, ok := tr.Lookup("\\GPE0")
	if !ok {
		t.Fatal("expected \\GPE0 to be found")
	}
	if got := tr.ReadOpRegion(node).Integer(); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	tr.WriteOpRegion(node, vm.NewInteger(9))
	if got := region.val.Integer(); got != 9 {
		t.Fatalf("expected the write to reach the backing region, got %d", got)
	}
}
