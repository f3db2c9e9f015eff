// Package namespace implements the ACPI namespace subsystem the core
// engine (package vm) consumes as an external collaborator (spec §1,
// §6): path resolution, Name/Method/Field storage, and a reference
// Operation Region provider. It is the "external namespace tree"
// spec.md deliberately leaves unspecified, built here so the engine
// can run and be tested end to end.
package namespace

import (
	"context"
	"strings"

	deadlock "github.com/sasha-s/go-deadlock"
	"golang.org/x/sync/semaphore"

	"github.com/amlvm/engine/vm"
)

// Tree is an in-memory namespace: a flat path-keyed table of nodes
// guarded by a deadlock-detecting mutex, plus a weighted semaphore
// serializing concurrent activations against it (spec §5: "callers
// must ensure serialized execution or provide their own locking").
//
// Grounded on the teacher's vm/class.go ClassTable (a mutex-guarded
// map-keyed registry) and vm/selector.go's interning table for the
// registry shape; the deadlock/semaphore pair replaces the teacher's
// plain sync.RWMutex the way the pack's own dependency graph favors
// an ecosystem lock over the bare stdlib type once one is available.
type Tree struct {
	mu    deadlock.RWMutex
	nodes map[string]*vm.Node

	lock *semaphore.Weighted // weight 1: one activation touches the tree at a time

	regions map[string]Region // path -> backing Operation Region
}

// Region is the platform-supplied backing store for a Field or
// IndexField node (memory, port, or PCI config I/O in a real host;
// spec §6 "Consumed from the OpRegion subsystem").
type Region interface {
	Read() vm.Object
	Write(vm.Object)
}

// NewTree returns an empty namespace rooted at "\\".
func NewTree() *Tree {
	return &Tree{
		nodes:   make(map[string]*vm.Node),
		lock:    semaphore.NewWeighted(1),
		regions: make(map[string]Region),
	}
}

// Lock acquires the tree's serialization semaphore for the duration of
// one activation, per spec §5. Callers running concurrent activations
// against a shared Tree must bracket ExecMethod/MethodInvoke with
// Lock/Unlock (or use LockCtx to make the wait cancelable).
func (t *Tree) Lock() { _ = t.lock.Acquire(context.Background(), 1) }

// LockCtx is Lock with a cancelable/timeout-bound wait, for callers
// that must bound how long an activation waits for the namespace.
func (t *Tree) LockCtx(ctx context.Context) error { return t.lock.Acquire(ctx, 1) }

// Unlock releases the tree's serialization semaphore.
func (t *Tree) Unlock() { t.lock.Release(1) }

// Bind binds obj at path, creating or replacing a Name node. Used to
// build a namespace fixture directly (tests, cmd/amlrun) and by
// DeclareName's NAME_OP handling once it has evaluated the value.
func (t *Tree) Bind(path string, obj vm.Object) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nodes[path] = &vm.Node{Type: vm.NodeName, Path: path, Bound: obj}
}

// DeclareMethod binds a callable method body at path.
func (t *Tree) DeclareMethod(path string, body []byte, argc int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := &vm.Method{Path: path, Body: body, Argc: argc}
	t.nodes[path] = &vm.Node{Type: vm.NodeMethod, Path: path, Method: m}
}

// DeclareFieldRegion binds a Field (or IndexField) node at path,
// backed by region for OpRegion reads/writes.
func (t *Tree) DeclareFieldRegion(path string, indexed bool, region Region) {
	t.mu.Lock()
	defer t.mu.Unlock()
	typ := vm.NodeField
	if indexed {
		typ = vm.NodeIndexField
	}
	t.nodes[path] = &vm.Node{Type: typ, Path: path}
	t.regions[path] = region
}

// Lookup implements vm.Namespace.
func (t *Tree) Lookup(path string) (*vm.Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[path]
	return n, ok
}

// join appends a relative segment path onto a scope, normalizing the
// doubled-root/empty-segment cases NameString concatenation produces.
func join(scope, seg string) string {
	if seg == "" {
		return scope
	}
	if strings.HasPrefix(seg, "\\") {
		return seg
	}
	if scope == "\\" {
		return "\\" + seg
	}
	return scope + "." + seg
}
