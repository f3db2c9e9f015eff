package namespace

import (
	"strings"
	"time"

	"github.com/amlvm/engine/vm"
)

const nameSegLen = 4

// ResolvePath implements vm.Namespace: decodes a NameString at
// body[0:] against scope, returning the absolute path and the number
// of bytes consumed.
func (t *Tree) ResolvePath(scope string, body []byte) (string, int) {
	i := 0
	cur := scope

	for i < len(body) && body[i] == '\\' {
		cur = "\\"
		i++
	}
	for i < len(body) && body[i] == '^' {
		cur = parentOf(cur)
		i++
	}

	if i < len(body) && body[i] == 0x00 {
		// NullName: refers to the scope itself.
		return cur, i + 1
	}

	var segs []string
	switch {
	case i < len(body) && body[i] == 0x2E: // DualNamePrefix
		i++
		segs = append(segs, string(body[i:i+nameSegLen]))
		i += nameSegLen
		segs = append(segs, string(body[i:i+nameSegLen]))
		i += nameSegLen
	case i < len(body) && body[i] == 0x2F: // MultiNamePrefix
		i++
		count := int(body[i])
		i++
		for n := 0; n < count; n++ {
			segs = append(segs, string(body[i:i+nameSegLen]))
			i += nameSegLen
		}
	default:
		segs = append(segs, string(body[i:i+nameSegLen]))
		i += nameSegLen
	}

	path := cur
	for _, s := range segs {
		path = join(path, strings.TrimRight(s, "_"))
	}
	return path, i
}

func parentOf(path string) string {
	if path == "\\" || path == "" {
		return "\\"
	}
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return "\\"
	}
	return path[:idx]
}

// CreatePackage implements vm.Namespace: parses numElements TermArg
// expressions out of body via EvalObject.
func (t *Tree) CreatePackage(scope string, body []byte, numElements int) []vm.Object {
	elems := make([]vm.Object, 0, numElements)
	off := 0
	for len(elems) < numElements && off < len(body) {
		v, n := t.evalObjectLocked(nil, scope, body[off:])
		elems = append(elems, v)
		off += n
	}
	for len(elems) < numElements {
		elems = append(elems, vm.NewInteger(0))
	}
	return elems
}

// DeclareName implements vm.Namespace: parses a NameString followed by
// a DataRefObject and binds it, matching NAME_OP's grammar.
func (t *Tree) DeclareName(scope string, body []byte) int {
	path, consumed := t.ResolvePath(scope, body)
	val, n := t.evalObjectLocked(nil, scope, body[consumed:])
	t.Bind(path, val)
	return consumed + n
}

// DeclareField implements vm.Namespace for BYTEFIELD_OP/WORDFIELD_OP/
// DWORDFIELD_OP: NameString(source buffer) + TermArg(byte index) +
// NameString(new field name). The reference tree exposes the created
// field as a Name bound to the read snapshot rather than wiring a
// live buffer-aliasing region, since no OpRegion backs a CreateXField
// target in this reference implementation.
func (t *Tree) DeclareField(scope string, op vm.Opcode, body []byte) int {
	srcPath, srcConsumed := t.ResolvePath(scope, body)
	off := srcConsumed
	idx, idxConsumed := t.evalObjectLocked(nil, scope, body[off:])
	off += idxConsumed
	fieldPath, nameConsumed := t.ResolvePath(scope, body[off:])
	off += nameConsumed
	width := map[vm.Opcode]int{vm.ByteFieldOp: 1, vm.WordFieldOp: 2, vm.DWordFieldOp: 4}[op]
	var v uint64
	if src, ok := t.Lookup(srcPath); ok && src.Type == vm.NodeName {
		buf, start := src.Bound.Bytes(), int(idx.Integer())
		for i := 0; i < width && start >= 0 && start+i < len(buf); i++ {
			v |= uint64(buf[start+i]) << (8 * i)
		}
	}
	t.Bind(fieldPath, vm.NewInteger(v))
	return off
}

// ReadOpRegion implements vm.Namespace.
func (t *Tree) ReadOpRegion(node *vm.Node) vm.Object {
	t.mu.RLock()
	r, ok := t.regions[node.Path]
	t.mu.RUnlock()
	if !ok {
		return vm.NewInteger(0)
	}
	return r.Read()
}

// WriteOpRegion implements vm.Namespace.
func (t *Tree) WriteOpRegion(node *vm.Node, val vm.Object) {
	t.mu.RLock()
	r, ok := t.regions[node.Path]
	t.mu.RUnlock()
	if ok {
		r.Write(val)
	}
}

// EvalInteger implements vm.Namespace for the small subset of
// TermArgs that reduce to a plain integer (used for Sleep's operand).
func (t *Tree) EvalInteger(a *vm.Activation, scope string, body []byte) (uint64, int) {
	v, n := t.evalObjectLocked(a, scope, body)
	return v.Integer(), n
}

// EvalObject implements vm.Namespace's general fallback evaluator: it
// understands literal integers, strings, and plain name references —
// the TermArg shapes that appear as MethodInvocation arguments, If/
// While predicates, and Return's result expression when they are not
// already handled inline by the engine's own decode loop.
func (t *Tree) EvalObject(a *vm.Activation, scope string, body []byte) (vm.Object, int) {
	return t.evalObjectLocked(a, scope, body)
}

func (t *Tree) evalObjectLocked(a *vm.Activation, scope string, body []byte) (vm.Object, int) {
	if len(body) == 0 {
		return vm.NewInteger(0), 0
	}
	b := body[0]

	switch vm.Opcode(b) {
	case vm.ZeroOp:
		return vm.NewInteger(0), 1
	case vm.OneOp:
		return vm.NewInteger(1), 1
	case vm.OnesOp:
		return vm.NewInteger(^uint64(0)), 1
	case vm.BytePrefix, vm.WordPrefix, vm.DWordPrefix, vm.QWordPrefix:
		return evalIntegerLiteral(vm.Opcode(b), body[1:])
	case vm.StringOp:
		end := 1
		for end < len(body) && body[end] != 0 {
			end++
		}
		return vm.NewString(string(body[1:end])), end + 1
	}

	if idx, ok := vm.Opcode(b).IsArg(); ok && a != nil {
		return vm.Copy(a.Arg[idx]), 1
	}
	if idx, ok := vm.Opcode(b).IsLocal(); ok && a != nil {
		return vm.Copy(a.Local[idx]), 1
	}

	if isNameByte(b) {
		path, consumed := t.ResolvePath(scope, body)
		node, ok := t.Lookup(path)
		if !ok {
			return vm.NewInteger(0), consumed
		}
		switch node.Type {
		case vm.NodeName:
			return vm.Copy(node.Bound), consumed
		case vm.NodeField, vm.NodeIndexField:
			return t.ReadOpRegion(node), consumed
		default:
			return vm.NewInteger(0), consumed
		}
	}

	return vm.NewInteger(0), 1
}

func isNameByte(b byte) bool {
	switch b {
	case '\\', '^', 0x2E, 0x2F:
		return true
	}
	return (b >= 'A' && b <= 'Z') || b == '_'
}

func evalIntegerLiteral(prefix vm.Opcode, rest []byte) (vm.Object, int) {
	switch prefix {
	case vm.BytePrefix:
		return vm.NewInteger(uint64(rest[0])), 2
	case vm.WordPrefix:
		return vm.NewInteger(uint64(rest[0]) | uint64(rest[1])<<8), 3
	case vm.DWordPrefix:
		v := uint64(0)
		for i := 0; i < 4; i++ {
			v |= uint64(rest[i]) << (8 * i)
		}
		return vm.NewInteger(v), 5
	case vm.QWordPrefix:
		v := uint64(0)
		for i := 0; i < 8; i++ {
			v |= uint64(rest[i]) << (8 * i)
		}
		return vm.NewInteger(v), 9
	}
	return vm.NewInteger(0), 1
}

// Sleep implements vm.Namespace's platform suspension point.
func (t *Tree) Sleep(ms uint64) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
