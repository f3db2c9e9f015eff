package vm

// NullTarget is the single-byte Target encoding meaning "discard the
// result" (spec Design Notes: "Write-back ambiguity").
const NullTarget byte = 0x00

// DebugObjExt is the extended-opcode Target naming the ACPI Debug
// object; writes to it are host-observable logging, not storage.
const DebugObjExt ExtOpcode = (ExtOpcode(ExtOpPfx) << 8) | 0x31

// writeBack consumes the AML Target encoding following a reduced Op
// expression and stores result into it, per §4.6.1. It returns the
// number of bytes the Target encoding occupied.
func writeBack(a *Activation, ns Namespace, scope string, body []byte, result Object) int {
	if len(body) == 0 {
		return 0
	}

	if body[0] == NullTarget {
		return 1
	}

	if Opcode(body[0]) == ExtOpPfx && len(body) >= 2 {
		ext := (ExtOpcode(body[0]) << 8) | ExtOpcode(body[1])
		if ext == DebugObjExt {
			hostlogDebugf("aml: Debug = %v", result)
			return 2
		}
	}

	if idx, ok := Opcode(body[0]).IsArg(); ok {
		Release(&a.Arg[idx])
		a.Arg[idx] = Copy(result)
		return 1
	}
	if idx, ok := Opcode(body[0]).IsLocal(); ok {
		Release(&a.Local[idx])
		a.Local[idx] = Copy(result)
		return 1
	}

	if isNameByte(body[0]) {
		path, consumed := ns.ResolvePath(scope, body)
		node, ok := ns.Lookup(path)
		if !ok {
			panic(FatalErrorf("aml: store to undefined name %q", path))
		}
		switch node.Type {
		case NodeName:
			node.Bound = Copy(result)
		case NodeField, NodeIndexField:
			ns.WriteOpRegion(node, result)
		default:
			panic(FatalErrorf("aml: store target %q is not a Name or Field (type %d)", path, node.Type))
		}
		return consumed
	}

	panic(FatalErrorf("aml: unrecognized Target encoding 0x%02X", body[0]))
}
