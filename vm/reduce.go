package vm

// reduce is the pure function from (opcode, operands) to a result
// Object, grounded on acpi_exec_reduce. It is the only place integer
// arithmetic and STORE/NOT happen; the engine calls it once an Op
// frame's operand count is satisfied (§4.6).
//
// An opcode reaching here that reduce does not recognize is a fatal
// interpreter error (§4.4): the decoder is responsible for only ever
// opening Op frames for opcodes reduce knows about.
func reduce(opcode Opcode, operands []Object) Object {
	switch opcode {
	case StoreOp:
		// The reducer's output is x itself; the caller performs the
		// move and the post-reduce write-back (§4.6.1).
		return operands[0]

	case NotOp:
		return NewInteger(^operands[0].Integer())

	case AddOp:
		return NewInteger(operands[0].Integer() + operands[1].Integer())
	case SubtractOp:
		return NewInteger(operands[0].Integer() - operands[1].Integer())
	case MultiplyOp:
		return NewInteger(operands[0].Integer() * operands[1].Integer())
	case AndOp:
		return NewInteger(operands[0].Integer() & operands[1].Integer())
	case OrOp:
		return NewInteger(operands[0].Integer() | operands[1].Integer())
	case XorOp:
		return NewInteger(operands[0].Integer() ^ operands[1].Integer())
	case ShlOp:
		count := operands[1].Integer() & 63
		return NewInteger(operands[0].Integer() << count)
	case ShrOp:
		count := operands[1].Integer() & 63
		return NewInteger(operands[0].Integer() >> count)

	default:
		panic(FatalErrorf("reduce: unknown opcode %s", opcode))
	}
}
