package vm

// returnSentinelOp is an internal Op-frame marker pushed by RETURN_OP.
// It is never a byte that appears in AML bytecode; it lets RETURN_OP's
// result expression flow through the same Op-frame/reducer machinery
// as any other expression (spec's own reducer/Op-frame design),
// instead of requiring a fifth Frame kind.
const returnSentinelOp Opcode = 0xF0

// runActivation drives the non-recursive execution loop over a's
// method body (spec §4.6) until the activation's MethodContext frame
// is popped, leaving the result (if any) in a.Ret.
func (e *Engine) runActivation(a *Activation, ns Namespace, scope string) {
	body := a.Handle.Body

	mc := a.PushFrame()
	mc.Kind = FrameMethodContext

	for {
		top, ok := a.PeekFrame(0)
		if !ok {
			return
		}

		wantResult := false

		switch top.Kind {
		case FrameMethodContext:
			if a.ip >= len(body) {
				if a.OperandDepth() != 0 {
					panic(FatalErrorf("aml: operand stack not empty (%d) at implicit return", a.OperandDepth()))
				}
				// Per property 3, operand-stack depth must be exactly 1
				// at the instant MethodContext is popped, on this path
				// as much as RETURN_OP's: push the implicit Integer(0)
				// through the opstack and leave the slot counted rather
				// than popping it.
				a.PushOperandValue(NewInteger(0))
				a.Ret = NewInteger(0)
				a.PopFrames(1)
				continue
			}

		case FrameOp:
			if a.OperandDepth() == top.OpstackBase+top.NumOperands {
				e.reduceOp(a, ns, scope, body, top)
				continue
			}
			wantResult = true

		case FrameLoop:
			if a.ip == top.PredOffset {
				pred, n := ns.EvalObject(a, scope, body[a.ip:])
				a.ip += n
				if !pred.IsTrue() {
					a.ip = top.EndOffset
					a.PopFrames(1)
				}
				continue
			} else if a.ip == top.EndOffset {
				a.ip = top.PredOffset
				continue
			}
			if a.ip > top.EndOffset {
				panic(FatalErrorf("aml: loop body overran its end offset"))
			}

		case FrameCond:
			if !top.Taken {
				// The If-body was skipped; if an Else follows, consume
				// only its ELSE_OP + PkgLength header so execution
				// continues into the Else TermList as ordinary
				// statements of the enclosing scope.
				if a.ip < len(body) && Opcode(body[a.ip]) == ElseOp {
					a.ip++
					_, consumed := parsePkgLength(body[a.ip:])
					a.ip += consumed
				}
				a.PopFrames(1)
				continue
			}
			if a.ip == top.EndOffset {
				// The If-body ran; an Else must be skipped in full.
				if a.ip < len(body) && Opcode(body[a.ip]) == ElseOp {
					a.ip++
					n, _ := parsePkgLength(body[a.ip:])
					a.ip += n
				}
				a.PopFrames(1)
				continue
			}
		}

		e.decodeOne(a, ns, scope, body, wantResult)
	}
}

// reduceOp finishes a satisfied Op frame: runs the reducer (or, for
// the RETURN_OP sentinel, performs the return-frame unwind), then
// performs the AML Target write-back that follows the expression in
// the byte stream (§4.6.1).
func (e *Engine) reduceOp(a *Activation, ns Namespace, scope string, body []byte, top *Frame) {
	base, n := top.OpstackBase, top.NumOperands
	wantResult := top.WantResult

	if top.Opcode == returnSentinelOp {
		// Per property 3, operand-stack depth must be exactly 1 at
		// the instant MethodContext is popped: Move the value out of
		// its slot but leave the slot counted, rather than popping it.
		retval := Move(a.GetOperand(base))
		idx, ok := a.findMethodContext()
		if !ok {
			panic(FatalErrorf("aml: RETURN_OP with no enclosing MethodContext"))
		}
		a.Ret = retval
		a.PopFrames(a.StackDepth() - idx)
		return
	}

	operands := make([]Object, n)
	for i := 0; i < n; i++ {
		operands[i] = *a.GetOperand(base + i)
	}
	result := reduce(top.Opcode, operands)

	a.PopOperands(n)
	if wantResult {
		a.PushOperandValue(Copy(result))
	}

	consumed := writeBack(a, ns, scope, body[a.ip:], result)
	a.ip += consumed
	a.PopFrames(1)
}

// findMethodContext scans from the top of the execution stack for the
// nearest MethodContext frame, returning its index from the bottom.
func (a *Activation) findMethodContext() (int, bool) {
	for i := a.stackPtr; i >= 0; i-- {
		if a.stack[i].Kind == FrameMethodContext {
			return i, true
		}
	}
	return 0, false
}

// findLoop scans from the top of the execution stack for the nearest
// Loop frame, returning its index from the bottom.
func (a *Activation) findLoop() (int, bool) {
	for i := a.stackPtr; i >= 0; i-- {
		if a.stack[i].Kind == FrameLoop {
			return i, true
		}
	}
	return 0, false
}

// decodeOne classifies and dispatches the opcode at body[a.ip],
// pushing a value onto the operand stack when wantResult is set, or
// opening a new execution-stack frame (spec §4.6.2).
func (e *Engine) decodeOne(a *Activation, ns Namespace, scope string, body []byte, wantResult bool) {
	b := body[a.ip]

	if isNameByte(b) {
		e.dispatchName(a, ns, scope, body, wantResult)
		return
	}

	if n, ok := Opcode(b).OperandCount(); ok {
		op := a.PushFrame()
		op.Kind = FrameOp
		op.Opcode = Opcode(b)
		op.OpstackBase = a.OperandDepth()
		op.NumOperands = n
		op.WantResult = wantResult
		a.ip++
		return
	}

	if idx, ok := Opcode(b).IsArg(); ok {
		if wantResult {
			a.PushOperandValue(Copy(a.Arg[idx]))
		}
		a.ip++
		return
	}
	if idx, ok := Opcode(b).IsLocal(); ok {
		if wantResult {
			a.PushOperandValue(Copy(a.Local[idx]))
		}
		a.ip++
		return
	}

	switch Opcode(b) {
	case ZeroOp:
		if wantResult {
			a.PushOperandValue(NewInteger(0))
		}
		a.ip++

	case OneOp:
		if wantResult {
			a.PushOperandValue(NewInteger(1))
		}
		a.ip++

	case OnesOp:
		if wantResult {
			a.PushOperandValue(NewInteger(^uint64(0)))
		}
		a.ip++

	case BytePrefix, WordPrefix, DWordPrefix, QWordPrefix:
		v, n := readInteger(Opcode(b), body[a.ip+1:])
		a.ip += 1 + n
		if wantResult {
			a.PushOperandValue(NewInteger(v))
		}

	case NopOp:
		a.ip++

	case PackageOp, VarPackageOp:
		e.dispatchPackage(a, ns, scope, body, wantResult)

	case IfOp:
		e.dispatchIf(a, ns, scope, body)

	case ElseOp:
		panic(FatalErrorf("aml: ELSE_OP not consumed by a preceding IF_OP"))

	case WhileOp:
		e.dispatchWhile(a, body)

	case BreakOp:
		a.ip++
		idx, ok := a.findLoop()
		if !ok {
			panic(FatalErrorf("aml: BREAK_OP with no enclosing Loop"))
		}
		a.ip = a.stack[idx].EndOffset
		a.PopFrames(a.StackDepth() - idx)

	case ContinueOp:
		a.ip++
		idx, ok := a.findLoop()
		if !ok {
			panic(FatalErrorf("aml: CONTINUE_OP with no enclosing Loop"))
		}
		a.ip = a.stack[idx].PredOffset
		a.PopFrames(a.StackDepth() - 1 - idx)

	case ReturnOp:
		a.ip++
		op := a.PushFrame()
		op.Kind = FrameOp
		op.Opcode = returnSentinelOp
		op.OpstackBase = a.OperandDepth()
		op.NumOperands = 1
		op.WantResult = true

	case NameOp:
		a.ip++
		consumed := ns.DeclareName(scope, body[a.ip:])
		a.ip += consumed

	case ByteFieldOp, WordFieldOp, DWordFieldOp:
		op := Opcode(b)
		a.ip++
		consumed := ns.DeclareField(scope, op, body[a.ip:])
		a.ip += consumed

	case IncrementOp, DecrementOp:
		e.dispatchIncDec(a, ns, scope, body, Opcode(b), wantResult)

	case DivideOp:
		e.dispatchDivide(a, ns, scope, body, wantResult)

	default:
		if Opcode(b) == ExtOpPfx {
			e.dispatchExt(a, ns, scope, body, wantResult)
			return
		}
		hostlogDebugf("aml: unhandled opcode %s, delegating", Opcode(b))
		result, consumed := ns.EvalObject(a, scope, body[a.ip:])
		a.ip += consumed
		if wantResult {
			a.PushOperandValue(result)
		} else {
			Release(&result)
		}
	}
}

func (e *Engine) dispatchExt(a *Activation, ns Namespace, scope string, body []byte, wantResult bool) {
	ext := (ExtOpcode(body[a.ip]) << 8) | ExtOpcode(body[a.ip+1])
	if ext == SleepOp {
		a.ip += 2
		ms, n := ns.EvalInteger(a, scope, body[a.ip:])
		a.ip += n
		if ms == 0 {
			ms = e.Config.MinSleepMS
		}
		ns.Sleep(ms)
		return
	}
	hostlogDebugf("aml: unhandled extended opcode %s, delegating", ext)
	result, consumed := ns.EvalObject(a, scope, body[a.ip:])
	a.ip += consumed
	if wantResult {
		a.PushOperandValue(result)
	} else {
		Release(&result)
	}
}

func (e *Engine) dispatchName(a *Activation, ns Namespace, scope string, body []byte, wantResult bool) {
	path, consumed := ns.ResolvePath(scope, body[a.ip:])
	node, ok := ns.Lookup(path)
	if !ok {
		panic(FatalErrorf("aml: undefined reference %q", path))
	}

	switch node.Type {
	case NodeMethod:
		result, argsConsumed := e.invokeAt(a, ns, scope, node, body[a.ip+consumed:], nil)
		a.ip += consumed + argsConsumed
		if wantResult {
			a.PushOperandValue(result)
		} else {
			Release(&result)
		}
	case NodeName:
		a.ip += consumed
		if wantResult {
			a.PushOperandValue(Copy(node.Bound))
		}
	case NodeField, NodeIndexField:
		a.ip += consumed
		if wantResult {
			a.PushOperandValue(ns.ReadOpRegion(node))
		}
	default:
		panic(FatalErrorf("aml: name %q resolved to unsupported node type %d", path, node.Type))
	}
}

func (e *Engine) dispatchPackage(a *Activation, ns Namespace, scope string, body []byte, wantResult bool) {
	a.ip++
	length, lenBytes := parsePkgLength(body[a.ip:])
	pkgStart := a.ip
	a.ip += lenBytes
	numElements := int(body[a.ip])
	a.ip++
	elems := ns.CreatePackage(scope, body[a.ip:], numElements)
	a.ip = pkgStart + length
	if wantResult {
		a.PushOperandValue(NewPackage(elems))
	}
}

func (e *Engine) dispatchIf(a *Activation, ns Namespace, scope string, body []byte) {
	a.ip++
	length, lenBytes := parsePkgLength(body[a.ip:])
	pkgStart := a.ip
	a.ip += lenBytes
	endOffset := pkgStart + length

	pred, consumed := ns.EvalObject(a, scope, body[a.ip:])
	a.ip += consumed
	taken := pred.IsTrue()

	cond := a.PushFrame()
	cond.Kind = FrameCond
	cond.Taken = taken
	cond.EndOffset = endOffset
	if !taken {
		a.ip = endOffset
	}
}

func (e *Engine) dispatchWhile(a *Activation, body []byte) {
	a.ip++
	length, lenBytes := parsePkgLength(body[a.ip:])
	pkgStart := a.ip
	a.ip += lenBytes
	endOffset := pkgStart + length
	predOffset := a.ip

	loop := a.PushFrame()
	loop.Kind = FrameLoop
	loop.PredOffset = predOffset
	loop.EndOffset = endOffset
	a.ip = predOffset
}

// dispatchIncDec handles INCREMENT_OP/DECREMENT_OP's SuperName target,
// which — like any Target (target.go) — may be Arg0..6, Local0..7, or a
// NameString, and must be checked in that order before falling back to
// namespace resolution.
func (e *Engine) dispatchIncDec(a *Activation, ns Namespace, scope string, body []byte, op Opcode, wantResult bool) {
	a.ip++
	b := body[a.ip]

	delta := func(v uint64) uint64 {
		if op == IncrementOp {
			return v + 1
		}
		return v - 1
	}

	if idx, ok := Opcode(b).IsArg(); ok {
		v := delta(a.Arg[idx].Integer())
		a.Arg[idx] = NewInteger(v)
		a.ip++
		if wantResult {
			a.PushOperandValue(NewInteger(v))
		}
		return
	}
	if idx, ok := Opcode(b).IsLocal(); ok {
		v := delta(a.Local[idx].Integer())
		a.Local[idx] = NewInteger(v)
		a.ip++
		if wantResult {
			a.PushOperandValue(NewInteger(v))
		}
		return
	}

	path, consumed := ns.ResolvePath(scope, body[a.ip:])
	a.ip += consumed
	node, ok := ns.Lookup(path)
	if !ok || node.Type != NodeName {
		panic(FatalErrorf("aml: %s target %q is not a Name", op, path))
	}
	v := delta(node.Bound.Integer())
	node.Bound = NewInteger(v)
	if wantResult {
		a.PushOperandValue(NewInteger(v))
	}
}

func (e *Engine) dispatchDivide(a *Activation, ns Namespace, scope string, body []byte, wantResult bool) {
	a.ip++
	dividend, n1 := ns.EvalObject(a, scope, body[a.ip:])
	a.ip += n1
	divisor, n2 := ns.EvalObject(a, scope, body[a.ip:])
	a.ip += n2
	if divisor.Integer() == 0 {
		panic(FatalErrorf("aml: DIVIDE_OP by zero"))
	}
	quotient := NewInteger(dividend.Integer() / divisor.Integer())
	remainder := NewInteger(dividend.Integer() % divisor.Integer())

	a.ip += writeBack(a, ns, scope, body[a.ip:], remainder)
	a.ip += writeBack(a, ns, scope, body[a.ip:], quotient)

	if wantResult {
		a.PushOperandValue(quotient)
	}
}
