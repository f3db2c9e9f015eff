package vm

import "strings"

// Config tunes host-overridable behavior (spec §4.7, SPEC_FULL §3).
type Config struct {
	// OSIStrings is the allow-list \._OSI compares against, returning
	// 0xFFFFFFFF on a match. Defaults to the Windows version strings
	// from the implementation this engine is grounded on.
	OSIStrings []string
	// OSName is the string \._OS_ returns.
	OSName string
	// Revision is the integer \._REV returns.
	Revision uint64
	// MinSleepMS is the floor Sleep(ms) clamps to when ms == 0.
	MinSleepMS uint64
}

// DefaultConfig returns the reference OSI allow-list, OS name, and
// revision (SPEC_FULL §3), with a 1ms minimum sleep.
func DefaultConfig() Config {
	return Config{
		OSIStrings: []string{
			"Windows 2000",
			"Windows 2001",
			"Windows 2001 SP1",
			"Windows 2001.1",
			"Windows 2006",
			"Windows 2006.1",
			"Windows 2006 SP1",
			"Windows 2006 SP2",
			"Windows 2009",
			"Windows 2012",
			"Windows 2013",
			"Windows 2015",
		},
		OSName:     "Microsoft Windows NT",
		Revision:   2,
		MinSleepMS: 1,
	}
}

// Engine runs AML methods against a Namespace under a Config. It
// holds no per-activation state itself — Engine is safe to share
// across concurrent activations only insofar as the caller's
// Namespace enforces the serialization spec §5 requires.
type Engine struct {
	Config Config
}

// NewEngine returns an Engine with the default configuration.
func NewEngine() *Engine {
	return &Engine{Config: DefaultConfig()}
}

// ExecMethod runs the method named by method.Path with the given
// arguments (spec §6 exec_method). On success it returns the method's
// result; the activation's args and locals are released before
// returning.
func (e *Engine) ExecMethod(ns Namespace, method *Method, args []Object) (result Object, err error) {
	return e.ExecMethodTracked(ns, method, args, nil)
}

// ExecMethodTracked is ExecMethod, but additionally invokes onActivation
// with the freshly built *Activation the moment it exists — before the
// execution loop runs, and while it is still live for the whole call.
// This lets a caller running ExecMethod on another goroutine (spec §5's
// external watchdog) capture a pointer to the in-flight Args/Locals for
// an abandonment snapshot; reading it concurrently with the executing
// goroutine is a best-effort, racy peek at in-progress state, the same
// tradeoff any live debugger snapshot makes. onActivation may be nil.
func (e *Engine) ExecMethodTracked(ns Namespace, method *Method, args []Object, onActivation func(*Activation)) (result Object, err error) {
	defer recoverFatal(&err)
	node := &Node{Type: NodeMethod, Path: method.Path, Method: method}
	return e.runMethodNode(ns, node, args, scopeOf(method.Path), onActivation), nil
}

// MethodInvoke resolves and invokes a callee named at body[0:] inline,
// against the caller's activation and scope (spec §6 methodinvoke).
// It returns the callee's result and the number of bytes consumed
// (name plus arguments), preserving the callee's error rather than
// discarding it as the reference implementation does (SPEC_FULL §3).
func (e *Engine) MethodInvoke(caller *Activation, ns Namespace, scope string, body []byte) (result Object, consumed int, err error) {
	defer recoverFatal(&err)
	path, nameConsumed := ns.ResolvePath(scope, body)
	node, ok := ns.Lookup(path)
	if !ok || node.Type != NodeMethod {
		panic(FatalErrorf("aml: methodinvoke: %q is not a method", path))
	}
	result, argsConsumed := e.invokeAt(caller, ns, scope, node, body[nameConsumed:], nil)
	return result, nameConsumed + argsConsumed, nil
}

// invokeAt parses argc argument expressions out of argBody (evaluated
// against the caller's activation and scope, since arguments may read
// the caller's Args/Locals/namespace), builds a fresh activation for
// node, runs it, and returns its result plus the bytes argBody
// consumed.
func (e *Engine) invokeAt(caller *Activation, ns Namespace, scope string, node *Node, argBody []byte, onActivation func(*Activation)) (result Object, consumed int) {
	argc := 0
	if node.Method != nil {
		argc = node.Method.Argc
	}
	args := make([]Object, argc)
	off := 0
	for i := 0; i < argc; i++ {
		v, n := ns.EvalObject(caller, scope, argBody[off:])
		args[i] = v
		off += n
	}
	return e.runMethodNode(ns, node, args, scope, onActivation), off
}

// runMethodNode is the common path for both the public ExecMethod
// entry point and inline MethodInvocation: it checks the _OSI/_OS_/
// _REV pseudo-methods first (they short-circuit before the execution
// loop ever runs, spec §4.7), otherwise builds a fresh Activation,
// runs the non-recursive execution loop to completion, and moves the
// resulting Object out before releasing the activation. onActivation,
// if non-nil, is called with the Activation right after it is built.
func (e *Engine) runMethodNode(ns Namespace, node *Node, args []Object, scope string, onActivation func(*Activation)) Object {
	switch node.Path {
	case "\\._OSI", "_OSI":
		return e.evalOSI(args)
	case "\\._OS_", "_OS_":
		return NewString(e.Config.OSName)
	case "\\._REV", "_REV":
		return NewInteger(e.Config.Revision)
	}

	if node.Method == nil {
		panic(FatalErrorf("aml: %q has no method body", node.Path))
	}

	a := NewActivation(node.Method)
	if onActivation != nil {
		onActivation(a)
	}
	for i := 0; i < len(args) && i < MaxArgs; i++ {
		a.Arg[i] = args[i]
	}

	e.runActivation(a, ns, scopeOf(node.Path))

	result := Move(&a.Ret)
	a.Finalize()
	return result
}

func (e *Engine) evalOSI(args []Object) Object {
	if len(args) == 0 || args[0].Kind() != KindString {
		panic(FatalErrorf("aml: _OSI called with no string argument"))
	}
	requested := string(args[0].Bytes())
	if requested == "Linux" {
		hostlogWarnf("aml: buggy BIOS requested _OSI(\"Linux\"), ignoring")
		return NewInteger(0)
	}
	for _, known := range e.Config.OSIStrings {
		if known == requested {
			return NewInteger(0xFFFFFFFF)
		}
	}
	return NewInteger(0)
}

// scopeOf returns the parent scope of an absolute AML path, e.g.
// "\\_SB.PCI0._OSI" -> "\\_SB.PCI0".
func scopeOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "\\"
	}
	return path[:i]
}
