// Package vm implements the AML execution engine.
//
// This package contains:
//   - the tagged Object value model (Integer/String/Buffer/Package)
//   - per-activation state: 7 args, 8 locals, a fixed-depth execution
//     stack of tagged frames, and a fixed-depth operand stack
//   - the opcode decoder and the pure arithmetic/bitwise reducer
//   - the non-recursive execution loop
//   - method invocation, including the _OSI/_OS_/_REV pseudo-methods
package vm
