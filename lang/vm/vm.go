// Package vm implements the stack-based virtual machine that executes a
// compiled lang/chunk.Chunk: a fetch-decode-dispatch loop over a fixed-size
// value stack, the globals table, and the object heap the compiler filled in
// while emitting that chunk.
package vm

import (
	"errors"
	"fmt"
	"io"

	"github.com/mna/wisp/lang/chunk"
	"github.com/mna/wisp/lang/compiler"
	"github.com/mna/wisp/lang/heap"
	"github.com/mna/wisp/lang/table"
	"github.com/mna/wisp/lang/value"
)

// ErrCompileFailed is the error Interpret returns alongside
// InterpretCompileError. The full diagnostics have already been written to
// the VM's stderr; this value exists so embedders can errors.Is/errors.As
// on the cause without scraping stderr.
var ErrCompileFailed = errors.New("vm: compilation failed")

// stackMax is the fixed value-stack capacity. Exceeding it is a fatal error:
// the compiler's output should never drive the stack past this depth for any
// program this core can express, so an overflow here means a bug in the
// compiler or the VM itself, not a user mistake.
const stackMax = 256

// InterpretResult is the tri-state outcome of a top-level Interpret call.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

func (r InterpretResult) String() string {
	switch r {
	case InterpretOK:
		return "OK"
	case InterpretCompileError:
		return "COMPILE_ERROR"
	case InterpretRuntimeError:
		return "RUNTIME_ERROR"
	default:
		return "ILLEGAL"
	}
}

// FatalError is raised by push/pop on stack overflow or underflow. It is
// never returned from Interpret: it always propagates out as a panic, since
// it signals a bug in the compiler or VM rather than anything a user program
// can trigger, and should abort the process instead of being reported as a
// runtime error. Callers at the process boundary (the CLI shell) should
// recover it, print its message to stderr, and exit non-zero.
type FatalError struct{ msg string }

func (e FatalError) Error() string { return e.msg }

// VM holds all process-wide interpreter state: the value stack, the globals
// table, and the object heap. A VM is created once and reused across calls
// to Interpret until Free tears it down; each Interpret call owns its own
// Chunk, which is call-scoped and freed when Interpret returns regardless
// of outcome.
type VM struct {
	stack   [stackMax]value.Value
	sp      int
	globals table.Table
	heap    *heap.Heap

	stdout io.Writer
	stderr io.Writer

	chunk   *chunk.Chunk
	ip      int
	lastErr error

	trace    io.Writer // non-nil enables per-instruction tracing, written here
	maxSteps int64     // 0 means unbounded
}

// New returns a VM ready to interpret source, writing `print` output to
// stdout and diagnostics to stderr.
func New(stdout, stderr io.Writer) *VM {
	return &VM{
		heap:   heap.New(),
		stdout: stdout,
		stderr: stderr,
	}
}

// SetTrace enables or disables per-instruction tracing; a non-nil w gets one
// disassembled line per instruction executed, plus the stack's contents
// before it runs. Tracing is a diagnostic aid and its output format is not
// normative.
func (vm *VM) SetTrace(w io.Writer) { vm.trace = w }

// SetMaxSteps bounds how many instructions a single Interpret call will
// execute before it aborts with a runtime error; 0 (the default) means
// unbounded. This is a host-level guard, not part of the core VM contract.
func (vm *VM) SetMaxSteps(n int64) { vm.maxSteps = n }

// Free tears down the VM's process-wide state: the globals table first,
// since it holds non-owning references into objects the heap owns, then the
// object heap.
func (vm *VM) Free() {
	vm.globals = table.Table{}
	vm.heap.Free()
}

// GlobalNames returns the name of every currently defined global variable,
// in unspecified order. It exists for host tooling (the REPL's `:globals`
// inspection command), not for anything the core VM contract needs.
func (vm *VM) GlobalNames() []string {
	keys := vm.globals.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Chars
	}
	return names
}

// Interpret compiles source into a fresh chunk and, on success, runs it. It
// always frees the chunk before returning (the chunk itself — not the heap,
// which is process-wide and freed only by Free). The returned error is nil
// iff the result is InterpretOK; otherwise it wraps the same failure whose
// diagnostic text has already been written to stderr, for callers that want
// to inspect the cause programmatically instead of scraping stderr.
func (vm *VM) Interpret(source string) (InterpretResult, error) {
	var ch chunk.Chunk
	if !compiler.Compile(source, vm.heap, &ch, vm.stderr) {
		return InterpretCompileError, ErrCompileFailed
	}

	vm.chunk = &ch
	vm.ip = 0
	vm.lastErr = nil
	result := vm.run()
	vm.chunk = nil
	if result != InterpretOK {
		return result, vm.lastErr
	}
	return result, nil
}

func (vm *VM) push(v value.Value) {
	if vm.sp >= stackMax {
		panic(FatalError{"vm: stack overflow"})
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	if vm.sp <= 0 {
		panic(FatalError{"vm: stack underflow"})
	}
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.sp-1-distance]
}

func (vm *VM) resetStack() { vm.sp = 0 }

// printStackTrace writes the current stack's contents, bottom to top, as
// part of execution tracing.
func (vm *VM) printStackTrace() {
	fmt.Fprint(vm.trace, "          ")
	for i := 0; i < vm.sp; i++ {
		fmt.Fprintf(vm.trace, "[ %s ]", vm.stack[i].String())
	}
	fmt.Fprintln(vm.trace)
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readConstant() value.Value {
	return vm.chunk.Constants[vm.readByte()]
}

func (vm *VM) readConstantLong() value.Value {
	idx := int(vm.readByte()) | int(vm.readByte())<<8 | int(vm.readByte())<<16
	return vm.chunk.Constants[idx]
}

func (vm *VM) readString() *value.String {
	return vm.readConstant().(*value.String)
}

// run executes the bound chunk to completion or until a runtime error.
// Stack overflow or underflow panics with FatalError and is not recovered
// here; it is the CLI shell's job to catch it at the process boundary.
func (vm *VM) run() InterpretResult {
	var steps int64
	for {
		if vm.maxSteps > 0 {
			steps++
			if steps > vm.maxSteps {
				vm.runtimeError("Too many instructions executed (limit %d).", vm.maxSteps)
				return InterpretRuntimeError
			}
		}
		if vm.trace != nil {
			vm.printStackTrace()
			vm.chunk.DisassembleInstruction(vm.trace, vm.ip)
		}

		op := chunk.OpCode(vm.readByte())
		switch op {
		case chunk.OpConstant:
			vm.push(vm.readConstant())
		case chunk.OpConstantLong:
			vm.push(vm.readConstantLong())
		case chunk.OpNil:
			vm.push(value.Nil)
		case chunk.OpTrue:
			vm.push(value.Bool(true))
		case chunk.OpFalse:
			vm.push(value.Bool(false))
		case chunk.OpPop:
			vm.pop()
		case chunk.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case chunk.OpGreater:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.Bool(a > b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpLess:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.Bool(a < b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpAdd:
			if !vm.add() {
				return InterpretRuntimeError
			}
		case chunk.OpSubtract:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.Number(a - b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpMultiply:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.Number(a * b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpDivide:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.Number(a / b) }) {
				return InterpretRuntimeError
			}
		case chunk.OpNot:
			vm.push(value.Bool(!vm.pop().Truth()))
		case chunk.OpNegate:
			n, ok := vm.peek(0).(value.Number)
			if !ok {
				vm.runtimeError("Operand must be a number.")
				return InterpretRuntimeError
			}
			vm.pop()
			vm.push(-n)
		case chunk.OpPrint:
			fmt.Fprintln(vm.stdout, vm.pop().String())
		case chunk.OpDefineGlobal:
			name := vm.readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case chunk.OpGetGlobal:
			name := vm.readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return InterpretRuntimeError
			}
			vm.push(v)
		case chunk.OpSetGlobal:
			name := vm.readString()
			if vm.globals.Set(name, vm.peek(0)) {
				// the key was absent: Set created a new entry we must not leave
				// behind, since assignment to an undeclared global is an error
				vm.globals.Delete(name)
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return InterpretRuntimeError
			}
		case chunk.OpReturn:
			return InterpretOK
		default:
			vm.runtimeError("Unknown opcode %d.", byte(op))
			return InterpretRuntimeError
		}
	}
}

// binaryNumeric pops two operands, requiring both to be numbers, applies fn,
// and pushes the result. It reports whether the operation succeeded; on
// failure it has already reported the runtime error and left the stack
// reset.
func (vm *VM) binaryNumeric(fn func(a, b float64) value.Value) bool {
	bn, bok := vm.peek(0).(value.Number)
	an, aok := vm.peek(1).(value.Number)
	if !aok || !bok {
		vm.runtimeError("Operands must be numbers.")
		return false
	}
	vm.pop()
	vm.pop()
	vm.push(fn(float64(an), float64(bn)))
	return true
}

// add implements OP_ADD's two-shape dispatch: string concatenation when both
// operands are strings, numeric addition when both are numbers, and a
// runtime error otherwise.
func (vm *VM) add() bool {
	bs, bok := vm.peek(0).(*value.String)
	as, aok := vm.peek(1).(*value.String)
	if aok && bok {
		vm.pop()
		vm.pop()
		vm.push(vm.heap.Concat(as, bs))
		return true
	}

	bn, bnok := vm.peek(0).(value.Number)
	an, anok := vm.peek(1).(value.Number)
	if anok && bnok {
		vm.pop()
		vm.pop()
		vm.push(an + bn)
		return true
	}

	vm.runtimeError("Operands must be two numbers or two strings.")
	return false
}

// runtimeError writes a formatted diagnostic to stderr as "message\n[Line L]
// in script\n", using the line of the byte at ip-1, and resets the stack.
// ip has already advanced past the opcode and any operand bytes read so
// far; the compiler writes operand bytes with their opcode's line, so this
// is the line of the executing instruction. The step-limit error is raised
// before the next opcode is read, so it reports the line of the last
// instruction executed.
func (vm *VM) runtimeError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := vm.chunk.GetLine(vm.ip - 1)
	fmt.Fprintf(vm.stderr, "%s\n[Line %d] in script\n", msg, line)
	vm.lastErr = errors.New(msg)
	vm.resetStack()
}
