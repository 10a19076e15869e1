// Package chunk implements the growable bytecode buffer, constant pool, and
// run-length line table the compiler emits into and the VM executes from.
package chunk

import "github.com/mna/wisp/lang/value"

// lineRun is one run-length-encoded entry of the line table: Run consecutive
// bytes, all emitted while compiling source line Line.
type lineRun struct {
	Line int
	Run  int
}

// Chunk is a single compiled unit: a byte-code stream, its constant pool,
// and the line table mapping byte offsets back to source lines for
// diagnostics. A Chunk's lifetime is scoped to one top-level interpret call.
type Chunk struct {
	Code      []byte
	Constants []value.Value
	lines     []lineRun
}

// growCapacity implements the growth policy for every array owned by a
// Chunk: zero to 8, then double. Go's append would grow these slices on its
// own, but with a capacity-growth curve that isn't guaranteed stable across
// releases; pre-sizing by hand here keeps Chunk's growth behavior explicit
// and testable.
func growCapacity(oldCap int) int {
	if oldCap < 8 {
		return 8
	}
	return oldCap * 2
}

func growBytes(s []byte) []byte {
	ns := make([]byte, len(s), growCapacity(cap(s)))
	copy(ns, s)
	return ns
}

func growValues(s []value.Value) []value.Value {
	ns := make([]value.Value, len(s), growCapacity(cap(s)))
	copy(ns, s)
	return ns
}

func growLines(s []lineRun) []lineRun {
	ns := make([]lineRun, len(s), growCapacity(cap(s)))
	copy(ns, s)
	return ns
}

// Write appends a single bytecode byte, emitted while compiling the given
// source line.
func (c *Chunk) Write(b byte, line int) {
	if len(c.Code) == cap(c.Code) {
		c.Code = growBytes(c.Code)
	}
	c.Code = append(c.Code, b)
	c.appendLine(line)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// AddConstant appends v to the constant pool and returns its index. It does
// not deduplicate: the constant pool is append-only, and deduplicating
// constants is a compiler-facing optimization this core does not perform.
func (c *Chunk) AddConstant(v value.Value) int {
	if len(c.Constants) == cap(c.Constants) {
		c.Constants = growValues(c.Constants)
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// WriteConstant adds v to the constant pool and emits the instruction that
// loads it, choosing the one-byte OP_CONSTANT encoding when the resulting
// index fits in a byte and the three-byte little-endian OP_CONSTANT_LONG
// encoding otherwise.
func (c *Chunk) WriteConstant(v value.Value, line int) {
	idx := c.AddConstant(v)
	if idx < 256 {
		c.WriteOp(OpConstant, line)
		c.Write(byte(idx), line)
		return
	}
	c.WriteOp(OpConstantLong, line)
	c.Write(byte(idx), line)
	c.Write(byte(idx>>8), line)
	c.Write(byte(idx>>16), line)
}

func (c *Chunk) appendLine(line int) {
	if n := len(c.lines); n > 0 && c.lines[n-1].Line == line {
		c.lines[n-1].Run++
		return
	}
	if len(c.lines) == cap(c.lines) {
		c.lines = growLines(c.lines)
	}
	c.lines = append(c.lines, lineRun{Line: line, Run: 1})
}

// GetLine returns the source line of the byte at offset. offset must be in
// [0, len(Code)); GetLine scans the run-length-encoded line table
// accumulating run lengths until the cumulative count exceeds offset, so it
// costs O(number of line runs), not O(len(Code)).
func (c *Chunk) GetLine(offset int) int {
	var cum int
	for _, r := range c.lines {
		cum += r.Run
		if offset < cum {
			return r.Line
		}
	}
	// unreachable if the caller respects the documented precondition
	panic("chunk: GetLine offset out of range")
}
