// Package compiler implements the single-pass Pratt parser that turns
// scanned tokens directly into bytecode emitted into a lang/chunk.Chunk. It
// never builds an intermediate AST: each parsing function emits the
// instructions for the construct it recognizes before returning.
package compiler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mna/wisp/lang/chunk"
	"github.com/mna/wisp/lang/heap"
	"github.com/mna/wisp/lang/scanner"
	"github.com/mna/wisp/lang/token"
	"github.com/mna/wisp/lang/value"
)

// precedence orders the binding strength of operators, from loosest to
// tightest.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type (
	prefixFn func(c *Compiler, canAssign bool)
	infixFn  func(c *Compiler, canAssign bool)
)

type rule struct {
	prefix     prefixFn
	infix      infixFn
	precedence precedence
}

// rules is the Pratt dispatch table, keyed by token.Type. A missing entry
// behaves as {nil, nil, precNone}, exactly like an explicit one would.
var rules = map[token.Type]rule{}

func init() {
	set := func(t token.Type, p prefixFn, i infixFn, prec precedence) {
		rules[t] = rule{prefix: p, infix: i, precedence: prec}
	}
	set(token.LEFT_PAREN, (*Compiler).grouping, nil, precNone)
	set(token.MINUS, (*Compiler).unary, (*Compiler).binary, precTerm)
	set(token.PLUS, nil, (*Compiler).binary, precTerm)
	set(token.SLASH, nil, (*Compiler).binary, precFactor)
	set(token.STAR, nil, (*Compiler).binary, precFactor)
	set(token.BANG, (*Compiler).unary, nil, precNone)
	set(token.BANG_EQUAL, nil, (*Compiler).binary, precEquality)
	set(token.EQUAL_EQUAL, nil, (*Compiler).binary, precEquality)
	set(token.GREATER, nil, (*Compiler).binary, precComparison)
	set(token.GREATER_EQUAL, nil, (*Compiler).binary, precComparison)
	set(token.LESS, nil, (*Compiler).binary, precComparison)
	set(token.LESS_EQUAL, nil, (*Compiler).binary, precComparison)
	set(token.NUMBER, (*Compiler).number, nil, precNone)
	set(token.STRING, (*Compiler).string, nil, precNone)
	set(token.IDENTIFIER, (*Compiler).variable, nil, precNone)
	set(token.TRUE, (*Compiler).literal, nil, precNone)
	set(token.FALSE, (*Compiler).literal, nil, precNone)
	set(token.NIL, (*Compiler).literal, nil, precNone)
}

func ruleFor(t token.Type) rule { return rules[t] }

// Compiler holds all state for compiling one chunk of source: the scanner it
// pulls tokens from, the two-token parser window, error/panic-mode flags,
// and the chunk and heap it emits into.
type Compiler struct {
	scanner *scanner.Scanner
	heap    *heap.Heap
	chunk   *chunk.Chunk
	stderr  io.Writer

	current   token.Token
	previous  token.Token
	hadError  bool
	panicMode bool
}

// Compile compiles src into ch, interning literal strings and identifier
// names into h. It returns false if any compile error was reported (to
// stderr, each as "[Line L] Error...: message"); ch is always left in a
// well-formed state either way, including the trailing OP_RETURN a
// successful compile appends.
func Compile(src string, h *heap.Heap, ch *chunk.Chunk, stderr io.Writer) bool {
	c := &Compiler{
		scanner: scanner.New(src),
		heap:    h,
		chunk:   ch,
		stderr:  stderr,
	}
	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	c.endCompiler()
	return !c.hadError
}

func (c *Compiler) endCompiler() {
	c.emitOp(chunk.OpReturn)
}

// --- token stream management -----------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Scan()
		if c.current.Type != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t token.Type) bool { return c.current.Type == t }

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Type, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// --- error reporting and panic-mode synchronization --------------------

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(&c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(&c.previous, msg) }

func (c *Compiler) errorAt(tok *token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	if c.stderr == nil {
		return
	}
	fmt.Fprintf(c.stderr, "[Line %d] Error", tok.Line)
	switch tok.Type {
	case token.EOF:
		fmt.Fprint(c.stderr, " at end")
	case token.ERROR:
		// lexical errors already describe themselves; no lexeme to quote
	default:
		fmt.Fprintf(c.stderr, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(c.stderr, ": %s\n", msg)
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != token.EOF {
		if c.previous.Type == token.SEMICOLON {
			return
		}
		switch c.current.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- bytecode emission helpers ------------------------------------------

func (c *Compiler) emitByte(b byte)            { c.chunk.Write(b, c.previous.Line) }
func (c *Compiler) emitOp(op chunk.OpCode)     { c.chunk.WriteOp(op, c.previous.Line) }
func (c *Compiler) emitConstant(v value.Value) {
	c.chunk.WriteConstant(v, c.previous.Line)
}

// --- declarations and statements ----------------------------------------

func (c *Compiler) declaration() {
	if c.match(token.VAR) {
		c.varDeclaration()
	} else {
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

// parseVariable consumes an identifier and interns it as a constant,
// returning its constant-pool index.
func (c *Compiler) parseVariable(errMsg string) int {
	c.consume(token.IDENTIFIER, errMsg)
	return c.identifierConstant(c.previous)
}

func (c *Compiler) identifierConstant(name token.Token) int {
	return c.chunk.AddConstant(c.heap.Intern(name.Lexeme))
}

func (c *Compiler) defineVariable(global int) {
	c.emitGlobalOp(chunk.OpDefineGlobal, global)
}

// emitGlobalOp emits a global-table opcode and its constant-pool operand,
// choosing the one-byte index form; the global opcodes (unlike OP_CONSTANT)
// have no "long" counterpart, so a global access whose name constant lands
// at pool index 256 or beyond is reported as a compile error. Every
// declaration and reference adds its own name constant, so this limit
// counts constants, not distinct global names.
func (c *Compiler) emitGlobalOp(op chunk.OpCode, idx int) {
	if idx > 255 {
		c.error("Too many globals in one chunk.")
		idx = 0
	}
	c.emitOp(op)
	c.emitByte(byte(idx))
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.LEFT_BRACE):
		c.block()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(chunk.OpPrint)
}

// block compiles `{ declaration* }`. Blocks conventionally open a new local
// scope, but this core has no locals, so a block here is simply a sequence
// of statements sharing the surrounding (global) scope.
func (c *Compiler) block() {
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(chunk.OpPop)
}

// --- expressions ----------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(p precedence) {
	c.advance()
	prefixRule := ruleFor(c.previous.Type).prefix
	if prefixRule == nil {
		c.error("Expected an expression.")
		return
	}

	canAssign := p <= precAssignment
	prefixRule(c, canAssign)

	for p <= ruleFor(c.current.Type).precedence {
		c.advance()
		infixRule := ruleFor(c.previous.Type).infix
		infixRule(c, canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) number(_ bool) {
	f, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(f))
}

func (c *Compiler) string(_ bool) {
	lit := c.previous.Lexeme
	s := lit[1 : len(lit)-1] // strip surrounding quotes verbatim, no escape processing
	c.emitConstant(c.heap.Intern(s))
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.Type {
	case token.FALSE:
		c.emitOp(chunk.OpFalse)
	case token.TRUE:
		c.emitOp(chunk.OpTrue)
	case token.NIL:
		c.emitOp(chunk.OpNil)
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func (c *Compiler) unary(_ bool) {
	opType := c.previous.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case token.MINUS:
		c.emitOp(chunk.OpNegate)
	case token.BANG:
		c.emitOp(chunk.OpNot)
	}
}

func (c *Compiler) binary(_ bool) {
	opType := c.previous.Type
	r := ruleFor(opType)
	c.parsePrecedence(r.precedence + 1)

	switch opType {
	case token.BANG_EQUAL:
		c.emitOp(chunk.OpEqual)
		c.emitOp(chunk.OpNot)
	case token.EQUAL_EQUAL:
		c.emitOp(chunk.OpEqual)
	case token.GREATER:
		c.emitOp(chunk.OpGreater)
	case token.GREATER_EQUAL:
		c.emitOp(chunk.OpLess)
		c.emitOp(chunk.OpNot)
	case token.LESS:
		c.emitOp(chunk.OpLess)
	case token.LESS_EQUAL:
		c.emitOp(chunk.OpGreater)
		c.emitOp(chunk.OpNot)
	case token.PLUS:
		c.emitOp(chunk.OpAdd)
	case token.MINUS:
		c.emitOp(chunk.OpSubtract)
	case token.STAR:
		c.emitOp(chunk.OpMultiply)
	case token.SLASH:
		c.emitOp(chunk.OpDivide)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	idx := c.identifierConstant(name)
	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitGlobalOp(chunk.OpSetGlobal, idx)
		return
	}
	c.emitGlobalOp(chunk.OpGetGlobal, idx)
}
