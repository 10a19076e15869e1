package chunk

// OpCode identifies a bytecode instruction. The numeric assignments are an
// implementation detail (bytecode is never persisted across runs) but must
// stay stable within a single compile/run pair, which a single Go build
// trivially guarantees.
type OpCode byte

//nolint:revive
const (
	OpConstant OpCode = iota
	OpConstantLong
	OpNegate
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpReturn
	OpNil
	OpTrue
	OpFalse
	OpPrint
	OpNot
	OpEqual
	OpGreater
	OpLess
	OpPop
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal

	opCodeMax
)

func (op OpCode) String() string {
	if int(op) >= len(opCodeNames) || opCodeNames[op] == "" {
		return "OP_ILLEGAL"
	}
	return opCodeNames[op]
}

var opCodeNames = [...]string{
	OpConstant:     "OP_CONSTANT",
	OpConstantLong: "OP_CONSTANT_LONG",
	OpNegate:       "OP_NEGATE",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpReturn:       "OP_RETURN",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPrint:        "OP_PRINT",
	OpNot:          "OP_NOT",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpPop:          "OP_POP",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
}
