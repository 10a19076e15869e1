package chunk

import (
	"strings"
	"testing"
)

func TestOpCodeString(t *testing.T) {
	for op := OpCode(0); op < opCodeMax; op++ {
		if opCodeNames[op] == "" {
			t.Errorf("missing string representation of opcode %d", op)
		}
		if s := op.String(); strings.Contains(s, "ILLEGAL") {
			t.Errorf("invalid string representation of opcode %d", op)
		}
	}
}
