package compiler_test

import (
	"bytes"
	"testing"

	"github.com/mna/wisp/lang/chunk"
	"github.com/mna/wisp/lang/compiler"
	"github.com/mna/wisp/lang/heap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) (*chunk.Chunk, bool, string) {
	t.Helper()
	var ch chunk.Chunk
	h := heap.New()
	var errs bytes.Buffer
	ok := compiler.Compile(src, h, &ch, &errs)
	return &ch, ok, errs.String()
}

func TestSimpleExpressionStatement(t *testing.T) {
	ch, ok, errs := compile(t, "1 + 2 * 3;")
	require.True(t, ok, errs)

	ops := opsOf(ch)
	assert.Equal(t, []chunk.OpCode{
		chunk.OpConstant, chunk.OpConstant, chunk.OpConstant,
		chunk.OpMultiply, chunk.OpAdd, chunk.OpPop, chunk.OpReturn,
	}, ops)
}

func TestGroupingChangesPrecedence(t *testing.T) {
	ch, ok, errs := compile(t, "print (1 + 2) * 3;")
	require.True(t, ok, errs)
	ops := opsOf(ch)
	assert.Equal(t, []chunk.OpCode{
		chunk.OpConstant, chunk.OpConstant, chunk.OpAdd, chunk.OpConstant,
		chunk.OpMultiply, chunk.OpPrint, chunk.OpReturn,
	}, ops)
}

func TestVarDeclarationWithoutInitializer(t *testing.T) {
	ch, ok, errs := compile(t, "var x;")
	require.True(t, ok, errs)
	ops := opsOf(ch)
	assert.Equal(t, []chunk.OpCode{chunk.OpNil, chunk.OpDefineGlobal, chunk.OpReturn}, ops)
}

func TestAssignmentEmitsSetGlobal(t *testing.T) {
	ch, ok, errs := compile(t, "var x = 1; x = 2;")
	require.True(t, ok, errs)
	ops := opsOf(ch)
	assert.Equal(t, []chunk.OpCode{
		chunk.OpConstant, chunk.OpDefineGlobal,
		chunk.OpConstant, chunk.OpSetGlobal, chunk.OpPop,
		chunk.OpReturn,
	}, ops)
}

func TestComparisonOperatorsDesugar(t *testing.T) {
	cases := []struct {
		src  string
		want []chunk.OpCode
	}{
		{"1 != 2;", []chunk.OpCode{chunk.OpConstant, chunk.OpConstant, chunk.OpEqual, chunk.OpNot, chunk.OpPop, chunk.OpReturn}},
		{"1 >= 2;", []chunk.OpCode{chunk.OpConstant, chunk.OpConstant, chunk.OpLess, chunk.OpNot, chunk.OpPop, chunk.OpReturn}},
		{"1 <= 2;", []chunk.OpCode{chunk.OpConstant, chunk.OpConstant, chunk.OpGreater, chunk.OpNot, chunk.OpPop, chunk.OpReturn}},
	}
	for _, c := range cases {
		ch, ok, errs := compile(t, c.src)
		require.True(t, ok, errs)
		assert.Equal(t, c.want, opsOf(ch), c.src)
	}
}

func TestInvalidAssignmentTargetIsAnError(t *testing.T) {
	_, ok, errs := compile(t, "1 + 2 = 3;")
	assert.False(t, ok)
	assert.Contains(t, errs, "Invalid assignment target.")
}

func TestMissingExpressionIsAnError(t *testing.T) {
	_, ok, errs := compile(t, "var x = ;")
	assert.False(t, ok)
	assert.Contains(t, errs, "Expected an expression.")
}

func TestPanicModeReportsOneErrorPerStatement(t *testing.T) {
	_, ok, errs := compile(t, "var;\nvar;\n")
	assert.False(t, ok)
	// each statement only reports its first error, then resyncs at ';'
	assert.Equal(t, 2, countOccurrences(errs, "Error"))
}

func TestStringLiteralIsInterned(t *testing.T) {
	ch, ok, errs := compile(t, `"ab" == "ab";`)
	require.True(t, ok, errs)
	require.Len(t, ch.Constants, 2)
	assert.Same(t, ch.Constants[0], ch.Constants[1])
}

func opsOf(ch *chunk.Chunk) []chunk.OpCode {
	var ops []chunk.OpCode
	for i := 0; i < len(ch.Code); {
		op := chunk.OpCode(ch.Code[i])
		ops = append(ops, op)
		switch op {
		case chunk.OpConstant, chunk.OpDefineGlobal, chunk.OpGetGlobal, chunk.OpSetGlobal:
			i += 2
		case chunk.OpConstantLong:
			i += 4
		default:
			i++
		}
	}
	return ops
}

func countOccurrences(s, substr string) int {
	count, idx := 0, 0
	for {
		i := indexFrom(s, substr, idx)
		if i < 0 {
			return count
		}
		count++
		idx = i + len(substr)
	}
}

func indexFrom(s, substr string, from int) int {
	if from > len(s) {
		return -1
	}
	i := indexOf(s[from:], substr)
	if i < 0 {
		return -1
	}
	return from + i
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
