package vm_test

import (
	"bytes"
	"testing"

	"github.com/mna/wisp/lang/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) (stdout, stderr string, result vm.InterpretResult) {
	t.Helper()
	var out, errBuf bytes.Buffer
	m := vm.New(&out, &errBuf)
	defer m.Free()
	result, _ = m.Interpret(src)
	return out.String(), errBuf.String(), result
}

func TestArithmeticPrecedence(t *testing.T) {
	out, errs, result := run(t, "print 1 + 2 * 3;")
	require.Equal(t, vm.InterpretOK, result, errs)
	assert.Equal(t, "7\n", out)
}

func TestGroupingOverridesPrecedence(t *testing.T) {
	out, errs, result := run(t, "print (1 + 2) * 3;")
	require.Equal(t, vm.InterpretOK, result, errs)
	assert.Equal(t, "9\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, errs, result := run(t, `print "ab" + "cd";`)
	require.Equal(t, vm.InterpretOK, result, errs)
	assert.Equal(t, "abcd\n", out)
}

func TestGlobalVariableReassignment(t *testing.T) {
	out, errs, result := run(t, "var x = 10; x = x + 5; print x;")
	require.Equal(t, vm.InterpretOK, result, errs)
	assert.Equal(t, "15\n", out)
}

func TestNegatingNonNumberIsRuntimeError(t *testing.T) {
	_, errs, result := run(t, "print -true;")
	assert.Equal(t, vm.InterpretRuntimeError, result)
	assert.Contains(t, errs, "Operand must be a number")
	assert.Contains(t, errs, "[Line 1] in script")
}

func TestUndefinedGlobalReadIsRuntimeError(t *testing.T) {
	_, errs, result := run(t, "print y;")
	assert.Equal(t, vm.InterpretRuntimeError, result)
	assert.Contains(t, errs, "Undefined variable 'y'")
}

func TestUndefinedGlobalAssignmentIsRuntimeError(t *testing.T) {
	_, errs, result := run(t, "y = 1;")
	assert.Equal(t, vm.InterpretRuntimeError, result)
	assert.Contains(t, errs, "Undefined variable 'y'")
}

func TestCompileErrorShortCircuitsExecution(t *testing.T) {
	out, _, result := run(t, "print ;")
	assert.Equal(t, vm.InterpretCompileError, result)
	assert.Empty(t, out)
}

func TestInterpretReturnsErrorAlongsideResult(t *testing.T) {
	var out, errBuf bytes.Buffer
	m := vm.New(&out, &errBuf)
	defer m.Free()

	result, err := m.Interpret("print ;")
	assert.Equal(t, vm.InterpretCompileError, result)
	assert.ErrorIs(t, err, vm.ErrCompileFailed)

	result, err = m.Interpret("print y;")
	assert.Equal(t, vm.InterpretRuntimeError, result)
	assert.ErrorContains(t, err, "Undefined variable 'y'")

	result, err = m.Interpret("print 1;")
	assert.Equal(t, vm.InterpretOK, result)
	assert.NoError(t, err)
}

func TestAddingMismatchedTypesIsRuntimeError(t *testing.T) {
	_, errs, result := run(t, `print 1 + "a";`)
	assert.Equal(t, vm.InterpretRuntimeError, result)
	assert.Contains(t, errs, "Operands must be two numbers or two strings")
}

func TestComparisonOperators(t *testing.T) {
	out, errs, result := run(t, "print 1 < 2; print 2 <= 2; print 3 > 4;")
	require.Equal(t, vm.InterpretOK, result, errs)
	assert.Equal(t, "true\ntrue\nfalse\n", out)
}

func TestEqualityAcrossTypesIsFalse(t *testing.T) {
	out, errs, result := run(t, `print 1 == "1"; print nil == false;`)
	require.Equal(t, vm.InterpretOK, result, errs)
	assert.Equal(t, "false\nfalse\n", out)
}

func TestNotTruthiness(t *testing.T) {
	out, errs, result := run(t, "print !nil; print !false; print !0;")
	require.Equal(t, vm.InterpretOK, result, errs)
	assert.Equal(t, "true\ntrue\nfalse\n", out)
}

func TestStackBalanceAcrossStatements(t *testing.T) {
	_, errs, result := run(t, "var a = 1; var b = 2; print a + b; a = a + 1; print a;")
	require.Equal(t, vm.InterpretOK, result, errs)
}

func TestRedefiningGlobalOverwrites(t *testing.T) {
	out, errs, result := run(t, "var x = 1; var x = 2; print x;")
	require.Equal(t, vm.InterpretOK, result, errs)
	assert.Equal(t, "2\n", out)
}

func TestVMIsReusableAcrossInterpretCalls(t *testing.T) {
	var out bytes.Buffer
	var errs bytes.Buffer
	m := vm.New(&out, &errs)
	defer m.Free()

	r1, err1 := m.Interpret("var x = 1;")
	require.Equal(t, vm.InterpretOK, r1)
	require.NoError(t, err1)
	r2, err2 := m.Interpret("print x;")
	require.Equal(t, vm.InterpretOK, r2)
	require.NoError(t, err2)
	assert.Equal(t, "1\n", out.String())
}

func TestTraceWritesDisassembledInstructions(t *testing.T) {
	var out, errs, trace bytes.Buffer
	m := vm.New(&out, &errs)
	defer m.Free()
	m.SetTrace(&trace)

	result, err := m.Interpret("print 1;")
	require.NoError(t, err)
	require.Equal(t, vm.InterpretOK, result)
	assert.NotEmpty(t, trace.String())
	assert.Contains(t, trace.String(), "OP_PRINT")
}

func TestGlobalNamesReflectsDefinedGlobals(t *testing.T) {
	var out, errs bytes.Buffer
	m := vm.New(&out, &errs)
	defer m.Free()

	result, err := m.Interpret("var a = 1; var b = 2;")
	require.NoError(t, err)
	require.Equal(t, vm.InterpretOK, result)
	assert.ElementsMatch(t, []string{"a", "b"}, m.GlobalNames())
}

func TestMaxStepsAbortsRunawayExecution(t *testing.T) {
	var out, errs bytes.Buffer
	m := vm.New(&out, &errs)
	defer m.Free()
	m.SetMaxSteps(3)

	result, err := m.Interpret("print 1 + 2 * 3;")
	assert.Equal(t, vm.InterpretRuntimeError, result)
	assert.ErrorContains(t, err, "Too many instructions executed")
}
