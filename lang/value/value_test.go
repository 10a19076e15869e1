package value_test

import (
	"testing"

	"github.com/mna/wisp/lang/value"
	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	s1 := &value.String{Chars: "hi"}
	s2 := &value.String{Chars: "hi"} // deliberately not interned to the same pointer

	assert.True(t, value.Equal(value.Nil, value.Nil))
	assert.True(t, value.Equal(value.Bool(true), value.Bool(true)))
	assert.False(t, value.Equal(value.Bool(true), value.Bool(false)))
	assert.True(t, value.Equal(value.Number(1), value.Number(1)))
	assert.False(t, value.Equal(value.Number(1), value.Number(2)))
	assert.False(t, value.Equal(value.Number(0), value.Nil))
	assert.True(t, value.Equal(s1, s1))
	assert.False(t, value.Equal(s1, s2), "distinct objects are not equal even with the same content")
}

func TestTruth(t *testing.T) {
	assert.False(t, value.Nil.Truth())
	assert.False(t, value.Bool(false).Truth())
	assert.True(t, value.Bool(true).Truth())
	assert.True(t, value.Number(0).Truth())
	assert.True(t, (&value.String{Chars: ""}).Truth())
}

func TestNumberString(t *testing.T) {
	assert.Equal(t, "1", value.Number(1).String())
	assert.Equal(t, "1.5", value.Number(1.5).String())
	assert.Equal(t, "nan", value.Number(nan()).String())
	assert.Equal(t, "inf", value.Number(inf(1)).String())
	assert.Equal(t, "-inf", value.Number(inf(-1)).String())
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func inf(sign int) float64 {
	one, zero := 1.0, 0.0
	if sign < 0 {
		one = -1
	}
	return one / zero
}
