// Package value implements the tagged value representation shared by the
// compiler's constant pool and the virtual machine's stack, along with the
// one heap-allocated kind this core knows about: interned strings. The
// object heap that owns those strings is lang/heap.
package value

import (
	"fmt"
	"strconv"
)

// Value is implemented by every kind of value the machine can hold: Nil,
// Bool, Number, and *String. There is no catch-all "Obj" wrapper type with a
// tagged union payload — Go's interface already carries the tag, and a type
// switch recovers it.
type Value interface {
	// String returns the representation `print` writes to standard output.
	String() string
	// Truth reports whether the value is truthy: everything except Nil and
	// the boolean false is truthy.
	Truth() bool
}

// NilType is the type of the single Nil value.
type NilType struct{}

// Nil is the value nil statements and expressions produce.
var Nil = NilType{}

func (NilType) String() string { return "nil" }
func (NilType) Truth() bool    { return false }

// Bool is a boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Truth() bool { return bool(b) }

// Number is a double-precision float value. The language has only one
// numeric type.
type Number float64

func (n Number) String() string {
	f := float64(n)
	switch {
	case f != f:
		return "nan"
	case f > maxFloat64:
		return "inf"
	case f < -maxFloat64:
		return "-inf"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
func (n Number) Truth() bool { return true }

const maxFloat64 = 1.7976931348623157e+308

var (
	_ Value = Nil
	_ Value = Bool(false)
	_ Value = Number(0)
	_ Value = (*String)(nil)
)

// Equal reports whether a and b are equal under the language's semantics:
// same dynamic type and, within that type, Nil==Nil, Bool by bit, Number by
// IEEE ==, and *String by pointer identity (guaranteed sound because every
// String in play has gone through the VM's intern table).
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case NilType:
		_, ok := b.(NilType)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case *String:
		bv, ok := b.(*String)
		return ok && av == bv
	default:
		panic(fmt.Sprintf("value: unexpected type %T", a))
	}
}
