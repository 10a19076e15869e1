package value

import "strconv"

// String is the language's only heap-allocated value kind: an interned,
// immutable sequence of bytes with a precomputed hash used by the intern
// and globals tables.
//
// Rather than linking heap objects into an intrusive singly-linked list via
// an Obj header embedded in every object (so VM teardown can walk and free
// them without a tracing collector), lang/heap.Heap holds the objects in a
// slice: an arena owning all strings is equivalent as long as freeing order
// is respected, and a slice is the idiomatic Go rendition of that arena,
// where an intrusive pointer-chasing list would only fight the garbage
// collector.
type String struct {
	Chars string
	Hash  uint32
}

var _ Value = (*String)(nil)

func (s *String) String() string { return s.Chars }
func (s *String) Truth() bool    { return true }

// GoString renders the string as a quoted Go string literal, as printed by
// the %#v formatting verb.
func (s *String) GoString() string { return strconv.Quote(s.Chars) }

// Len reports the length of the string in bytes.
func (s *String) Len() int { return len(s.Chars) }
