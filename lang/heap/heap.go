// Package heap owns the object heap and string intern table shared by the
// compiler and the virtual machine: the compiler interns literal strings
// into it while emitting constants, and the VM interns the results of
// string concatenation into the same table, so that any two equal strings
// anywhere in a run are the same object and can be compared by identity.
package heap

import (
	"hash/fnv"

	"github.com/mna/wisp/lang/table"
	"github.com/mna/wisp/lang/value"
)

// Heap holds every string object allocated by the compiler and the VM plus
// the intern table used to deduplicate them. A VM creates one Heap when it
// is constructed and keeps it across Interpret calls; it is torn down only
// by Free.
type Heap struct {
	strings table.Table
	// objects records every live string, in allocation order (see the doc
	// comment on value.String for why a slice is used instead of a pointer
	// chain).
	objects []*value.String
}

// New returns an empty heap.
func New() *Heap {
	return &Heap{}
}

// Intern returns the canonical *value.String for chars, allocating and
// recording a new one only if an equal string hasn't been interned yet.
// Two calls to Intern with byte-equal arguments always return the same
// pointer, so equal strings compare equal by identity.
func (h *Heap) Intern(chars string) *value.String {
	sum := hashFNV1a(chars)
	if s := h.strings.FindString(chars, sum); s != nil {
		return s
	}
	s := &value.String{Chars: chars, Hash: sum}
	h.objects = append(h.objects, s)
	h.strings.Set(s, value.Nil)
	return s
}

// Concat interns the byte-concatenation of a and b. It is the allocation
// path OP_ADD takes for two string operands: if the concatenation already
// exists in the intern table, no new object is recorded — the transient Go
// string built for the concatenation is simply left for the garbage
// collector instead of being linked into the object list.
func (h *Heap) Concat(a, b *value.String) *value.String {
	return h.Intern(a.Chars + b.Chars)
}

// Objects returns every string object currently tracked by the heap, in
// allocation order. It exists for teardown and for tests that assert on the
// object list's contents; production code should not otherwise need it.
func (h *Heap) Objects() []*value.String {
	return h.objects
}

// Free discards the intern table first, since it holds non-owning
// references to the keys, then the object list. Go's garbage collector does
// the actual memory reclamation; Free exists so the heap's invariant — an
// interned string is reachable only through a live Heap — holds regardless
// of host language, and so tests can observe that teardown actually
// happened.
func (h *Heap) Free() {
	h.strings = table.Table{}
	h.objects = nil
}

// hashFNV1a computes the 32-bit FNV-1a hash used for string keys. The
// standard library's hash/fnv already implements this exact algorithm, so
// there is nothing an ecosystem package would do differently here; reaching
// for hash/fnv instead of hand-rolling the multiply-xor loop is the
// idiomatic choice.
func hashFNV1a(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s)) // hash.Hash.Write never errors
	return h.Sum32()
}
