// Package table implements the open-addressed hash table shared by the
// virtual machine's string intern set and its globals map. The algorithm
// itself is the contract, not just the interface — linear probing,
// tombstone reuse, a 0.75 load factor, and the h-mod-cap probe sequence are
// testable properties of this system — so this is a purpose-built table,
// not a generic container: no off-the-shelf map (including a Swiss table)
// exposes the tombstone and find-for-insert vs. find semantics this
// package's FindString depends on.
package table

import "github.com/mna/wisp/lang/value"

const maxLoad = 0.75

// entry is one slot in the table. A nil Key with Value == tombstone denotes
// a deleted entry that must still be counted as occupied by Find (so
// probing doesn't stop early) but as empty by insert (so it's reused).
type entry struct {
	key *value.String
	val value.Value
}

// Table maps interned string keys to values using open addressing with
// linear probing. The zero value is an empty, usable table.
type Table struct {
	count   int // active entries + tombstones
	entries []entry
}

// tombstone is the value stored in a deleted slot whose key has been
// cleared. A slot is recognized as a tombstone by its nil key paired with a
// non-nil value, never by comparing against this value, so a live entry
// holding Bool(false) under a non-nil key is never mistaken for one.
var tombstone value.Value = value.Bool(false)

// Len reports the number of live (non-tombstone) entries.
func (t *Table) Len() int {
	n := 0
	for _, e := range t.entries {
		if e.key != nil {
			n++
		}
	}
	return n
}

// Get returns the value stored for key, and whether key is present.
func (t *Table) Get(key *value.String) (value.Value, bool) {
	if len(t.entries) == 0 {
		return nil, false
	}
	e := t.find(key)
	if e.key == nil {
		return nil, false
	}
	return e.val, true
}

// Set stores val for key, growing the table if needed. It returns true if
// this created a brand new entry (key was absent), false if it overwrote an
// existing entry's value.
func (t *Table) Set(key *value.String, val value.Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		t.grow(growCapacity(len(t.entries)))
	}

	idx := t.findSlot(key)
	e := &t.entries[idx]
	isNew := e.key == nil
	if isNew && e.val == nil {
		// only a genuinely empty slot (not a reused tombstone) grows the count
		t.count++
	}
	e.key = key
	e.val = val
	return isNew
}

// Delete removes key from the table, replacing its slot with a tombstone so
// later probes that passed through it keep working. It reports whether key
// was present.
func (t *Table) Delete(key *value.String) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.val = tombstone
	return true
}

// AddAll copies every live entry of src into t, overwriting any existing
// entries with the same key. It is the table-to-table analogue of Set, used
// when composing tables (e.g. seeding one table's entries from another).
func (t *Table) AddAll(src *Table) {
	for _, e := range src.entries {
		if e.key != nil {
			t.Set(e.key, e.val)
		}
	}
}

// Keys returns every live key in the table, in unspecified (map-like) order.
func (t *Table) Keys() []*value.String {
	keys := make([]*value.String, 0, t.Len())
	for _, e := range t.entries {
		if e.key != nil {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// FindString is the string-interning deduplication primitive: it walks the
// probe sequence for the given hash looking for a key of the same length
// whose bytes equal chars, returning that key's String object, or nil if no
// such key exists yet (in which case the caller should allocate a new
// String and Set it).
func (t *Table) FindString(chars string, hash uint32) *value.String {
	if len(t.entries) == 0 {
		return nil
	}
	cap := uint32(len(t.entries))
	idx := hash % cap
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if e.val == nil {
				// genuinely empty slot: probing sequence ends here
				return nil
			}
			// tombstone: keep probing
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		idx = (idx + 1) % cap
	}
}

// find walks the probe sequence for key (by identity, as every live key in
// the table is already an interned *value.String) and returns the slot that
// holds it, or the first tombstone/empty slot found if it is absent. Used by
// Get and Delete.
func (t *Table) find(key *value.String) *entry {
	idx := t.findSlot(key)
	return &t.entries[idx]
}

// findSlot returns the index of the slot key belongs in: either the slot
// already holding it, or the first tombstone (preferred, so repeated
// insert/delete doesn't leak slots) or empty slot found while probing.
func (t *Table) findSlot(key *value.String) int {
	cap := uint32(len(t.entries))
	idx := key.Hash % cap
	var tombstoneIdx = -1
	for {
		e := &t.entries[idx]
		switch {
		case e.key == nil && e.val == nil:
			// empty slot: not present, and nowhere better was seen
			if tombstoneIdx >= 0 {
				return tombstoneIdx
			}
			return int(idx)
		case e.key == nil:
			// tombstone
			if tombstoneIdx < 0 {
				tombstoneIdx = int(idx)
			}
		case e.key == key:
			return int(idx)
		}
		idx = (idx + 1) % cap
	}
}

func (t *Table) grow(newCap int) {
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	for _, e := range old {
		if e.key == nil {
			continue // tombstones are dropped on resize, not rehashed
		}
		idx := t.findSlot(e.key)
		t.entries[idx] = e
		t.count++
	}
}

// growCapacity implements this table's array growth policy: zero to 8, then
// double.
func growCapacity(old int) int {
	if old < 8 {
		return 8
	}
	return old * 2
}
