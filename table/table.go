// Package table implements the open-addressed hash table used both for
// string interning and for the VM's globals, keyed by interned string
// references (equality by pointer once a string has gone through the
// interning table is equivalent to equality by bytes).
package table

import "ember/value"

const maxLoad = 0.75

type entry struct {
	key *value.String
	val value.Value
}

// Table is a linear-probe hash table from *value.String to value.Value.
// Capacity is always a power of two, starting at 8 and doubling whenever
// count+1 would exceed maxLoad*capacity.
type Table struct {
	count   int
	entries []entry
}

// Get looks up key by pointer identity.
func (t *Table) Get(key *value.String) (value.Value, bool) {
	if len(t.entries) == 0 {
		return value.Nil(), false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return value.Nil(), false
	}
	return e.val, true
}

// Set installs key->val, growing the table first if needed. It returns
// true if this created a brand new key (as opposed to overwriting one).
func (t *Table) Set(key *value.String, val value.Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		t.grow(growCapacity(len(t.entries)))
	}

	e := t.findEntry(t.entries, key)
	isNewKey := e.key == nil
	if isNewKey && e.val.IsNil() {
		t.count++
	}
	e.key = key
	e.val = val
	return isNewKey
}

// Delete removes key, leaving a tombstone (nil key, non-nil value) so
// later probes that walked past this slot still find their target.
func (t *Table) Delete(key *value.String) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.val = value.Bool(true)
	return true
}

// AddAll copies every live entry of from into t, used when merging scopes
// of globals (not exercised by the single-scope VM globals table today,
// kept for parity with the reference table's full operation set and
// exercised directly by table_test.go).
func (t *Table) AddAll(from *Table) {
	for i := range from.entries {
		e := &from.entries[i]
		if e.key != nil {
			t.Set(e.key, e.val)
		}
	}
}

// FindString is the only place string bytes are ever compared: it is
// used exclusively by the interning table to decide whether a byte
// sequence already has a canonical *value.String.
func (t *Table) FindString(chars string, hash uint32) *value.String {
	if t.count == 0 {
		return nil
	}
	index := hash % uint32(len(t.entries))
	for {
		e := &t.entries[index]
		if e.key == nil {
			if e.val.IsNil() {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		index = (index + 1) % uint32(len(t.entries))
	}
}

// Count reports the number of occupied slots, tombstones included: Delete
// does not decrement it, and only a grow drops tombstones from the count.
func (t *Table) Count() int { return t.count }

func (t *Table) findEntry(entries []entry, key *value.String) *entry {
	index := key.Hash % uint32(len(entries))
	var tombstone *entry

	for {
		e := &entries[index]
		switch {
		case e.key == nil:
			if e.val.IsNil() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		index = (index + 1) % uint32(len(entries))
	}
}

func (t *Table) grow(capacity int) {
	entries := make([]entry, capacity)
	t.count = 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.key == nil {
			continue
		}
		dest := t.findEntry(entries, old.key)
		dest.key = old.key
		dest.val = old.val
		t.count++
	}
	t.entries = entries
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
