package table

import (
	"testing"

	"ember/value"
)

func TestTableSetGetDelete(t *testing.T) {
	var tbl Table
	a := value.NewString("a")
	b := value.NewString("b")

	if isNew := tbl.Set(a, value.Number(1)); !isNew {
		t.Fatalf("expected Set of a new key to report isNewKey=true")
	}
	if isNew := tbl.Set(a, value.Number(2)); isNew {
		t.Fatalf("expected Set overwriting an existing key to report isNewKey=false")
	}

	got, ok := tbl.Get(a)
	if !ok || got.AsNumber() != 2 {
		t.Fatalf("Get(a) = %v, %v; want 2, true", got, ok)
	}

	if _, ok := tbl.Get(b); ok {
		t.Fatalf("Get(b) found an entry that was never set")
	}

	if !tbl.Delete(a) {
		t.Fatalf("Delete(a) = false; want true")
	}
	if _, ok := tbl.Get(a); ok {
		t.Fatalf("Get(a) succeeded after Delete")
	}
}

func TestTableTombstonePreservesProbeChain(t *testing.T) {
	var tbl Table
	// Force two keys that collide: same hash by construction is awkward
	// without reaching into internals, so instead validate the externally
	// observable contract: deleting a key never hides a later key that
	// was inserted after it, regardless of collisions.
	keys := make([]*value.String, 0, 16)
	for i := 0; i < 16; i++ {
		k := value.NewString(string(rune('a' + i)))
		keys = append(keys, k)
		tbl.Set(k, value.Number(float64(i)))
	}

	tbl.Delete(keys[0])

	for i := 1; i < len(keys); i++ {
		got, ok := tbl.Get(keys[i])
		if !ok || got.AsNumber() != float64(i) {
			t.Fatalf("Get(keys[%d]) = %v, %v; want %d, true", i, got, ok, i)
		}
	}
}

func TestTableGrowsAndKeepsAllEntries(t *testing.T) {
	var tbl Table
	const n = 64
	keys := make([]*value.String, n)
	for i := 0; i < n; i++ {
		keys[i] = value.NewString(string(rune(i)) + "-key")
		tbl.Set(keys[i], value.Number(float64(i)))
	}

	if tbl.Count() != n {
		t.Fatalf("Count() = %d; want %d", tbl.Count(), n)
	}
	for i, k := range keys {
		got, ok := tbl.Get(k)
		if !ok || got.AsNumber() != float64(i) {
			t.Fatalf("Get(keys[%d]) = %v, %v; want %d, true", i, got, ok, i)
		}
	}
}

func TestFindString(t *testing.T) {
	var tbl Table
	s := value.NewString("hello")
	tbl.Set(s, value.Bool(true))

	found := tbl.FindString("hello", value.HashString("hello"))
	if found != s {
		t.Fatalf("FindString did not return the interned string back")
	}

	if tbl.FindString("nope", value.HashString("nope")) != nil {
		t.Fatalf("FindString found a string that was never interned")
	}
}

func TestAddAll(t *testing.T) {
	var from, to Table
	a := value.NewString("a")
	from.Set(a, value.Number(1))

	to.AddAll(&from)

	got, ok := to.Get(a)
	if !ok || got.AsNumber() != 1 {
		t.Fatalf("AddAll did not copy entry: got %v, %v", got, ok)
	}
}
