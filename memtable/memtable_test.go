package memtable

import (
	"testing"

	"github.com/oss-lsm/lsmkv/keyrange"
)

func TestMemTablePutGet(t *testing.T) {
	m := New()
	m.Put([]byte("a"), []byte("1"))
	m.Put([]byte("b"), []byte("2"))

	if v, ok := m.Get([]byte("a")); !ok || string(v) != "1" {
		t.Fatalf("expected (1,true), got (%v,%v)", string(v), ok)
	}
	if _, ok := m.Get([]byte("z")); ok {
		t.Fatalf("expected not found")
	}
}

func TestMemTableApproximateSizeCountsOverwrites(t *testing.T) {
	m := New()
	m.Put([]byte("k"), []byte("v1"))
	m.Put([]byte("k"), []byte("v22"))

	if got, want := m.ApproximateSize(), int64(1+2+1+3); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
	if m.NumEntries() != 1 {
		t.Fatalf("expected 1 entry, got %d", m.NumEntries())
	}
}

func TestMemTableTombstone(t *testing.T) {
	m := New()
	m.Put([]byte("x"), []byte("1"))
	m.Put([]byte("x"), []byte(""))

	v, ok := m.Get([]byte("x"))
	if !ok {
		t.Fatalf("expected tombstone entry to still be found")
	}
	if len(v) != 0 {
		t.Fatalf("expected empty tombstone value, got %q", v)
	}
}

func TestMemTableScanRange(t *testing.T) {
	m := New()
	m.Put([]byte("a"), []byte("1"))
	m.Put([]byte("b"), []byte("2"))
	m.Put([]byte("c"), []byte("3"))

	it := m.Scan(keyrange.IncludedBound([]byte("a")), keyrange.ExcludedBound([]byte("c")))

	var got [][2]string
	for it.IsValid() {
		got = append(got, [2]string{string(it.Key()), string(it.Value())})
		if err := it.Next(); err != nil {
			t.Fatal(err)
		}
	}

	want := [][2]string{{"a", "1"}, {"b", "2"}}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestMemTableForEachInOrder(t *testing.T) {
	m := New()
	m.Put([]byte("c"), []byte("3"))
	m.Put([]byte("a"), []byte("1"))
	m.Put([]byte("b"), []byte("2"))

	var keys []string
	m.ForEach(func(key, value []byte) bool {
		keys = append(keys, string(key))
		return true
	})

	want := []string{"a", "b", "c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	}
}
