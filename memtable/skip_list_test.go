package memtable

import (
	"fmt"
	"math/rand"
	"testing"
)

func init() {
	rand.Seed(1)
}

func TestEmptySkipList(t *testing.T) {
	sl := newSkipList()

	if sl.count() != 0 {
		t.Fatalf("expected size 0, got %d", sl.count())
	}

	if _, ok := sl.get([]byte("x")); ok {
		t.Fatalf("expected not found in empty skiplist")
	}
}

func TestPutAndGetSingle(t *testing.T) {
	sl := newSkipList()

	sl.put([]byte("a"), []byte("ten"))

	val, ok := sl.get([]byte("a"))
	if !ok || string(val) != "ten" {
		t.Fatalf("expected (ten,true), got (%v,%v)", string(val), ok)
	}
}

func TestUpdateExistingKey(t *testing.T) {
	sl := newSkipList()

	sl.put([]byte("k"), []byte("one"))
	sl.put([]byte("k"), []byte("uno"))

	val, ok := sl.get([]byte("k"))
	if !ok || string(val) != "uno" {
		t.Fatalf("update failed, got (%v,%v)", string(val), ok)
	}

	if sl.count() != 1 {
		t.Fatalf("expected size 1, got %d", sl.count())
	}
}

func TestSequentialInsertAndGet(t *testing.T) {
	sl := newSkipList()

	for i := 1; i <= 1000; i++ {
		sl.put([]byte(fmt.Sprintf("key-%05d", i)), []byte(fmt.Sprintf("%d", i*i)))
	}

	for i := 1; i <= 1000; i++ {
		val, ok := sl.get([]byte(fmt.Sprintf("key-%05d", i)))
		if !ok || string(val) != fmt.Sprintf("%d", i*i) {
			t.Fatalf("key-%05d: expected %d got (%v,%v)", i, i*i, string(val), ok)
		}
	}

	if sl.count() != 1000 {
		t.Fatalf("expected size 1000, got %d", sl.count())
	}
}

func TestSeekGEAndGT(t *testing.T) {
	sl := newSkipList()
	for _, k := range []string{"b", "d", "f"} {
		sl.put([]byte(k), []byte(k))
	}

	if n := sl.seekGE([]byte("c")); n == nil || string(n.key) != "d" {
		t.Fatalf("seekGE(c): expected d, got %v", n)
	}
	if n := sl.seekGE([]byte("d")); n == nil || string(n.key) != "d" {
		t.Fatalf("seekGE(d): expected d, got %v", n)
	}
	if n := sl.seekGT([]byte("d")); n == nil || string(n.key) != "f" {
		t.Fatalf("seekGT(d): expected f, got %v", n)
	}
	if n := sl.seekGE([]byte("g")); n != nil {
		t.Fatalf("seekGE(g): expected nil, got %v", n)
	}
}

func TestInOrderIteration(t *testing.T) {
	sl := newSkipList()
	keys := []string{"e", "a", "c", "b", "d"}
	for _, k := range keys {
		sl.put([]byte(k), []byte(k))
	}

	var got []string
	for n := sl.first(); n != nil; n = n.next(0) {
		got = append(got, string(n.key))
	}

	want := []string{"a", "b", "c", "d", "e"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
