package table

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/oss-lsm/lsmkv/keyrange"
)

func buildTestTable(t *testing.T, dir string, n, blockSize int) *SSTable {
	t.Helper()
	b := NewBuilder(blockSize, true)
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%05d", i))
		val := []byte(fmt.Sprintf("value-%05d", i))
		if err := b.Add(key, val); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	path := filepath.Join(dir, "1.sst")
	tbl, err := b.Build(1, nil, path)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tbl
}

func TestBuildOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tbl := buildTestTable(t, dir, 1000, 4096)
	defer tbl.Close()

	if tbl.NumOfBlocks() < 2 {
		t.Fatalf("expected multiple blocks for 1000 entries, got %d", tbl.NumOfBlocks())
	}
	if string(tbl.FirstKey()) != "key-00000" {
		t.Fatalf("expected first key key-00000, got %q", tbl.FirstKey())
	}
	if string(tbl.LastKey()) != "key-00999" {
		t.Fatalf("expected last key key-00999, got %q", tbl.LastKey())
	}

	reopened, err := Open(tbl.ID(), nil, filepath.Join(dir, "1.sst"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()
	if reopened.NumOfBlocks() != tbl.NumOfBlocks() {
		t.Fatalf("block count mismatch after reopen: %d vs %d", reopened.NumOfBlocks(), tbl.NumOfBlocks())
	}
}

func TestSeekToKeyFindsExactAndNearest(t *testing.T) {
	dir := t.TempDir()
	tbl := buildTestTable(t, dir, 1000, 4096)
	defer tbl.Close()

	it, err := CreateAndSeekToKey(tbl, []byte("key-00500"))
	if err != nil {
		t.Fatalf("CreateAndSeekToKey: %v", err)
	}
	if !it.IsValid() || string(it.Key()) != "key-00500" {
		t.Fatalf("expected key-00500, got valid=%v key=%q", it.IsValid(), it.Key())
	}

	// A key that falls strictly between two stored keys should land on the
	// next greater stored key (lower_bound semantics).
	it2, err := CreateAndSeekToKey(tbl, []byte("key-00500a"))
	if err != nil {
		t.Fatalf("CreateAndSeekToKey: %v", err)
	}
	if !it2.IsValid() || string(it2.Key()) != "key-00501" {
		t.Fatalf("expected key-00501, got valid=%v key=%q", it2.IsValid(), it2.Key())
	}

	// A key past the last entry should invalidate the iterator.
	it3, err := CreateAndSeekToKey(tbl, []byte("zzz"))
	if err != nil {
		t.Fatalf("CreateAndSeekToKey: %v", err)
	}
	if it3.IsValid() {
		t.Fatalf("expected invalid iterator past the last key")
	}
}

func TestIterateFullScanInOrder(t *testing.T) {
	dir := t.TempDir()
	tbl := buildTestTable(t, dir, 250, 512)
	defer tbl.Close()

	it, err := CreateAndSeekToFirst(tbl)
	if err != nil {
		t.Fatalf("CreateAndSeekToFirst: %v", err)
	}
	count := 0
	for it.IsValid() {
		want := fmt.Sprintf("key-%05d", count)
		if string(it.Key()) != want {
			t.Fatalf("entry %d: expected key %q, got %q", count, want, it.Key())
		}
		count++
		if err := it.Next(); err != nil {
			t.Fatal(err)
		}
	}
	if count != 250 {
		t.Fatalf("expected 250 entries, got %d", count)
	}
}

func TestByRangeRespectsBounds(t *testing.T) {
	dir := t.TempDir()
	tbl := buildTestTable(t, dir, 100, 512)
	defer tbl.Close()

	it, err := ByRange(tbl,
		keyrange.ExcludedBound([]byte("key-00010")),
		keyrange.IncludedBound([]byte("key-00015")))
	if err != nil {
		t.Fatalf("ByRange: %v", err)
	}

	var got []string
	for it.IsValid() {
		got = append(got, string(it.Key()))
		if err := it.Next(); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"key-00011", "key-00012", "key-00013", "key-00014", "key-00015"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestOverlapsAndMayContain(t *testing.T) {
	dir := t.TempDir()
	tbl := buildTestTable(t, dir, 10, 4096)
	defer tbl.Close()

	if !tbl.MayContain([]byte("key-00005")) {
		t.Fatalf("expected key-00005 to be within range")
	}
	if tbl.MayContain([]byte("key-99999")) {
		t.Fatalf("expected key-99999 to be out of range")
	}
	if !tbl.Overlaps([]byte("key-00003"), []byte("key-00006")) {
		t.Fatalf("expected overlap")
	}
	if tbl.Overlaps([]byte("key-99990"), []byte("key-99999")) {
		t.Fatalf("expected no overlap")
	}
}
