package table

import (
	"fmt"
	"path/filepath"
	"testing"
)

func TestBuilderSplitsAcrossBlocks(t *testing.T) {
	b := NewBuilder(128, true)
	for i := 0; i < 20; i++ {
		if err := b.Add([]byte(fmt.Sprintf("k%03d", i)), []byte("some-value-payload")); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if len(b.metas) < 2 {
		t.Fatalf("expected entries to split across multiple blocks, got %d", len(b.metas))
	}
}

func TestBuildRejectsEmptyTable(t *testing.T) {
	b := NewBuilder(128, true)
	dir := t.TempDir()
	if _, err := b.Build(1, nil, filepath.Join(dir, "1.sst")); err == nil {
		t.Fatalf("expected error building an empty table")
	}
}

func TestBuilderOversizedSingleEntryStillBuilds(t *testing.T) {
	// blockSize is sized only for routine small entries; this single
	// value is far larger, but as the table's only entry it must still
	// be accepted and round-trip correctly.
	b := NewBuilder(256, true)
	big := make([]byte, 200)
	for i := range big {
		big[i] = byte('a' + i%26)
	}
	if err := b.Add([]byte("k"), big); err != nil {
		t.Fatalf("Add: %v", err)
	}
	dir := t.TempDir()
	tbl, err := b.Build(1, nil, filepath.Join(dir, "1.sst"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer tbl.Close()

	it, err := CreateAndSeekToKey(tbl, []byte("k"))
	if err != nil {
		t.Fatalf("CreateAndSeekToKey: %v", err)
	}
	if !it.IsValid() || string(it.Value()) != string(big) {
		t.Fatalf("expected oversized value round-trip")
	}
}
