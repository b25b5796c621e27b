package cache

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/oss-lsm/lsmkv/block"
)

func dummyBlock(t *testing.T, key, value string) *block.Block {
	t.Helper()
	b := block.NewBuilder(4096, true)
	if !b.Add([]byte(key), []byte(value)) {
		t.Fatalf("dummy block add failed")
	}
	blk, err := b.Build()
	if err != nil {
		t.Fatalf("dummy block build: %v", err)
	}
	return blk
}

func TestGetOrLoadCachesResult(t *testing.T) {
	c, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var loads int32
	load := func() (*block.Block, error) {
		atomic.AddInt32(&loads, 1)
		return dummyBlock(t, "a", "1"), nil
	}

	key := Key{SSTID: 1, BlockIdx: 0}
	if _, err := c.GetOrLoad(key, load); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrLoad(key, load); err != nil {
		t.Fatal(err)
	}

	if loads != 1 {
		t.Fatalf("expected exactly one load, got %d", loads)
	}
}

func TestGetOrLoadSingleFlightsConcurrentMisses(t *testing.T) {
	c, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var loads int32
	release := make(chan struct{})
	load := func() (*block.Block, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return dummyBlock(t, "a", "1"), nil
	}

	key := Key{SSTID: 2, BlockIdx: 0}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GetOrLoad(key, load); err != nil {
				t.Error(err)
			}
		}()
	}
	close(release)
	wg.Wait()

	if loads != 1 {
		t.Fatalf("expected a single collapsed load, got %d", loads)
	}
}

func TestRemoveEvictsAllBlocksForTable(t *testing.T) {
	c, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 3; i++ {
		idx := i
		if _, err := c.GetOrLoad(Key{SSTID: 5, BlockIdx: idx}, func() (*block.Block, error) {
			return dummyBlock(t, "a", "1"), nil
		}); err != nil {
			t.Fatal(err)
		}
	}

	c.Remove(5, 3)

	var loads int32
	for i := 0; i < 3; i++ {
		if _, err := c.GetOrLoad(Key{SSTID: 5, BlockIdx: i}, func() (*block.Block, error) {
			atomic.AddInt32(&loads, 1)
			return dummyBlock(t, "a", "1"), nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	if loads != 3 {
		t.Fatalf("expected all 3 blocks to be reloaded after Remove, got %d", loads)
	}
}
