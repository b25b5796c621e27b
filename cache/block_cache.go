// Package cache implements the bounded, shared block cache the SST
// reader consults before decoding a block from disk: a size-limited map
// from (sst ID, block index) to a decoded block, with single-flight
// collapsing of concurrent misses on the same key.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/oss-lsm/lsmkv/block"
)

// Key identifies one cached block.
type Key struct {
	SSTID    uint64
	BlockIdx int
}

// BlockCache is a bounded, approximately-LRU cache from Key to a decoded
// *block.Block, shared by every SSTable the engine has open. Concurrent
// misses for the same key collapse into a single populating call via an
// internal singleflight.Group, per spec.md §4.2's single-flight guarantee.
type BlockCache struct {
	lru   *lru.Cache[Key, *block.Block]
	flight singleflight.Group
}

// New creates a cache holding up to capacity entries (capacity is a count
// of blocks, not bytes; per-entry eviction cost is approximated as one
// unit per block as spec.md §5 allows for an "approximate" LRU policy).
func New(capacity int) (*BlockCache, error) {
	l, err := lru.New[Key, *block.Block](capacity)
	if err != nil {
		return nil, err
	}
	return &BlockCache{lru: l}, nil
}

// GetOrLoad returns the cached block for key, or calls load to decode it
// from disk on a miss, caching the result. Concurrent GetOrLoad calls for
// the same key share one in-flight load.
func (c *BlockCache) GetOrLoad(key Key, load func() (*block.Block, error)) (*block.Block, error) {
	if blk, ok := c.lru.Get(key); ok {
		return blk, nil
	}

	v, err, _ := c.flight.Do(flightKey(key), func() (any, error) {
		if blk, ok := c.lru.Get(key); ok {
			return blk, nil
		}
		blk, err := load()
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, blk)
		return blk, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*block.Block), nil
}

// Remove evicts every cached block belonging to sstID. Called when an SST
// is deleted after a compaction so stale entries cannot be served.
func (c *BlockCache) Remove(sstID uint64, numBlocks int) {
	for i := 0; i < numBlocks; i++ {
		c.lru.Remove(Key{SSTID: sstID, BlockIdx: i})
	}
}

func flightKey(k Key) string {
	// singleflight.Group is keyed by string; "sstID/blockIdx" in decimal
	// is unique per Key.
	buf := make([]byte, 0, 24)
	buf = appendUint(buf, k.SSTID)
	buf = append(buf, '/')
	buf = appendUint(buf, uint64(k.BlockIdx))
	return string(buf)
}

func appendUint(buf []byte, v uint64) []byte {
	if v == 0 {
		return append(buf, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(buf, tmp[i:]...)
}
