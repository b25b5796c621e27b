package table

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/oss-lsm/lsmkv/block"
	"github.com/oss-lsm/lsmkv/cache"
)

// SSTable is a handle on one immutable, on-disk sorted-string table. It
// holds its block-metadata index in memory and reads data blocks back
// through a shared block cache, falling back to a direct positional read
// on a cache miss (or when no cache was supplied).
type SSTable struct {
	id           uint64
	file         *os.File
	cache        *cache.BlockCache
	blockSize    int
	withChecksum bool

	dataSize uint32
	metas    []BlockMeta
	lastKey  []byte
}

// Open reads id's footer and meta section from path and returns a handle
// ready to serve reads. blockCache may be nil, in which case every read
// goes straight to disk.
func Open(id uint64, blockCache *cache.BlockCache, path string) (*SSTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("table: stat %s: %w", path, err)
	}
	size := info.Size()
	if size < footerSize {
		f.Close()
		return nil, fmt.Errorf("table: %s too small to be a valid table", path)
	}

	var footer [footerSize]byte
	if _, err := f.ReadAt(footer[:], size-footerSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("table: read footer of %s: %w", path, err)
	}
	dataSize := binary.LittleEndian.Uint32(footer[0:4])
	blockSize := int(binary.LittleEndian.Uint32(footer[4:8]))
	withChecksum := footer[8] != 0

	lastKeyLenPos := size - footerSize - 2
	if lastKeyLenPos < int64(dataSize) {
		f.Close()
		return nil, fmt.Errorf("table: %s footer/meta overlap", path)
	}
	var lenBuf [2]byte
	if _, err := f.ReadAt(lenBuf[:], lastKeyLenPos); err != nil {
		f.Close()
		return nil, fmt.Errorf("table: read last_key length of %s: %w", path, err)
	}
	lastKeyLen := int64(binary.LittleEndian.Uint16(lenBuf[:]))
	lastKeyStart := lastKeyLenPos - lastKeyLen
	if lastKeyStart < int64(dataSize) {
		f.Close()
		return nil, fmt.Errorf("table: %s corrupt last_key section", path)
	}
	lastKey := make([]byte, lastKeyLen)
	if lastKeyLen > 0 {
		if _, err := f.ReadAt(lastKey, lastKeyStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("table: read last_key of %s: %w", path, err)
		}
	}

	metaBuf := make([]byte, lastKeyStart-int64(dataSize))
	if len(metaBuf) > 0 {
		if _, err := f.ReadAt(metaBuf, int64(dataSize)); err != nil {
			f.Close()
			return nil, fmt.Errorf("table: read meta section of %s: %w", path, err)
		}
	}
	metas, err := decodeMeta(metaBuf)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("table: %s: %w", path, err)
	}
	if len(metas) == 0 {
		f.Close()
		return nil, fmt.Errorf("table: %s has no blocks", path)
	}

	return &SSTable{
		id:           id,
		file:         f,
		cache:        blockCache,
		blockSize:    blockSize,
		withChecksum: withChecksum,
		dataSize:     dataSize,
		metas:        metas,
		lastKey:      lastKey,
	}, nil
}

// ID returns the table's numeric identity, used both as its cache key and
// as the basis of its file name.
func (t *SSTable) ID() uint64 { return t.id }

// NumOfBlocks returns the number of data blocks in the table.
func (t *SSTable) NumOfBlocks() int { return len(t.metas) }

// FirstKey returns the smallest key stored in the table.
func (t *SSTable) FirstKey() []byte { return t.metas[0].FirstKey }

// LastKey returns the largest key stored in the table.
func (t *SSTable) LastKey() []byte { return t.lastKey }

// Overlaps reports whether [lower, upper] (either bound may be nil for
// unbounded; both are treated as inclusive) intersects the table's
// [FirstKey, LastKey] range. Used by range scans to prune tables that
// cannot contribute any entry; treating an excluded bound as inclusive can
// only keep a table, never drop one that holds an in-range key.
func (t *SSTable) Overlaps(lower, upper []byte) bool {
	if upper != nil && bytes.Compare(upper, t.FirstKey()) < 0 {
		return false
	}
	if lower != nil && bytes.Compare(lower, t.LastKey()) > 0 {
		return false
	}
	return true
}

// MayContain reports whether key could plausibly be present, based solely
// on the table's key range (no bloom filter is maintained).
func (t *SSTable) MayContain(key []byte) bool {
	return bytes.Compare(key, t.FirstKey()) >= 0 && bytes.Compare(key, t.LastKey()) <= 0
}

// Close releases the table's open file descriptor.
func (t *SSTable) Close() error {
	return t.file.Close()
}

// ReadBlock decodes block i directly from disk, bypassing the cache.
func (t *SSTable) ReadBlock(i int) (*block.Block, error) {
	if i < 0 || i >= len(t.metas) {
		return nil, fmt.Errorf("table: block index %d out of range", i)
	}
	start := int64(t.metas[i].Offset)
	var end int64
	if i+1 < len(t.metas) {
		end = int64(t.metas[i+1].Offset)
	} else {
		end = int64(t.dataSize)
	}

	buf := make([]byte, end-start)
	if _, err := t.file.ReadAt(buf, start); err != nil {
		return nil, fmt.Errorf("table: read block %d: %w", i, err)
	}
	return block.Decode(buf, t.withChecksum)
}

// ReadBlockCached decodes block i, consulting the shared block cache
// first and populating it on a miss. Concurrent misses on the same
// (table, block) pair collapse into a single disk read.
func (t *SSTable) ReadBlockCached(i int) (*block.Block, error) {
	if t.cache == nil {
		return t.ReadBlock(i)
	}
	return t.cache.GetOrLoad(cache.Key{SSTID: t.id, BlockIdx: i}, func() (*block.Block, error) {
		return t.ReadBlock(i)
	})
}

// FindBlockIdx returns the index of the last block whose first key is <=
// key, i.e. the only block that could hold key. If key precedes the
// table's first key entirely, it returns 0 (the caller's subsequent
// lower_bound seek within that block lands on the table's first entry,
// whose key differs from key, so an exact-match lookup reports not-found).
func (t *SSTable) FindBlockIdx(key []byte) int {
	idx := sort.Search(len(t.metas), func(i int) bool {
		return bytes.Compare(t.metas[i].FirstKey, key) > 0
	}) - 1
	if idx < 0 {
		idx = 0
	}
	return idx
}
