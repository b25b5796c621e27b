package table

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/oss-lsm/lsmkv/block"
	"github.com/oss-lsm/lsmkv/cache"
)

// footerSize is the length of the fixed trailer appended after the meta
// section: meta_block_offset u32le | block_size u32le | checksum_flag u8.
const footerSize = 4 + 4 + 1

// Builder accumulates key/value entries, sorted ascending by key, into a
// sequence of fixed-capacity blocks, producing one immutable SST file.
type Builder struct {
	blockSize    int
	withChecksum bool

	inner    *block.Builder
	finished []byte
	metas    []BlockMeta

	firstKey []byte
	lastKey  []byte
}

// NewBuilder creates an SST builder whose data blocks target blockSize
// bytes each.
func NewBuilder(blockSize int, withChecksum bool) *Builder {
	return &Builder{
		blockSize:    blockSize,
		withChecksum: withChecksum,
		inner:        block.NewBuilder(blockSize, withChecksum),
	}
}

// Add appends a key/value entry. Keys must be supplied in strictly
// ascending order; the caller (the flush and compaction paths) is
// responsible for that ordering.
func (b *Builder) Add(key, value []byte) error {
	if b.inner.IsEmpty() {
		b.firstKey = append([]byte(nil), key...)
	}
	if !b.inner.Add(key, value) {
		if err := b.finishBlock(); err != nil {
			return err
		}
		b.inner = block.NewBuilder(b.blockSize, b.withChecksum)
		b.firstKey = append([]byte(nil), key...)
		if !b.inner.Add(key, value) {
			return fmt.Errorf("table: entry for key %q does not fit in an empty block of size %d", key, b.blockSize)
		}
	}
	b.lastKey = append(b.lastKey[:0], key...)
	return nil
}

// EstimatedSize returns the approximate encoded size of the table as
// currently built, counting finished blocks plus the in-progress one.
func (b *Builder) EstimatedSize() int {
	return len(b.finished) + b.inner.EstimatedSize()
}

func (b *Builder) finishBlock() error {
	if b.inner.IsEmpty() {
		return nil
	}
	blk, err := b.inner.Build()
	if err != nil {
		return err
	}
	encoded, err := blk.Encode(b.blockSize, b.withChecksum)
	if err != nil {
		return err
	}
	b.metas = append(b.metas, BlockMeta{Offset: uint32(len(b.finished)), FirstKey: b.firstKey})
	b.finished = append(b.finished, encoded...)
	return nil
}

// Build finalizes the table, writes it to path (creating or truncating the
// file, then fsyncing it), and returns it opened for reads through cache
// (which may be nil to disable caching for this table).
func (b *Builder) Build(id uint64, blockCache *cache.BlockCache, path string) (*SSTable, error) {
	if err := b.finishBlock(); err != nil {
		return nil, err
	}
	if len(b.metas) == 0 {
		return nil, fmt.Errorf("table: cannot build an empty table")
	}

	dataSize := uint32(len(b.finished))
	buf := append([]byte(nil), b.finished...)
	buf = append(buf, encodeMeta(b.metas)...)

	var tmp2 [2]byte
	binary.LittleEndian.PutUint16(tmp2[:], uint16(len(b.lastKey)))
	buf = append(buf, tmp2[:]...)
	buf = append(buf, b.lastKey...)

	var footer [footerSize]byte
	binary.LittleEndian.PutUint32(footer[0:4], dataSize)
	binary.LittleEndian.PutUint32(footer[4:8], uint32(b.blockSize))
	if b.withChecksum {
		footer[8] = 1
	}
	buf = append(buf, footer[:]...)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("table: create %s: %w", path, err)
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("table: write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, fmt.Errorf("table: fsync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("table: close %s: %w", path, err)
	}

	return Open(id, blockCache, path)
}
