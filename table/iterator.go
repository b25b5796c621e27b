package table

import (
	"bytes"

	"github.com/oss-lsm/lsmkv/block"
	"github.com/oss-lsm/lsmkv/keyrange"
)

// Iterator walks one SSTable's entries in ascending key order, crossing
// block boundaries transparently. It satisfies iterators.StorageIterator.
type Iterator struct {
	table    *SSTable
	blockIdx int
	blockIt  *block.Iterator
	upper    keyrange.Bound
}

// CreateAndSeekToFirst returns an iterator positioned at table's first
// entry.
func CreateAndSeekToFirst(table *SSTable) (*Iterator, error) {
	it := &Iterator{table: table, upper: keyrange.UnboundedBound()}
	if err := it.seekToBlock(0, nil); err != nil {
		return nil, err
	}
	return it, nil
}

// CreateAndSeekToKey returns an iterator positioned at the first entry
// with key >= key.
func CreateAndSeekToKey(table *SSTable, key []byte) (*Iterator, error) {
	it := &Iterator{table: table, upper: keyrange.UnboundedBound()}
	idx := table.FindBlockIdx(key)
	if err := it.seekToBlock(idx, key); err != nil {
		return nil, err
	}
	return it, nil
}

// ByRange returns an iterator over table restricted to the range between
// lower and upper, honoring keyrange.Bound semantics for both ends (Excluded lower steps
// past an exact match; any upper-bound violation invalidates the iterator
// for good).
func ByRange(table *SSTable, lower, upper keyrange.Bound) (*Iterator, error) {
	var it *Iterator
	var err error
	switch lower.Kind {
	case keyrange.Unbounded:
		it, err = CreateAndSeekToFirst(table)
	default:
		it, err = CreateAndSeekToKey(table, lower.Key)
	}
	if err != nil {
		return nil, err
	}
	it.upper = upper

	if lower.Kind == keyrange.Excluded && it.IsValid() && bytes.Equal(it.Key(), lower.Key) {
		if err := it.Next(); err != nil {
			return nil, err
		}
	}
	it.clampUpper()
	return it, nil
}

func (it *Iterator) seekToBlock(idx int, seekKey []byte) error {
	if idx >= it.table.NumOfBlocks() {
		it.blockIdx = idx
		it.blockIt = nil
		return nil
	}
	blk, err := it.table.ReadBlockCached(idx)
	if err != nil {
		return err
	}
	bi := block.NewIterator(blk)
	if seekKey != nil {
		bi.SeekToKey(seekKey)
	} else {
		bi.SeekToFirst()
	}
	it.blockIdx = idx
	it.blockIt = bi

	// A seek key greater than every key in the block lands past-the-end;
	// advance to the next block so the cursor still finds the true
	// lower_bound entry across the whole table.
	if seekKey != nil && !bi.IsValid() && idx+1 < it.table.NumOfBlocks() {
		return it.seekToBlock(idx+1, nil)
	}
	return nil
}

func (it *Iterator) clampUpper() {
	if !it.rawValid() {
		return
	}
	if !it.upper.Upper(it.blockIt.Key(), bytes.Compare) {
		it.blockIt = nil
	}
}

func (it *Iterator) rawValid() bool {
	return it.blockIt != nil && it.blockIt.IsValid()
}

// IsValid reports whether the cursor sits on an in-range entry.
func (it *Iterator) IsValid() bool {
	return it.rawValid()
}

// Key returns the current entry's key.
func (it *Iterator) Key() []byte {
	return it.blockIt.Key()
}

// Value returns the current entry's value.
func (it *Iterator) Value() []byte {
	return it.blockIt.Value()
}

// Next advances the cursor, crossing into the next block when the current
// one is exhausted, and invalidates the iterator for good once the upper
// bound is violated or the table is exhausted.
func (it *Iterator) Next() error {
	if !it.rawValid() {
		return nil
	}
	if err := it.blockIt.Next(); err != nil {
		return err
	}
	if !it.blockIt.IsValid() {
		if err := it.seekToBlock(it.blockIdx+1, nil); err != nil {
			return err
		}
	}
	it.clampUpper()
	return nil
}
