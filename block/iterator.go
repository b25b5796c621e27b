package block

import "bytes"

// Iterator walks the sorted entries of a shared Block. The zero value is
// not usable; construct one with NewIterator. is_valid is false exactly
// when the iterator has run past the last entry or the block is empty.
type Iterator struct {
	block *Block
	idx   int // -1 means before-first; len(offsets) means past-last
}

// NewIterator builds an iterator over blk, positioned before the first
// entry. Call SeekToFirst or SeekToKey before reading.
func NewIterator(blk *Block) *Iterator {
	return &Iterator{block: blk, idx: -1}
}

// SeekToFirst positions the iterator at the first entry.
func (it *Iterator) SeekToFirst() {
	it.idx = 0
}

// SeekToKey positions the iterator at the first entry with key >= k
// (lower_bound). Uses binary search over the offset table.
func (it *Iterator) SeekToKey(k []byte) {
	n := it.block.NumEntries()
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		key, _ := it.block.entryAt(mid)
		if bytes.Compare(key, k) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	it.idx = lo
}

// IsValid reports whether the iterator currently sits on an entry.
func (it *Iterator) IsValid() bool {
	return it.block != nil && it.idx >= 0 && it.idx < it.block.NumEntries()
}

// Key returns the current entry's key. Only valid when IsValid.
func (it *Iterator) Key() []byte {
	k, _ := it.block.entryAt(it.idx)
	return k
}

// Value returns the current entry's value. Only valid when IsValid.
func (it *Iterator) Value() []byte {
	_, v := it.block.entryAt(it.idx)
	return v
}

// Next advances to the following entry.
func (it *Iterator) Next() error {
	if it.idx < it.block.NumEntries() {
		it.idx++
	}
	return nil
}
