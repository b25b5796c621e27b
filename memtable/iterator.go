package memtable

import (
	"bytes"

	"github.com/oss-lsm/lsmkv/keyrange"
)

// Iterator is the self-referential range cursor spec.md §9 describes: it
// holds the underlying skip list and a cursor derived from it, plus the
// scan's own copy of the bound keys so the cursor never outlives the
// caller-supplied slices. It satisfies iterators.StorageIterator.
type Iterator struct {
	list  *skipList
	upper keyrange.Bound
	curr  *node
}

func newIterator(list *skipList, lower, upper keyrange.Bound) *Iterator {
	if upper.Kind != keyrange.Unbounded {
		upper.Key = append([]byte(nil), upper.Key...)
	}
	it := &Iterator{list: list, upper: upper}

	switch lower.Kind {
	case keyrange.Included:
		it.curr = list.seekGE(lower.Key)
	case keyrange.Excluded:
		it.curr = list.seekGT(lower.Key)
	default:
		it.curr = list.first()
	}
	it.clampUpper()
	return it
}

func (it *Iterator) clampUpper() {
	if it.curr == nil {
		return
	}
	if !it.upper.Upper(it.curr.key, bytes.Compare) {
		it.curr = nil
	}
}

// IsValid reports whether the cursor currently sits on an in-range entry.
func (it *Iterator) IsValid() bool {
	return it.curr != nil
}

// Key returns the current entry's key.
func (it *Iterator) Key() []byte {
	return it.curr.key
}

// Value returns the current entry's value.
func (it *Iterator) Value() []byte {
	return it.curr.getValue()
}

// Next advances the cursor one entry forward, invalidating it once the
// entry violates the upper bound. Once invalid, the iterator stays
// invalid across further calls (fused by construction: curr only ever
// transitions to nil).
func (it *Iterator) Next() error {
	if it.curr == nil {
		return nil
	}
	it.curr = it.curr.next(0)
	it.clampUpper()
	return nil
}
