// Package memtable provides an in-memory, ordered key-value store
// implemented using a skip list, generalized from the teacher's generic
// ordered-key version into the fixed []byte-keyed, concurrency-safe form
// spec.md's memtable requires.
package memtable

import (
	"sync/atomic"

	"github.com/oss-lsm/lsmkv/keyrange"
)

// MemTable is the in-memory ordered key-value store a running engine
// writes into. Deletes are represented as a put of an empty value (a
// tombstone); callers above this layer are responsible for rejecting an
// empty value on an actual Put.
type MemTable struct {
	list        *skipList
	approxBytes atomic.Int64
}

// New creates an empty memtable.
func New() *MemTable {
	return &MemTable{list: newSkipList()}
}

// Put inserts or overwrites key with value. The memtable's approximate
// byte counter is bumped by len(key)+len(value) on every call, including
// overwrites — it is an upper bound on memory, not an exact count, per
// spec.md §3.
func (m *MemTable) Put(key, value []byte) {
	m.list.put(key, value)
	m.approxBytes.Add(int64(len(key) + len(value)))
}

// Get returns the value for key and whether it was found. A tombstone
// (empty value) is returned as found with a zero-length value; callers
// interpret that as "not present".
func (m *MemTable) Get(key []byte) ([]byte, bool) {
	return m.list.get(key)
}

// ApproximateSize returns the running upper-bound byte count used to
// decide when to rotate this memtable out of the active slot.
func (m *MemTable) ApproximateSize() int64 {
	return m.approxBytes.Load()
}

// NumEntries returns the number of distinct keys currently stored.
func (m *MemTable) NumEntries() int {
	return m.list.count()
}

// ForEach walks every entry in ascending key order, stopping early if fn
// returns false. Used by the SST builder when flushing a memtable.
func (m *MemTable) ForEach(fn func(key, value []byte) bool) {
	for n := m.list.first(); n != nil; n = n.next(0) {
		if !fn(n.key, n.getValue()) {
			return
		}
	}
}

// Scan returns an iterator over the range described by lower and upper.
func (m *MemTable) Scan(lower, upper keyrange.Bound) *Iterator {
	return newIterator(m.list, lower, upper)
}
