package lsmkv

import "github.com/oss-lsm/lsmkv/keyrange"

// Bound is one side of a Scan range: unbounded, included(key), or
// excluded(key), per spec.md §6.
type Bound = keyrange.Bound

// BoundKind identifies the shape of a Bound.
type BoundKind = keyrange.Kind

// Unbounded returns a Bound with no constraint on that side of the range.
func Unbounded() Bound { return keyrange.UnboundedBound() }

// Included returns a Bound that includes key.
func Included(key []byte) Bound { return keyrange.IncludedBound(key) }

// Excluded returns a Bound that excludes key.
func Excluded(key []byte) Bound { return keyrange.ExcludedBound(key) }

// boundKey extracts the raw comparison key from a Bound, or nil if it is
// unbounded. Used for coarse table-range pruning (SSTable.Overlaps),
// which only needs a prefilter key, not the bound's inclusive/exclusive
// distinction.
func boundKey(b Bound) []byte {
	if b.Kind == keyrange.Unbounded {
		return nil
	}
	return b.Key
}
