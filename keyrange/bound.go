// Package keyrange defines the scan-bound algebra shared by the
// memtable, the SST reader and the public engine API, so that a lower or
// upper bound is always one of unbounded, included(key) or excluded(key).
package keyrange

// Kind identifies the shape of a Bound.
type Kind int

const (
	// Unbounded means no constraint on this side of the range.
	Unbounded Kind = iota
	// Included means the bound's Key is part of the range.
	Included
	// Excluded means the bound's Key is just outside the range.
	Excluded
)

// Bound is one side (lower or upper) of a scan range.
type Bound struct {
	Kind Kind
	Key  []byte
}

// Lower matches key against this bound used as a lower bound: true if key
// is within (i.e. at or after) the bound.
func (b Bound) Lower(key []byte, cmp func(a, b []byte) int) bool {
	switch b.Kind {
	case Unbounded:
		return true
	case Included:
		return cmp(key, b.Key) >= 0
	case Excluded:
		return cmp(key, b.Key) > 0
	default:
		return true
	}
}

// Upper matches key against this bound used as an upper bound: true if key
// is within (i.e. at or before) the bound.
func (b Bound) Upper(key []byte, cmp func(a, b []byte) int) bool {
	switch b.Kind {
	case Unbounded:
		return true
	case Included:
		return cmp(key, b.Key) <= 0
	case Excluded:
		return cmp(key, b.Key) < 0
	default:
		return true
	}
}

// UnboundedBound returns an unconstrained Bound.
func UnboundedBound() Bound { return Bound{Kind: Unbounded} }

// IncludedBound returns a Bound that includes key.
func IncludedBound(key []byte) Bound { return Bound{Kind: Included, Key: key} }

// ExcludedBound returns a Bound that excludes key.
func ExcludedBound(key []byte) Bound { return Bound{Kind: Excluded, Key: key} }
