// Package iterators implements the iterator algebra that composes the
// memtable, block and SST iterators into one logical, tombstone-free,
// ordered view over the whole engine: a k-way merge over same-kind
// iterators, a heterogeneous two-way merge, a tombstone-filtering wrapper,
// and a fused wrapper that makes Next a no-op once exhausted.
package iterators

// StorageIterator is the capability set shared by every layer iterator in
// the engine: memtable iterator, block iterator, SST iterator, and every
// composition of them. Keys and values are returned as shared byte slices
// valid only until the next call to Next.
type StorageIterator interface {
	Key() []byte
	Value() []byte
	IsValid() bool
	Next() error
}
