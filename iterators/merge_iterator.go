package iterators

import (
	"bytes"
	"container/heap"
)

// mergeHeapItem pairs a live iterator with the index of the source it came
// from. Source index order is caller-assigned — by convention, newest
// writer first — so that on a key tie the smaller index (the fresher
// source) sorts first.
type mergeHeapItem[T StorageIterator] struct {
	iter T
	idx  int
}

type mergeHeap[T StorageIterator] []*mergeHeapItem[T]

func (h mergeHeap[T]) Len() int { return len(h) }
func (h mergeHeap[T]) Less(i, j int) bool {
	c := bytes.Compare(h[i].iter.Key(), h[j].iter.Key())
	if c != 0 {
		return c < 0
	}
	return h[i].idx < h[j].idx
}
func (h mergeHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap[T]) Push(x any)   { *h = append(*h, x.(*mergeHeapItem[T])) }
func (h *mergeHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MergeIterator merges a set of layer iterators of the same concrete kind
// T into one logical ordered view, by way of a min-heap keyed by
// (current_key, source_index). On a key collision across sources, the
// source with the smaller index wins — so callers should supply iterators
// newest-first so that newer writes shadow older ones. Each logical key is
// emitted exactly once, from the highest-priority source that holds it.
type MergeIterator[T StorageIterator] struct {
	h       mergeHeap[T]
	current *mergeHeapItem[T]
}

// NewMergeIterator builds a MergeIterator over iters, in the priority
// order supplied (index 0 is highest priority / newest). Invalid
// iterators are filtered out at construction time.
func NewMergeIterator[T StorageIterator](iters []T) *MergeIterator[T] {
	m := &MergeIterator[T]{}
	for i, it := range iters {
		if it.IsValid() {
			heap.Push(&m.h, &mergeHeapItem[T]{iter: it, idx: i})
		}
	}
	if m.h.Len() > 0 {
		m.current = heap.Pop(&m.h).(*mergeHeapItem[T])
	}
	return m
}

// IsValid reports whether there is a current entry to read.
func (m *MergeIterator[T]) IsValid() bool {
	return m.current != nil && m.current.iter.IsValid()
}

// Key returns the current entry's key.
func (m *MergeIterator[T]) Key() []byte {
	return m.current.iter.Key()
}

// Value returns the current entry's value.
func (m *MergeIterator[T]) Value() []byte {
	return m.current.iter.Value()
}

// Next advances past the current key everywhere it appears, across every
// source, then promotes the next-lowest-keyed, highest-priority source to
// current.
func (m *MergeIterator[T]) Next() error {
	if m.current == nil {
		return nil
	}
	currentKey := append([]byte(nil), m.current.iter.Key()...)

	// Drain every other source that is still sitting on the same key.
	for m.h.Len() > 0 && bytes.Equal(m.h[0].iter.Key(), currentKey) {
		top := m.h[0]
		if err := top.iter.Next(); err != nil {
			return err
		}
		if top.iter.IsValid() {
			heap.Fix(&m.h, 0)
		} else {
			heap.Pop(&m.h)
		}
	}

	// Advance the current source past the shared key.
	if err := m.current.iter.Next(); err != nil {
		return err
	}
	if m.current.iter.IsValid() {
		heap.Push(&m.h, m.current)
	}

	if m.h.Len() > 0 {
		m.current = heap.Pop(&m.h).(*mergeHeapItem[T])
	} else {
		m.current = nil
	}
	return nil
}
