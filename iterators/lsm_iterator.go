package iterators

// LsmIterator wraps the engine's top-level merge (a TwoMergeIterator over
// a memtable MergeIterator and an SST MergeIterator) and hides tombstones:
// any entry whose value is empty is skipped, so the iterator yields a
// tombstone-free logical view of the keyspace.
type LsmIterator struct {
	inner StorageIterator
}

// NewLsmIterator wraps inner, skipping forward past any leading tombstone.
func NewLsmIterator(inner StorageIterator) (*LsmIterator, error) {
	l := &LsmIterator{inner: inner}
	if err := l.skipTombstones(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LsmIterator) skipTombstones() error {
	for l.inner.IsValid() && len(l.inner.Value()) == 0 {
		if err := l.inner.Next(); err != nil {
			return err
		}
	}
	return nil
}

func (l *LsmIterator) IsValid() bool {
	return l.inner.IsValid()
}

func (l *LsmIterator) Key() []byte {
	return l.inner.Key()
}

func (l *LsmIterator) Value() []byte {
	return l.inner.Value()
}

func (l *LsmIterator) Next() error {
	if err := l.inner.Next(); err != nil {
		return err
	}
	return l.skipTombstones()
}
