package iterators

// FusedIterator makes Next a no-op once the wrapped iterator has become
// invalid, so callers can over-step past the end without consequence.
// Every public iterator the engine hands back to a caller is fused.
type FusedIterator struct {
	inner   StorageIterator
	invalid bool
}

// NewFusedIterator wraps inner.
func NewFusedIterator(inner StorageIterator) *FusedIterator {
	return &FusedIterator{inner: inner}
}

func (f *FusedIterator) IsValid() bool {
	return !f.invalid && f.inner.IsValid()
}

func (f *FusedIterator) Key() []byte {
	return f.inner.Key()
}

func (f *FusedIterator) Value() []byte {
	return f.inner.Value()
}

func (f *FusedIterator) Next() error {
	if f.invalid {
		return nil
	}
	if !f.inner.IsValid() {
		f.invalid = true
		return nil
	}
	if err := f.inner.Next(); err != nil {
		f.invalid = true
		return err
	}
	if !f.inner.IsValid() {
		f.invalid = true
	}
	return nil
}
