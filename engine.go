// Package lsmkv is an embedded, ordered key-value store built as a
// log-structured merge tree: writes land in an in-memory memtable and are
// later drained to immutable, sorted SST files that are compacted in the
// background.
package lsmkv

import (
	"bytes"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/oss-lsm/lsmkv/cache"
	"github.com/oss-lsm/lsmkv/iterators"
	"github.com/oss-lsm/lsmkv/memtable"
	"github.com/oss-lsm/lsmkv/sstdir"
	"github.com/oss-lsm/lsmkv/table"
)

// Engine is a single open data directory. It is safe for concurrent use
// by multiple goroutines.
type Engine struct {
	mu    sync.RWMutex
	state *engineState

	dir   string
	opts  options
	cache *cache.BlockCache
	log   *zap.SugaredLogger

	flushCh chan flushRequest
	stopCh  chan struct{}
	stopped atomic.Bool
	once    sync.Once
	wg      sync.WaitGroup
}

type flushRequest struct {
	done chan error
}

// Open opens the data directory at path, creating it if absent, and
// recovers any SSTs already present there into L0 (per SPEC_FULL's
// resolution: no level manifest is persisted, so every recovered table is
// treated as a fresh L0 file and re-settles through ordinary compaction).
func Open(path string, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := sstdir.EnsureDir(path); err != nil {
		return nil, ioErr("open", err)
	}
	entries, err := sstdir.List(path)
	if err != nil {
		return nil, ioErr("open", err)
	}

	blockCache, err := cache.New(o.cacheCapacity)
	if err != nil {
		return nil, ioErr("open", err)
	}

	st := newEngineState()
	st.nextSSTID = sstdir.NextID(entries)
	for _, e := range entries {
		tbl, err := table.Open(e.ID, blockCache, e.Path)
		if err != nil {
			return nil, ioErr("open", err)
		}
		st.l0 = append(st.l0, tbl)
	}

	e := &Engine{
		state:   st,
		dir:     path,
		opts:    o,
		cache:   blockCache,
		log:     o.logger,
		flushCh: make(chan flushRequest, 64),
		stopCh:  make(chan struct{}),
	}

	e.wg.Add(1)
	go e.worker()

	return e, nil
}

func (e *Engine) snapshot() *engineState {
	e.mu.RLock()
	st := e.state
	e.mu.RUnlock()
	return st
}

// Get returns the value for key, or (nil, nil) if key is absent or has
// been deleted. It errors only on I/O or corruption, never on a miss.
func (e *Engine) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, invariantErr("get", "key must not be empty")
	}

	st := e.snapshot()

	if v, ok := st.memtable.Get(key); ok {
		return tombstoneToMiss(v), nil
	}
	for i := len(st.immutables) - 1; i >= 0; i-- {
		if v, ok := st.immutables[i].Get(key); ok {
			return tombstoneToMiss(v), nil
		}
	}
	for i := len(st.l0) - 1; i >= 0; i-- {
		v, ok, err := getFromTable(st.l0[i], key)
		if err != nil {
			return nil, ioErr("get", err)
		}
		if ok {
			return tombstoneToMiss(v), nil
		}
	}
	for level := 1; level <= len(st.levels); level++ {
		for _, tbl := range st.levelTables(level) {
			v, ok, err := getFromTable(tbl, key)
			if err != nil {
				return nil, ioErr("get", err)
			}
			if ok {
				return tombstoneToMiss(v), nil
			}
		}
	}
	return nil, nil
}

func tombstoneToMiss(v []byte) []byte {
	if len(v) == 0 {
		return nil
	}
	return v
}

func getFromTable(tbl *table.SSTable, key []byte) ([]byte, bool, error) {
	if !tbl.MayContain(key) {
		return nil, false, nil
	}
	it, err := table.CreateAndSeekToKey(tbl, key)
	if err != nil {
		return nil, false, err
	}
	if it.IsValid() && bytes.Equal(it.Key(), key) {
		return append([]byte(nil), it.Value()...), true, nil
	}
	return nil, false, nil
}

// maxEntrySize is the largest key or value the block format can encode: a
// key_len/value_len field is a fixed 2-byte little-endian count
// (block/builder.go), so anything past uint16's range would silently
// wrap and corrupt the block instead of erroring.
const maxEntrySize = 1<<16 - 1

// Put inserts or overwrites key with a non-empty value.
func (e *Engine) Put(key, value []byte) error {
	if e.stopped.Load() {
		return shutdownErr("put")
	}
	if len(key) == 0 {
		return invariantErr("put", "key must not be empty")
	}
	if len(value) == 0 {
		return invariantErr("put", "value must not be empty; use Delete for a tombstone")
	}
	if len(key) > maxEntrySize {
		return invariantErr("put", "key exceeds maximum size")
	}
	if len(value) > maxEntrySize {
		return invariantErr("put", "value exceeds maximum size")
	}
	return e.write(key, value)
}

// Delete writes a tombstone for key.
func (e *Engine) Delete(key []byte) error {
	if e.stopped.Load() {
		return shutdownErr("delete")
	}
	if len(key) == 0 {
		return invariantErr("delete", "key must not be empty")
	}
	if len(key) > maxEntrySize {
		return invariantErr("delete", "key exceeds maximum size")
	}
	return e.write(key, []byte{})
}

func (e *Engine) write(key, value []byte) error {
	e.mu.Lock()
	st := e.state
	st.memtable.Put(key, value)
	e.mu.Unlock()

	if st.memtable.ApproximateSize() >= e.opts.memtableThreshold {
		if e.rotateMemtable() {
			e.signalFlush(nil)
		}
	}
	return nil
}

// rotateMemtable moves the active memtable onto the immutable queue and
// installs a fresh one, per spec.md §2 ("when the memtable's accumulated
// byte size crosses a threshold, the coordinator rotates it"). It reports
// whether a rotation actually happened, since two writers can both observe
// the threshold crossed before either takes the write lock.
func (e *Engine) rotateMemtable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state
	if st.memtable.NumEntries() == 0 {
		return false
	}
	next := st.clone()
	next.immutables = append(next.immutables, st.memtable)
	next.memtable = memtable.New()
	e.state = next
	return true
}

func (e *Engine) signalFlush(done chan error) {
	select {
	case e.flushCh <- flushRequest{done: done}:
	default:
		// A flush is already queued; spec.md §5's "redundant signal is
		// absorbed" — but a synchronous caller still needs its ack, so
		// hand it straight back as already-satisfied by the in-flight run.
		if done != nil {
			go func() { done <- nil }()
		}
	}
}

// Scan returns an iterator over the keys between lower and upper (each
// bound unbounded, included or excluded), merging every memtable
// and SST layer and filtering tombstones. The iterator holds references
// to every source it was built from, so it is unaffected by concurrent
// flush or compaction.
func (e *Engine) Scan(lower, upper Bound) (*iterators.FusedIterator, error) {
	st := e.snapshot()

	memIters := []*memtable.Iterator{st.memtable.Scan(lower, upper)}
	for i := len(st.immutables) - 1; i >= 0; i-- {
		memIters = append(memIters, st.immutables[i].Scan(lower, upper))
	}

	lowerKey, upperKey := boundKey(lower), boundKey(upper)

	var sstIters []*table.Iterator
	for i := len(st.l0) - 1; i >= 0; i-- {
		if !st.l0[i].Overlaps(lowerKey, upperKey) {
			continue
		}
		it, err := table.ByRange(st.l0[i], lower, upper)
		if err != nil {
			return nil, ioErr("scan", err)
		}
		sstIters = append(sstIters, it)
	}
	for level := 1; level <= len(st.levels); level++ {
		for _, tbl := range st.levelTables(level) {
			if !tbl.Overlaps(lowerKey, upperKey) {
				continue
			}
			it, err := table.ByRange(tbl, lower, upper)
			if err != nil {
				return nil, ioErr("scan", err)
			}
			sstIters = append(sstIters, it)
		}
	}

	memMerge := iterators.NewMergeIterator[*memtable.Iterator](memIters)
	sstMerge := iterators.NewMergeIterator[*table.Iterator](sstIters)

	two, err := iterators.NewTwoMergeIterator(memMerge, sstMerge)
	if err != nil {
		return nil, ioErr("scan", err)
	}
	lsmIt, err := iterators.NewLsmIterator(two)
	if err != nil {
		return nil, ioErr("scan", err)
	}
	return iterators.NewFusedIterator(lsmIt), nil
}

// Sync forces the active memtable to flush to L0 and waits for it to
// complete. It is a no-op if the active memtable is empty.
func (e *Engine) Sync() error {
	if e.stopped.Load() {
		return shutdownErr("sync")
	}

	if !e.rotateMemtable() {
		return nil
	}

	done := make(chan error, 1)
	e.signalFlush(done)
	if err := <-done; err != nil {
		return ioErr("sync", err)
	}
	return nil
}

// Stop halts the background worker and releases open file handles. It is
// idempotent.
func (e *Engine) Stop() error {
	e.once.Do(func() {
		e.stopped.Store(true)
		close(e.stopCh)
	})
	e.wg.Wait()

	st := e.snapshot()
	for _, tbl := range st.l0 {
		_ = tbl.Close()
	}
	for _, lvl := range st.levels {
		for _, tbl := range lvl {
			_ = tbl.Close()
		}
	}
	return nil
}
