package lsmkv

import (
	"github.com/oss-lsm/lsmkv/memtable"
	"github.com/oss-lsm/lsmkv/sstdir"
	"github.com/oss-lsm/lsmkv/table"
)

// worker is the single background goroutine that performs every flush and
// compaction, per spec.md §5 ("a single background worker thread performs
// all flushes and compactions"). Shutdown is an explicit sentinel
// (stopCh closed by Stop, via sync.Once) rather than relying on flushCh's
// closure, matching spec.md §9's preference for an explicit stop marker.
func (e *Engine) worker() {
	defer e.wg.Done()

	for {
		select {
		case <-e.stopCh:
			return
		case req := <-e.flushCh:
			e.runFlushCycle(req)
		}
	}
}

// runFlushCycle coalesces every flush request currently queued (spec.md
// §5: "the worker drains all pending messages per iteration"), performs
// one flush pass, then checks whether any level now needs compaction.
func (e *Engine) runFlushCycle(first flushRequest) {
	dones := make([]chan error, 0, 1)
	if first.done != nil {
		dones = append(dones, first.done)
	}
drain:
	for {
		select {
		case next := <-e.flushCh:
			if next.done != nil {
				dones = append(dones, next.done)
			}
		default:
			break drain
		}
	}

	err := e.flushAll()
	if err != nil {
		e.log.Errorw("flush failed", "error", err)
	} else if compErr := e.maybeCompact(); compErr != nil {
		e.log.Errorw("compaction failed", "error", compErr)
	}

	for _, d := range dones {
		d <- err
	}
}

// flushAll drains the immutable-memtable queue oldest-first, as spec.md
// §4.5 describes, until none remain.
func (e *Engine) flushAll() error {
	for {
		e.mu.RLock()
		st := e.state
		if len(st.immutables) == 0 {
			e.mu.RUnlock()
			return nil
		}
		oldest := st.immutables[0]
		e.mu.RUnlock()

		if err := e.flushOne(oldest); err != nil {
			return err
		}
	}
}

// flushOne builds mt into a new SST and installs it at the tail of L0,
// removing mt from the immutable queue. Building happens outside any
// lock; only the state swap is guarded.
func (e *Engine) flushOne(mt *memtable.MemTable) error {
	e.mu.RLock()
	id := e.state.nextSSTID
	e.mu.RUnlock()

	path := sstdir.Path(e.dir, id)
	builder := table.NewBuilder(e.opts.blockSize, e.opts.withChecksum)

	var addErr error
	mt.ForEach(func(key, value []byte) bool {
		if err := builder.Add(key, value); err != nil {
			addErr = err
			return false
		}
		return true
	})
	if addErr != nil {
		return addErr
	}

	tbl, err := builder.Build(id, e.cache, path)
	if err != nil {
		return err
	}

	e.mu.Lock()
	st := e.state.clone()
	for i, im := range st.immutables {
		if im == mt {
			st.immutables = append(st.immutables[:i:i], st.immutables[i+1:]...)
			break
		}
	}
	st.l0 = append(st.l0[:len(st.l0):len(st.l0)], tbl)
	st.nextSSTID = id + 1
	e.state = st
	e.mu.Unlock()

	return nil
}
