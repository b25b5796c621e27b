package lsmkv

import (
	"github.com/oss-lsm/lsmkv/iterators"
	"github.com/oss-lsm/lsmkv/sstdir"
	"github.com/oss-lsm/lsmkv/table"
)

// maybeCompact walks the tiers from L0 downward, compacting each one that
// has reached the trigger file count into the next tier down, cascading
// as far as the new data pushes it (spec.md §4.5: "identical rule for
// L1→L2 and so on").
func (e *Engine) maybeCompact() error {
	for {
		st := e.snapshot()
		if len(st.l0) < e.opts.l0CompactionTrigger {
			break
		}
		if err := e.compactInto(1); err != nil {
			return err
		}
	}

	for level := 1; ; level++ {
		st := e.snapshot()
		if len(st.levelTables(level)) < e.opts.l0CompactionTrigger {
			break
		}
		if err := e.compactInto(level + 1); err != nil {
			return err
		}
	}
	return nil
}

// compactInto merges every SST at target-1 (L0 when target is 1, level
// target-1 otherwise) together with target's existing single SST (if
// any) into one new SST written into target, dropping tombstones. Both
// input tiers are then unlinked. Per spec.md §9, levels is grown lazily
// the first time a compaction reaches beyond its current length; this is
// always safe here because a level can only ever receive data once its
// predecessor has been compacted at least once, so every level beyond
// the one currently being written is still empty and a tombstone can be
// dropped without risk of unshadowing a stale value underneath it.
func (e *Engine) compactInto(target int) error {
	st := e.snapshot()

	var sources []*table.SSTable
	if target == 1 {
		sources = append(sources, st.l0...)
	} else {
		sources = append(sources, st.levelTables(target-1)...)
	}
	existing := st.levelTables(target)

	id := st.nextSSTID
	merged, err := e.mergeTables(id, sources, existing)
	if err != nil {
		return err
	}

	e.mu.Lock()
	next := e.state.clone()
	if target == 1 {
		next.l0 = next.l0[len(sources):]
	} else {
		next.levels[target-2] = nil
	}
	for len(next.levels) < target {
		next.levels = append(next.levels, nil)
	}
	if merged != nil {
		next.levels[target-1] = []*table.SSTable{merged}
		next.nextSSTID = id + 1
	} else {
		next.levels[target-1] = nil
	}
	e.state = next
	e.mu.Unlock()

	for _, t := range sources {
		e.closeAndRemove(t)
	}
	for _, t := range existing {
		e.closeAndRemove(t)
	}
	return nil
}

// mergeTables merges newer (priority order: last element of newer is
// most recent, matching L0's earliest-to-latest storage) together with
// older (the existing, lower-priority next-level table), drops
// tombstones, and writes the result as a single new SST. Returns a nil
// table, not an error, if every input key turned out to be a tombstone.
func (e *Engine) mergeTables(id uint64, newer, older []*table.SSTable) (*table.SSTable, error) {
	var ordered []*table.SSTable
	for i := len(newer) - 1; i >= 0; i-- {
		ordered = append(ordered, newer[i])
	}
	ordered = append(ordered, older...)

	iters := make([]*table.Iterator, 0, len(ordered))
	for _, t := range ordered {
		it, err := table.CreateAndSeekToFirst(t)
		if err != nil {
			return nil, err
		}
		iters = append(iters, it)
	}
	merged := iterators.NewMergeIterator[*table.Iterator](iters)

	builder := table.NewBuilder(e.opts.blockSize, e.opts.withChecksum)
	path := sstdir.Path(e.dir, id)

	n := 0
	for merged.IsValid() {
		if len(merged.Value()) == 0 {
			if err := merged.Next(); err != nil {
				return nil, err
			}
			continue
		}
		if err := builder.Add(merged.Key(), merged.Value()); err != nil {
			return nil, err
		}
		n++
		if err := merged.Next(); err != nil {
			return nil, err
		}
	}
	if n == 0 {
		return nil, nil
	}

	tbl, err := builder.Build(id, e.cache, path)
	if err != nil {
		return nil, err
	}

	return tbl, nil
}

// closeAndRemove evicts t's blocks from the shared cache (so a later
// compaction that happens to reuse t's id, or an in-flight reader holding
// a stale *SSTable, never serves data from a deleted table), then closes
// its file handle and unlinks it from disk.
func (e *Engine) closeAndRemove(t *table.SSTable) {
	if e.cache != nil {
		e.cache.Remove(t.ID(), t.NumOfBlocks())
	}
	id := t.ID()
	_ = t.Close()
	_ = sstdir.Remove(e.dir, id)
}
