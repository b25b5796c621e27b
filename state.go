package lsmkv

import (
	"github.com/oss-lsm/lsmkv/memtable"
	"github.com/oss-lsm/lsmkv/table"
)

// engineState is the copy-on-write snapshot spec.md §3/§5 describes: every
// update clones it, mutates the clone, and installs the new pointer under
// the write lock, so readers that captured the old pointer under a read
// lock keep operating on a perfectly consistent view.
type engineState struct {
	memtable *memtable.MemTable

	// immutables holds memtables awaiting flush, earliest to latest; the
	// most recently rotated memtable is at the tail.
	immutables []*memtable.MemTable

	// l0 holds flushed SSTs, earliest to latest; the most recent flush is
	// at the tail.
	l0 []*table.SSTable

	// levels[i] holds level i+1's SSTs, sorted by key range. Grown lazily:
	// levels starts nil and is extended with append the first time a
	// compaction targets a level beyond its current length (spec.md §9).
	levels [][]*table.SSTable

	nextSSTID uint64
}

func newEngineState() *engineState {
	return &engineState{memtable: memtable.New(), nextSSTID: 1}
}

// clone returns a shallow copy: slice headers are copied so the original
// and the clone can diverge independently, but the elements themselves
// (memtables, SSTs) are shared, matching spec.md's "cheaply cloned by
// bumping reference counts on its inner collections".
func (s *engineState) clone() *engineState {
	c := &engineState{
		memtable:  s.memtable,
		nextSSTID: s.nextSSTID,
	}
	c.immutables = append(c.immutables, s.immutables...)
	c.l0 = append(c.l0, s.l0...)
	c.levels = make([][]*table.SSTable, len(s.levels))
	for i, lvl := range s.levels {
		c.levels[i] = append(c.levels[i], lvl...)
	}
	return c
}

func (s *engineState) levelTables(level int) []*table.SSTable {
	if level-1 < 0 || level-1 >= len(s.levels) {
		return nil
	}
	return s.levels[level-1]
}
