package lsmkv

import "go.uber.org/zap"

// Defaults per spec.md §6: "code-level constants, not a file".
const (
	// DefaultBlockSize must be a power of two >= 4096.
	DefaultBlockSize = 4096
	// DefaultMemtableSizeThreshold is the approximate byte count past
	// which the active memtable is rotated out for flushing.
	DefaultMemtableSizeThreshold = 1 << 20 // 1 MiB
	// DefaultL0CompactionTrigger is the file count at which a level (L0
	// or below) is compacted into the next level down.
	DefaultL0CompactionTrigger = 2
	// DefaultBlockCacheCapacity is the number of decoded blocks the
	// shared block cache retains.
	DefaultBlockCacheCapacity = 4096
)

type options struct {
	blockSize            int
	memtableThreshold     int64
	l0CompactionTrigger   int
	cacheCapacity         int
	withChecksum          bool
	logger                *zap.SugaredLogger
}

func defaultOptions() options {
	return options{
		blockSize:           DefaultBlockSize,
		memtableThreshold:   DefaultMemtableSizeThreshold,
		l0CompactionTrigger: DefaultL0CompactionTrigger,
		cacheCapacity:       DefaultBlockCacheCapacity,
		withChecksum:        true,
		logger:              zap.NewNop().Sugar(),
	}
}

// Option configures an Engine at Open, in the teacher's functional-options
// style.
type Option func(*options)

// WithBlockSize overrides the target size of a data block.
func WithBlockSize(n int) Option {
	return func(o *options) { o.blockSize = n }
}

// WithMemtableThreshold overrides the byte threshold that triggers a
// memtable rotation and flush.
func WithMemtableThreshold(n int64) Option {
	return func(o *options) { o.memtableThreshold = n }
}

// WithL0CompactionTrigger overrides the file count that triggers
// compacting a level into the next one down.
func WithL0CompactionTrigger(n int) Option {
	return func(o *options) { o.l0CompactionTrigger = n }
}

// WithBlockCacheCapacity overrides the number of blocks the shared block
// cache retains.
func WithBlockCacheCapacity(n int) Option {
	return func(o *options) { o.cacheCapacity = n }
}

// WithChecksums toggles per-block CRC32 verification. Enabled by default.
func WithChecksums(enabled bool) Option {
	return func(o *options) { o.withChecksum = enabled }
}

// WithLogger supplies a logger for background flush/compaction failures.
// Defaults to a no-op logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
