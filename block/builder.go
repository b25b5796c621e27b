package block

import "encoding/binary"

// Builder accumulates sorted key/value entries into a single Block capped
// at a target capacity. The first Add on an empty builder always succeeds,
// whatever the entry's size. Build encodes to exactly capacity bytes, so it
// returns an error when that single entry does not fit in capacity once
// encoded; larger blocks are not produced.
type Builder struct {
	capacity     int
	withChecksum bool
	data         []byte
	offsets      []uint16
}

// NewBuilder creates an empty builder targeting capacity bytes.
func NewBuilder(capacity int, withChecksum bool) *Builder {
	return &Builder{capacity: capacity, withChecksum: withChecksum}
}

// estimatedSize is the encoded size of the current contents plus extra
// bytes of entry data, per spec: data_used + 2*n_entries + 2 (+4 if
// checksummed). It does not account for a prospective new offset slot;
// callers considering whether to add another entry must add offsetSize
// themselves.
func (b *Builder) estimatedSize(extra int) int {
	trailer := numEntriesSize
	if b.withChecksum {
		trailer += crcSize
	}
	return len(b.data) + extra + len(b.offsets)*offsetSize + trailer
}

// Add appends a key/value entry in ascending key order. It returns false,
// without modifying the builder, if adding the entry would push the
// estimated encoded size past capacity — unless the builder is currently
// empty, in which case the entry is always accepted.
func (b *Builder) Add(key, value []byte) bool {
	entryLen := 2 + len(key) + 2 + len(value)
	if len(b.offsets) > 0 && b.estimatedSize(entryLen)+offsetSize > b.capacity {
		return false
	}

	offset := uint16(len(b.data))
	buf := make([]byte, 0, entryLen)
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], uint16(len(key)))
	buf = append(buf, tmp[:]...)
	buf = append(buf, key...)
	binary.LittleEndian.PutUint16(tmp[:], uint16(len(value)))
	buf = append(buf, tmp[:]...)
	buf = append(buf, value...)

	b.data = append(b.data, buf...)
	b.offsets = append(b.offsets, offset)
	return true
}

// IsEmpty reports whether any entry has been accepted.
func (b *Builder) IsEmpty() bool {
	return len(b.offsets) == 0
}

// EstimatedSize returns the encoded size of the block as currently built.
func (b *Builder) EstimatedSize() int {
	return b.estimatedSize(0)
}

// Build consumes the builder and encodes it into a capacity-sized Block.
func (b *Builder) Build() (*Block, error) {
	encoded, err := Encode(b.data, b.offsets, b.capacity, b.withChecksum)
	if err != nil {
		return nil, err
	}
	return Decode(encoded, b.withChecksum)
}
