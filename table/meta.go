// Package table implements the sorted-string table (SST): an immutable
// file of ascending-first-key-ordered data blocks plus a block-metadata
// index, read back through a shared block cache.
package table

import (
	"encoding/binary"
	"fmt"
)

// BlockMeta records where one data block starts in the file and the
// first key it holds, so a reader can binary-search for the block that
// may contain a probe key without decoding every block.
type BlockMeta struct {
	Offset   uint32
	FirstKey []byte
}

// encodeMeta serializes metas as: offset u32le | first_key_len u16le |
// first_key, concatenated in block order.
func encodeMeta(metas []BlockMeta) []byte {
	var buf []byte
	var tmp4 [4]byte
	var tmp2 [2]byte
	for _, m := range metas {
		binary.LittleEndian.PutUint32(tmp4[:], m.Offset)
		buf = append(buf, tmp4[:]...)
		binary.LittleEndian.PutUint16(tmp2[:], uint16(len(m.FirstKey)))
		buf = append(buf, tmp2[:]...)
		buf = append(buf, m.FirstKey...)
	}
	return buf
}

// decodeMeta parses the meta section written by encodeMeta.
func decodeMeta(buf []byte) ([]BlockMeta, error) {
	var metas []BlockMeta
	pos := 0
	for pos < len(buf) {
		if pos+6 > len(buf) {
			return nil, fmt.Errorf("table: meta section truncated")
		}
		offset := binary.LittleEndian.Uint32(buf[pos:])
		pos += 4
		keyLen := int(binary.LittleEndian.Uint16(buf[pos:]))
		pos += 2
		if pos+keyLen > len(buf) {
			return nil, fmt.Errorf("table: meta section truncated (first_key)")
		}
		firstKey := append([]byte(nil), buf[pos:pos+keyLen]...)
		pos += keyLen
		metas = append(metas, BlockMeta{Offset: offset, FirstKey: firstKey})
	}
	return metas, nil
}
