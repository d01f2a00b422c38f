package bplustree

import (
	"encoding/binary"

	"github.com/nikhilrp/anchordb/core/storage/page"
)

// Int64Codec is a fixed 8-byte codec for int64 keys or values, grounded
// on core/indexing/btree/btree.go's SerializeInt64/DeserializeInt64.
var Int64Codec = Codec[int64]{
	Size: 8,
	Encode: func(v int64, buf []byte) {
		binary.LittleEndian.PutUint64(buf, uint64(v))
	},
	Decode: func(buf []byte) int64 {
		return int64(binary.LittleEndian.Uint64(buf))
	},
}

// DefaultInt64Comparator orders int64 keys numerically, grounded on
// core/indexing/btree/btree.go's DefaultKeyOrder.
func DefaultInt64Comparator(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// FixedStringCodec returns a codec for strings truncated or zero-padded
// to exactly n bytes, the Go analogue of BusTub's GenericKey<N>.
func FixedStringCodec(n int) Codec[string] {
	return Codec[string]{
		Size: n,
		Encode: func(v string, buf []byte) {
			copy(buf, v)
			for i := len(v); i < n; i++ {
				buf[i] = 0
			}
		},
		Decode: func(buf []byte) string {
			end := 0
			for end < len(buf) && buf[end] != 0 {
				end++
			}
			return string(buf[:end])
		},
	}
}

// DefaultStringComparator orders fixed-length strings lexicographically.
func DefaultStringComparator(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// PageIDCodec is a fixed 8-byte codec for page.ID values, used as the
// child-pointer value type on internal pages.
var PageIDCodec = Codec[page.ID]{
	Size: 8,
	Encode: func(v page.ID, buf []byte) {
		binary.LittleEndian.PutUint64(buf, uint64(v))
	},
	Decode: func(buf []byte) page.ID {
		return page.ID(binary.LittleEndian.Uint64(buf))
	},
}
