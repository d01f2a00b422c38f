// Package bplustree implements a disk-resident ordered map on top of the
// buffer pool manager: a root-tracked B+ tree with leaf and internal
// page layouts, latch-crabbed search and insert, and a left-to-right
// leaf iterator.
//
// Page layouts are grounded on
// _examples/original_source/src/storage/page/b_plus_tree_leaf_page.cpp
// and b_plus_tree_internal_page.cpp, adapted from BusTub's templated,
// fixed-length GenericKey<N> pages to Go generics with a caller-supplied
// codec pair, following the serializer-function idiom in
// core/indexing/btree/btree.go's KeyValueSerializer[K,V].
package bplustree

import (
	"encoding/binary"

	"github.com/nikhilrp/anchordb/core/storage/page"
)

// pageType tags a page's on-disk layout.
type pageType byte

const (
	pageTypeLeaf     pageType = 1
	pageTypeInternal pageType = 2
)

// Common page header layout, shared by leaf and internal pages:
//
//	offset 0:  pageType (1 byte)
//	offset 1:  isRoot   (1 byte, 0/1)
//	offset 4:  size     (int32)
//	offset 8:  maxSize  (int32)
//	offset 12: parentID (uint64)
//	offset 20: selfID   (uint64)
//	offset 28: nextID   (uint64; leaf sibling pointer, unused by internal pages)
const headerSize = 36

type header struct {
	kind     pageType
	isRoot   bool
	size     int
	maxSize  int
	parentID page.ID
	selfID   page.ID
	nextID   page.ID
}

func decodeHeader(buf []byte) header {
	return header{
		kind:     pageType(buf[0]),
		isRoot:   buf[1] != 0,
		size:     int(int32(binary.LittleEndian.Uint32(buf[4:8]))),
		maxSize:  int(int32(binary.LittleEndian.Uint32(buf[8:12]))),
		parentID: page.ID(binary.LittleEndian.Uint64(buf[12:20])),
		selfID:   page.ID(binary.LittleEndian.Uint64(buf[20:28])),
		nextID:   page.ID(binary.LittleEndian.Uint64(buf[28:36])),
	}
}

func (h header) encode(buf []byte) {
	buf[0] = byte(h.kind)
	if h.isRoot {
		buf[1] = 1
	} else {
		buf[1] = 0
	}
	binary.LittleEndian.PutUint32(buf[4:8], uint32(int32(h.size)))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(int32(h.maxSize)))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(h.parentID))
	binary.LittleEndian.PutUint64(buf[20:28], uint64(h.selfID))
	binary.LittleEndian.PutUint64(buf[28:36], uint64(h.nextID))
}

// Codec converts a fixed-length key or value type to and from raw bytes,
// following the SerializeInt64/SerializeString function-pair idiom in
// core/indexing/btree/btree.go, generalized to a struct of two funcs so
// callers can plug in any comparable fixed-length type.
type Codec[T any] struct {
	Size   int
	Encode func(T, []byte)
	Decode func([]byte) T
}

// peekPageType reads a page's type tag without decoding the rest of it.
func peekPageType(buf []byte) pageType { return pageType(buf[0]) }

// setParentID patches a page's parent pointer in place, used when a
// split changes which internal page owns a child.
func setParentID(buf []byte, id page.ID) {
	binary.LittleEndian.PutUint64(buf[12:20], uint64(id))
}

// clearIsRoot patches a page's isRoot flag off, used when a split lifts
// a new root above the page that used to be the root.
func clearIsRoot(buf []byte) {
	buf[1] = 0
}

// Comparator orders two keys: negative if a<b, zero if equal, positive
// if a>b. Named Order in core/indexing/btree/btree.go; renamed here
// since this package's comparator only ever compares keys.
type Comparator[K any] func(a, b K) int
