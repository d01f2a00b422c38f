package bplustree

import "github.com/nikhilrp/anchordb/core/storage/page"

// leafPage holds the decoded contents of a B+ tree leaf: parallel key
// and value slices plus the sibling chain pointer, following
// b_plus_tree_leaf_page.cpp's array_ of (key, value) pairs and
// next_page_id_.
type leafPage[K any, V any] struct {
	header
	keys     []K
	values   []V
	keyCodec Codec[K]
	valCodec Codec[V]
}

func newLeafPage[K any, V any](selfID, parentID page.ID, isRoot bool, maxSize int, kc Codec[K], vc Codec[V]) *leafPage[K, V] {
	return &leafPage[K, V]{
		header: header{
			kind:     pageTypeLeaf,
			isRoot:   isRoot,
			size:     0,
			maxSize:  maxSize,
			parentID: parentID,
			selfID:   selfID,
			nextID:   page.InvalidID,
		},
		keyCodec: kc,
		valCodec: vc,
	}
}

func decodeLeafPage[K any, V any](buf []byte, kc Codec[K], vc Codec[V]) *leafPage[K, V] {
	h := decodeHeader(buf)
	lp := &leafPage[K, V]{header: h, keyCodec: kc, valCodec: vc}
	slot := kc.Size + vc.Size
	lp.keys = make([]K, h.size)
	lp.values = make([]V, h.size)
	for i := 0; i < h.size; i++ {
		off := headerSize + i*slot
		lp.keys[i] = kc.Decode(buf[off : off+kc.Size])
		lp.values[i] = vc.Decode(buf[off+kc.Size : off+slot])
	}
	return lp
}

func (lp *leafPage[K, V]) encode(buf []byte) {
	lp.header.kind = pageTypeLeaf
	lp.header.encode(buf)
	slot := lp.keyCodec.Size + lp.valCodec.Size
	for i := 0; i < lp.size; i++ {
		off := headerSize + i*slot
		lp.keyCodec.Encode(lp.keys[i], buf[off:off+lp.keyCodec.Size])
		lp.valCodec.Encode(lp.values[i], buf[off+lp.keyCodec.Size:off+slot])
	}
}

func (lp *leafPage[K, V]) keyAt(i int) K   { return lp.keys[i] }
func (lp *leafPage[K, V]) valueAt(i int) V { return lp.values[i] }

// findPosition binary searches for key, mirroring
// b_plus_tree_leaf_page.cpp's FindPosition: returns the index of an
// exact match, or the insertion point that keeps keys sorted.
func (lp *leafPage[K, V]) findPosition(key K, cmp Comparator[K]) (pos int, found bool) {
	low, high := 0, lp.size-1
	for low <= high {
		mid := (low + high) / 2
		c := cmp(lp.keys[mid], key)
		switch {
		case c == 0:
			return mid, true
		case c < 0:
			low = mid + 1
		default:
			high = mid - 1
		}
	}
	return low, false
}

func (lp *leafPage[K, V]) insertAt(pos int, key K, value V) {
	lp.keys = append(lp.keys, key)
	lp.values = append(lp.values, value)
	copy(lp.keys[pos+1:], lp.keys[pos:lp.size])
	copy(lp.values[pos+1:], lp.values[pos:lp.size])
	lp.keys[pos] = key
	lp.values[pos] = value
	lp.size++
}

func (lp *leafPage[K, V]) removeAt(pos int) bool {
	if pos < 0 || pos >= lp.size {
		return false
	}
	copy(lp.keys[pos:], lp.keys[pos+1:lp.size])
	copy(lp.values[pos:], lp.values[pos+1:lp.size])
	lp.keys = lp.keys[:lp.size-1]
	lp.values = lp.values[:lp.size-1]
	lp.size--
	return true
}

// isFull reports whether the leaf has no room for one more entry before
// it must split. Matches spec.md's worked split example (leaf_max=3
// admits three resident keys before the fourth insert splits it), not
// the "size < max_size - 1" prose gloss, which is off by one against
// that example — see DESIGN.md.
func (lp *leafPage[K, V]) isFull() bool { return lp.size >= lp.maxSize }
