package bplustree

import "github.com/nikhilrp/anchordb/core/storage/page"

// internalPage holds the decoded contents of a B+ tree internal node:
// slot 0 is the "leftmost child" pointer with an unused key, slots
// 1..size-1 pair a separator key with the child reachable through it.
// Grounded on b_plus_tree_internal_page.cpp.
type internalPage[K any] struct {
	header
	keys     []K
	children []page.ID
	keyCodec Codec[K]
}

func newInternalPage[K any](selfID, parentID page.ID, isRoot bool, maxSize int, kc Codec[K]) *internalPage[K] {
	return &internalPage[K]{
		header: header{
			kind:     pageTypeInternal,
			isRoot:   isRoot,
			size:     0,
			maxSize:  maxSize,
			parentID: parentID,
			selfID:   selfID,
			nextID:   page.InvalidID,
		},
		keyCodec: kc,
	}
}

func decodeInternalPage[K any](buf []byte, kc Codec[K]) *internalPage[K] {
	h := decodeHeader(buf)
	ip := &internalPage[K]{header: h, keyCodec: kc}
	slot := kc.Size + PageIDCodec.Size
	ip.keys = make([]K, h.size)
	ip.children = make([]page.ID, h.size)
	for i := 0; i < h.size; i++ {
		off := headerSize + i*slot
		ip.keys[i] = kc.Decode(buf[off : off+kc.Size])
		ip.children[i] = PageIDCodec.Decode(buf[off+kc.Size : off+slot])
	}
	return ip
}

func (ip *internalPage[K]) encode(buf []byte) {
	ip.header.kind = pageTypeInternal
	ip.header.encode(buf)
	slot := ip.keyCodec.Size + PageIDCodec.Size
	for i := 0; i < ip.size; i++ {
		off := headerSize + i*slot
		ip.keyCodec.Encode(ip.keys[i], buf[off:off+ip.keyCodec.Size])
		PageIDCodec.Encode(ip.children[i], buf[off+ip.keyCodec.Size:off+slot])
	}
}

func (ip *internalPage[K]) keyAt(i int) K         { return ip.keys[i] }
func (ip *internalPage[K]) childAt(i int) page.ID { return ip.children[i] }

// findChildIndex mirrors b_plus_tree_internal_page.cpp's FindChildIndex:
// index 0 if key < KeyAt(1), otherwise the largest i in [1, size-1] with
// KeyAt(i) <= key.
func (ip *internalPage[K]) findChildIndex(key K, cmp Comparator[K]) int {
	if ip.size < 2 || cmp(key, ip.keys[1]) < 0 {
		return 0
	}
	low, high := 1, ip.size-1
	for low < high {
		mid := (low + high + 1) / 2
		if cmp(ip.keys[mid], key) <= 0 {
			low = mid
		} else {
			high = mid - 1
		}
	}
	return low
}

// findInsertPosition mirrors b_plus_tree_internal_page.cpp's
// FindInsertPosition: binary search over the keyed slots [1, size-1] for
// where a new separator belongs.
func (ip *internalPage[K]) findInsertPosition(key K, cmp Comparator[K]) int {
	low, high := 1, ip.size-1
	for low <= high {
		mid := (low + high) / 2
		c := cmp(ip.keys[mid], key)
		switch {
		case c == 0:
			return mid
		case c < 0:
			low = mid + 1
		default:
			high = mid - 1
		}
	}
	return low
}

// insertAt inserts a (key, childID) separator pair at position, shifting
// later entries right. Position 0 is only ever used to install the
// initial leftmost child, which carries no key.
func (ip *internalPage[K]) insertAt(position int, key K, childID page.ID) {
	ip.keys = append(ip.keys, key)
	ip.children = append(ip.children, childID)
	copy(ip.keys[position+1:], ip.keys[position:ip.size])
	copy(ip.children[position+1:], ip.children[position:ip.size])
	ip.keys[position] = key
	ip.children[position] = childID
	ip.size++
}

func (ip *internalPage[K]) isFull() bool { return ip.size >= ip.maxSize }
