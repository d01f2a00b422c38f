package bplustree

import "github.com/nikhilrp/anchordb/core/storage/page"

// Iterator walks leaf entries left to right via the next_page_id chain,
// holding at most one leaf pinned at a time.
type Iterator[K any, V any] struct {
	tree  *BPlusTree[K, V]
	guard interface {
		Data() []byte
		Drop()
	}
	leaf *leafPage[K, V]
	idx  int
}

// Valid reports whether the iterator currently references an entry.
func (it *Iterator[K, V]) Valid() bool {
	return it.guard != nil && it.leaf != nil && it.idx < it.leaf.size
}

// Key returns the current entry's key. Only safe to call when Valid.
func (it *Iterator[K, V]) Key() K { return it.leaf.keyAt(it.idx) }

// Value returns the current entry's value. Only safe to call when Valid.
func (it *Iterator[K, V]) Value() V { return it.leaf.valueAt(it.idx) }

// Next advances the iterator, crossing into the next leaf via
// next_page_id when the current one is exhausted.
func (it *Iterator[K, V]) Next() error {
	if it.leaf == nil {
		return nil
	}
	it.idx++
	for it.idx >= it.leaf.size {
		next := it.leaf.nextID
		it.guard.Drop()
		it.guard = nil
		it.leaf = nil
		if next == page.InvalidID {
			return nil
		}
		g, err := it.tree.bpm.FetchPageRead(next)
		if err != nil {
			return err
		}
		it.guard = g
		it.leaf = decodeLeafPage[K, V](g.Data(), it.tree.keyCodec, it.tree.valCodec)
		it.idx = 0
	}
	return nil
}

// Close releases any pinned leaf. Safe to call more than once, and safe
// to call on an already-exhausted iterator.
func (it *Iterator[K, V]) Close() {
	if it.guard != nil {
		it.guard.Drop()
		it.guard = nil
	}
}

func (t *BPlusTree[K, V]) leftmostLeaf() (page.ID, error) {
	root, err := t.rootID()
	if err != nil {
		return page.InvalidID, err
	}
	if root == page.InvalidID {
		return page.InvalidID, nil
	}
	cur, err := t.bpm.FetchPageRead(root)
	if err != nil {
		return page.InvalidID, err
	}
	defer func() { cur.Drop() }()
	for peekPageType(cur.Data()) == pageTypeInternal {
		ip := decodeInternalPage[K](cur.Data(), t.keyCodec)
		next, err := t.bpm.FetchPageRead(ip.childAt(0))
		cur.Drop()
		if err != nil {
			return page.InvalidID, err
		}
		cur = next
	}
	return cur.PageID(), nil
}

// Begin returns an iterator positioned at the smallest key in the tree.
func (t *BPlusTree[K, V]) Begin() (*Iterator[K, V], error) {
	leafID, err := t.leftmostLeaf()
	if err != nil {
		return nil, err
	}
	if leafID == page.InvalidID {
		return t.End(), nil
	}
	g, err := t.bpm.FetchPageRead(leafID)
	if err != nil {
		return nil, err
	}
	it := &Iterator[K, V]{tree: t, guard: g, leaf: decodeLeafPage[K, V](g.Data(), t.keyCodec, t.valCodec), idx: 0}
	if it.leaf.size == 0 {
		// Removals can empty the leftmost leaf; start at the first non-empty one.
		it.idx = -1
		if err := it.Next(); err != nil {
			return nil, err
		}
	}
	return it, nil
}

// BeginAt returns an iterator positioned at the first key >= key.
func (t *BPlusTree[K, V]) BeginAt(key K) (*Iterator[K, V], error) {
	root, err := t.rootID()
	if err != nil {
		return nil, err
	}
	if root == page.InvalidID {
		return t.End(), nil
	}
	cur, err := t.bpm.FetchPageRead(root)
	if err != nil {
		return nil, err
	}
	for peekPageType(cur.Data()) == pageTypeInternal {
		ip := decodeInternalPage[K](cur.Data(), t.keyCodec)
		idx := ip.findChildIndex(key, t.cmp)
		next, err := t.bpm.FetchPageRead(ip.childAt(idx))
		cur.Drop()
		if err != nil {
			return nil, err
		}
		cur = next
	}
	lp := decodeLeafPage[K, V](cur.Data(), t.keyCodec, t.valCodec)
	pos, _ := lp.findPosition(key, t.cmp)
	it := &Iterator[K, V]{tree: t, guard: cur, leaf: lp, idx: pos}
	if pos >= lp.size {
		// key is past this leaf's last entry: the first key >= key, if
		// any, is in a later leaf.
		it.idx = lp.size - 1
		if err := it.Next(); err != nil {
			return nil, err
		}
	}
	return it, nil
}

// End returns an exhausted iterator, matching spec.md's End() sentinel.
func (t *BPlusTree[K, V]) End() *Iterator[K, V] {
	return &Iterator[K, V]{tree: t}
}
