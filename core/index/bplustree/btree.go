package bplustree

import (
	"go.uber.org/zap"

	"github.com/nikhilrp/anchordb/core/storage/buffer"
	"github.com/nikhilrp/anchordb/core/storage/page"
	"github.com/nikhilrp/anchordb/pkg/metrics"
)

// BPlusTree is a root-tracked, latch-coupled ordered map built on top of
// a buffer pool manager. Order is fixed at construction by leafMaxSize
// and internalMaxSize; keys and values are fixed-length, encoded and
// decoded through the supplied codecs.
//
// Grounded on
// _examples/original_source/src/storage/index/b_plus_tree.cpp, adapted
// from BusTub's page_id_t/GenericKey<N> template to Go generics with a
// caller-supplied Comparator and Codec pair, following the
// BTree[K,V]/KeyValueSerializer[K,V] idiom in
// core/indexing/btree/btree.go.
type BPlusTree[K any, V any] struct {
	name            string
	headerPageID    page.ID
	bpm             *buffer.BufferPoolManager
	cmp             Comparator[K]
	leafMaxSize     int
	internalMaxSize int
	keyCodec        Codec[K]
	valCodec        Codec[V]
	logger          *zap.Logger
	metrics         *metrics.BTree
}

// New constructs an empty tree rooted at headerPageID, which must
// already be a page pinned/allocated by the caller (typically via
// bpm.NewPage()). The header page is (re)initialized to an empty root,
// so headerPageID must not already belong to another tree.
func New[K any, V any](
	name string,
	headerPageID page.ID,
	bpm *buffer.BufferPoolManager,
	cmp Comparator[K],
	leafMaxSize, internalMaxSize int,
	keyCodec Codec[K],
	valCodec Codec[V],
	logger *zap.Logger,
	reg *metrics.Registry,
) (*BPlusTree[K, V], error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var btreeMetrics *metrics.BTree
	if reg != nil {
		btreeMetrics = reg.BTree
	}

	guard, err := bpm.FetchPageWrite(headerPageID)
	if err != nil {
		return nil, err
	}
	hp := headerPage{rootID: page.InvalidID}
	hp.encode(guard.Data())
	guard.MarkDirty()
	guard.Drop()

	return &BPlusTree[K, V]{
		name:            name,
		headerPageID:    headerPageID,
		bpm:             bpm,
		cmp:             cmp,
		leafMaxSize:     leafMaxSize,
		internalMaxSize: internalMaxSize,
		keyCodec:        keyCodec,
		valCodec:        valCodec,
		logger:          logger,
		metrics:         btreeMetrics,
	}, nil
}

func (t *BPlusTree[K, V]) rootID() (page.ID, error) {
	guard, err := t.bpm.FetchPageRead(t.headerPageID)
	if err != nil {
		return page.InvalidID, err
	}
	defer guard.Drop()
	return decodeHeaderPage(guard.Data()).rootID, nil
}

// Search performs a point query, R-latch crabbing top-down from the
// root, releasing each parent as soon as its child is latched.
func (t *BPlusTree[K, V]) Search(key K) (V, bool, error) {
	var zero V
	root, err := t.rootID()
	if err != nil {
		return zero, false, err
	}
	if root == page.InvalidID {
		return zero, false, nil
	}

	cur, err := t.bpm.FetchPageRead(root)
	if err != nil {
		return zero, false, err
	}
	for peekPageType(cur.Data()) == pageTypeInternal {
		ip := decodeInternalPage[K](cur.Data(), t.keyCodec)
		idx := ip.findChildIndex(key, t.cmp)
		next, err := t.bpm.FetchPageRead(ip.childAt(idx))
		cur.Drop()
		if err != nil {
			return zero, false, err
		}
		cur = next
	}
	lp := decodeLeafPage[K, V](cur.Data(), t.keyCodec, t.valCodec)
	idx, found := lp.findPosition(key, t.cmp)
	cur.Drop()
	if !found {
		return zero, false, nil
	}
	return lp.valueAt(idx), true, nil
}

// isNodeSafeForInsert reports whether a page, once one more entry is
// added, still would not need to split.
func isNodeSafeForInsert(buf []byte) bool {
	h := decodeHeader(buf)
	return h.size < h.maxSize
}

// Insert adds (key, value) if key is not already present, splitting
// nodes on the path as needed and lifting a separator up to the parent.
// Returns false if key is a duplicate.
func (t *BPlusTree[K, V]) Insert(key K, value V) (bool, error) {
	headerGuard, err := t.bpm.FetchPageWrite(t.headerPageID)
	if err != nil {
		return false, err
	}
	hp := decodeHeaderPage(headerGuard.Data())

	if hp.rootID == page.InvalidID {
		id, guard, err := t.bpm.NewPageGuarded()
		if err != nil {
			headerGuard.Drop()
			return false, err
		}
		lp := newLeafPage[K, V](id, page.InvalidID, true, t.leafMaxSize, t.keyCodec, t.valCodec)
		lp.insertAt(0, key, value)
		lp.encode(guard.Data())
		guard.MarkDirty()
		guard.Drop()

		hp.rootID = id
		hp.encode(headerGuard.Data())
		headerGuard.MarkDirty()
		headerGuard.Drop()
		return true, nil
	}

	cur, err := t.bpm.FetchPageWrite(hp.rootID)
	if err != nil {
		headerGuard.Drop()
		return false, err
	}

	var ancestors []*buffer.WritePageGuard
	held := headerGuard
	releaseIfSafe := func(g *buffer.WritePageGuard) {
		if !isNodeSafeForInsert(g.Data()) {
			return
		}
		if held != nil {
			held.Drop()
			held = nil
		}
		for _, p := range ancestors {
			p.Drop()
		}
		ancestors = ancestors[:0]
	}
	releaseIfSafe(cur)

	for peekPageType(cur.Data()) == pageTypeInternal {
		ip := decodeInternalPage[K](cur.Data(), t.keyCodec)
		idx := ip.findChildIndex(key, t.cmp)
		child, err := t.bpm.FetchPageWrite(ip.childAt(idx))
		if err != nil {
			cur.Drop()
			for _, p := range ancestors {
				p.Drop()
			}
			if held != nil {
				held.Drop()
			}
			return false, err
		}
		ancestors = append(ancestors, cur)
		cur = child
		releaseIfSafe(cur)
	}

	lp := decodeLeafPage[K, V](cur.Data(), t.keyCodec, t.valCodec)
	pos, found := lp.findPosition(key, t.cmp)
	if found {
		cur.Drop()
		for _, p := range ancestors {
			p.Drop()
		}
		if held != nil {
			held.Drop()
		}
		return false, nil
	}

	if !lp.isFull() {
		lp.insertAt(pos, key, value)
		lp.encode(cur.Data())
		cur.MarkDirty()
		cur.Drop()
		for _, p := range ancestors {
			p.Drop()
		}
		if held != nil {
			held.Drop()
		}
		return true, nil
	}

	right, sepKey, err := t.splitLeaf(cur, lp, pos, key, value)
	if err != nil {
		cur.Drop()
		for _, p := range ancestors {
			p.Drop()
		}
		if held != nil {
			held.Drop()
		}
		return false, err
	}
	if t.metrics != nil {
		t.metrics.IncLeafSplit()
	}
	t.logger.Debug("split leaf", zap.Uint64("left", uint64(cur.PageID())), zap.Uint64("right", uint64(right.PageID())))

	if err := t.propagateSplit(ancestors, held, cur, right, sepKey); err != nil {
		return false, err
	}
	return true, nil
}

// splitLeaf builds the combined sorted entry list for the target leaf
// plus the pending insertion, keeps the first floor((size+1)/2) entries
// in place, and moves the rest into a freshly allocated sibling leaf.
// Returns the sibling's guard and the separator key lifted to the parent.
func (t *BPlusTree[K, V]) splitLeaf(guard *buffer.WritePageGuard, lp *leafPage[K, V], pos int, key K, value V) (*buffer.WritePageGuard, K, error) {
	var zero K
	total := lp.size + 1
	keys := make([]K, 0, total)
	values := make([]V, 0, total)
	keys = append(keys, lp.keys[:pos]...)
	values = append(values, lp.values[:pos]...)
	keys = append(keys, key)
	values = append(values, value)
	keys = append(keys, lp.keys[pos:]...)
	values = append(values, lp.values[pos:]...)

	leftCount := total / 2

	rightID, rightGuard, err := t.bpm.NewPageGuarded()
	if err != nil {
		return nil, zero, err
	}
	right := newLeafPage[K, V](rightID, lp.parentID, false, t.leafMaxSize, t.keyCodec, t.valCodec)
	right.keys = append([]K{}, keys[leftCount:]...)
	right.values = append([]V{}, values[leftCount:]...)
	right.size = total - leftCount
	right.nextID = lp.nextID

	lp.keys = append([]K{}, keys[:leftCount]...)
	lp.values = append([]V{}, values[:leftCount]...)
	lp.size = leftCount
	lp.nextID = rightID

	lp.encode(guard.Data())
	guard.MarkDirty()
	right.encode(rightGuard.Data())
	rightGuard.MarkDirty()

	return rightGuard, right.keys[0], nil
}

// propagateSplit lifts (sepKey, right) into the parent chain, splitting
// ancestors as needed and creating a new root if the split reaches the
// top of the tree. left and right are the guards of the two nodes that
// resulted from the split one level below (leaves on the first call,
// internal pages on any further recursive call).
func (t *BPlusTree[K, V]) propagateSplit(ancestors []*buffer.WritePageGuard, headerGuard *buffer.WritePageGuard, left, right *buffer.WritePageGuard, sepKey K) error {
	for {
		if len(ancestors) == 0 {
			newRootID, newRootGuard, err := t.bpm.NewPageGuarded()
			if err != nil {
				return err
			}
			var zero K
			newRoot := newInternalPage[K](newRootID, page.InvalidID, true, t.internalMaxSize, t.keyCodec)
			newRoot.insertAt(0, zero, left.PageID())
			newRoot.insertAt(1, sepKey, right.PageID())
			newRoot.encode(newRootGuard.Data())
			newRootGuard.MarkDirty()

			clearIsRoot(left.Data())
			setParentID(left.Data(), newRootID)
			left.MarkDirty()
			setParentID(right.Data(), newRootID)
			right.MarkDirty()

			hp := headerPage{rootID: newRootID}
			hp.encode(headerGuard.Data())
			headerGuard.MarkDirty()

			newRootGuard.Drop()
			headerGuard.Drop()
			left.Drop()
			right.Drop()
			t.logger.Debug("installed new root", zap.Uint64("root", uint64(newRootID)))
			return nil
		}

		parent := ancestors[len(ancestors)-1]
		ancestors = ancestors[:len(ancestors)-1]
		ip := decodeInternalPage[K](parent.Data(), t.keyCodec)
		pos := ip.findInsertPosition(sepKey, t.cmp)

		if !ip.isFull() {
			ip.insertAt(pos, sepKey, right.PageID())
			ip.encode(parent.Data())
			parent.MarkDirty()
			setParentID(right.Data(), parent.PageID())
			right.MarkDirty()

			parent.Drop()
			left.Drop()
			right.Drop()
			if headerGuard != nil {
				headerGuard.Drop()
			}
			for _, p := range ancestors {
				p.Drop()
			}
			return nil
		}

		total := ip.size + 1
		keys := make([]K, 0, total)
		children := make([]page.ID, 0, total)
		keys = append(keys, ip.keys[:pos]...)
		children = append(children, ip.children[:pos]...)
		keys = append(keys, sepKey)
		children = append(children, right.PageID())
		keys = append(keys, ip.keys[pos:]...)
		children = append(children, ip.children[pos:]...)

		leftCount := (total + 1) / 2
		liftedKey := keys[leftCount]

		newRightID, newRightGuard, err := t.bpm.NewPageGuarded()
		if err != nil {
			return err
		}
		var zero K
		newRight := newInternalPage[K](newRightID, parent.PageID(), false, t.internalMaxSize, t.keyCodec)
		newRight.keys = append([]K{}, keys[leftCount:]...)
		newRight.keys[0] = zero
		newRight.children = append([]page.ID{}, children[leftCount:]...)
		newRight.size = total - leftCount

		ip.keys = append([]K{}, keys[:leftCount]...)
		ip.children = append([]page.ID{}, children[:leftCount]...)
		ip.size = leftCount

		ip.encode(parent.Data())
		parent.MarkDirty()
		newRight.encode(newRightGuard.Data())
		newRightGuard.MarkDirty()

		for _, cid := range newRight.children {
			switch cid {
			case left.PageID():
				setParentID(left.Data(), newRightID)
				left.MarkDirty()
			case right.PageID():
				setParentID(right.Data(), newRightID)
				right.MarkDirty()
			default:
				childGuard, err := t.bpm.FetchPageWrite(cid)
				if err != nil {
					return err
				}
				setParentID(childGuard.Data(), newRightID)
				childGuard.MarkDirty()
				childGuard.Drop()
			}
		}

		if t.metrics != nil {
			t.metrics.IncInternalSplit()
		}

		left.Drop()
		right.Drop()
		left, right = parent, newRightGuard
		sepKey = liftedKey
	}
}

// Remove deletes key from its leaf, following spec.md's contract that
// after Remove(k), Get(k) reports not-found; underflowed siblings are
// not merged or redistributed.
func (t *BPlusTree[K, V]) Remove(key K) (bool, error) {
	root, err := t.rootID()
	if err != nil {
		return false, err
	}
	if root == page.InvalidID {
		return false, nil
	}

	cur, err := t.bpm.FetchPageWrite(root)
	if err != nil {
		return false, err
	}
	for peekPageType(cur.Data()) == pageTypeInternal {
		ip := decodeInternalPage[K](cur.Data(), t.keyCodec)
		idx := ip.findChildIndex(key, t.cmp)
		next, err := t.bpm.FetchPageWrite(ip.childAt(idx))
		cur.Drop()
		if err != nil {
			return false, err
		}
		cur = next
	}

	lp := decodeLeafPage[K, V](cur.Data(), t.keyCodec, t.valCodec)
	pos, found := lp.findPosition(key, t.cmp)
	if !found {
		cur.Drop()
		return false, nil
	}
	lp.removeAt(pos)
	lp.encode(cur.Data())
	cur.MarkDirty()
	cur.Drop()
	return true, nil
}
