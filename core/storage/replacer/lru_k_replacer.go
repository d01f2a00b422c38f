// Package replacer implements the LRU-K eviction policy used by the
// buffer pool manager to pick a victim frame when the pool is full.
package replacer

import (
	"container/list"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nikhilrp/anchordb/core/storage/page"
	"github.com/nikhilrp/anchordb/pkg/metrics"
)

// node is the per-frame bookkeeping the replacer tracks: a bounded
// history of access timestamps and whether the frame may be evicted.
type node struct {
	history   []int64
	evictable bool
}

// LRUKReplacer selects a victim frame among the ones marked evictable,
// preferring frames with fewer than k recorded accesses (broken by
// earliest first access), then frames with the largest backward
// k-distance.
//
// Ported from _examples/original_source/src/buffer/lru_k_replacer.cpp:
// two ordered lists ("less than k accesses" and "at least k accesses").
// The less-than-k list is FIFO: a frame is appended on its first access
// and keeps that position, so its front is the oldest first access. The
// full-k list only orders membership: a frame's backward k-distance is
// history[0], which does not change monotonically with touch order once
// a frame has reached k accesses (a later touch can still leave a frame
// with an older history[0] than one touched earlier), so Evict scans the
// full-k list for the evictable frame with the smallest history[0]
// rather than trusting list position.
type LRUKReplacer struct {
	mu        sync.Mutex
	k         int
	poolSize  int
	clock     int64
	nodes     map[page.FrameID]*node
	lessK     *list.List
	lessKElem map[page.FrameID]*list.Element
	fullK     *list.List
	fullKElem map[page.FrameID]*list.Element
	logger    *zap.Logger
	metrics   *metrics.Replacer
}

// New constructs a replacer tracking up to poolSize frames with history
// depth k.
func New(poolSize int, k int, logger *zap.Logger, m *metrics.Replacer) *LRUKReplacer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LRUKReplacer{
		k:         k,
		poolSize:  poolSize,
		nodes:     make(map[page.FrameID]*node),
		lessK:     list.New(),
		lessKElem: make(map[page.FrameID]*list.Element),
		fullK:     list.New(),
		fullKElem: make(map[page.FrameID]*list.Element),
		logger:    logger,
		metrics:   m,
	}
}

func (r *LRUKReplacer) checkRange(frameID page.FrameID) error {
	if frameID < 0 || int(frameID) >= r.poolSize {
		return fmt.Errorf("%w: %d", ErrOutOfRange, frameID)
	}
	return nil
}

// RecordAccess appends the current logical timestamp to frameID's
// history, trimming to at most k entries. An unknown frame is created
// with evictable=false.
func (r *LRUKReplacer) RecordAccess(frameID page.FrameID) error {
	if err := r.checkRange(frameID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clock++
	n, ok := r.nodes[frameID]
	if !ok {
		n = &node{}
		r.nodes[frameID] = n
		r.lessKElem[frameID] = r.lessK.PushBack(frameID)
	}

	n.history = append(n.history, r.clock)
	if len(n.history) > r.k {
		n.history = n.history[1:]
	}

	switch {
	case len(n.history) < r.k:
		// Young frames keep their first-access position: lessK is FIFO.
		if _, ok := r.lessKElem[frameID]; !ok {
			r.lessKElem[frameID] = r.lessK.PushBack(frameID)
		}
	case len(n.history) == r.k:
		if _, ok := r.fullKElem[frameID]; !ok {
			if e, ok := r.lessKElem[frameID]; ok {
				r.lessK.Remove(e)
				delete(r.lessKElem, frameID)
			}
			r.fullKElem[frameID] = r.fullK.PushBack(frameID)
		}
		// Already in fullK: history[0] just advanced in place, but list
		// position carries no meaning for this list, so it's left alone.
	}
	return nil
}

// SetEvictable toggles whether frameID may be chosen by Evict.
func (r *LRUKReplacer) SetEvictable(frameID page.FrameID, evictable bool) error {
	if err := r.checkRange(frameID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[frameID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotTracked, frameID)
	}
	n.evictable = evictable
	if r.metrics != nil {
		r.metrics.SetSize(r.evictableCountLocked())
	}
	return nil
}

// Remove drops a frame's metadata. The caller must ensure it is not
// pinned. A no-op if the frame is unknown.
func (r *LRUKReplacer) Remove(frameID page.FrameID) error {
	if err := r.checkRange(frameID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[frameID]; !ok {
		return nil
	}
	delete(r.nodes, frameID)
	if e, ok := r.lessKElem[frameID]; ok {
		r.lessK.Remove(e)
		delete(r.lessKElem, frameID)
	}
	if e, ok := r.fullKElem[frameID]; ok {
		r.fullK.Remove(e)
		delete(r.fullKElem, frameID)
	}
	return nil
}

// Evict returns and removes the chosen victim frame, or ok=false if no
// evictable frame exists.
func (r *LRUKReplacer) Evict() (frameID page.FrameID, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, found := r.takeEvictableRecency(); found {
		delete(r.nodes, id)
		r.recordEviction()
		return id, true
	}
	if id, found := r.takeEvictableByDistance(); found {
		delete(r.nodes, id)
		r.recordEviction()
		return id, true
	}
	return 0, false
}

// takeEvictableRecency returns the front-most evictable frame in lessK,
// the frame with the oldest first access among those with fewer than k
// accesses.
func (r *LRUKReplacer) takeEvictableRecency() (page.FrameID, bool) {
	for e := r.lessK.Front(); e != nil; e = e.Next() {
		id := e.Value.(page.FrameID)
		if r.nodes[id].evictable {
			r.lessK.Remove(e)
			delete(r.lessKElem, id)
			return id, true
		}
	}
	return 0, false
}

// takeEvictableByDistance scans fullK for the evictable frame with the
// smallest history[0] (largest backward k-distance).
func (r *LRUKReplacer) takeEvictableByDistance() (page.FrameID, bool) {
	var victim page.FrameID
	var victimElem *list.Element
	found := false

	for e := r.fullK.Front(); e != nil; e = e.Next() {
		id := e.Value.(page.FrameID)
		n := r.nodes[id]
		if !n.evictable {
			continue
		}
		if !found || n.history[0] < r.nodes[victim].history[0] {
			victim, victimElem, found = id, e, true
		}
	}
	if !found {
		return 0, false
	}
	r.fullK.Remove(victimElem)
	delete(r.fullKElem, victim)
	return victim, true
}

func (r *LRUKReplacer) recordEviction() {
	r.logger.Debug("evicted frame")
	if r.metrics != nil {
		r.metrics.IncEvictions()
		r.metrics.SetSize(r.evictableCountLocked())
	}
}

// Size returns the count of tracked frames currently evictable.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictableCountLocked()
}

func (r *LRUKReplacer) evictableCountLocked() int {
	count := 0
	for _, n := range r.nodes {
		if n.evictable {
			count++
		}
	}
	return count
}
