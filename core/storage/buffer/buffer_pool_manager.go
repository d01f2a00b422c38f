// Package buffer implements the page cache that sits between the B+ tree
// index and the disk manager: it pins and unpins frames, coordinates
// eviction through an LRU-K replacer, and hands out scoped page guards.
package buffer

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nikhilrp/anchordb/core/storage/disk"
	"github.com/nikhilrp/anchordb/core/storage/page"
	"github.com/nikhilrp/anchordb/core/storage/replacer"
	loggerpkg "github.com/nikhilrp/anchordb/pkg/logger"
	"github.com/nikhilrp/anchordb/pkg/metrics"
)

// BufferPoolManager maps page ids to resident frames, enforces pin and
// dirty-flush ordering, and evicts through an LRU-K replacer when the
// pool is full.
//
// Grounded on core/write_engine/memtable/bufferpoolmanager.go: a single
// mutex over the page table, free list and frame array, disk I/O
// performed while holding it (the reference contract's simplification).
type BufferPoolManager struct {
	mu         sync.Mutex
	disk       disk.Manager
	replacer   *replacer.LRUKReplacer
	frames     []*page.Frame
	pageTable  map[page.ID]page.FrameID
	freeList   []page.FrameID
	nextPageID uint64
	logger     *zap.Logger
	metrics    *metrics.BufferPool
}

// New constructs a manager over poolSize frames, backed by disk, using
// an LRU-K replacer with history depth k.
func New(poolSize int, d disk.Manager, k int, logger *zap.Logger, reg *metrics.Registry) *BufferPoolManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	var replacerMetrics *metrics.Replacer
	var bufMetrics *metrics.BufferPool
	if reg != nil {
		replacerMetrics = reg.Replacer
		bufMetrics = reg.Buffer
	}

	frames := make([]*page.Frame, poolSize)
	freeList := make([]page.FrameID, poolSize)
	for i := 0; i < poolSize; i++ {
		frames[i] = page.New(page.FrameID(i), d.PageSize())
		freeList[i] = page.FrameID(i)
	}

	return &BufferPoolManager{
		disk:      d,
		replacer:  replacer.New(poolSize, k, loggerpkg.Component(logger, "replacer"), replacerMetrics),
		frames:    frames,
		pageTable: make(map[page.ID]page.FrameID),
		freeList:  freeList,
		logger:    logger,
		metrics:   bufMetrics,
	}
}

// victim pops a frame id from the free list, or asks the replacer to
// evict one. Caller must hold mu.
func (b *BufferPoolManager) victim() (page.FrameID, bool) {
	if n := len(b.freeList); n > 0 {
		id := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		return id, true
	}
	return b.replacer.Evict()
}

// evictInto prepares frame for reuse: flushing it if dirty and removing
// its old page-table entry. Caller must hold mu.
func (b *BufferPoolManager) evictInto(frame *page.Frame) error {
	if frame.PageID() == page.InvalidID {
		return nil
	}
	if frame.IsDirty() {
		if err := b.disk.WritePage(frame.PageID(), frame.Data()); err != nil {
			return fmt.Errorf("flushing victim page %d: %w", frame.PageID(), err)
		}
		if b.metrics != nil {
			b.metrics.IncDirtyEvictions()
		}
		b.logger.Debug("flushed dirty victim before reuse", zap.Uint64("page_id", uint64(frame.PageID())))
	}
	delete(b.pageTable, frame.PageID())
	return nil
}

// admit installs frame as the given resident page, pinned once and
// non-evictable. Caller must hold mu.
func (b *BufferPoolManager) admit(frameID page.FrameID, id page.ID) *page.Frame {
	frame := b.frames[frameID]
	frame.SetPageID(id)
	frame.Pin()
	b.pageTable[id] = frameID
	_ = b.replacer.RecordAccess(frameID)
	_ = b.replacer.SetEvictable(frameID, false)
	return frame
}

// NewPage allocates a fresh page id and pins it into a frame, returning
// ErrPoolExhausted if every frame is pinned.
func (b *BufferPoolManager) NewPage() (page.ID, *page.Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.victim()
	if !ok {
		if b.metrics != nil {
			b.metrics.IncPoolExhausted()
		}
		return page.InvalidID, nil, ErrPoolExhausted
	}
	frame := b.frames[frameID]
	if err := b.evictInto(frame); err != nil {
		return page.InvalidID, nil, err
	}

	id := page.ID(b.nextPageID)
	b.nextPageID++
	frame.Reset()
	frame = b.admit(frameID, id)
	if b.metrics != nil {
		b.metrics.RecordMiss()
	}
	b.logger.Debug("new page", zap.Uint64("page_id", uint64(id)), zap.Int32("frame_id", int32(frameID)))
	return id, frame, nil
}

// FetchPage returns the frame holding id, pinning it, reading it from
// disk first if it is not already resident.
func (b *BufferPoolManager) FetchPage(id page.ID) (*page.Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frameID, ok := b.pageTable[id]; ok {
		frame := b.frames[frameID]
		frame.Pin()
		_ = b.replacer.RecordAccess(frameID)
		_ = b.replacer.SetEvictable(frameID, false)
		if b.metrics != nil {
			b.metrics.RecordHit()
		}
		return frame, nil
	}

	frameID, ok := b.victim()
	if !ok {
		if b.metrics != nil {
			b.metrics.IncPoolExhausted()
		}
		return nil, ErrPoolExhausted
	}
	frame := b.frames[frameID]
	if err := b.evictInto(frame); err != nil {
		return nil, err
	}
	frame.Reset()
	if err := b.disk.ReadPage(id, frame.Data()); err != nil {
		return nil, fmt.Errorf("reading page %d: %w", id, err)
	}
	frame = b.admit(frameID, id)
	if b.metrics != nil {
		b.metrics.RecordMiss()
	}
	b.logger.Debug("fetched page", zap.Uint64("page_id", uint64(id)), zap.Int32("frame_id", int32(frameID)))
	return frame, nil
}

// UnpinPage decrements id's pin count, marking its frame evictable once
// the count reaches zero. isDirty, if true, latches the frame's dirty
// flag on; it never clears it. Returns false if the page is not
// resident or already unpinned.
func (b *BufferPoolManager) UnpinPage(id page.ID, isDirty bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[id]
	if !ok {
		return false
	}
	frame := b.frames[frameID]
	if frame.PinCount() == 0 {
		return false
	}
	if isDirty {
		frame.SetDirty(true)
	}
	if frame.Unpin() {
		_ = b.replacer.SetEvictable(frameID, true)
	}
	return true
}

// FlushPage writes id's frame to disk and clears its dirty flag. It does
// not affect pin count or evictability. Returns (false, nil) if the page
// is not resident.
func (b *BufferPoolManager) FlushPage(id page.ID) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked(id)
}

func (b *BufferPoolManager) flushLocked(id page.ID) (bool, error) {
	frameID, ok := b.pageTable[id]
	if !ok {
		return false, nil
	}
	frame := b.frames[frameID]
	if err := b.disk.WritePage(id, frame.Data()); err != nil {
		return false, fmt.Errorf("flushing page %d: %w", id, err)
	}
	frame.SetDirty(false)
	return true, nil
}

// FlushAllPages flushes every resident page by its actual page id, not
// by frame index — the buggy loop-index variant some revisions ship
// with flushes the wrong page whenever a page id and its current frame
// index diverge.
func (b *BufferPoolManager) FlushAllPages() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id := range b.pageTable {
		if _, err := b.flushLocked(id); err != nil {
			return err
		}
	}
	return nil
}

// DeletePage removes id from the pool, returning it to the free list.
// Returns true if the page is not resident. Returns false without
// modifying anything if the page is pinned.
func (b *BufferPoolManager) DeletePage(id page.ID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[id]
	if !ok {
		return true
	}
	frame := b.frames[frameID]
	if frame.PinCount() > 0 {
		return false
	}
	delete(b.pageTable, id)
	_ = b.replacer.Remove(frameID)
	frame.Reset()
	b.freeList = append(b.freeList, frameID)
	b.logger.Debug("deleted page", zap.Uint64("page_id", uint64(id)))
	return true
}

// PageSize returns the fixed page size backing this pool.
func (b *BufferPoolManager) PageSize() int { return b.disk.PageSize() }
