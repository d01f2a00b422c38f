package buffer

import (
	"github.com/nikhilrp/anchordb/core/storage/page"
)

// BasicPageGuard is a move-only handle owning one pin on a page. Go has
// no compiler-enforced move semantics, so ownership is a convention:
// callers must not copy a guard after constructing it, and must call
// Drop exactly once (or let a defer do it). Drop is idempotent so a
// double call is harmless, but a copied guard's second Drop unpins a
// page some other holder may still be relying on.
type BasicPageGuard struct {
	bpm     *BufferPoolManager
	frame   *page.Frame
	pageID  page.ID
	dirty   bool
	dropped bool
}

func newBasicGuard(bpm *BufferPoolManager, frame *page.Frame, id page.ID) *BasicPageGuard {
	return &BasicPageGuard{bpm: bpm, frame: frame, pageID: id}
}

// PageID returns the id of the page this guard owns.
func (g *BasicPageGuard) PageID() page.ID { return g.pageID }

// Data exposes the page's raw bytes. The caller is responsible for
// respecting whatever latch discipline the guard variant implies.
func (g *BasicPageGuard) Data() []byte { return g.frame.Data() }

// MarkDirty records that this guard's holder modified the page, so Drop
// latches the frame's dirty flag on when it unpins.
func (g *BasicPageGuard) MarkDirty() { g.dirty = true }

// Drop releases the pin this guard owns. Safe to call more than once.
func (g *BasicPageGuard) Drop() {
	if g == nil || g.dropped {
		return
	}
	g.dropped = true
	g.bpm.UnpinPage(g.pageID, g.dirty)
}

// ReadPageGuard additionally holds the frame's latch for reading.
type ReadPageGuard struct {
	BasicPageGuard
}

// Drop releases the read latch before releasing the pin.
func (g *ReadPageGuard) Drop() {
	if g == nil || g.dropped {
		return
	}
	g.frame.RUnlock()
	g.BasicPageGuard.Drop()
}

// WritePageGuard additionally holds the frame's latch for writing.
type WritePageGuard struct {
	BasicPageGuard
}

// Drop releases the write latch before releasing the pin.
func (g *WritePageGuard) Drop() {
	if g == nil || g.dropped {
		return
	}
	g.frame.Unlock()
	g.BasicPageGuard.Drop()
}

// NewPageGuarded allocates a fresh page and returns its id along with a
// guard holding its write latch.
func (b *BufferPoolManager) NewPageGuarded() (page.ID, *WritePageGuard, error) {
	id, frame, err := b.NewPage()
	if err != nil {
		return page.InvalidID, nil, err
	}
	frame.Lock()
	return id, &WritePageGuard{BasicPageGuard: *newBasicGuard(b, frame, id)}, nil
}

// FetchPageBasic pins id and returns an unlatched guard over it.
func (b *BufferPoolManager) FetchPageBasic(id page.ID) (*BasicPageGuard, error) {
	frame, err := b.FetchPage(id)
	if err != nil {
		return nil, err
	}
	return newBasicGuard(b, frame, id), nil
}

// FetchPageRead pins id and returns a guard holding its read latch.
func (b *BufferPoolManager) FetchPageRead(id page.ID) (*ReadPageGuard, error) {
	frame, err := b.FetchPage(id)
	if err != nil {
		return nil, err
	}
	frame.RLock()
	return &ReadPageGuard{BasicPageGuard: *newBasicGuard(b, frame, id)}, nil
}

// FetchPageWrite pins id and returns a guard holding its write latch.
func (b *BufferPoolManager) FetchPageWrite(id page.ID) (*WritePageGuard, error) {
	frame, err := b.FetchPage(id)
	if err != nil {
		return nil, err
	}
	frame.Lock()
	return &WritePageGuard{BasicPageGuard: *newBasicGuard(b, frame, id)}, nil
}
